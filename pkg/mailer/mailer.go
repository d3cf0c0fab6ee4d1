// Package mailer sends plain notification emails over SMTP.
package mailer

import (
	"crypto/tls"
	"fmt"
	"html"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

// Sender delivers one message to a set of recipients
type Sender interface {
	Send(to []string, subject, htmlBody string) error
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	d := gomail.NewDialer(host, port, username, password)
	d.TLSConfig = &tls.Config{ServerName: host}
	return &SMTPSender{dialer: d, from: from}
}

func (s *SMTPSender) Send(to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return s.dialer.DialAndSend(m)
}

// ContactMessageHTML renders the staff alert for a new contact message
func ContactMessageHTML(name, email, message string, at time.Time) string {
	body := strings.ReplaceAll(html.EscapeString(message), "\n", "<br>")
	return fmt.Sprintf(
		`<p>New contact message from <b>%s</b> &lt;%s&gt; at %s:</p><blockquote>%s</blockquote>`,
		html.EscapeString(name), html.EscapeString(email), at.Format("Jan. 02, 2006, 03:04 PM"), body,
	)
}
