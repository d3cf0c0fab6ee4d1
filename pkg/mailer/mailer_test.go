package mailer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContactMessageHTML_Escapes(t *testing.T) {
	at := time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)
	out := ContactMessageHTML("<Bob>", "bob@example.com", "hi\nthere <script>", at)

	assert.Contains(t, out, "&lt;Bob&gt;")
	assert.Contains(t, out, "hi<br>there &lt;script&gt;")
	assert.Contains(t, out, "May. 01, 2024, 02:30 PM")
}

func TestSMTPSender_NoRecipients(t *testing.T) {
	s := NewSMTPSender("localhost", 25, "", "", "noreply@localhost")
	assert.NoError(t, s.Send(nil, "subject", "body"))
}
