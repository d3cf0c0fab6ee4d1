package services

import (
	"context"
	"strings"

	"github.com/anonto42/nano-blog/backend/internal/events"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/pkg/mailer"
	"go.uber.org/zap"
)

// ContactSuccessMessage is shown after a message was stored
const ContactSuccessMessage = "Your message has been sent successfully! We will get back to you soon."

// ContactService stores contact form messages and alerts staff
type ContactService struct {
	contacts   repositories.ContactRepository
	users      repositories.UserRepository
	mail       mailer.Sender
	staffEmail string
	publisher  events.Publisher
	logger     *zap.Logger
}

// NewContactService wires the service; mail may be nil when SMTP is not
// configured
func NewContactService(contacts repositories.ContactRepository, users repositories.UserRepository, mail mailer.Sender, staffEmail string, publisher events.Publisher, logger *zap.Logger) *ContactService {
	return &ContactService{
		contacts:   contacts,
		users:      users,
		mail:       mail,
		staffEmail: staffEmail,
		publisher:  publisher,
		logger:     logger,
	}
}

// Submit stores the message. Staff alerts are best effort and never fail the
// submission.
func (s *ContactService) Submit(ctx context.Context, req models.ContactRequest) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Message: strings.TrimSpace(req.Message),
	}
	v := &ValidationError{}
	if msg.Name == "" {
		v.Add("name", "This field is required.")
	}
	if msg.Email == "" {
		v.Add("email", "This field is required.")
	}
	if msg.Message == "" {
		v.Add("message", "This field is required.")
	}
	if len(v.Fields) > 0 {
		return nil, v
	}

	if err := s.contacts.CreateContactMessage(ctx, msg); err != nil {
		s.logger.Error("Failed to store contact message", zap.Error(err))
		return nil, err
	}

	s.notifyStaff(ctx, msg)
	publish(ctx, s.publisher, s.logger, events.ContactReceived, map[string]interface{}{
		"contact_id": msg.ID,
		"email":      msg.Email,
	})
	return msg, nil
}

func (s *ContactService) notifyStaff(ctx context.Context, msg *models.ContactMessage) {
	if s.mail == nil {
		return
	}
	recipients, err := s.users.ListStaffEmails(ctx)
	if err != nil {
		s.logger.Warn("Failed to list staff emails", zap.Error(err))
	}
	if s.staffEmail != "" {
		recipients = append(recipients, s.staffEmail)
	}
	recipients = dedupe(recipients)
	if len(recipients) == 0 {
		return
	}

	body := mailer.ContactMessageHTML(msg.Name, msg.Email, msg.Message, msg.Timestamp)
	if err := s.mail.Send(recipients, "New contact message from "+msg.Name, body); err != nil {
		s.logger.Warn("Failed to email staff about contact message", zap.Uint("contact_id", msg.ID), zap.Error(err))
	}
}

func dedupe(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := emails[:0]
	for _, e := range emails {
		key := strings.ToLower(strings.TrimSpace(e))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

func (s *ContactService) List(ctx context.Context) ([]models.ContactMessage, error) {
	list, err := s.contacts.ListContactMessages(ctx)
	if list == nil && err == nil {
		list = []models.ContactMessage{}
	}
	return list, err
}

func (s *ContactService) ToggleRead(ctx context.Context, id uint) (*models.ContactMessage, error) {
	msg, err := s.contacts.ToggleContactMessageRead(ctx, id)
	return msg, notFound(err)
}

func (s *ContactService) Delete(ctx context.Context, id uint) error {
	return notFound(s.contacts.DeleteContactMessage(ctx, id))
}
