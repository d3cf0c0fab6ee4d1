package services

import (
	"context"
	"errors"
	"testing"

	"github.com/anonto42/nano-blog/backend/internal/events"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMail struct {
	to      []string
	subject string
	body    string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(to []string, subject, body string) error {
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return f.err
}

func TestContactService_Submit(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.CreateUser(ctx, &models.User{Username: "admin", Email: "admin@example.com", IsStaff: true}))
	require.NoError(t, store.CreateUser(ctx, &models.User{Username: "joe", Email: "joe@example.com"}))

	mail := &fakeSender{}
	rec := &events.Recorder{}
	svc := NewContactService(store, store, mail, "ADMIN@example.com", rec, zap.NewNop())

	_, err := svc.Submit(ctx, models.ContactRequest{Name: "Ann", Email: "ann@example.com", Message: "   "})
	v, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Fields, "message")
	assert.Empty(t, mail.sent)

	msg, err := svc.Submit(ctx, models.ContactRequest{Name: "Ann", Email: "ann@example.com", Message: "Hello <there>"})
	require.NoError(t, err)
	assert.False(t, msg.IsRead)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, []string{"admin@example.com"}, mail.sent[0].to)
	assert.Contains(t, mail.sent[0].body, "Hello &lt;there&gt;")
	assert.Len(t, rec.Events(events.ContactReceived), 1)

	toggled, err := svc.ToggleRead(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsRead)
	toggled, err = svc.ToggleRead(ctx, msg.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsRead)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, msg.ID))
	assert.ErrorIs(t, svc.Delete(ctx, msg.ID), ErrNotFound)
	_, err = svc.ToggleRead(ctx, msg.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContactService_MailFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mail := &fakeSender{err: errors.New("smtp down")}
	svc := NewContactService(store, store, mail, "staff@example.com", nil, zap.NewNop())

	_, err := svc.Submit(ctx, models.ContactRequest{Name: "Ann", Email: "ann@example.com", Message: "Hi"})
	require.NoError(t, err)
	assert.Len(t, mail.sent, 1)

	noMail := NewContactService(store, store, nil, "", nil, zap.NewNop())
	_, err = noMail.Submit(ctx, models.ContactRequest{Name: "Bob", Email: "bob@example.com", Message: "Hi"})
	require.NoError(t, err)
}
