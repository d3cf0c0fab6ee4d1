package memory

import (
	"context"
	"sort"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

func (s *Store) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = s.nextID()
	msg.Timestamp = s.stamp(msg.Timestamp)
	s.contacts[msg.ID] = ptr(*msg)
	return nil
}

func (s *Store) ListContactMessages(ctx context.Context) ([]models.ContactMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ContactMessage, 0, len(s.contacts))
	for _, m := range s.contacts {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].Timestamp, out[j].Timestamp, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *Store) ToggleContactMessageRead(ctx context.Context, id uint) (*models.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.contacts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	m.IsRead = !m.IsRead
	return ptr(*m), nil
}

func (s *Store) DeleteContactMessage(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contacts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.contacts, id)
	return nil
}
