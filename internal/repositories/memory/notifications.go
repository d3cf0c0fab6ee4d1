package memory

import (
	"context"
	"sort"

	"github.com/anonto42/nano-blog/backend/internal/models"
)

// insertNotification stores a copy. Callers hold the write lock.
func (s *Store) insertNotification(n *models.Notification) {
	n.ID = s.nextID()
	n.Timestamp = s.stamp(n.Timestamp)
	stored := *n
	stored.Recipient, stored.Sender, stored.Comment, stored.Post = nil, nil, nil, nil
	s.notifications[n.ID] = &stored
}

func (s *Store) CreateNotification(ctx context.Context, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertNotification(notification)
	return nil
}

func (s *Store) ListForRecipient(ctx context.Context, recipientID uint, limit int) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Notification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			cp := *n
			cp.Sender = s.userCopy(n.SenderID)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].Timestamp, out[j].Timestamp, out[i].ID, out[j].ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetUnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, n := range s.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkAllAsRead(ctx context.Context, recipientID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed int64
	for _, n := range s.notifications {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}
