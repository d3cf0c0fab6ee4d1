package memory

import (
	"context"
	"sort"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

func (s *Store) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.nextID()
	a.CreatedAt = s.stamp(a.CreatedAt)
	if a.Level == "" {
		a.Level = models.LevelInfo
	}
	s.announcements[a.ID] = ptr(*a)
	return nil
}

func (s *Store) UpdateAnnouncement(ctx context.Context, a *models.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.announcements[a.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.Content = a.Content
	stored.Level = a.Level
	stored.Link = a.Link
	stored.IsActive = a.IsActive
	return nil
}

func (s *Store) DeleteAnnouncement(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.announcements[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.announcements, id)
	return nil
}

func (s *Store) GetAnnouncementByID(ctx context.Context, id uint) (*models.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.announcements[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return ptr(*a), nil
}

func (s *Store) listAnnouncements(activeOnly bool) []models.Announcement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Announcement, 0, len(s.announcements))
	for _, a := range s.announcements {
		if !activeOnly || a.IsActive {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

func (s *Store) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	return s.listAnnouncements(false), nil
}

func (s *Store) ListActiveAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	return s.listAnnouncements(true), nil
}

func (s *Store) SetAnnouncementsActive(ctx context.Context, ids []uint, active bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed int64
	for _, id := range ids {
		if a, ok := s.announcements[id]; ok {
			a.IsActive = active
			changed++
		}
	}
	return changed, nil
}
