package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) && user.Email != "" {
			return repositories.ErrDuplicate
		}
		if user.FirebaseUID != nil && u.FirebaseUID != nil && *u.FirebaseUID == *user.FirebaseUID {
			return repositories.ErrDuplicate
		}
	}

	user.ID = s.nextID()
	user.CreatedAt = s.stamp(user.CreatedAt)
	profile := &models.Profile{ID: s.nextID(), UserID: user.ID, Avatar: models.DefaultAvatar}
	if user.Profile != nil {
		profile.Bio = user.Profile.Bio
		if user.Profile.Avatar != "" {
			profile.Avatar = user.Profile.Avatar
		}
	}

	stored := *user
	stored.Profile = nil
	s.users[user.ID] = &stored
	s.profiles[user.ID] = profile
	user.Profile = ptr(*profile)
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u := s.userCopy(id); u != nil {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *Store) findUser(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, u := range s.users {
		if match(u) {
			return s.userCopy(id), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Username == username })
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *Store) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == firebaseUID })
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	for id, u := range s.users {
		if id == user.ID {
			continue
		}
		if u.Username == user.Username || user.Email != "" && strings.EqualFold(u.Email, user.Email) {
			return repositories.ErrDuplicate
		}
	}

	stored := *user
	stored.Profile = nil
	s.users[user.ID] = &stored
	if user.Profile != nil {
		p := *user.Profile
		p.UserID = user.ID
		if existing, ok := s.profiles[user.ID]; ok {
			p.ID = existing.ID
		} else if p.ID == 0 {
			p.ID = s.nextID()
		}
		s.profiles[user.ID] = &p
	}
	return nil
}

func (s *Store) GetOrCreateProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.profiles[userID]; ok {
		return ptr(*p), nil
	}
	if _, ok := s.users[userID]; !ok {
		return nil, repositories.ErrNotFound
	}
	p := &models.Profile{ID: s.nextID(), UserID: userID, Avatar: models.DefaultAvatar}
	s.profiles[userID] = p
	return ptr(*p), nil
}

// DropProfile deletes a user's profile row, leaving the user in place
func (s *Store) DropProfile(userID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
}

func (s *Store) GetUserStats(ctx context.Context, userID uint) (models.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats models.UserStats
	for _, p := range s.posts {
		if p.AuthorID == userID {
			stats.TotalPosts++
			stats.TotalLikesReceived += int64(p.Likes)
		}
	}
	for _, c := range s.comments {
		if c.AuthorID == userID {
			stats.TotalCommentsMade++
		}
	}
	return stats, nil
}

func (s *Store) ListStaffEmails(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emails []string
	for _, u := range s.users {
		if u.IsStaff && u.Email != "" {
			emails = append(emails, u.Email)
		}
	}
	sort.Strings(emails)
	return emails, nil
}
