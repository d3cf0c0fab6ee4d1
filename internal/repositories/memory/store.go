// Package memory keeps every repository in process memory. It backs tests and
// the STORAGE=memory mode.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

var (
	_ repositories.UserRepository         = (*Store)(nil)
	_ repositories.PostRepository         = (*Store)(nil)
	_ repositories.CommentRepository      = (*Store)(nil)
	_ repositories.LikeRepository         = (*Store)(nil)
	_ repositories.NotificationRepository = (*Store)(nil)
	_ repositories.ContactRepository      = (*Store)(nil)
	_ repositories.AnnouncementRepository = (*Store)(nil)
)

// Store implements all repositories behind a single lock, so every method is
// atomic with respect to the others.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time
	seq uint

	users    map[uint]*models.User
	profiles map[uint]*models.Profile // by user id

	posts     map[uint]*models.Post
	tags      map[uint]*models.Tag
	postTags  map[uint][]uint // post id -> tag ids
	postLikes map[uint]map[uint]struct{}

	comments         map[uint]*models.Comment
	commentsByPost   map[uint][]uint // top-level only
	commentsByParent map[uint][]uint
	commentLikes     map[uint]map[uint]struct{}

	notifications map[uint]*models.Notification
	contacts      map[uint]*models.ContactMessage
	announcements map[uint]*models.Announcement
}

// New creates an empty store
func New() *Store {
	return &Store{
		now:              time.Now,
		users:            make(map[uint]*models.User),
		profiles:         make(map[uint]*models.Profile),
		posts:            make(map[uint]*models.Post),
		tags:             make(map[uint]*models.Tag),
		postTags:         make(map[uint][]uint),
		postLikes:        make(map[uint]map[uint]struct{}),
		comments:         make(map[uint]*models.Comment),
		commentsByPost:   make(map[uint][]uint),
		commentsByParent: make(map[uint][]uint),
		commentLikes:     make(map[uint]map[uint]struct{}),
		notifications:    make(map[uint]*models.Notification),
		contacts:         make(map[uint]*models.ContactMessage),
		announcements:    make(map[uint]*models.Announcement),
	}
}

// SetClock replaces the time source used for created timestamps
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// nextID hands out ids from one sequence shared by all tables. Callers hold
// the write lock.
func (s *Store) nextID() uint {
	s.seq++
	return s.seq
}

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t
}

func ptr[T any](v T) *T {
	return &v
}

// userCopy returns a detached copy of a user with its profile attached
func (s *Store) userCopy(id uint) *models.User {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	cp := *u
	if p, ok := s.profiles[id]; ok {
		cp.Profile = ptr(*p)
	}
	return &cp
}

func (s *Store) postCopy(p *models.Post) models.Post {
	cp := *p
	cp.Author = s.userCopy(p.AuthorID)
	cp.Tags = make([]models.Tag, 0, len(s.postTags[p.ID]))
	for _, tid := range s.postTags[p.ID] {
		cp.Tags = append(cp.Tags, *s.tags[tid])
	}
	return cp
}

func (s *Store) commentCopy(c *models.Comment) models.Comment {
	cp := *c
	if c.ParentID != nil {
		cp.ParentID = ptr(*c.ParentID)
	}
	cp.Author = s.userCopy(c.AuthorID)
	cp.Post = nil
	cp.Parent = nil
	return cp
}

func sortComments(list []models.Comment) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

func newestFirst(a, b time.Time, idA, idB uint) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return idA > idB
}
