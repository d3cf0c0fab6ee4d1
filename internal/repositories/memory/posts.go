package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.posts {
		if p.Slug == post.Slug {
			return repositories.ErrDuplicate
		}
	}
	if _, ok := s.users[post.AuthorID]; !ok {
		return repositories.ErrNotFound
	}

	post.ID = s.nextID()
	post.CreatedAt = s.stamp(post.CreatedAt)
	tagIDs := s.resolveTags(post.Tags)

	stored := *post
	stored.Author = nil
	stored.Tags = nil
	s.posts[post.ID] = &stored
	s.postTags[post.ID] = tagIDs
	post.Tags = s.postCopy(&stored).Tags
	return nil
}

func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.posts[post.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.Title = post.Title
	stored.Content = post.Content
	stored.Attachment = post.Attachment
	s.postTags[post.ID] = s.resolveTags(post.Tags)
	post.Tags = s.postCopy(stored).Tags
	return nil
}

// resolveTags finds or creates tags by slug. Callers hold the write lock.
func (s *Store) resolveTags(wanted []models.Tag) []uint {
	ids := make([]uint, 0, len(wanted))
	for _, w := range wanted {
		var found uint
		for id, t := range s.tags {
			if t.Slug == w.Slug {
				found = id
				break
			}
		}
		if found == 0 {
			found = s.nextID()
			s.tags[found] = &models.Tag{ID: found, Name: w.Name, Slug: w.Slug}
		}
		ids = append(ids, found)
	}
	return ids
}

func (s *Store) DeletePost(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	for cid, c := range s.comments {
		if c.PostID == id {
			s.removeComment(cid)
		}
	}
	for nid, n := range s.notifications {
		if n.PostID != nil && *n.PostID == id {
			delete(s.notifications, nid)
		}
	}
	delete(s.commentsByPost, id)
	delete(s.postLikes, id)
	delete(s.postTags, id)
	delete(s.posts, id)
	return nil
}

func (s *Store) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := s.postCopy(p)
	return &cp, nil
}

func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.posts {
		if p.Slug == slug {
			cp := s.postCopy(p)
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.posts {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) matches(p *models.Post, f repositories.PostFilter) bool {
	if f.AuthorID != 0 && p.AuthorID != f.AuthorID {
		return false
	}
	if f.ExcludeID != 0 && p.ID == f.ExcludeID {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(p.Title), q) && !strings.Contains(strings.ToLower(p.Content), q) {
			return false
		}
	}
	if f.TagSlug != "" {
		found := false
		for _, tid := range s.postTags[p.ID] {
			if s.tags[tid].Slug == f.TagSlug {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *Store) ListPosts(ctx context.Context, filter repositories.PostFilter, offset, limit int) ([]models.Post, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*models.Post
	for _, p := range s.posts {
		if s.matches(p, filter) {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return newestFirst(all[i].CreatedAt, all[j].CreatedAt, all[i].ID, all[j].ID)
	})

	total := int64(len(all))
	if offset >= len(all) {
		return []models.Post{}, total, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]models.Post, 0, end-offset)
	for _, p := range all[offset:end] {
		out = append(out, s.postCopy(p))
	}
	return out, total, nil
}

func (s *Store) GetFeaturedPost(ctx context.Context, since time.Time) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *models.Post
	for _, p := range s.posts {
		if p.CreatedAt.Before(since) {
			continue
		}
		if best == nil || p.Likes > best.Likes ||
			p.Likes == best.Likes && newestFirst(p.CreatedAt, best.CreatedAt, p.ID, best.ID) {
			best = p
		}
	}
	if best == nil {
		return nil, repositories.ErrNotFound
	}
	cp := s.postCopy(best)
	return &cp, nil
}

func (s *Store) GetRelatedPosts(ctx context.Context, post *models.Post, limit int) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[uint]bool, len(post.Tags))
	for _, t := range post.Tags {
		wanted[t.ID] = true
	}

	type ranked struct {
		post   *models.Post
		shared int
	}
	var candidates []ranked
	for _, p := range s.posts {
		if p.ID == post.ID {
			continue
		}
		shared := 0
		for _, tid := range s.postTags[p.ID] {
			if wanted[tid] {
				shared++
			}
		}
		if shared > 0 {
			candidates = append(candidates, ranked{p, shared})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].shared != candidates[j].shared {
			return candidates[i].shared > candidates[j].shared
		}
		a, b := candidates[i].post, candidates[j].post
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]models.Post, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, s.postCopy(c.post))
	}
	return out, nil
}

func (s *Store) IncrementViews(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Viewer++
	return nil
}

func (s *Store) GetTagBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tags {
		if t.Slug == slug {
			return ptr(*t), nil
		}
	}
	return nil, repositories.ErrNotFound
}
