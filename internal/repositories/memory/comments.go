package memory

import (
	"context"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[comment.PostID]; !ok {
		return repositories.ErrNotFound
	}
	if comment.ParentID != nil {
		if _, ok := s.comments[*comment.ParentID]; !ok {
			return repositories.ErrNotFound
		}
	}

	comment.ID = s.nextID()
	comment.CreatedAt = s.stamp(comment.CreatedAt)
	stored := s.commentCopy(comment)
	stored.Author = nil
	s.comments[comment.ID] = &stored

	if comment.ParentID == nil {
		s.commentsByPost[comment.PostID] = append(s.commentsByPost[comment.PostID], comment.ID)
	} else {
		s.commentsByParent[*comment.ParentID] = append(s.commentsByParent[*comment.ParentID], comment.ID)
	}

	if notification != nil {
		notification.CommentID = ptr(comment.ID)
		s.insertNotification(notification)
	}
	return nil
}

func (s *Store) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := s.commentCopy(c)
	return &cp, nil
}

// activeCopies resolves ids to active comments in display order
func (s *Store) activeCopies(ids []uint) []models.Comment {
	out := make([]models.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok && c.Active {
			out = append(out, s.commentCopy(c))
		}
	}
	sortComments(out)
	return out
}

func (s *Store) ListTopLevel(ctx context.Context, postID uint, offset, limit int) ([]models.Comment, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.activeCopies(s.commentsByPost[postID])
	total := int64(len(all))
	if offset >= len(all) {
		return []models.Comment{}, total, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (s *Store) TopLevelIDs(ctx context.Context, postID uint) ([]uint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.activeCopies(s.commentsByPost[postID])
	ids := make([]uint, 0, len(all))
	for _, c := range all {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (s *Store) ListReplies(ctx context.Context, parentID uint) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.activeCopies(s.commentsByParent[parentID]), nil
}

func (s *Store) RepliesByParentIDs(ctx context.Context, parentIDs []uint) (map[uint][]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[uint][]models.Comment, len(parentIDs))
	for _, pid := range parentIDs {
		if replies := s.activeCopies(s.commentsByParent[pid]); len(replies) > 0 {
			result[pid] = replies
		}
	}
	return result, nil
}

func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	s.removeComment(id)
	return nil
}

// SetCommentActive hides or shows a comment, the way moderation does
func (s *Store) SetCommentActive(id uint, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.comments[id]; ok {
		c.Active = active
	}
}

// removeComment drops a comment, its replies and everything referencing
// them. Callers hold the write lock.
func (s *Store) removeComment(id uint) {
	c, ok := s.comments[id]
	if !ok {
		return
	}
	children := append([]uint(nil), s.commentsByParent[id]...)
	for _, child := range children {
		s.removeComment(child)
	}
	delete(s.commentsByParent, id)

	for nid, n := range s.notifications {
		if n.CommentID != nil && *n.CommentID == id {
			delete(s.notifications, nid)
		}
	}
	delete(s.commentLikes, id)
	delete(s.comments, id)

	if c.ParentID == nil {
		s.commentsByPost[c.PostID] = without(s.commentsByPost[c.PostID], id)
	} else {
		s.commentsByParent[*c.ParentID] = without(s.commentsByParent[*c.ParentID], id)
	}
}

func without(ids []uint, id uint) []uint {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
