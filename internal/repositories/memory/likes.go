package memory

import (
	"context"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

func (s *Store) TogglePostLike(ctx context.Context, postID, userID uint, notification *models.Notification) (models.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return models.LikeResult{}, repositories.ErrNotFound
	}
	set := s.postLikes[postID]
	if set == nil {
		set = make(map[uint]struct{})
		s.postLikes[postID] = set
	}

	if _, liked := set[userID]; liked {
		delete(set, userID)
		if p.Likes > 0 {
			p.Likes--
		}
		return models.LikeResult{Likes: p.Likes, Liked: false}, nil
	}

	set[userID] = struct{}{}
	p.Likes++
	if notification != nil {
		notification.PostID = ptr(postID)
		s.insertNotification(notification)
	}
	return models.LikeResult{Likes: p.Likes, Liked: true}, nil
}

func (s *Store) ToggleCommentLike(ctx context.Context, commentID, userID uint) (models.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok {
		return models.LikeResult{}, repositories.ErrNotFound
	}
	set := s.commentLikes[commentID]
	if set == nil {
		set = make(map[uint]struct{})
		s.commentLikes[commentID] = set
	}

	if _, liked := set[userID]; liked {
		delete(set, userID)
		if c.Likes > 0 {
			c.Likes--
		}
		return models.LikeResult{Likes: c.Likes, Liked: false}, nil
	}
	set[userID] = struct{}{}
	c.Likes++
	return models.LikeResult{Likes: c.Likes, Liked: true}, nil
}

func (s *Store) HasLikedPost(ctx context.Context, postID, userID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.postLikes[postID][userID]
	return ok, nil
}

func (s *Store) LikedCommentIDs(ctx context.Context, userID uint, commentIDs []uint) ([]uint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []uint
	for _, id := range commentIDs {
		if _, ok := s.commentLikes[id][userID]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// PostLikeCount returns the size of a post's liked-by set
func (s *Store) PostLikeCount(postID uint) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.postLikes[postID])
}

// CommentLikeCount returns the size of a comment's liked-by set
func (s *Store) CommentLikeCount(commentID uint) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.commentLikes[commentID])
}
