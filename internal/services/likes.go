package services

import (
	"context"

	"github.com/anonto42/nano-blog/backend/internal/events"
	"github.com/anonto42/nano-blog/backend/internal/metrics"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"go.uber.org/zap"
)

// LikeService flips likes on posts and comments
type LikeService struct {
	likes     repositories.LikeRepository
	posts     repositories.PostRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewLikeService(likes repositories.LikeRepository, posts repositories.PostRepository, publisher events.Publisher, m *metrics.Metrics, logger *zap.Logger) *LikeService {
	return &LikeService{
		likes:     likes,
		posts:     posts,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// TogglePost likes or unlikes the post. Liking someone else's post notifies
// its author.
func (s *LikeService) TogglePost(ctx context.Context, actor *Actor, slug string) (models.LikeResult, error) {
	if actor == nil {
		return models.LikeResult{}, ErrUnauthenticated
	}
	post, err := s.posts.GetPostBySlug(ctx, slug)
	if err != nil {
		return models.LikeResult{}, notFound(err)
	}

	var notification *models.Notification
	if post.AuthorID != actor.ID {
		notification = &models.Notification{
			RecipientID: post.AuthorID,
			SenderID:    actor.ID,
			Verb:        models.PostLikeVerb(post.Title),
		}
	}

	result, err := s.likes.TogglePostLike(ctx, post.ID, actor.ID, notification)
	if err != nil {
		s.logger.Error("Failed to toggle post like", zap.Uint("post_id", post.ID), zap.Uint("user_id", actor.ID), zap.Error(err))
		return models.LikeResult{}, notFound(err)
	}

	s.metrics.LikeToggled("post", result.Liked)
	if result.Liked && notification != nil && notification.ID != 0 {
		s.metrics.NotificationCreated("post_like")
		publish(ctx, s.publisher, s.logger, events.NotificationCreated, notification)
	}
	return result, nil
}

// ToggleComment likes or unlikes a comment; comment likes never notify
func (s *LikeService) ToggleComment(ctx context.Context, actor *Actor, commentID uint) (models.LikeResult, error) {
	if actor == nil {
		return models.LikeResult{}, ErrUnauthenticated
	}
	result, err := s.likes.ToggleCommentLike(ctx, commentID, actor.ID)
	if err != nil {
		return models.LikeResult{}, notFound(err)
	}
	s.metrics.LikeToggled("comment", result.Liked)
	return result, nil
}

// HasLikedPost is false for anonymous visitors
func (s *LikeService) HasLikedPost(ctx context.Context, actor *Actor, postID uint) (bool, error) {
	if actor == nil {
		return false, nil
	}
	return s.likes.HasLikedPost(ctx, postID, actor.ID)
}

// LikedComments returns the ids among the thread's comments the actor liked
func (s *LikeService) LikedComments(ctx context.Context, actor *Actor, thread *ThreadPage) ([]uint, error) {
	if actor == nil || thread == nil {
		return []uint{}, nil
	}
	var ids []uint
	var walk func(nodes []*models.CommentNode)
	walk = func(nodes []*models.CommentNode) {
		for _, n := range nodes {
			ids = append(ids, n.ID)
			walk(n.Replies)
		}
	}
	walk(thread.Comments)

	liked, err := s.likes.LikedCommentIDs(ctx, actor.ID, ids)
	if err != nil {
		return nil, err
	}
	if liked == nil {
		liked = []uint{}
	}
	return liked, nil
}
