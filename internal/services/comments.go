package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/anonto42/nano-blog/backend/internal/events"
	"github.com/anonto42/nano-blog/backend/internal/metrics"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/pkg/paginator"
	"go.uber.org/zap"
)

// DefaultCommentsPerPage is the thread page size
const DefaultCommentsPerPage = 10

const maxCommentLength = 5000

// ThreadPage is one page of a post's top-level comments with their replies
type ThreadPage struct {
	Page     paginator.Page        `json:"page"`
	Comments []*models.CommentNode `json:"comments"`
	// TargetID is the deep-linked comment, when it was found on this post
	TargetID *uint `json:"target_comment_id,omitempty"`
}

// CommentService manages comment threads
type CommentService struct {
	comments  repositories.CommentRepository
	posts     repositories.PostRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	perPage   int
}

func NewCommentService(comments repositories.CommentRepository, posts repositories.PostRepository, publisher events.Publisher, m *metrics.Metrics, logger *zap.Logger, perPage int) *CommentService {
	if perPage < 1 {
		perPage = DefaultCommentsPerPage
	}
	return &CommentService{
		comments:  comments,
		posts:     posts,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		perPage:   perPage,
	}
}

// Thread returns the requested page of the post's thread. A valid rawCommentID
// overrides rawPage with the page holding that comment's root; malformed or
// unknown ids are ignored.
func (s *CommentService) Thread(ctx context.Context, post *models.Post, rawPage, rawCommentID string) (*ThreadPage, error) {
	ids, err := s.comments.TopLevelIDs(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	total := int64(len(ids))

	page := paginator.Get(rawPage, total, s.perPage)
	var target *uint
	if rawCommentID != "" {
		if id, position, ok := s.locate(ctx, post.ID, rawCommentID, ids); ok {
			page = paginator.At(paginator.PageOf(position, s.perPage), total, s.perPage)
			target = &id
		}
	}

	top, _, err := s.comments.ListTopLevel(ctx, post.ID, page.Offset(), page.Size)
	if err != nil {
		return nil, err
	}
	nodes, err := s.buildTree(ctx, top)
	if err != nil {
		return nil, err
	}
	return &ThreadPage{Page: page, Comments: nodes, TargetID: target}, nil
}

// locate finds the position of the target's root among the top-level ids
func (s *CommentService) locate(ctx context.Context, postID uint, raw string, topLevel []uint) (uint, int, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, 0, false
	}
	target := uint(n)

	comment, err := s.comments.GetCommentByID(ctx, target)
	if err != nil || comment.PostID != postID {
		return 0, 0, false
	}

	seen := map[uint]bool{comment.ID: true}
	for comment.ParentID != nil {
		parent, err := s.comments.GetCommentByID(ctx, *comment.ParentID)
		if err != nil || seen[parent.ID] {
			return 0, 0, false
		}
		seen[parent.ID] = true
		comment = parent
	}

	for i, id := range topLevel {
		if id == comment.ID {
			return target, i, true
		}
	}
	return 0, 0, false
}

// buildTree attaches replies to the given top-level comments one depth level
// at a time
func (s *CommentService) buildTree(ctx context.Context, top []models.Comment) ([]*models.CommentNode, error) {
	roots := make([]*models.CommentNode, 0, len(top))
	level := make(map[uint]*models.CommentNode, len(top))
	for _, c := range top {
		node := &models.CommentNode{CommentView: models.NewCommentView(c), Replies: []*models.CommentNode{}}
		roots = append(roots, node)
		level[c.ID] = node
	}

	visited := make(map[uint]bool)
	for len(level) > 0 {
		parentIDs := make([]uint, 0, len(level))
		for id := range level {
			parentIDs = append(parentIDs, id)
			visited[id] = true
		}
		replies, err := s.comments.RepliesByParentIDs(ctx, parentIDs)
		if err != nil {
			return nil, err
		}

		next := make(map[uint]*models.CommentNode)
		for parentID, children := range replies {
			parent := level[parentID]
			if parent == nil {
				continue
			}
			for _, child := range children {
				if visited[child.ID] {
					continue
				}
				node := &models.CommentNode{CommentView: models.NewCommentView(child), Replies: []*models.CommentNode{}}
				parent.Replies = append(parent.Replies, node)
				next[child.ID] = node
			}
			parent.ReplyCount = len(parent.Replies)
		}
		level = next
	}
	return roots, nil
}

// Replies returns the direct active replies of a comment, oldest first
func (s *CommentService) Replies(ctx context.Context, commentID uint) ([]models.CommentView, error) {
	if _, err := s.comments.GetCommentByID(ctx, commentID); err != nil {
		return nil, notFound(err)
	}
	replies, err := s.comments.ListReplies(ctx, commentID)
	if err != nil {
		return nil, err
	}
	views := make([]models.CommentView, 0, len(replies))
	for _, r := range replies {
		views = append(views, models.NewCommentView(r))
	}
	return views, nil
}

// Create adds a comment to the post. A reply to someone else's comment
// notifies that comment's author; the comment and the notification are
// stored together.
func (s *CommentService) Create(ctx context.Context, actor *Actor, post *models.Post, req models.CreateCommentRequest) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, invalid("body", "This field is required.")
	}
	if len([]rune(body)) > maxCommentLength {
		return nil, invalid("body", "Ensure this value has at most 5000 characters.")
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: actor.ID,
		Body:     body,
		Active:   true,
	}

	var notification *models.Notification
	if raw := strings.TrimSpace(req.ParentID); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, ErrNotFound
		}
		parent, err := s.comments.GetCommentByID(ctx, uint(n))
		if err != nil {
			return nil, notFound(err)
		}
		if parent.PostID != post.ID {
			return nil, ErrNotFound
		}
		comment.ParentID = &parent.ID
		if parent.AuthorID != actor.ID {
			notification = &models.Notification{
				RecipientID: parent.AuthorID,
				SenderID:    actor.ID,
				PostID:      &post.ID,
				Verb:        models.ReplyVerb(post.Title),
			}
		}
	}

	if err := s.comments.CreateComment(ctx, comment, notification); err != nil {
		s.logger.Error("Failed to create comment", zap.Uint("post_id", post.ID), zap.Uint("user_id", actor.ID), zap.Error(err))
		return nil, notFound(err)
	}
	comment.Author = &models.User{ID: actor.ID, Username: actor.Username}

	s.metrics.CommentCreated(comment.ParentID != nil)
	if notification != nil {
		s.metrics.NotificationCreated("reply")
		publish(ctx, s.publisher, s.logger, events.NotificationCreated, notification)
	}
	return comment, nil
}

// CanDelete reports whether the actor may delete the comment: its author and
// the post's author may.
func (s *CommentService) CanDelete(ctx context.Context, actor *Actor, commentID uint) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return notFound(err)
	}
	if comment.AuthorID == actor.ID {
		return nil
	}
	post, err := s.posts.GetPostByID(ctx, comment.PostID)
	if err != nil {
		return notFound(err)
	}
	if post.AuthorID != actor.ID {
		return ErrForbidden
	}
	return nil
}

// Delete removes a comment and its replies. Only the comment's author or the
// author of the post it belongs to may do so.
func (s *CommentService) Delete(ctx context.Context, actor *Actor, commentID uint) error {
	if err := s.CanDelete(ctx, actor, commentID); err != nil {
		return err
	}
	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		return notFound(err)
	}
	s.logger.Info("Comment deleted", zap.Uint("comment_id", commentID), zap.Uint("user_id", actor.ID))
	return nil
}

// publish sends an event without failing the request
func publish(ctx context.Context, p events.Publisher, logger *zap.Logger, eventType string, payload interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, eventType, payload); err != nil {
		logger.Warn("Failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
