package repositories

import (
	"context"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations.
// Listings only return active comments, oldest first.
type CommentRepository interface {
	// CreateComment inserts the comment and, when non-nil, the notification
	// announcing it, in one transaction. notification.CommentID is filled in.
	CreateComment(ctx context.Context, comment *models.Comment, notification *models.Notification) error
	GetCommentByID(ctx context.Context, id uint) (*models.Comment, error)
	ListTopLevel(ctx context.Context, postID uint, offset, limit int) ([]models.Comment, int64, error)
	// TopLevelIDs returns the ids of active top-level comments in display order
	TopLevelIDs(ctx context.Context, postID uint) ([]uint, error)
	ListReplies(ctx context.Context, parentID uint) ([]models.Comment, error)
	// RepliesByParentIDs batches ListReplies for a set of parents
	RepliesByParentIDs(ctx context.Context, parentIDs []uint) (map[uint][]models.Comment, error)
	// DeleteComment removes the comment, its reply subtree and everything
	// referencing them
	DeleteComment(ctx context.Context, id uint) error
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

const commentOrder = "comments.created_at ASC, comments.id ASC"

func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment, notification *models.Notification) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author", "Post", "Parent").Create(comment).Error; err != nil {
			return err
		}
		if notification == nil {
			return nil
		}
		notification.CommentID = &comment.ID
		return tx.Omit("Recipient", "Sender", "Comment", "Post").Create(notification).Error
	}))
}

func (r *PostgresCommentRepository) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author.Profile").First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

func (r *PostgresCommentRepository) ListTopLevel(ctx context.Context, postID uint, offset, limit int) ([]models.Comment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ? AND parent_id IS NULL AND active = ?", postID, true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	err := q.Preload("Author.Profile").Order(commentOrder).Offset(offset).Limit(limit).Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *PostgresCommentRepository) TopLevelIDs(ctx context.Context, postID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ? AND parent_id IS NULL AND active = ?", postID, true).
		Order(commentOrder).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *PostgresCommentRepository) ListReplies(ctx context.Context, parentID uint) ([]models.Comment, error) {
	var replies []models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author.Profile").
		Where("parent_id = ? AND active = ?", parentID, true).
		Order(commentOrder).
		Find(&replies).Error
	return replies, err
}

func (r *PostgresCommentRepository) RepliesByParentIDs(ctx context.Context, parentIDs []uint) (map[uint][]models.Comment, error) {
	result := make(map[uint][]models.Comment, len(parentIDs))
	if len(parentIDs) == 0 {
		return result, nil
	}

	var replies []models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author.Profile").
		Where("parent_id IN ? AND active = ?", parentIDs, true).
		Order(commentOrder).
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	for _, reply := range replies {
		result[*reply.ParentID] = append(result[*reply.ParentID], reply)
	}
	return result, nil
}

func (r *PostgresCommentRepository) DeleteComment(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.Comment
		if err := tx.Select("id").First(&root, id).Error; err != nil {
			return err
		}

		ids := []uint{id}
		frontier := []uint{id}
		for len(frontier) > 0 {
			var children []uint
			if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}

		if err := tx.Where("comment_id IN ?", ids).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	}))
}
