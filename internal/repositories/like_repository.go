package repositories

import (
	"context"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository toggles membership in liked-by sets. Each toggle changes the
// membership row and the denormalized counter in one transaction, using
// relative updates so concurrent toggles never lose a count.
type LikeRepository interface {
	// TogglePostLike flips the actor's like on a post. notification, when
	// non-nil, is stored only if the toggle added a like.
	TogglePostLike(ctx context.Context, postID, userID uint, notification *models.Notification) (models.LikeResult, error)
	ToggleCommentLike(ctx context.Context, commentID, userID uint) (models.LikeResult, error)
	HasLikedPost(ctx context.Context, postID, userID uint) (bool, error)
	// LikedCommentIDs returns the subset of commentIDs liked by the user
	LikedCommentIDs(ctx context.Context, userID uint, commentIDs []uint) ([]uint, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

func (r *PostgresLikeRepository) TogglePostLike(ctx context.Context, postID, userID uint, notification *models.Notification) (models.LikeResult, error) {
	var result models.LikeResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// lock the post row so toggles on the same post serialize
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&post, postID).Error; err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			if err := tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("likes", gorm.Expr("CASE WHEN likes > 0 THEN likes - 1 ELSE 0 END")).Error; err != nil {
				return err
			}
		} else {
			res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.PostLike{PostID: postID, UserID: userID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				result.Liked = true
				if err := tx.Model(&models.Post{}).Where("id = ?", postID).
					UpdateColumn("likes", gorm.Expr("likes + 1")).Error; err != nil {
					return err
				}
				if notification != nil {
					notification.PostID = &postID
					if err := tx.Omit("Recipient", "Sender", "Comment", "Post").Create(notification).Error; err != nil {
						return err
					}
				}
			}
		}

		return tx.Model(&models.Post{}).Where("id = ?", postID).Select("likes").Scan(&result.Likes).Error
	})
	return result, translate(err)
}

func (r *PostgresLikeRepository) ToggleCommentLike(ctx context.Context, commentID, userID uint) (models.LikeResult, error) {
	var result models.LikeResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&comment, commentID).Error; err != nil {
			return err
		}

		res := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
				UpdateColumn("likes", gorm.Expr("CASE WHEN likes > 0 THEN likes - 1 ELSE 0 END")).Error; err != nil {
				return err
			}
		} else {
			res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.CommentLike{CommentID: commentID, UserID: userID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				result.Liked = true
				if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
					UpdateColumn("likes", gorm.Expr("likes + 1")).Error; err != nil {
					return err
				}
			}
		}

		return tx.Model(&models.Comment{}).Where("id = ?", commentID).Select("likes").Scan(&result.Likes).Error
	})
	return result, translate(err)
}

func (r *PostgresLikeRepository) HasLikedPost(ctx context.Context, postID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *PostgresLikeRepository) LikedCommentIDs(ctx context.Context, userID uint, commentIDs []uint) ([]uint, error) {
	if len(commentIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.CommentLike{}).
		Where("user_id = ? AND comment_id IN ?", userID, commentIDs).
		Pluck("comment_id", &ids).Error
	return ids, err
}
