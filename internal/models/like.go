package models

import "time"

// PostLike is one membership row of a post's liked-by set
type PostLike struct {
	PostID    uint      `json:"post_id" gorm:"primaryKey;autoIncrement:false"`
	UserID    uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentLike is one membership row of a comment's liked-by set
type CommentLike struct {
	CommentID uint      `json:"comment_id" gorm:"primaryKey;autoIncrement:false"`
	UserID    uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeTarget tells which kind of object a toggle acted on
type LikeTarget string

const (
	LikeTargetPost    LikeTarget = "post"
	LikeTargetComment LikeTarget = "comment"
)

// LikeResult is the outcome of a like toggle: the counter after the change and
// whether the actor is now a member of the liked-by set.
type LikeResult struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}
