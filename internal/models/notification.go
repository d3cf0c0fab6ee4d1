package models

import (
	"fmt"
	"time"
)

// Notification is a message to a user produced by a like or reply
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecipientID uint      `json:"recipient_id" gorm:"index;not null"`
	Recipient   *User     `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	SenderID    uint      `json:"sender_id" gorm:"index;not null"`
	Sender      *User     `json:"sender,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	CommentID   *uint     `json:"comment_id,omitempty" gorm:"index"`
	Comment     *Comment  `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	PostID      *uint     `json:"post_id,omitempty" gorm:"index"`
	Post        *Post     `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Verb        string    `json:"verb" gorm:"size:255"`
	Read        bool      `json:"read" gorm:"default:false;index"`
	Timestamp   time.Time `json:"timestamp" gorm:"autoCreateTime;index"`
}

// ReplyVerb is the verb stored on reply notifications
func ReplyVerb(postTitle string) string {
	return fmt.Sprintf(`replied to your comment on "%s"`, postTitle)
}

// PostLikeVerb is the verb stored on post like notifications
func PostLikeVerb(postTitle string) string {
	return fmt.Sprintf(`liked your post: "%s"`, postTitle)
}
