package models

import "time"

// Comment represents a comment on a post. Replies point at their parent by id;
// a nil ParentID marks a top-level comment.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"index;not null"`
	Post      *Post     `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	AuthorID  uint      `json:"author_id" gorm:"index;not null"`
	Author    *User     `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	Active    bool      `json:"active" gorm:"default:true;index"`
	ParentID  *uint     `json:"parent_id" gorm:"index"`
	Parent    *Comment  `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Likes     int       `json:"likes" gorm:"default:0;check:likes >= 0"`
	CreatedAt time.Time `json:"created" gorm:"index"`
}

// IsTopLevel reports whether the comment has no parent
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Body     string `json:"body" form:"body" validate:"required,notblank,max=5000"`
	ParentID string `json:"parent_id" form:"parent_id"`
}

// CommentCreatedResponse is the JSON body returned after an AJAX comment submission
type CommentCreatedResponse struct {
	Status    string `json:"status"`
	CommentID uint   `json:"comment_id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	ParentID  *uint  `json:"parent_id"`
	Created   string `json:"created"`
}

// CommentView is a comment as visitors see it, with only the public part of
// its author.
type CommentView struct {
	Comment
	Author UserCompact `json:"author"`
}

// NewCommentView wraps a comment for rendering
func NewCommentView(c Comment) CommentView {
	view := CommentView{Comment: c, Author: UserCompact{ID: c.AuthorID}}
	if c.Author != nil {
		view.Author = c.Author.ToCompact()
	}
	return view
}

// CommentNode is a comment together with its reply subtree
type CommentNode struct {
	CommentView
	ReplyCount int            `json:"reply_count"`
	Replies    []*CommentNode `json:"replies"`
}
