package models

import (
	"path"
	"strings"
	"time"
)

// Post represents a blog article
type Post struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	AuthorID   uint      `json:"author_id" gorm:"index;not null"`
	Author     *User     `json:"author,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	Title      string    `json:"title" gorm:"size:255;not null"`
	Slug       string    `json:"slug" gorm:"size:250;uniqueIndex;not null"`
	Attachment string    `json:"attachment,omitempty"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	Viewer     int       `json:"viewer" gorm:"default:0"`
	Likes      int       `json:"likes" gorm:"default:0;check:likes >= 0"`
	Tags       []Tag     `json:"tags" gorm:"many2many:post_tags;constraint:OnDelete:CASCADE;"`
	CreatedAt  time.Time `json:"created" gorm:"index"`
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}

// IsImage reports whether the attachment looks like an image
func (p *Post) IsImage() bool {
	if p.Attachment == "" {
		return false
	}
	ext := strings.ToLower(path.Ext(p.Attachment))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// URL is the canonical API location of the post
func (p *Post) URL() string {
	return "/api/v1/post/" + p.Slug
}

// Tag is a free-form label shared between posts
type Tag struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:100;uniqueIndex"`
	Slug string `json:"slug" gorm:"size:100;uniqueIndex"`
}

// PostTag is the join row between posts and tags
type PostTag struct {
	PostID uint `gorm:"primaryKey;autoIncrement:false"`
	TagID  uint `gorm:"primaryKey;autoIncrement:false;index"`
}

// PostForm carries the editable fields of a post; tags are comma separated
type PostForm struct {
	Title   string `json:"title" form:"title" validate:"required,max=255"`
	Content string `json:"content" form:"content" validate:"required"`
	Tags    string `json:"tags" form:"tags" validate:"max=500"`
}

// TagNames splits the comma separated tag input, dropping blanks and duplicates
func (f *PostForm) TagNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, raw := range strings.Split(f.Tags, ",") {
		name := strings.TrimSpace(raw)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// PostCard is the list representation of a post
type PostCard struct {
	ID          uint        `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	URL         string      `json:"url"`
	Author      UserCompact `json:"author"`
	Attachment  string      `json:"attachment,omitempty"`
	IsImage     bool        `json:"is_image"`
	Viewer      int         `json:"viewer"`
	Likes       int         `json:"likes"`
	Tags        []Tag       `json:"tags"`
	ReadingTime int         `json:"reading_time"`
	Created     time.Time   `json:"created"`
}
