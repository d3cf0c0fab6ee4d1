package models

import (
	"fmt"
	"time"
)

// AnnouncementLevel drives how an announcement is styled
type AnnouncementLevel string

const (
	LevelInfo    AnnouncementLevel = "info"
	LevelSuccess AnnouncementLevel = "success"
	LevelWarning AnnouncementLevel = "warning"
	LevelDanger  AnnouncementLevel = "danger"
)

// Announcement is a site-wide banner managed from the admin panel
type Announcement struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	Content   string            `json:"content" gorm:"type:text;not null"`
	Level     AnnouncementLevel `json:"level" gorm:"size:10;default:info"`
	Link      *string           `json:"link,omitempty"`
	IsActive  bool              `json:"is_active" gorm:"default:true;index"`
	CreatedAt time.Time         `json:"created_at" gorm:"index"`
}

// DismissKey is the session flag set when a visitor closes the announcement
func (a *Announcement) DismissKey() string {
	return fmt.Sprintf("dismissed_announcement_%d", a.ID)
}

type AnnouncementRequest struct {
	Content  string            `json:"content" validate:"required"`
	Level    AnnouncementLevel `json:"level" validate:"omitempty,oneof=info success warning danger"`
	Link     *string           `json:"link" validate:"omitempty,url"`
	IsActive *bool             `json:"is_active"`
}

type BulkIDsRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1"`
}
