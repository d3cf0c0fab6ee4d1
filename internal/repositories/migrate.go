package repositories

import (
	"fmt"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the blog uses
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Post{}, "Tags", &models.PostTag{}); err != nil {
		return fmt.Errorf("setup post_tags join table: %w", err)
	}
	return db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Tag{},
		&models.Post{},
		&models.PostTag{},
		&models.PostLike{},
		&models.Comment{},
		&models.CommentLike{},
		&models.Notification{},
		&models.ContactMessage{},
		&models.Announcement{},
	)
}
