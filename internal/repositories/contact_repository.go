package repositories

import (
	"context"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"gorm.io/gorm"
)

// ContactRepository stores messages sent through the contact form
type ContactRepository interface {
	CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error
	// ListContactMessages returns messages newest first
	ListContactMessages(ctx context.Context) ([]models.ContactMessage, error)
	// ToggleContactMessageRead flips is_read and returns the updated message
	ToggleContactMessageRead(ctx context.Context, id uint) (*models.ContactMessage, error)
	DeleteContactMessage(ctx context.Context, id uint) error
}

type postgresContactRepository struct {
	db *gorm.DB
}

func NewPostgresContactRepository(db *gorm.DB) ContactRepository {
	return &postgresContactRepository{db: db}
}

func (r *postgresContactRepository) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	return translate(r.db.WithContext(ctx).Create(msg).Error)
}

func (r *postgresContactRepository) ListContactMessages(ctx context.Context) ([]models.ContactMessage, error) {
	var messages []models.ContactMessage
	err := r.db.WithContext(ctx).Order("timestamp DESC, id DESC").Find(&messages).Error
	return messages, err
}

func (r *postgresContactRepository) ToggleContactMessageRead(ctx context.Context, id uint) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ContactMessage{}).Where("id = ?", id).
			UpdateColumn("is_read", gorm.Expr("NOT is_read"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&msg, id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

func (r *postgresContactRepository) DeleteContactMessage(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.ContactMessage{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
