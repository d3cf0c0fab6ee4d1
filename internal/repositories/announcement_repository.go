package repositories

import (
	"context"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"gorm.io/gorm"
)

// AnnouncementRepository manages site-wide announcements
type AnnouncementRepository interface {
	CreateAnnouncement(ctx context.Context, a *models.Announcement) error
	UpdateAnnouncement(ctx context.Context, a *models.Announcement) error
	DeleteAnnouncement(ctx context.Context, id uint) error
	GetAnnouncementByID(ctx context.Context, id uint) (*models.Announcement, error)
	// ListAnnouncements returns every announcement newest first
	ListAnnouncements(ctx context.Context) ([]models.Announcement, error)
	// ListActiveAnnouncements returns active announcements newest first
	ListActiveAnnouncements(ctx context.Context) ([]models.Announcement, error)
	// SetAnnouncementsActive updates is_active on the given ids in one statement
	SetAnnouncementsActive(ctx context.Context, ids []uint, active bool) (int64, error)
}

type postgresAnnouncementRepository struct {
	db *gorm.DB
}

func NewPostgresAnnouncementRepository(db *gorm.DB) AnnouncementRepository {
	return &postgresAnnouncementRepository{db: db}
}

func (r *postgresAnnouncementRepository) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		active := a.IsActive
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		// the column default is true, so an inactive draft is written explicitly
		if !active {
			a.IsActive = false
			return tx.Model(a).UpdateColumn("is_active", false).Error
		}
		return nil
	}))
}

func (r *postgresAnnouncementRepository) UpdateAnnouncement(ctx context.Context, a *models.Announcement) error {
	res := r.db.WithContext(ctx).Model(&models.Announcement{ID: a.ID}).
		Select("content", "level", "link", "is_active").
		Updates(a)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresAnnouncementRepository) DeleteAnnouncement(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Announcement{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresAnnouncementRepository) GetAnnouncementByID(ctx context.Context, id uint) (*models.Announcement, error) {
	var a models.Announcement
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *postgresAnnouncementRepository) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	var list []models.Announcement
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *postgresAnnouncementRepository) ListActiveAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	var list []models.Announcement
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *postgresAnnouncementRepository) SetAnnouncementsActive(ctx context.Context, ids []uint, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.Announcement{}).Where("id IN ?", ids).Update("is_active", active)
	return res.RowsAffected, res.Error
}
