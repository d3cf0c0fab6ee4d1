package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user and profile data operations
type UserRepository interface {
	// CreateUser inserts the user together with its profile
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	GetOrCreateProfile(ctx context.Context, userID uint) (*models.Profile, error)
	GetUserStats(ctx context.Context, userID uint) (models.UserStats, error)
	ListStaffEmails(ctx context.Context) ([]string, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Create(user).Error; err != nil {
			return err
		}
		profile := &models.Profile{UserID: user.ID, Avatar: models.DefaultAvatar}
		if user.Profile != nil {
			profile.Bio = user.Profile.Bio
			if user.Profile.Avatar != "" {
				profile.Avatar = user.Profile.Avatar
			}
		}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.Profile = profile
		return nil
	}))
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Profile").First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Profile").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetUserByEmail matches case-insensitively
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Profile").
		Where("LOWER(email) = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Profile").Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UpdateUser saves the user row and, when loaded, its profile
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Save(user).Error; err != nil {
			return err
		}
		if user.Profile != nil {
			user.Profile.UserID = user.ID
			return tx.Save(user.Profile).Error
		}
		return nil
	}))
}

func (r *PostgresUserRepository) GetOrCreateProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).
		Where(models.Profile{UserID: userID}).
		Attrs(models.Profile{Avatar: models.DefaultAvatar}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *PostgresUserRepository) GetUserStats(ctx context.Context, userID uint) (models.UserStats, error) {
	var stats models.UserStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Post{}).Where("author_id = ?", userID).Count(&stats.TotalPosts).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Post{}).Where("author_id = ?", userID).
		Select("COALESCE(SUM(likes), 0)").Scan(&stats.TotalLikesReceived).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Comment{}).Where("author_id = ?", userID).Count(&stats.TotalCommentsMade).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

func (r *PostgresUserRepository) ListStaffEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("is_staff = ? AND email <> ''", true).
		Pluck("email", &emails).Error
	return emails, err
}
