package services

import (
	"context"
	"strings"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"go.uber.org/zap"
)

// Announcement selection modes
const (
	// ModeLatest shows the newest active announcement unless the visitor
	// dismissed that one
	ModeLatest = "latest"
	// ModeFirstUndismissed shows the newest active announcement the visitor
	// has not dismissed
	ModeFirstUndismissed = "first-undismissed"
)

// Flags is the per-visitor state announcements are dismissed in
type Flags interface {
	Has(key string) bool
	Set(key, value string)
}

// AnnouncementService picks the banner to show and backs the admin panel
type AnnouncementService struct {
	announcements repositories.AnnouncementRepository
	logger        *zap.Logger
	mode          string
}

func NewAnnouncementService(announcements repositories.AnnouncementRepository, logger *zap.Logger, mode string) *AnnouncementService {
	if mode != ModeFirstUndismissed {
		mode = ModeLatest
	}
	return &AnnouncementService{announcements: announcements, logger: logger, mode: mode}
}

// Active returns the announcement to display to the visitor, or nil
func (s *AnnouncementService) Active(ctx context.Context, flags Flags) (*models.Announcement, error) {
	active, err := s.announcements.ListActiveAnnouncements(ctx)
	if err != nil {
		return nil, err
	}
	for i := range active {
		a := &active[i]
		if flags == nil || !flags.Has(a.DismissKey()) {
			return a, nil
		}
		if s.mode == ModeLatest {
			return nil, nil
		}
	}
	return nil, nil
}

// Dismiss hides the announcement for the visitor
func (s *AnnouncementService) Dismiss(ctx context.Context, flags Flags, id uint) error {
	a, err := s.announcements.GetAnnouncementByID(ctx, id)
	if err != nil {
		return notFound(err)
	}
	flags.Set(a.DismissKey(), "true")
	return nil
}

func (s *AnnouncementService) List(ctx context.Context) ([]models.Announcement, error) {
	list, err := s.announcements.ListAnnouncements(ctx)
	if list == nil && err == nil {
		list = []models.Announcement{}
	}
	return list, err
}

func (s *AnnouncementService) Get(ctx context.Context, id uint) (*models.Announcement, error) {
	a, err := s.announcements.GetAnnouncementByID(ctx, id)
	return a, notFound(err)
}

func applyAnnouncement(a *models.Announcement, req models.AnnouncementRequest) error {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return invalid("content", "This field is required.")
	}
	a.Content = content
	a.Level = req.Level
	if a.Level == "" {
		a.Level = models.LevelInfo
	}
	switch a.Level {
	case models.LevelInfo, models.LevelSuccess, models.LevelWarning, models.LevelDanger:
	default:
		return invalid("level", "Select a valid choice.")
	}
	a.Link = nil
	if req.Link != nil && strings.TrimSpace(*req.Link) != "" {
		link := strings.TrimSpace(*req.Link)
		a.Link = &link
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	return nil
}

func (s *AnnouncementService) Create(ctx context.Context, req models.AnnouncementRequest) (*models.Announcement, error) {
	a := &models.Announcement{IsActive: true}
	if err := applyAnnouncement(a, req); err != nil {
		return nil, err
	}
	if err := s.announcements.CreateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("Announcement created", zap.Uint("announcement_id", a.ID))
	return a, nil
}

func (s *AnnouncementService) Update(ctx context.Context, id uint, req models.AnnouncementRequest) (*models.Announcement, error) {
	a, err := s.announcements.GetAnnouncementByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := applyAnnouncement(a, req); err != nil {
		return nil, err
	}
	if err := s.announcements.UpdateAnnouncement(ctx, a); err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (s *AnnouncementService) Delete(ctx context.Context, id uint) error {
	return notFound(s.announcements.DeleteAnnouncement(ctx, id))
}

// SetActive switches a batch of announcements on or off in one update
func (s *AnnouncementService) SetActive(ctx context.Context, ids []uint, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, invalid("ids", "This field is required.")
	}
	n, err := s.announcements.SetAnnouncementsActive(ctx, ids, active)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Announcements updated", zap.Int64("count", n), zap.Bool("active", active))
	return n, nil
}
