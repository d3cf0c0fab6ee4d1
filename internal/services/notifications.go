package services

import (
	"context"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"go.uber.org/zap"
)

// LatestNotifications is how many notifications the site context carries
const LatestNotifications = 5

// NotificationService serves a user's notification feed
type NotificationService struct {
	notifications repositories.NotificationRepository
	logger        *zap.Logger
}

func NewNotificationService(notifications repositories.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, logger: logger}
}

// Feed returns every notification of the actor, newest first, then marks the
// unread ones as read in a single update. The returned list still shows which
// ones were unread when the feed was opened.
func (s *NotificationService) Feed(ctx context.Context, actor *Actor) ([]models.Notification, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	list, err := s.notifications.ListForRecipient(ctx, actor.ID, 0)
	if err != nil {
		return nil, err
	}
	marked, err := s.notifications.MarkAllAsRead(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if marked > 0 {
		s.logger.Debug("Notifications marked read", zap.Uint("user_id", actor.ID), zap.Int64("count", marked))
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

// UnreadCount is computed on every call
func (s *NotificationService) UnreadCount(ctx context.Context, actor *Actor) (int64, error) {
	if actor == nil {
		return 0, nil
	}
	return s.notifications.GetUnreadCount(ctx, actor.ID)
}

// Latest returns the newest few notifications without marking them read
func (s *NotificationService) Latest(ctx context.Context, actor *Actor) ([]models.Notification, error) {
	if actor == nil {
		return []models.Notification{}, nil
	}
	list, err := s.notifications.ListForRecipient(ctx, actor.ID, LatestNotifications)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

// CountUnread is UnreadCount keyed by user id
func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.GetUnreadCount(ctx, userID)
}
