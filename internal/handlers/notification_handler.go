package handlers

import (
	"net/http"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/anonto42/nano-blog/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// NotificationHandler serves the notification feed and the site context
// shown on every page
type NotificationHandler struct {
	notifications *services.NotificationService
	announcements *services.AnnouncementService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *services.NotificationService, announcements *services.AnnouncementService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, announcements: announcements}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
}

// RegisterContextRoutes registers the site context route
func (h *NotificationHandler) RegisterContextRoutes(g *echo.Group) {
	g.GET("/context", h.GetContext)
}

type notificationItem struct {
	models.Notification
	Sender models.UserCompact `json:"sender"`
}

func toItems(list []models.Notification) []notificationItem {
	items := make([]notificationItem, 0, len(list))
	for _, n := range list {
		item := notificationItem{Notification: n}
		if n.Sender != nil {
			item.Sender = n.Sender.ToCompact()
		} else {
			item.Sender = models.UserCompact{ID: n.SenderID}
		}
		item.Notification.Sender = nil
		items = append(items, item)
	}
	return items
}

// GetNotifications returns the feed and marks it read
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	list, err := h.notifications.Feed(c.Request().Context(), actorFrom(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": toItems(list)})
}

// GetContext returns what every page shows around its content: the unread
// badge, the newest notifications, the active announcement and pending
// flash messages.
func (h *NotificationHandler) GetContext(c echo.Context) error {
	ctx := c.Request().Context()
	actor := actorFrom(c)
	sess := session.FromContext(c)

	unread, err := h.notifications.UnreadCount(ctx, actor)
	if err != nil {
		return serviceError(c, err)
	}
	latest, err := h.notifications.Latest(ctx, actor)
	if err != nil {
		return serviceError(c, err)
	}
	announcement, err := h.announcements.Active(ctx, sess)
	if err != nil {
		return serviceError(c, err)
	}
	flashes := sess.PopFlashes()
	if flashes == nil {
		flashes = []session.Flash{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"unread_notifications_count": unread,
		"latest_notifications":       toItems(latest),
		"active_announcement":        announcement,
		"messages":                   flashes,
	})
}
