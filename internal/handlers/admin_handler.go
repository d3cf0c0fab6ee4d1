package handlers

import (
	"net/http"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/anonto42/nano-blog/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// AnnouncementHandler handles announcements for visitors and the staff
// admin panel
type AnnouncementHandler struct {
	announcements *services.AnnouncementService
	posts         *services.PostService
}

// NewAnnouncementHandler creates a new AnnouncementHandler
func NewAnnouncementHandler(announcements *services.AnnouncementService, posts *services.PostService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements, posts: posts}
}

// RegisterAnnouncementRoutes registers the visitor routes
func (h *AnnouncementHandler) RegisterAnnouncementRoutes(g *echo.Group) {
	g.POST("/announcements/:id/dismiss", h.Dismiss)
}

// RegisterAdminRoutes registers the staff routes
func (h *AnnouncementHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/announcements", h.List)
	g.POST("/announcements", h.Create)
	g.PUT("/announcements/:id", h.Update)
	g.DELETE("/announcements/:id", h.Delete)
	g.POST("/announcements/activate", h.Activate)
	g.POST("/announcements/deactivate", h.Deactivate)
	g.GET("/posts", h.ListPosts)
}

// Dismiss hides an announcement for the rest of the visitor's session
func (h *AnnouncementHandler) Dismiss(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.announcements.Dismiss(c.Request().Context(), session.FromContext(c), id); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}

func (h *AnnouncementHandler) List(c echo.Context) error {
	list, err := h.announcements.List(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"announcements": list})
}

func (h *AnnouncementHandler) Create(c echo.Context) error {
	var req models.AnnouncementRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	a, err := h.announcements.Create(c.Request().Context(), req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *AnnouncementHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req models.AnnouncementRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	a, err := h.announcements.Update(c.Request().Context(), id, req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AnnouncementHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.announcements.Delete(c.Request().Context(), id); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}

// Activate switches the selected announcements on
func (h *AnnouncementHandler) Activate(c echo.Context) error {
	return h.setActive(c, true)
}

// Deactivate switches the selected announcements off
func (h *AnnouncementHandler) Deactivate(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *AnnouncementHandler) setActive(c echo.Context, active bool) error {
	var req models.BulkIDsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	n, err := h.announcements.SetActive(c.Request().Context(), req.IDs, active)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "updated": n})
}

// ListPosts is the admin overview of posts
func (h *AnnouncementHandler) ListPosts(c echo.Context) error {
	rows, err := h.posts.AdminList(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": rows})
}
