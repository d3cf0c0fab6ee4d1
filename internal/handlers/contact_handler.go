package handlers

import (
	"net/http"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/anonto42/nano-blog/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// ContactHandler handles the contact form and its staff inbox
type ContactHandler struct {
	contacts *services.ContactService
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contacts *services.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// RegisterContactRoutes registers the public contact form route
func (h *ContactHandler) RegisterContactRoutes(g *echo.Group) {
	g.POST("/contact", h.Submit)
}

// RegisterAdminRoutes registers the staff inbox routes
func (h *ContactHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/messages", h.ListMessages)
	g.POST("/messages/:id/toggle-read", h.ToggleRead)
	g.POST("/messages/:id/delete", h.DeleteMessage)
}

// Submit stores a contact message. Script requests get JSON, form posts are
// redirected back with a flash message.
func (h *ContactHandler) Submit(c echo.Context) error {
	var req models.ContactRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if _, err := h.contacts.Submit(c.Request().Context(), req); err != nil {
		return serviceError(c, err)
	}

	if isAjax(c) {
		return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": services.ContactSuccessMessage})
	}
	session.FromContext(c).AddFlash("success", services.ContactSuccessMessage)
	return c.Redirect(http.StatusSeeOther, "/contact")
}

func (h *ContactHandler) ListMessages(c echo.Context) error {
	list, err := h.contacts.List(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": list})
}

// ToggleRead flips the read flag of a message
func (h *ContactHandler) ToggleRead(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	msg, err := h.contacts.ToggleRead(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "is_read": msg.IsRead})
}

func (h *ContactHandler) DeleteMessage(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.contacts.Delete(c.Request().Context(), id); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}
