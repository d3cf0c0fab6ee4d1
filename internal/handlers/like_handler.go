package handlers

import (
	"net/http"

	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles post like toggles
type LikeHandler struct {
	likes *services.LikeService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likes *services.LikeService) *LikeHandler {
	return &LikeHandler{likes: likes}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/like/:slug", h.LikePost)
}

// LikePost toggles the actor's like on a post
func (h *LikeHandler) LikePost(c echo.Context) error {
	actor := actorFrom(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "login_required"})
	}
	result, err := h.likes.TogglePost(c.Request().Context(), actor, c.Param("slug"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
