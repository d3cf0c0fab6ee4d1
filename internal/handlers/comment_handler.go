package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	comments *services.CommentService
	likes    *services.LikeService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(comments *services.CommentService, likes *services.LikeService) *CommentHandler {
	return &CommentHandler{comments: comments, likes: likes}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.GET("/comment/:id/replies", h.GetReplies)
	g.Any("/comment/:id/delete", h.DeleteComment)
	g.POST("/comment/:id/like", h.LikeComment)
}

// GetReplies returns the direct replies of a comment, oldest first
func (h *CommentHandler) GetReplies(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	replies, err := h.comments.Replies(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"replies": replies})
}

// DeleteComment removes a comment and its replies. Allowed for the comment's
// author and the post's author.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	actor := actorFrom(c)

	// permission is checked before the method
	if err := h.comments.CanDelete(ctx, actor, id); err != nil {
		return deleteCommentError(c, err)
	}
	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, echo.Map{"status": "error", "message": "Invalid request method."})
	}
	if err := h.comments.Delete(ctx, actor, id); err != nil {
		return deleteCommentError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}

func deleteCommentError(c echo.Context, err error) error {
	if errors.Is(err, services.ErrForbidden) {
		return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "message": "You do not have permission to delete this comment."})
	}
	return serviceError(c, err)
}

// LikeComment toggles the actor's like on a comment
func (h *CommentHandler) LikeComment(c echo.Context) error {
	actor := actorFrom(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "login_required"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	result, err := h.likes.ToggleComment(c.Request().Context(), actor, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "likes": result.Likes, "liked": result.Liked})
}
