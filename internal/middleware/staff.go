package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// UserLookup loads the current state of a user
type UserLookup interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// StaffOnly lets through authenticated staff members only. The staff flag
// comes from storage, not from the token.
func StaffOnly(users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := Claims(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required.")
			}
			user, err := users.GetUserByID(c.Request().Context(), claims.UserID)
			if errors.Is(err, repositories.ErrNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required.")
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
			}
			if !user.IsStaff {
				return echo.NewHTTPError(http.StatusForbidden, "Staff access required.")
			}
			claims.IsStaff = true
			return next(c)
		}
	}
}
