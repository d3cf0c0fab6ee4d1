package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UnreadHeader carries the unread notification count on every authenticated
// response
const UnreadHeader = "X-Unread-Notifications"

// UnreadCounter counts a user's unread notifications
type UnreadCounter interface {
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

// UnreadNotifications sets UnreadHeader just before the response is written,
// so the count reflects what the handler itself changed.
func UnreadNotifications(counter UnreadCounter, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Before(func() {
				claims := Claims(c)
				if claims == nil {
					return
				}
				n, err := counter.CountUnread(c.Request().Context(), claims.UserID)
				if err != nil {
					logger.Warn("Failed to count unread notifications", zap.Uint("user_id", claims.UserID), zap.Error(err))
					return
				}
				c.Response().Header().Set(UnreadHeader, strconv.FormatInt(n, 10))
			})
			return next(c)
		}
	}
}

// Metrics records every response by method and status
func Metrics(record func(method string, status int)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}
			record(c.Request().Method, status)
			return err
		}
	}
}
