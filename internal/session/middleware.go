package session

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Middleware loads the visitor's session before the handler runs and saves it
// afterwards when it changed.
func Middleware(store Store, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			var sess *Session
			if cookie, err := c.Cookie(CookieName); err == nil && isValidID(cookie.Value) {
				values, err := store.Load(ctx, cookie.Value)
				if err != nil {
					logger.Warn("Failed to load session", zap.Error(err))
				}
				sess = newSession(cookie.Value, values, len(values) == 0)
			} else {
				sess = newSession(uuid.NewString(), nil, true)
			}
			c.Set(contextKey, sess)

			c.Response().Before(func() {
				if sess.Dirty() {
					c.SetCookie(&http.Cookie{
						Name:     CookieName,
						Value:    sess.ID(),
						Path:     "/",
						MaxAge:   int(DefaultTTL.Seconds()),
						HttpOnly: true,
						SameSite: http.SameSiteLaxMode,
					})
				}
			})

			err := next(c)

			if sess.Dirty() {
				if saveErr := store.Save(ctx, sess.ID(), sess.snapshot(), DefaultTTL); saveErr != nil {
					logger.Error("Failed to save session", zap.String("sid", sess.ID()), zap.Error(saveErr))
				}
			}
			return err
		}
	}
}

// Destroy forgets the visitor's session and expires the cookie
func Destroy(c echo.Context, store Store) error {
	sess := FromContext(c)
	c.SetCookie(&http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	if sess.ID() == "" {
		return nil
	}
	// keep the deferred save from resurrecting it
	sess.mu.Lock()
	sess.values = map[string]string{}
	sess.dirty = false
	sess.mu.Unlock()
	return store.Delete(c.Request().Context(), sess.ID())
}

func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
