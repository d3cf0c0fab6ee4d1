package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/anonto42/nano-blog/backend/pkg/filestore"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop())
	return e
}

func serve(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestErrorHandler_HidesInternalDetails(t *testing.T) {
	e := newEcho()
	e.GET("/boom", func(c echo.Context) error { return errors.New("pq: connection refused") })
	e.GET("/gone", func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound, "Not found.") })

	rec := serve(e, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"Internal Server Error"}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/gone")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"Not found."}`, rec.Body.String())
}

func TestServiceError(t *testing.T) {
	validation := &services.ValidationError{}
	validation.Add("title", "This field is required.")

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", validation, http.StatusBadRequest},
		{"not found", fmt.Errorf("load post: %w", services.ErrNotFound), http.StatusNotFound},
		{"forbidden", services.ErrForbidden, http.StatusForbidden},
		{"unauthenticated", services.ErrUnauthenticated, http.StatusUnauthorized},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho()
			e.GET("/", func(c echo.Context) error { return serviceError(c, tt.err) })
			rec := serve(e, http.MethodGet, "/")
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestMediaHandler(t *testing.T) {
	files, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)
	name, err := files.Save(context.Background(), "uploads/2024/03/01/note.txt", strings.NewReader("hello"))
	require.NoError(t, err)

	e := newEcho()
	NewMediaHandler(files).RegisterMediaRoutes(e)

	rec := serve(e, http.MethodGet, "/media/"+name)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/plain")

	rec = serve(e, http.MethodGet, "/media/uploads/missing.txt")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(e, http.MethodGet, "/media/../secret")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
