package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/anonto42/nano-blog/backend/pkg/filestore"
	"github.com/labstack/echo/v4"
)

// MediaHandler serves uploaded files
type MediaHandler struct {
	files filestore.Store
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(files filestore.Store) *MediaHandler {
	return &MediaHandler{files: files}
}

// RegisterMediaRoutes registers /media/*
func (h *MediaHandler) RegisterMediaRoutes(e *echo.Echo) {
	e.GET("/media/*", h.Serve)
}

// Serve streams a stored file
func (h *MediaHandler) Serve(c echo.Context) error {
	name, err := filestore.CleanPath(c.Param("*"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	}
	f, err := h.files.Open(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "File not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer f.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, io.Reader(f))
}
