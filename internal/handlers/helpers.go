package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/anonto42/nano-blog/backend/internal/validators"
	"github.com/labstack/echo/v4"
)

// actorFrom returns the authenticated user of the request, or nil
func actorFrom(c echo.Context) *services.Actor {
	claims := middleware.Claims(c)
	if claims == nil {
		return nil
	}
	return &services.Actor{ID: claims.UserID, Username: claims.Username, IsStaff: claims.IsStaff}
}

// bindAndValidate binds the request into req and runs the registered
// validator. The returned error is ready to be returned from a handler.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return formErrors(c, validators.FieldErrors(err))
	}
	return nil
}

// formErrors renders field errors the way forms report them
func formErrors(c echo.Context, fields map[string][]string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "errors": fields})
}

// serviceError maps service failures onto HTTP responses
func serviceError(c echo.Context, err error) error {
	if v, ok := services.AsValidation(err); ok {
		return formErrors(c, v.Fields)
	}
	switch {
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found.")
	case errors.Is(err, services.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, services.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required.")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
}

// paramID parses a numeric path parameter
func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Not found.")
	}
	return uint(id), nil
}

// isAjax reports whether the request came from a script
func isAjax(c echo.Context) bool {
	return c.Request().Header.Get("X-Requested-With") == "XMLHttpRequest"
}
