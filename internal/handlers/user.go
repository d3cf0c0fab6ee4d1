package handlers

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/anonto42/nano-blog/backend/pkg/filestore"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler handles HTTP requests related to users and their profiles
type UserHandler struct {
	userRepository repositories.UserRepository
	posts          *services.PostService
	files          filestore.Store
	logger         *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, posts *services.PostService, files filestore.Store, logger *zap.Logger) *UserHandler {
	return &UserHandler{userRepository: userRepo, posts: posts, files: files, logger: logger}
}

// RegisterProfileRoutes registers routes for the signed-in user's profile
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.POST("/profile/password", h.ChangePassword)
}

// RegisterUserRoutes registers public user routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users/:username", h.GetUser)
}

type profileResponse struct {
	User  *models.User      `json:"user"`
	Posts []models.PostCard `json:"posts"`
	Stats *models.UserStats `json:"stats,omitempty"`
}

type publicProfileResponse struct {
	User  models.PublicUser `json:"user"`
	Posts []models.PostCard `json:"posts"`
}

// loadProfile fetches the user with a profile, creating the profile if it is
// missing
func (h *UserHandler) loadProfile(c echo.Context, user *models.User) error {
	if user.Profile != nil {
		return nil
	}
	profile, err := h.userRepository.GetOrCreateProfile(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	user.Profile = profile
	return nil
}

// GetUser returns a public profile with the user's posts
func (h *UserHandler) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.loadProfile(c, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	posts, err := h.posts.ByAuthor(ctx, user.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, publicProfileResponse{User: user.ToPublic(), Posts: posts})
}

// GetProfile retrieves the authenticated user's profile, posts and stats
func (h *UserHandler) GetProfile(c echo.Context) error {
	actor := actorFrom(c)
	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.loadProfile(c, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	posts, err := h.posts.ByAuthor(ctx, user.ID)
	if err != nil {
		return serviceError(c, err)
	}
	stats, err := h.userRepository.GetUserStats(ctx, user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, profileResponse{User: user, Posts: posts, Stats: &stats})
}

// UpdateProfile changes email, bio and avatar. Accepts JSON or multipart.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	actor := actorFrom(c)
	ctx := c.Request().Context()

	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(ctx, actor.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}
	if err := h.loadProfile(c, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if email := strings.TrimSpace(req.Email); email != "" && !strings.EqualFold(email, user.Email) {
		if other, err := h.userRepository.GetUserByEmail(ctx, email); err == nil && other.ID != user.ID {
			return formErrors(c, map[string][]string{"email": {"This email address is already in use."}})
		}
		user.Email = email
	}
	if req.Bio != nil {
		user.Profile.Bio = *req.Bio
	}

	previousAvatar := user.Profile.Avatar
	if fh, err := c.FormFile("avatar"); err == nil {
		src, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid avatar upload")
		}
		defer src.Close()
		name, err := h.files.Save(ctx, filestore.AvatarPath(fh.Filename), src)
		if err != nil {
			h.logger.Error("Failed to store avatar", zap.Uint("user_id", user.ID), zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store avatar")
		}
		user.Profile.Avatar = name
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return formErrors(c, map[string][]string{"email": {"This email address is already in use."}})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if user.Profile.Avatar != previousAvatar && previousAvatar != models.DefaultAvatar && path.Dir(previousAvatar) == "profile_pics" {
		if err := h.files.Delete(ctx, previousAvatar); err != nil && !errors.Is(err, filestore.ErrNotFound) {
			h.logger.Warn("Failed to delete old avatar", zap.String("name", previousAvatar), zap.Error(err))
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "user": user})
}

// ChangePassword replaces the password after checking the old one
func (h *UserHandler) ChangePassword(c echo.Context) error {
	actor := actorFrom(c)
	ctx := c.Request().Context()

	var req models.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(ctx, actor.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)) != nil {
		return formErrors(c, map[string][]string{"old_password": {"Your old password was entered incorrectly. Please enter it again."}})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword1), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}
	user.Password = string(hashed)
	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}
