package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/internal/session"
	"github.com/anonto42/nano-blog/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebase       *firebase.App // nil when Firebase is not configured
	sessions       session.Store
	jwtSecret      string
	jwtTTL         time.Duration
	logger         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, firebaseApp *firebase.App, sessions session.Store, jwtSecret string, jwtTTL time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebase:       firebaseApp,
		sessions:       sessions,
		jwtSecret:      jwtSecret,
		jwtTTL:         jwtTTL,
		logger:         logger,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/logout", h.Logout)
	if h.firebase != nil {
		g.POST("/firebase-login", h.FirebaseLogin)
	}
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	fields := map[string][]string{}
	if _, err := h.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		fields["username"] = []string{"A user with that username already exists."}
	}
	if _, err := h.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		fields["email"] = []string{"This email address is already in use."}
	}
	if len(fields) > 0 {
		return formErrors(c, fields)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Username: req.Username,
		Email:    strings.TrimSpace(req.Email),
		Password: string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return formErrors(c, map[string][]string{"__all__": {"A user with these details already exists."}})
		}
		h.logger.Error("Failed to create user", zap.String("username", req.Username), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.logger.Info("User signed up", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusCreated, echo.Map{"status": "success", "redirect_url": "/login"})
}

// SignIn authenticates with a username or email and a password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	var (
		user *models.User
		err  error
	)
	if strings.Contains(req.Login, "@") {
		user, err = h.userRepository.GetUserByEmail(ctx, req.Login)
	} else {
		user, err = h.userRepository.GetUserByUsername(ctx, req.Login)
	}
	if err != nil || user.Password == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}

	token, err := middleware.SignToken(user, h.jwtSecret, h.jwtTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// FirebaseLogin exchanges a Firebase ID token for a local JWT, linking or
// creating the user on first use
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	identity, err := h.firebase.Verify(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, identity.UID)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrNotFound) && identity.Email != "":
		// link an existing account by email, or create one
		user, err = h.userRepository.GetUserByEmail(ctx, identity.Email)
		if errors.Is(err, repositories.ErrNotFound) {
			user = &models.User{
				Username:    h.freeUsername(c, identity),
				Email:       identity.Email,
				FirebaseUID: &identity.UID,
			}
			if err := h.userRepository.CreateUser(ctx, user); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
			}
		} else if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
		} else {
			user.FirebaseUID = &identity.UID
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update user with Firebase UID")
			}
		}
	case errors.Is(err, repositories.ErrNotFound):
		return echo.NewHTTPError(http.StatusUnauthorized, "Firebase account has no email address")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}

	token, err := middleware.SignToken(user, h.jwtSecret, h.jwtTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate local JWT")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// freeUsername derives an unused username from the Firebase identity
func (h *AuthHandler) freeUsername(c echo.Context, identity *firebase.Identity) string {
	base := strings.SplitN(identity.Email, "@", 2)[0]
	if base == "" {
		base = "user"
	}
	candidate := base
	for i := 0; i < 5; i++ {
		if _, err := h.userRepository.GetUserByUsername(c.Request().Context(), candidate); errors.Is(err, repositories.ErrNotFound) {
			return candidate
		}
		candidate = base + "_" + identity.UID[:min(6, len(identity.UID))] + strings.Repeat("_", i)
	}
	return identity.UID
}

// Logout drops the visitor's session. Tokens are stateless and simply
// discarded by the client.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := session.Destroy(c, h.sessions); err != nil {
		h.logger.Warn("Failed to delete session", zap.Error(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}
