package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// ClaimsKey is where the authenticated user's claims are stored on the context
const ClaimsKey = "user"

var errNoToken = errors.New("missing Authorization header")

// JWTAuthMiddleware rejects requests without a valid token and stores the
// claims for the handlers.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Claims(c) != nil {
				return next(c)
			}
			claims, err := parseBearer(c.Request().Header.Get("Authorization"), secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// OptionalJWTAuth stores the claims when a valid token is present and lets
// anonymous requests through. An invalid token is treated as anonymous.
func OptionalJWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, err := parseBearer(c.Request().Header.Get("Authorization"), secret); err == nil {
				c.Set(ClaimsKey, claims)
			}
			return next(c)
		}
	}
}

// Claims returns the authenticated user's claims, or nil
func Claims(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get(ClaimsKey).(*models.JwtCustomClaims)
	return claims
}

func parseBearer(header, secret string) (*models.JwtCustomClaims, error) {
	if header == "" {
		return nil, errNoToken
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, errors.New("Invalid Authorization header format")
	}

	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("Unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, errors.New("Invalid token signature")
		}
		return nil, errors.New("Invalid token")
	}
	if !token.Valid {
		return nil, errors.New("Invalid token")
	}
	return claims, nil
}

// SignToken issues an HS256 token for the user that expires after ttl
func SignToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		IsStaff:  user.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
