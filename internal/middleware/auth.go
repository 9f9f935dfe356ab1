package middleware

import (
	"net/http"
	"strings"

	"shophub/internal/model"
	"shophub/pkg/database"
	"shophub/pkg/jwtutil"
	"shophub/pkg/logger"
	"shophub/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

// AuthMiddleware validates the JWT token from the Authorization header
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		tokenString := bearerToken(c)
		if tokenString == "" {
			log.Error("Missing or malformed Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Store user info in context for later use
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)

		return next(c)
	}
}

// OptionalAuthMiddleware resolves the caller's identity when a valid
// token is present but lets the request through as a guest otherwise.
// An invalid or expired token does not abort the request.
func OptionalAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := bearerToken(c)
		if tokenString != "" {
			if claims, err := jwtutil.ValidateToken(tokenString); err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("email", claims.Email)
			} else {
				logger.FromContext(c).Debug("Invalid token on optional auth, continuing as guest",
					zap.Error(err))
			}
		}
		return next(c)
	}
}

// RequireAdmin checks the caller's current is_admin flag in storage
// rather than trusting the token payload, so a revoked admin loses
// access immediately. Must run after AuthMiddleware.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		userID, ok := c.Get("user_id").(uint)
		if !ok {
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		var user model.User
		if err := database.GetDB().First(&user, userID).Error; err != nil || !user.IsAdmin {
			log.Warn("Admin access denied", zap.Uint("user_id", userID))
			prometheus.RecordAuthError("forbidden")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
		}

		return next(c)
	}
}

// UserIDFromContext returns the authenticated user's id, or nil for a
// guest request.
func UserIDFromContext(c echo.Context) *uint {
	if id, ok := c.Get("user_id").(uint); ok {
		return &id
	}
	return nil
}
