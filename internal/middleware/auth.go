package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/user_auth_backend/internal/apperrors"
	portssvc "github.com/SscSPs/user_auth_backend/internal/core/ports/services"
	"github.com/SscSPs/user_auth_backend/internal/dto"
	"github.com/SscSPs/user_auth_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware creates a Gin middleware handler that authenticates requests
// by access token. The token is read from the access cookie first and then
// from an "Authorization: Bearer" header. On success the user is attached to
// the request context.
func AuthMiddleware(cfg *config.Config, tokens portssvc.TokenVerifier, users portssvc.UserReaderSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Let CORS preflight through untouched.
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		logger := GetLoggerFromCtx(c.Request.Context())

		tokenString := extractAccessToken(c, cfg.AccessTokenCookie)
		if tokenString == "" {
			logger.Warn("Access token missing")
			abortUnauthorized(c, "Unauthorized request")
			return
		}

		userID, err := tokens.VerifyAccessToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Warn("Invalid access token", slog.String("error", err.Error()))
			msg := "Invalid access token"
			if errors.Is(err, apperrors.ErrExpiredToken) {
				msg = "Access token has expired"
			}
			abortUnauthorized(c, msg)
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			logger.Warn("Access token user could not be resolved",
				slog.String("user_id", userID), slog.String("error", err.Error()))
			abortUnauthorized(c, "Invalid access token")
			return
		}

		// Add user ID to the logger
		enrichedLogger := logger.With(slog.String("user_id", user.UserID))

		ctx := WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(WithLogger(ctx, enrichedLogger))

		c.Next()
	}
}

func extractAccessToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}

	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, msg))
}
