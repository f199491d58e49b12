package middleware

import (
	"context"

	"github.com/SscSPs/user_auth_backend/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// contextKey is a private type for values this package stores on a context.
// Using a custom type prevents collisions.
type contextKey string

const (
	userIDKey    = contextKey("userID")
	userKey      = contextKey("user")
	loggerCtxKey = contextKey("logger")
)

// WithUser returns a copy of ctx carrying the authenticated user and its ID.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, userIDKey, user.UserID)
}

// GetUserFromContext retrieves the authenticated user attached by AuthMiddleware.
func GetUserFromContext(c *gin.Context) (*domain.User, bool) {
	user, ok := c.Request.Context().Value(userKey).(*domain.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// GetUserIDFromContext retrieves the authenticated user ID from the request context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Request.Context().Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
