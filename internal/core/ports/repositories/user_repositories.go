package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/user_auth_backend/internal/core/domain"
)

// UserReader defines read operations for user data
type UserReader interface {
	// FindUserByID retrieves a specific user by their ID.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByUsernameOrEmail returns the first user whose username or email matches.
	// Empty arguments are ignored. Returns apperrors.ErrNotFound when nothing matches.
	FindUserByUsernameOrEmail(ctx context.Context, userName, email string) (*domain.User, error)
}

// UserWriter defines write operations for user data
type UserWriter interface {
	// SaveUser persists a new user. Returns apperrors.ErrDuplicate on a username or email clash.
	SaveUser(ctx context.Context, user domain.User) error

	// UpdateAccountDetails sets full name and email.
	UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (*domain.User, error)

	// UpdatePasswordHash replaces only the password hash column.
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error

	// UpdateProfileImage sets the avatar or cover image URL.
	UpdateProfileImage(ctx context.Context, userID string, kind domain.ImageKind, url string) (*domain.User, error)
}

// RefreshTokenStore holds the single live refresh token per user.
type RefreshTokenStore interface {
	// UpdateRefreshToken overwrites the stored refresh token digest and its expiry.
	UpdateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// ClearRefreshToken removes the stored refresh token.
	ClearRefreshToken(ctx context.Context, userID string) error
}

// UserRepositoryFacade combines all user-related repository interfaces
// This is a facade for clients that need access to all operations
type UserRepositoryFacade interface {
	UserReader
	UserWriter
	RefreshTokenStore
	Ping(ctx context.Context) error
}
