package services

import (
	"context"

	"github.com/SscSPs/user_auth_backend/internal/core/domain"
)

// TokenIssuer mints token pairs and records the refresh token on the user.
type TokenIssuer interface {
	// IssueTokenPair signs a new access/refresh pair and overwrites the stored refresh token.
	IssueTokenPair(ctx context.Context, userID string) (*domain.TokenPair, error)
}

// TokenVerifier checks tokens presented by clients.
type TokenVerifier interface {
	// VerifyAccessToken validates an access token and returns its subject. It never touches the store.
	VerifyAccessToken(ctx context.Context, token string) (string, error)

	// VerifyAndRotateRefreshToken accepts the last issued refresh token exactly once and returns a new pair.
	VerifyAndRotateRefreshToken(ctx context.Context, token string) (*domain.TokenPair, error)
}

// TokenRevoker invalidates stored refresh tokens.
type TokenRevoker interface {
	// RevokeRefreshToken clears the stored refresh token for a user.
	RevokeRefreshToken(ctx context.Context, userID string) error
}

// TokenSvcFacade defines the interface for token management services.
type TokenSvcFacade interface {
	TokenIssuer
	TokenVerifier
	TokenRevoker
}
