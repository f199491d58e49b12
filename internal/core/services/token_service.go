package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/user_auth_backend/internal/apperrors"
	"github.com/SscSPs/user_auth_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/user_auth_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/user_auth_backend/internal/core/ports/services"
	"github.com/SscSPs/user_auth_backend/internal/platform/config"
	"github.com/SscSPs/user_auth_backend/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/SscSPs/user_auth_backend/internal/core/services"

// tokenService issues, verifies, rotates and revokes access/refresh token pairs.
// The only server-side state is the refresh token digest stored on the user record.
type tokenService struct {
	BaseService
	cfg      *config.Config
	userRepo portsrepo.UserRepositoryFacade
	tracer   trace.Tracer
	now      func() time.Time
}

// TokenServiceOption configures a tokenService.
type TokenServiceOption func(*tokenService)

// WithClock overrides the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) TokenServiceOption {
	return func(s *tokenService) {
		s.now = now
	}
}

// NewTokenService creates a new instance of tokenService.
func NewTokenService(cfg *config.Config, userRepo portsrepo.UserRepositoryFacade, opts ...TokenServiceOption) portssvc.TokenSvcFacade {
	s := &tokenService{
		BaseService: BaseService{storeTimeout: cfg.StoreTimeout},
		cfg:         cfg,
		userRepo:    userRepo,
		tracer:      otel.Tracer(tracerName),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueTokenPair signs both tokens and stores the refresh digest, replacing any previous one.
func (s *tokenService) IssueTokenPair(ctx context.Context, userID string) (*domain.TokenPair, error) {
	ctx, span := s.tracer.Start(ctx, "tokens.IssueTokenPair", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	pair, err := s.issue(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return pair, nil
}

func (s *tokenService) issue(ctx context.Context, userID string) (*domain.TokenPair, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	issuedAt := s.now()

	accessClaims := utils.NewTokenClaims(user.UserID, s.cfg.JWTIssuer, issuedAt, s.cfg.AccessTokenExpiry)
	accessClaims.Email = user.Email
	accessClaims.UserName = user.UserName
	accessClaims.FullName = user.FullName
	accessToken, err := utils.GenerateJWT(accessClaims, s.cfg.AccessTokenSecret)
	if err != nil {
		s.LogError(ctx, err, "Failed to sign access token", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshClaims := utils.NewTokenClaims(user.UserID, s.cfg.JWTIssuer, issuedAt, s.cfg.RefreshTokenExpiry)
	refreshToken, err := utils.GenerateJWT(refreshClaims, s.cfg.RefreshTokenSecret)
	if err != nil {
		s.LogError(ctx, err, "Failed to sign refresh token", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	refreshExpiresAt := refreshClaims.ExpiresAt.Time

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.userRepo.UpdateRefreshToken(storeCtx, user.UserID, utils.HashRefreshToken(refreshToken), refreshExpiresAt); err != nil {
		s.LogError(ctx, err, "Failed to persist refresh token", slog.String("user_id", userID))
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: storing refresh token: %v", apperrors.ErrPersistence, err)
	}

	return &domain.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// VerifyAccessToken validates signature, issuer and expiry and returns the subject.
func (s *tokenService) VerifyAccessToken(ctx context.Context, token string) (string, error) {
	_, span := s.tracer.Start(ctx, "tokens.VerifyAccessToken")
	defer span.End()

	claims, err := s.parse(token, s.cfg.AccessTokenSecret)
	if err != nil {
		recordSpanError(span, err)
		return "", err
	}
	span.SetAttributes(attribute.String("user.id", claims.Subject))
	return claims.Subject, nil
}

// VerifyAndRotateRefreshToken accepts only the most recently issued refresh token
// and replaces it with a fresh pair. A token that verifies cryptographically but
// no longer matches the stored digest has already been used or revoked.
func (s *tokenService) VerifyAndRotateRefreshToken(ctx context.Context, token string) (*domain.TokenPair, error) {
	ctx, span := s.tracer.Start(ctx, "tokens.VerifyAndRotateRefreshToken")
	defer span.End()

	pair, err := s.rotate(ctx, token)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return pair, nil
}

func (s *tokenService) rotate(ctx context.Context, token string) (*domain.TokenPair, error) {
	claims, err := s.parse(token, s.cfg.RefreshTokenSecret)
	if err != nil {
		return nil, err
	}
	userID := claims.Subject

	user, err := s.findUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: subject no longer exists", apperrors.ErrInvalidToken)
		}
		return nil, err
	}

	if !user.HasRefreshToken() || !utils.CompareRefreshTokenHash(token, *user.RefreshTokenHash) {
		s.LogWarn(ctx, "Refresh token does not match stored token", slog.String("user_id", userID))
		return nil, apperrors.ErrTokenReuseDetected
	}

	return s.issue(ctx, userID)
}

// RevokeRefreshToken clears the stored refresh token so no outstanding refresh token can be used.
func (s *tokenService) RevokeRefreshToken(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "tokens.RevokeRefreshToken", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.userRepo.ClearRefreshToken(storeCtx, userID); err != nil {
		recordSpanError(span, err)
		s.LogError(ctx, err, "Failed to clear refresh token", slog.String("user_id", userID))
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: clearing refresh token: %v", apperrors.ErrPersistence, err)
	}
	s.LogInfo(ctx, "Refresh token revoked", slog.String("user_id", userID))
	return nil
}

func (s *tokenService) findUser(ctx context.Context, userID string) (*domain.User, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	user, err := s.userRepo.FindUserByID(storeCtx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to load user", slog.String("user_id", userID))
		return nil, fmt.Errorf("%w: loading user: %v", apperrors.ErrPersistence, err)
	}
	return user, nil
}

// parse maps jwt errors onto the token sentinels.
func (s *tokenService) parse(token, secret string) (*utils.TokenClaims, error) {
	if token == "" {
		return nil, apperrors.ErrInvalidToken
	}
	claims, err := utils.ParseAndValidateJWT(token, secret, s.cfg.JWTIssuer, s.now)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}
	return claims, nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
