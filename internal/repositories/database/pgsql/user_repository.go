package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/user_auth_backend/internal/apperrors"
	"github.com/SscSPs/user_auth_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/user_auth_backend/internal/core/ports/repositories"
	"github.com/SscSPs/user_auth_backend/internal/models"
	"github.com/SscSPs/user_auth_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `user_id, user_name, email, full_name, password_hash, avatar_url, cover_image_url,
		refresh_token_hash, refresh_token_expires_at, created_at, updated_at`

type PgxUserRepository struct {
	BaseRepository
}

func newPgxUserRepository(db *pgxpool.Pool) portsrepo.UserRepositoryFacade {
	return &PgxUserRepository{BaseRepository: BaseRepository{Pool: db}}
}

// Ensure PgxUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*PgxUserRepository)(nil)

func scanUser(row rowScanner) (*domain.User, error) {
	var m models.User
	err := row.Scan(
		&m.UserID,
		&m.UserName,
		&m.Email,
		&m.FullName,
		&m.PasswordHash,
		&m.AvatarURL,
		&m.CoverImageURL,
		&m.RefreshTokenHash,
		&m.RefreshTokenExpiresAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d := mapping.ToDomainUser(m)
	return &d, nil
}

func (r *PgxUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	m := mapping.ToModelUser(user)
	query := `
        INSERT INTO users (user_id, user_name, email, full_name, password_hash, avatar_url, cover_image_url, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
    `
	_, err := r.Pool.Exec(ctx, query,
		m.UserID,
		m.UserName,
		m.Email,
		m.FullName,
		m.PasswordHash,
		m.AvatarURL,
		m.CoverImageURL,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s or email %s already exists", apperrors.ErrDuplicate, m.UserName, m.Email)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1;`

	user, err := scanUser(r.Pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID %s: %w", userID, err)
	}
	return user, nil
}

func (r *PgxUserRepository) FindUserByUsernameOrEmail(ctx context.Context, userName, email string) (*domain.User, error) {
	if userName == "" && email == "" {
		return nil, apperrors.ErrNotFound
	}
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1 <> '' AND user_name = $1) OR ($2 <> '' AND email = $2)
		ORDER BY created_at
		LIMIT 1;
	`
	user, err := scanUser(r.Pool.QueryRow(ctx, query, userName, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by username or email: %w", err)
	}
	return user, nil
}

func (r *PgxUserRepository) UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (*domain.User, error) {
	query := `
        UPDATE users
        SET full_name = $1, email = $2, updated_at = $3
        WHERE user_id = $4
        RETURNING ` + userColumns + `;
    `
	user, err := scanUser(r.Pool.QueryRow(ctx, query, fullName, email, time.Now().UTC(), userID))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
		case isUniqueViolation(err):
			return nil, fmt.Errorf("%w: email %s already in use", apperrors.ErrDuplicate, email)
		}
		return nil, fmt.Errorf("failed to update account details: %w", err)
	}
	return user, nil
}

func (r *PgxUserRepository) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE user_id = $3;`
	return r.execSingleRow(ctx, "update password", query, passwordHash, time.Now().UTC(), userID)
}

func (r *PgxUserRepository) UpdateProfileImage(ctx context.Context, userID string, kind domain.ImageKind, url string) (*domain.User, error) {
	var column string
	switch kind {
	case domain.ImageKindAvatar:
		column = "avatar_url"
	case domain.ImageKindCover:
		column = "cover_image_url"
	default:
		return nil, fmt.Errorf("%w: unknown image kind %q", apperrors.ErrValidation, kind)
	}

	query := `UPDATE users SET ` + column + ` = $1, updated_at = $2 WHERE user_id = $3 RETURNING ` + userColumns + `;`
	user, err := scanUser(r.Pool.QueryRow(ctx, query, url, time.Now().UTC(), userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update %s: %w", column, err)
	}
	return user, nil
}

func (r *PgxUserRepository) UpdateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	query := `UPDATE users SET refresh_token_hash = $1, refresh_token_expires_at = $2, updated_at = $3 WHERE user_id = $4;`
	return r.execSingleRow(ctx, "update refresh token", query, tokenHash, expiresAt, time.Now().UTC(), userID)
}

func (r *PgxUserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	query := `UPDATE users SET refresh_token_hash = NULL, refresh_token_expires_at = NULL, updated_at = $1 WHERE user_id = $2;`
	return r.execSingleRow(ctx, "clear refresh token", query, time.Now().UTC(), userID)
}

func (r *PgxUserRepository) execSingleRow(ctx context.Context, op, query string, args ...any) error {
	cmdTag, err := r.Pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: user not found: %w", op, apperrors.ErrNotFound)
	}
	return nil
}
