// Package memory is a process-local credential store used for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SscSPs/user_auth_backend/internal/apperrors"
	"github.com/SscSPs/user_auth_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/user_auth_backend/internal/core/ports/repositories"
)

// UserRepository keeps users in a map guarded by a RWMutex.
// Records are copied on the way in and out.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
	now   func() time.Time
}

var _ portsrepo.UserRepositoryFacade = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]domain.User),
		now:   time.Now,
	}
}

func clone(u domain.User) *domain.User {
	if u.RefreshTokenHash != nil {
		h := *u.RefreshTokenHash
		u.RefreshTokenHash = &h
	}
	if u.RefreshTokenExpiresAt != nil {
		e := *u.RefreshTokenExpiresAt
		u.RefreshTokenExpiresAt = &e
	}
	return &u
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *UserRepository) SaveUser(ctx context.Context, user domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.UserID]; exists {
		return fmt.Errorf("%w: user id %s", apperrors.ErrDuplicate, user.UserID)
	}
	for _, u := range r.users {
		if u.UserName == user.UserName || u.Email == user.Email {
			return fmt.Errorf("%w: user %s or email %s already exists", apperrors.ErrDuplicate, user.UserName, user.Email)
		}
	}
	r.users[user.UserID] = *clone(user)
	return nil
}

func (r *UserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) FindUserByUsernameOrEmail(ctx context.Context, userName, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *domain.User
	for _, u := range r.users {
		if (userName != "" && u.UserName == userName) || (email != "" && u.Email == email) {
			if found == nil || u.CreatedAt.Before(found.CreatedAt) {
				found = clone(u)
			}
		}
	}
	if found == nil {
		return nil, apperrors.ErrNotFound
	}
	return found, nil
}

func (r *UserRepository) UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (*domain.User, error) {
	var updated *domain.User
	err := r.update(ctx, userID, func(u *domain.User) error {
		for id, other := range r.users {
			if id != userID && other.Email == email {
				return fmt.Errorf("%w: email %s already in use", apperrors.ErrDuplicate, email)
			}
		}
		u.FullName = fullName
		u.Email = email
		updated = clone(*u)
		return nil
	})
	return updated, err
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	return r.update(ctx, userID, func(u *domain.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
}

func (r *UserRepository) UpdateProfileImage(ctx context.Context, userID string, kind domain.ImageKind, url string) (*domain.User, error) {
	var updated *domain.User
	err := r.update(ctx, userID, func(u *domain.User) error {
		switch kind {
		case domain.ImageKindAvatar:
			u.AvatarURL = url
		case domain.ImageKindCover:
			u.CoverImageURL = url
		default:
			return fmt.Errorf("%w: unknown image kind %q", apperrors.ErrValidation, kind)
		}
		updated = clone(*u)
		return nil
	})
	return updated, err
}

func (r *UserRepository) UpdateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	return r.update(ctx, userID, func(u *domain.User) error {
		u.RefreshTokenHash = &tokenHash
		u.RefreshTokenExpiresAt = &expiresAt
		return nil
	})
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	return r.update(ctx, userID, func(u *domain.User) error {
		u.RefreshTokenHash = nil
		u.RefreshTokenExpiresAt = nil
		return nil
	})
}

// update applies fn to a single record under the write lock. The record is only
// written back when fn succeeds.
func (r *UserRepository) update(ctx context.Context, userID string, fn func(u *domain.User) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}
	u.UpdatedAt = r.now().UTC()
	if err := fn(&u); err != nil {
		return err
	}
	r.users[userID] = u
	return nil
}
