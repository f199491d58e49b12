package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/SscSPs/user_auth_backend/internal/apperrors"
	"github.com/SscSPs/user_auth_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/user_auth_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/user_auth_backend/internal/core/ports/services"
	"github.com/SscSPs/user_auth_backend/internal/dto"
	"github.com/SscSPs/user_auth_backend/internal/platform/config"
	"github.com/SscSPs/user_auth_backend/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
)

type userService struct {
	BaseService
	userRepo portsrepo.UserRepositoryFacade
	media    portsrepo.MediaStore
	validate *validator.Validate
	now      func() time.Time
}

// NewUserService creates a user service backed by the credential store and media host.
func NewUserService(cfg *config.Config, userRepo portsrepo.UserRepositoryFacade, media portsrepo.MediaStore) portssvc.UserSvcFacade {
	return &userService{
		BaseService: BaseService{storeTimeout: cfg.StoreTimeout},
		userRepo:    userRepo,
		media:       media,
		validate:    newValidator(),
		now:         time.Now,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	// Report fields by their wire name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// validateStruct converts validator failures into a 400 AppError with one detail per field.
func (s *userService) validateStruct(req any, message string) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewBadRequestError(message)
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "email":
			details = append(details, fe.Field()+" must be a valid email address")
		default:
			details = append(details, fe.Field()+" is required")
		}
	}
	return apperrors.NewBadRequestError(message, details...)
}

func normalizeIdentifier(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// GetUserByID returns the sanitised user.
func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// RegisterUser creates a user with a required avatar and an optional cover image.
func (s *userService) RegisterUser(ctx context.Context, req dto.RegisterUserRequest) (*domain.User, error) {
	if err := s.validateStruct(req, "All fields are required"); err != nil {
		return nil, err
	}

	userName := normalizeIdentifier(req.UserName)
	email := normalizeIdentifier(req.Email)

	lookupCtx, cancel := s.storeContext(ctx)
	existing, err := s.userRepo.FindUserByUsernameOrEmail(lookupCtx, userName, email)
	cancel()
	switch {
	case err == nil && existing != nil:
		return nil, apperrors.NewConflictError("User with email or username already exists")
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		s.LogError(ctx, err, "Failed to check for existing user")
		return nil, fmt.Errorf("%w: checking existing user: %v", apperrors.ErrPersistence, err)
	}

	if req.AvatarPath == "" {
		return nil, apperrors.NewBadRequestError("Avatar file is required")
	}

	avatar, err := s.media.Upload(ctx, req.AvatarPath)
	if err != nil {
		s.LogError(ctx, err, "Avatar upload failed")
		return nil, apperrors.NewAppError(http.StatusBadRequest, "Avatar file is required", apperrors.ErrMediaUpload)
	}
	uploaded := []string{avatar.URL}

	coverURL := ""
	if req.CoverImagePath != "" {
		cover, err := s.media.Upload(ctx, req.CoverImagePath)
		if err != nil {
			s.LogWarn(ctx, "Cover image upload failed, continuing without it", slog.String("error", err.Error()))
		} else {
			coverURL = cover.URL
			uploaded = append(uploaded, cover.URL)
		}
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		s.deleteAssets(ctx, uploaded...)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		UserID:        uuid.NewString(),
		UserName:      userName,
		Email:         email,
		FullName:      strings.TrimSpace(req.FullName),
		AvatarURL:     avatar.URL,
		CoverImageURL: coverURL,
		PasswordHash:  passwordHash,
		AuditFields: domain.AuditFields{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	saveCtx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.userRepo.SaveUser(saveCtx, user); err != nil {
		s.deleteAssets(ctx, uploaded...)
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.NewConflictError("User with email or username already exists")
		}
		s.LogError(ctx, err, "Failed to save user", slog.String("user_name", userName))
		return nil, fmt.Errorf("%w: saving user: %v", apperrors.ErrPersistence, err)
	}

	s.LogInfo(ctx, "User registered", slog.String("user_id", user.UserID))
	return user.Sanitized(), nil
}

// AuthenticateUser checks a username or email and password pair.
func (s *userService) AuthenticateUser(ctx context.Context, req dto.LoginRequest) (*domain.User, error) {
	req.Email = normalizeIdentifier(req.Email)
	req.UserName = normalizeIdentifier(req.UserName)
	if req.Email == "" && req.UserName == "" {
		return nil, apperrors.NewBadRequestError("username or email is required")
	}
	if err := s.validateStruct(req, "Invalid login request"); err != nil {
		return nil, err
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	user, err := s.userRepo.FindUserByUsernameOrEmail(storeCtx, req.UserName, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("User does not exist")
		}
		s.LogError(ctx, err, "Failed to look up user for login")
		return nil, fmt.Errorf("%w: looking up user: %v", apperrors.ErrPersistence, err)
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.LogWarn(ctx, "Invalid password attempt", slog.String("user_id", user.UserID))
		return nil, apperrors.NewUnauthorizedError("Invalid user credentials")
	}
	return user.Sanitized(), nil
}

// ChangePassword replaces the password hash after checking the old password.
func (s *userService) ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) error {
	if err := s.validateStruct(req, "All fields are required"); err != nil {
		return err
	}
	if req.NewPassword != req.ConfPassword {
		return apperrors.NewBadRequestError("New password and confirm password must match")
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(req.OldPassword, user.PasswordHash) {
		return apperrors.NewBadRequestError("Invalid old password")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.userRepo.UpdatePasswordHash(storeCtx, userID, hash); err != nil {
		s.LogError(ctx, err, "Failed to update password", slog.String("user_id", userID))
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: updating password: %v", apperrors.ErrPersistence, err)
	}
	s.LogInfo(ctx, "Password changed", slog.String("user_id", userID))
	return nil
}

// UpdateAccountDetails sets full name and email. The email must not belong to another user.
func (s *userService) UpdateAccountDetails(ctx context.Context, userID string, req dto.UpdateAccountRequest) (*domain.User, error) {
	if err := s.validateStruct(req, "All fields are required"); err != nil {
		return nil, err
	}
	email := normalizeIdentifier(req.Email)
	fullName := strings.TrimSpace(req.FullName)

	lookupCtx, cancel := s.storeContext(ctx)
	owner, err := s.userRepo.FindUserByUsernameOrEmail(lookupCtx, "", email)
	cancel()
	switch {
	case err == nil && owner != nil && owner.UserID != userID:
		return nil, apperrors.NewConflictError("Email is already in use")
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		s.LogError(ctx, err, "Failed to check email ownership")
		return nil, fmt.Errorf("%w: checking email: %v", apperrors.ErrPersistence, err)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	user, err := s.userRepo.UpdateAccountDetails(storeCtx, userID, fullName, email)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrDuplicate):
			return nil, apperrors.NewConflictError("Email is already in use")
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, err
		}
		s.LogError(ctx, err, "Failed to update account details", slog.String("user_id", userID))
		return nil, fmt.Errorf("%w: updating account: %v", apperrors.ErrPersistence, err)
	}
	return user.Sanitized(), nil
}

// UpdateProfileImage uploads a new image, points the user at it and then drops the previous asset.
func (s *userService) UpdateProfileImage(ctx context.Context, userID string, kind domain.ImageKind, localPath string) (*domain.User, error) {
	label := imageLabel(kind)
	if label == "" {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unsupported image kind %q", kind))
	}
	if localPath == "" {
		return nil, apperrors.NewBadRequestError(label + " file is missing")
	}

	current, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := current.AvatarURL
	if kind == domain.ImageKindCover {
		previous = current.CoverImageURL
	}

	asset, err := s.media.Upload(ctx, localPath)
	if err != nil {
		s.LogError(ctx, err, "Profile image upload failed", slog.String("kind", string(kind)))
		return nil, apperrors.NewAppError(http.StatusBadRequest, "Error while uploading "+strings.ToLower(label), apperrors.ErrMediaUpload)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	user, err := s.userRepo.UpdateProfileImage(storeCtx, userID, kind, asset.URL)
	if err != nil {
		s.deleteAssets(ctx, asset.URL)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to update profile image", slog.String("user_id", userID))
		return nil, fmt.Errorf("%w: updating %s: %v", apperrors.ErrPersistence, kind, err)
	}

	if previous != "" && previous != asset.URL {
		s.deleteAssets(ctx, previous)
	}
	return user.Sanitized(), nil
}

func imageLabel(kind domain.ImageKind) string {
	switch kind {
	case domain.ImageKindAvatar:
		return "Avatar"
	case domain.ImageKindCover:
		return "Cover image"
	default:
		return ""
	}
}

func (s *userService) findUser(ctx context.Context, userID string) (*domain.User, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	user, err := s.userRepo.FindUserByID(storeCtx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, err)
		}
		s.LogError(ctx, err, "Failed to load user", slog.String("user_id", userID))
		return nil, fmt.Errorf("%w: loading user: %v", apperrors.ErrPersistence, err)
	}
	return user, nil
}

// deleteAssets removes media best-effort. Failures are only logged.
func (s *userService) deleteAssets(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if err := s.media.Delete(context.WithoutCancel(ctx), url); err != nil {
			s.LogWarn(ctx, "Failed to delete media asset", slog.String("url", url), slog.String("error", err.Error()))
		}
	}
}
