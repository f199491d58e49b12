package dto

// RegisterUserRequest is the multipart form accepted by /register.
// AvatarPath and CoverImagePath are the staged temp files, filled in by the handler.
type RegisterUserRequest struct {
	FullName string `form:"fullName" validate:"required,notblank"`
	UserName string `form:"userName" validate:"required,notblank"`
	Email    string `form:"email" validate:"required,notblank,email"`
	Password string `form:"password" validate:"required,notblank"`

	AvatarPath     string `form:"-"`
	CoverImagePath string `form:"-"`
}

// LoginRequest accepts either an email or a username alongside the password.
type LoginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	UserName string `json:"userName"`
	Password string `json:"password" validate:"required,notblank"`
}

// RefreshTokenRequest is the body fallback when no refresh cookie is present.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest defines the body of /change-password.
type ChangePasswordRequest struct {
	OldPassword  string `json:"oldPassword" validate:"required,notblank"`
	NewPassword  string `json:"newPassword" validate:"required,notblank"`
	ConfPassword string `json:"confPassword" validate:"required,notblank"`
}

// UpdateAccountRequest defines the data allowed for updating account details.
type UpdateAccountRequest struct {
	FullName string `json:"fullName" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,notblank,email"`
}
