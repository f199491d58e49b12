package domain

import "time"

// User represents a registered account in the domain.
type User struct {
	UserID        string `json:"_id"` // Primary Key (UUID)
	UserName      string `json:"userName"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	AvatarURL     string `json:"avatar"`
	CoverImageURL string `json:"coverImage"`

	// PasswordHash and the refresh token fields never leave the service layer.
	PasswordHash          string     `json:"-"`
	RefreshTokenHash      *string    `json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`

	AuditFields
}

// Sanitized returns a copy of the user without credential material.
func (u User) Sanitized() *User {
	u.PasswordHash = ""
	u.RefreshTokenHash = nil
	u.RefreshTokenExpiresAt = nil
	return &u
}

// HasRefreshToken reports whether a refresh token is currently stored.
func (u *User) HasRefreshToken() bool {
	return u.RefreshTokenHash != nil && *u.RefreshTokenHash != ""
}
