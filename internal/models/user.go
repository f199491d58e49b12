package models

import (
	"database/sql"
	"time"
)

// User is the row shape of the users table.
type User struct {
	UserID        string `db:"user_id"`
	UserName      string `db:"user_name"`
	Email         string `db:"email"`
	FullName      string `db:"full_name"`
	PasswordHash  string `db:"password_hash"`
	AvatarURL     string `db:"avatar_url"`
	CoverImageURL string `db:"cover_image_url"`
	AuditFields

	// Refresh Token Fields
	RefreshTokenHash      sql.NullString `db:"refresh_token_hash"`       // Store hash of the refresh token
	RefreshTokenExpiresAt sql.NullTime   `db:"refresh_token_expires_at"` // Expiry of the stored refresh token
}

// AuditFields holds the timestamp columns shared by tables.
type AuditFields struct {
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
