package mapping

import (
	"database/sql"

	"github.com/SscSPs/user_auth_backend/internal/core/domain"
	"github.com/SscSPs/user_auth_backend/internal/models"
)

// ToModelUser converts a domain User to a model User
func ToModelUser(d domain.User) models.User {
	m := models.User{
		UserID:        d.UserID,
		UserName:      d.UserName,
		Email:         d.Email,
		FullName:      d.FullName,
		PasswordHash:  d.PasswordHash,
		AvatarURL:     d.AvatarURL,
		CoverImageURL: d.CoverImageURL,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
	if d.RefreshTokenHash != nil {
		m.RefreshTokenHash = sql.NullString{String: *d.RefreshTokenHash, Valid: true}
	}
	if d.RefreshTokenExpiresAt != nil {
		m.RefreshTokenExpiresAt = sql.NullTime{Time: *d.RefreshTokenExpiresAt, Valid: true}
	}
	return m
}

// ToDomainUser converts a model User to a domain User
func ToDomainUser(m models.User) domain.User {
	d := domain.User{
		UserID:        m.UserID,
		UserName:      m.UserName,
		Email:         m.Email,
		FullName:      m.FullName,
		PasswordHash:  m.PasswordHash,
		AvatarURL:     m.AvatarURL,
		CoverImageURL: m.CoverImageURL,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
	if m.RefreshTokenHash.Valid {
		hash := m.RefreshTokenHash.String
		d.RefreshTokenHash = &hash
	}
	if m.RefreshTokenExpiresAt.Valid {
		exp := m.RefreshTokenExpiresAt.Time
		d.RefreshTokenExpiresAt = &exp
	}
	return d
}
