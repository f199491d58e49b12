package repositories

import (
	"context"

	"github.com/SscSPs/user_auth_backend/internal/core/domain"
)

// MediaStore uploads and removes profile images on the media host.
type MediaStore interface {
	// Upload sends the file at localPath and returns its public asset.
	Upload(ctx context.Context, localPath string) (*domain.MediaAsset, error)

	// Delete removes the asset behind a URL previously returned by Upload.
	Delete(ctx context.Context, url string) error
}
