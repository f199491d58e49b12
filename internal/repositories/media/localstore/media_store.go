// Package localstore keeps profile images on the local filesystem. It backs
// development setups that have no bucket configured.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/SscSPs/user_auth_backend/internal/apperrors"
	"github.com/SscSPs/user_auth_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/user_auth_backend/internal/core/ports/repositories"
	"github.com/google/uuid"
)

// MediaStore copies uploads into Dir and exposes them under BaseURL.
type MediaStore struct {
	dir     string
	baseURL string
}

var _ portsrepo.MediaStore = (*MediaStore)(nil)

// New creates the directory if needed.
func New(dir, baseURL string) (*MediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &MediaStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the directory files are written to.
func (s *MediaStore) Dir() string {
	return s.dir
}

func (s *MediaStore) Upload(ctx context.Context, localPath string) (*domain.MediaAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMediaUpload, err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(localPath))
	key := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMediaUpload, err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMediaUpload, err)
	}

	return &domain.MediaAsset{
		URL:         s.baseURL + "/" + key,
		Key:         key,
		ContentType: mime.TypeByExtension(ext),
		Size:        n,
	}, nil
}

func (s *MediaStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return fmt.Errorf("%w: url %q is not served by this store", apperrors.ErrValidation, url)
	}
	key := filepath.Base(strings.TrimPrefix(url, s.baseURL+"/"))
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
