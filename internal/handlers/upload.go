package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/SscSPs/user_auth_backend/internal/apperrors"
	"github.com/SscSPs/user_auth_backend/internal/middleware"
	"github.com/SscSPs/user_auth_backend/internal/platform/config"
	"github.com/SscSPs/user_auth_backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// uploadStager saves multipart files into the temp dir before they go to the media host.
type uploadStager struct {
	dir     string
	maxSize int64
}

func newUploadStager(cfg *config.Config) *uploadStager {
	return &uploadStager{dir: cfg.UploadTempDir, maxSize: cfg.MaxUploadSize}
}

// limitBody caps the request body for multipart routes.
func (u *uploadStager) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u.maxSize > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, u.maxSize)
		}
		c.Next()
	}
}

// stage stores the file sent under field and returns its path and a cleanup func.
// A missing file yields an empty path and no error.
func (u *uploadStager) stage(c *gin.Context, field string) (string, func(), error) {
	noop := func() {}

	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", noop, nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", noop, apperrors.NewBadRequestError(fmt.Sprintf("File is larger than %d bytes", maxErr.Limit))
		}
		return "", noop, apperrors.NewBadRequestError("Invalid multipart form")
	}

	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return "", noop, fmt.Errorf("failed to create upload dir: %w", err)
	}
	name, err := utils.TempFileName(filepath.Ext(fh.Filename))
	if err != nil {
		return "", noop, err
	}
	dst := filepath.Join(u.dir, name)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", noop, fmt.Errorf("failed to stage upload: %w", err)
	}

	cleanup := func() {
		if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
			middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to remove temp upload",
				slog.String("path", dst), slog.String("error", err.Error()))
		}
	}
	return dst, cleanup, nil
}
