// Package s3store stores profile images in an S3-compatible bucket.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SscSPs/user_auth_backend/internal/apperrors"
	"github.com/SscSPs/user_auth_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/user_auth_backend/internal/core/ports/repositories"
	appconfig "github.com/SscSPs/user_auth_backend/internal/platform/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ObjectAPI is the subset of the S3 client used by MediaStore.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// MediaStore uploads files to a bucket and serves them from a public base URL.
type MediaStore struct {
	client  ObjectAPI
	bucket  string
	baseURL string
	prefix  string
	now     func() time.Time
}

var _ portsrepo.MediaStore = (*MediaStore)(nil)

// New builds an S3 client from cfg. Static credentials are used when supplied,
// otherwise the default AWS credential chain.
func New(ctx context.Context, cfg appconfig.MediaConfig) (*MediaStore, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client ObjectAPI, cfg appconfig.MediaConfig) *MediaStore {
	return &MediaStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg),
		prefix:  strings.Trim(cfg.KeyPrefix, "/"),
		now:     time.Now,
	}
}

func publicBaseURL(cfg appconfig.MediaConfig) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// storageKey lays objects out by upload date: <prefix>/yyyy/m/d/<uuid><ext>.
func (s *MediaStore) storageKey(ext string) string {
	d := s.now()
	key := fmt.Sprintf("%d/%d/%d/%s%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), ext)
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key
}

// Upload sends the file at localPath to the bucket.
func (s *MediaStore) Upload(ctx context.Context, localPath string) (*domain.MediaAsset, error) {
	if localPath == "" {
		return nil, fmt.Errorf("%w: empty path", apperrors.ErrMediaUpload)
	}
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMediaUpload, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMediaUpload, err)
	}

	contentType, err := detectContentType(f, localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMediaUpload, err)
	}

	key := s.storageKey(strings.ToLower(filepath.Ext(localPath)))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: put object %s: %v", apperrors.ErrMediaUpload, key, err)
	}

	return &domain.MediaAsset{
		URL:         s.URLForKey(key),
		Key:         key,
		ContentType: contentType,
		Size:        info.Size(),
	}, nil
}

// Delete removes the object behind assetURL.
func (s *MediaStore) Delete(ctx context.Context, assetURL string) error {
	key, err := s.KeyFromURL(assetURL)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// URLForKey returns the public URL for an object key.
func (s *MediaStore) URLForKey(key string) string {
	return s.baseURL + "/" + key
}

// KeyFromURL reverses URLForKey. URLs outside the bucket are rejected.
func (s *MediaStore) KeyFromURL(assetURL string) (string, error) {
	if !strings.HasPrefix(assetURL, s.baseURL+"/") {
		return "", fmt.Errorf("%w: url %q is not served by this store", apperrors.ErrValidation, assetURL)
	}
	key, err := url.PathUnescape(strings.TrimPrefix(assetURL, s.baseURL+"/"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if key == "" {
		return "", errors.New("empty object key")
	}
	return key, nil
}

// detectContentType sniffs the first bytes and falls back to the extension.
func detectContentType(f *os.File, name string) (string, error) {
	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	contentType := http.DetectContentType(head[:n])
	if contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
			contentType = byExt
		}
	}
	return contentType, nil
}
