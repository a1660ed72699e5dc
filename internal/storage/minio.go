package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-portal/internal/config"
)

// ImageStore persists complaint photos and hands back opaque keys. A nil
// store is valid: submissions simply carry no image.
type ImageStore interface {
	Upload(ctx context.Context, reader io.Reader, size int64, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string) (string, error)
}

// MinIOStore is an ImageStore backed by a MinIO bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore connects to MinIO and ensures the bucket exists. Returns
// (nil, nil) when no endpoint is configured so image storage stays optional.
func NewMinIOStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*MinIOStore, error) {
	if cfg.Endpoint == "" {
		logger.Warn("MINIO_ENDPOINT not provided; image uploads disabled")
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		logger.Info("created image bucket", zap.String("bucket", cfg.Bucket))
	}

	logger.Info("connected to minio", zap.String("endpoint", cfg.Endpoint))
	return &MinIOStore{client: client, bucket: cfg.Bucket}, nil
}

// Upload stores the payload under a fresh key and returns the key.
func (s *MinIOStore) Upload(ctx context.Context, reader io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("complaints/%s", uuid.NewString())

	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return key, nil
}

// PresignedURL returns a time-limited download URL for a stored image.
func (s *MinIOStore) PresignedURL(ctx context.Context, key string) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, key, 24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("presign image: %w", err)
	}
	return url.String(), nil
}
