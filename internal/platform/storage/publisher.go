// Package storage publishes processed videos and returns the URL clients download them from.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// LocalPublisher serves files already written under the static directory.
type LocalPublisher struct {
	urlPrefix string
}

// NewLocalPublisher returns a publisher mapping files to urlPrefix/<name>.
func NewLocalPublisher(urlPrefix string) *LocalPublisher {
	if urlPrefix == "" {
		urlPrefix = "/static"
	}
	return &LocalPublisher{urlPrefix: urlPrefix}
}

// URL returns the public URL of a file in the static directory.
func (p *LocalPublisher) URL(localPath string) string {
	return path.Join(p.urlPrefix, filepath.Base(localPath))
}

// Publish returns the static URL for localPath. Nothing is copied.
func (p *LocalPublisher) Publish(_ context.Context, localPath string) (string, error) {
	return p.URL(localPath), nil
}

// MinIOConfig configures the MinIO publisher.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// Expiry is the lifetime of presigned URLs. Zero means 24 hours.
	Expiry time.Duration
}

// MinIOPublisher uploads videos to a bucket and returns presigned GET URLs.
type MinIOPublisher struct {
	client *miniogo.Client
	bucket string
	expiry time.Duration
	local  *LocalPublisher
}

// NewMinIOPublisher creates the client. Call EnsureBucket before publishing.
func NewMinIOPublisher(cfg MinIOConfig) (*MinIOPublisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &MinIOPublisher{client: client, bucket: cfg.Bucket, expiry: expiry, local: NewLocalPublisher("")}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (p *MinIOPublisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if !exists {
		if err := p.client.MakeBucket(ctx, p.bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", p.bucket, err)
		}
		slog.Info("created minio bucket", "bucket", p.bucket)
	}
	return nil
}

// Publish uploads localPath and returns a presigned URL. If the upload fails
// the local static URL is returned together with the error.
func (p *MinIOPublisher) Publish(ctx context.Context, localPath string) (string, error) {
	key := filepath.Base(localPath)
	if _, err := p.client.FPutObject(ctx, p.bucket, key, localPath, miniogo.PutObjectOptions{
		ContentType: "video/mp4",
	}); err != nil {
		return p.local.URL(localPath), fmt.Errorf("upload video: %w", err)
	}
	u, err := p.client.PresignedGetObject(ctx, p.bucket, key, p.expiry, nil)
	if err != nil {
		return p.local.URL(localPath), fmt.Errorf("presign video: %w", err)
	}
	slog.Info("published video to minio", "bucket", p.bucket, "key", key)
	return u.String(), nil
}
