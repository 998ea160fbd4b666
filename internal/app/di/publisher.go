package di

import (
	"context"
	"log/slog"

	"logodetect_backend/internal/feature/video/usecase"
	"logodetect_backend/internal/platform/config"
	"logodetect_backend/internal/platform/storage"
)

// NewPublisher creates the processed-video Publisher.
// If MinIO is configured and reachable, it returns a MinIO-backed implementation.
// Otherwise, it falls back to the local static URL.
func NewPublisher(ctx context.Context, cfg *config.Config) usecase.Publisher {
	local := storage.NewLocalPublisher("")
	if !cfg.MinIOEnabled() {
		return local
	}
	p, err := storage.NewMinIOPublisher(storage.MinIOConfig{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		UseSSL:    cfg.MinIOUseSSL,
		Bucket:    cfg.MinIOBucket,
	})
	if err != nil {
		slog.Warn("MinIO unavailable. Serving processed videos locally.", "error", err)
		return local
	}
	if err := p.EnsureBucket(ctx); err != nil {
		slog.Warn("MinIO unavailable. Serving processed videos locally.", "error", err)
		return local
	}
	return p
}
