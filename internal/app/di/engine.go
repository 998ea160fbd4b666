// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"time"

	"logodetect_backend/internal/feature/detection/adapters/ultralytics"
	"logodetect_backend/internal/feature/detection/adapters/vision"
	"logodetect_backend/internal/feature/detection/adapters/weights"
	"logodetect_backend/internal/feature/detection/usecase"
	"logodetect_backend/internal/platform/config"
	infrahttp "logodetect_backend/internal/platform/http"
	"logodetect_backend/internal/shared/ratelimiter"
)

// Inference bundles the engine selected by ENGINE with its weight catalog.
type Inference struct {
	Engine  usecase.InferenceEngine
	Catalog usecase.WeightCatalog
	// DefaultWeight is the weight loaded at start-up.
	DefaultWeight string
	close         func() error
}

// Close releases engine resources.
func (i *Inference) Close() error {
	if i.close == nil {
		return nil
	}
	return i.close()
}

// NewCatalog returns the weight catalog and start-up weight for cfg.Engine.
func NewCatalog(cfg *config.Config) (usecase.WeightCatalog, string, error) {
	if cfg.Engine == config.EngineVision {
		return weights.StaticCatalog(vision.Catalog()), vision.WeightName, nil
	}
	catalog, err := weights.NewDirCatalog(cfg.WeightsDir, cfg.WeightsPattern)
	if err != nil {
		return nil, "", err
	}
	return catalog, cfg.DefaultWeight, nil
}

// NewInference creates the inference engine and catalog for cfg.Engine.
func NewInference(ctx context.Context, cfg *config.Config) (*Inference, error) {
	catalog, defaultWeight, err := NewCatalog(cfg)
	if err != nil {
		return nil, err
	}
	inf := &Inference{Catalog: catalog, DefaultWeight: defaultWeight}

	if cfg.Engine == config.EngineVision {
		lim := ratelimiter.NewRateLimiter(cfg.VisionRateLimit, time.Minute)
		engine, err := vision.NewEngine(ctx, lim)
		if err != nil {
			return nil, err
		}
		inf.Engine = engine
		inf.close = engine.Close
		return inf, nil
	}

	httpClient := infrahttp.NewHTTPClient(cfg.InferenceTimeout)
	inf.Engine = ultralytics.NewEngine(cfg.InferenceURL, httpClient)
	return inf, nil
}
