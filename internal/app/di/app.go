package di

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"logodetect_backend/internal/app/router"
	brandgemini "logodetect_backend/internal/feature/brandinsight/adapters/gemini"
	brandhandler "logodetect_backend/internal/feature/brandinsight/transport/handler"
	brandusecase "logodetect_backend/internal/feature/brandinsight/usecase"
	dethandler "logodetect_backend/internal/feature/detection/transport/handler"
	detusecase "logodetect_backend/internal/feature/detection/usecase"
	histhandler "logodetect_backend/internal/feature/history/transport/handler"
	histusecase "logodetect_backend/internal/feature/history/usecase"
	videoadapters "logodetect_backend/internal/feature/video/adapters"
	videohandler "logodetect_backend/internal/feature/video/transport/handler"
	videousecase "logodetect_backend/internal/feature/video/usecase"
	"logodetect_backend/internal/platform/config"
	"logodetect_backend/internal/platform/ffmpeg"
	"logodetect_backend/internal/platform/imaging"
)

// App is the fully wired service.
type App struct {
	Router    *gin.Engine
	Models    *detusecase.ModelService
	Video     *videousecase.VideoUsecase
	Inference *Inference
	closers   []func() error
}

// Close releases every resource opened by NewApp in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewApp wires repositories, usecases, handlers and the router from cfg.
// A model that fails to load does not stop start-up; /api/health reports it.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{}

	inference, err := NewInference(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Inference = inference
	app.closers = append(app.closers, inference.Close)

	// Redisキャッシュでラップ
	rdb := NewRedis(ctx, cfg)
	if rdb != nil {
		app.closers = append(app.closers, rdb.Close)
	}

	runRepo, closeDB, err := NewRunRepository(cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.closers = append(app.closers, closeDB)

	// Usecase
	settings := detusecase.NewSettings(cfg.DefaultFPS, cfg.DefaultConfidence, inference.DefaultWeight, cfg.WeightsDir)
	models := detusecase.NewModelService(inference.Engine, inference.Catalog, settings, NewModelWrapper(rdb, cfg))
	if err := models.LoadDefault(ctx); err != nil {
		slog.Error("既定モデルのロードに失敗", "weight", inference.DefaultWeight, "error", err)
	}
	app.Models = models

	renderer := imaging.NewRenderer(imaging.DefaultJPEGQuality)
	historyUC := histusecase.NewHistoryUsecase(runRepo)
	detectionUC := detusecase.NewDetectionUsecase(models, settings, renderer, historyUC)
	toolkit := videoadapters.NewFFmpegToolkit(ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath, nil))
	videoUC := videousecase.NewVideoUsecase(models, toolkit, renderer, NewPublisher(ctx, cfg), historyUC, videousecase.Dirs{
		StaticDir: cfg.StaticDir,
		FramesDir: cfg.FramesDir,
	})
	app.Video = videoUC

	// Handler
	brandH := brandhandler.NewBrandInsightHandler(nil)
	if cfg.GeminiEnabled {
		analyzer, err := brandgemini.NewGeminiAnalyzer(ctx, cfg.GeminiModel)
		if err != nil {
			slog.Warn("Gemini unavailable. Brand insight disabled.", "error", err)
		} else {
			brandH = brandhandler.NewBrandInsightHandler(brandusecase.NewBrandInsightUsecase(analyzer))
		}
	}

	// ルータ生成
	app.Router = router.NewRouter(router.Handlers{
		Detection: dethandler.NewDetectionHandler(detectionUC),
		Video:     videohandler.NewVideoHandler(videoUC),
		History:   histhandler.NewHistoryHandler(historyUC),
		Brand:     brandH,
		Ready:     models.IsLoaded,
	}, router.Options{
		StaticDir:      cfg.StaticDir,
		AdminJWTSecret: cfg.AdminJWTSecret,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	// ADMIN_JWT_SECRETチェック（開発中の注意喚起）
	if cfg.AdminJWTSecret == "" {
		slog.Warn("ADMIN_JWT_SECRET is not set. Configuration endpoints are unauthenticated.")
	}
	return app, nil
}
