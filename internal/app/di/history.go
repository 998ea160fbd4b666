package di

import (
	"log/slog"
	"time"

	histadapters "logodetect_backend/internal/feature/history/adapters"
	"logodetect_backend/internal/feature/history/usecase"
	"logodetect_backend/internal/platform/config"
	"logodetect_backend/internal/platform/db"
)

// dbConnectTimeout bounds the start-up connection retries.
const dbConnectTimeout = 30 * time.Second

// NewRunRepository creates a RunRepository implementation.
// If DB_DRIVER is none it returns a no-op implementation.
// Otherwise it opens SQLite or PostgreSQL and migrates the run table.
func NewRunRepository(cfg *config.Config) (usecase.RunRepository, func() error, error) {
	if cfg.DBDriver == config.DBDriverNone {
		slog.Info("検出履歴は無効です")
		return histadapters.NopRepository{}, func() error { return nil }, nil
	}
	gdb, err := db.Open(cfg.DBDriver, cfg.DBDSN, dbConnectTimeout, &histadapters.RunModel{})
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, nil, err
	}
	return histadapters.NewRunRepository(gdb), sqlDB.Close, nil
}
