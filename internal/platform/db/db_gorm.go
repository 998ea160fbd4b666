// Package db はGORMを使用したデータベース接続を提供します。
package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// DriverSQLite はローカルのSQLiteファイルを使用します。
	DriverSQLite = "sqlite"
	// DriverPostgres はPostgreSQLを使用します。
	DriverPostgres = "postgres"
)

// retryInterval は接続リトライの間隔です。
var retryInterval = 3 * time.Second

// Opener はDSNからDB接続を開く関数です。テストで差し替えられます。
type Opener func(dsn string) (*gorm.DB, error)

// NewOpener はドライバ名に対応するOpenerを返します。
func NewOpener(driver string) (Opener, error) {
	var dial func(string) gorm.Dialector
	switch driver {
	case DriverSQLite:
		dial = sqlite.Open
	case DriverPostgres:
		dial = postgres.Open
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return func(dsn string) (*gorm.DB, error) {
		return gorm.Open(dial(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	}, nil
}

// Open は指定ドライバでDBに接続し、modelsのマイグレーションを実行します。
func Open(driver, dsn string, timeout time.Duration, models ...any) (*gorm.DB, error) {
	opener, err := NewOpener(driver)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(dsn, timeout, opener)
	if err != nil {
		return nil, err
	}
	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	slog.Info("データベースに接続しました", "driver", driver)
	return db, nil
}

// ConnectWithRetry はtimeoutに達するまで接続をリトライします。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %v: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(retryInterval)
	}
}
