// Package usecase はhistoryフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"logodetect_backend/internal/feature/history/domain/entity"
)

const (
	// DefaultListLimit は一覧取得件数の既定値です。
	DefaultListLimit = 20
	// MaxListLimit は一覧取得件数の上限です。
	MaxListLimit = 100
)

var (
	// ErrRunNotFound は指定IDの履歴が存在しないことを表します。
	ErrRunNotFound = errors.New("detection run not found")
	// ErrInvalidLimit は一覧取得件数が範囲外であることを表します。
	ErrInvalidLimit = fmt.Errorf("limit must be between 1 and %d", MaxListLimit)
)

// RunRepository は検出履歴の永続化を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type RunRepository interface {
	Create(ctx context.Context, run entity.DetectionRun) error
	Save(ctx context.Context, run entity.DetectionRun) error
	// Get は存在しない場合 ErrRunNotFound を返します。
	Get(ctx context.Context, id string) (entity.DetectionRun, error)
	// List は新しい順に最大limit件を返します。
	List(ctx context.Context, limit int) ([]entity.DetectionRun, error)
}

// HistoryUsecase は検出実行の記録と参照を提供します。
type HistoryUsecase struct {
	repo  RunRepository
	now   func() time.Time
	newID func() string
}

// NewHistoryUsecase はHistoryUsecaseの新しいインスタンスを生成します。
func NewHistoryUsecase(repo RunRepository) *HistoryUsecase {
	return &HistoryUsecase{repo: repo, now: time.Now, newID: uuid.NewString}
}

// Begin は実行中の履歴を作成し、そのIDを返します。
func (u *HistoryUsecase) Begin(ctx context.Context, start entity.RunStart) (string, error) {
	run := entity.DetectionRun{
		ID:                  u.newID(),
		Kind:                start.Kind,
		Source:              start.Source,
		Weight:              start.Weight,
		ConfidenceThreshold: start.ConfidenceThreshold,
		FramesPerSecond:     start.FramesPerSecond,
		Status:              entity.RunStatusRunning,
		CreatedAt:           u.now().UTC(),
	}
	if err := u.repo.Create(ctx, run); err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return run.ID, nil
}

// Finish は履歴を完了・中断・失敗のいずれかとして更新します。
func (u *HistoryUsecase) Finish(ctx context.Context, id string, outcome entity.RunOutcome) error {
	run, err := u.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	completed := u.now().UTC()
	run.FramesProcessed = outcome.FramesProcessed
	run.TotalDetections = outcome.TotalDetections
	run.ProcessedVideoURL = outcome.ProcessedVideoURL
	run.CompletedAt = &completed
	run.Status = entity.RunStatusCompleted
	switch {
	case errors.Is(outcome.Err, context.Canceled):
		run.Status = entity.RunStatusCancelled
	case outcome.Err != nil:
		run.Status = entity.RunStatusFailed
		run.Error = outcome.Err.Error()
	}
	if err := u.repo.Save(ctx, run); err != nil {
		return fmt.Errorf("save run %s: %w", id, err)
	}
	return nil
}

// List は新しい順に履歴を返します。limitが0の場合は既定値を使用します。
func (u *HistoryUsecase) List(ctx context.Context, limit int) ([]entity.DetectionRun, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, ErrInvalidLimit
	}
	return u.repo.List(ctx, limit)
}

// Get は指定IDの履歴を返します。
func (u *HistoryUsecase) Get(ctx context.Context, id string) (entity.DetectionRun, error) {
	return u.repo.Get(ctx, id)
}
