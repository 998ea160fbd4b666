package adapters

import (
	"context"

	"logodetect_backend/internal/feature/history/domain/entity"
	"logodetect_backend/internal/feature/history/usecase"
)

// NopRepository は履歴を保存しないRunRepositoryです。DB_DRIVER=none の場合に使用します。
type NopRepository struct{}

var _ usecase.RunRepository = NopRepository{}

func (NopRepository) Create(context.Context, entity.DetectionRun) error { return nil }

func (NopRepository) Save(context.Context, entity.DetectionRun) error { return nil }

func (NopRepository) Get(context.Context, string) (entity.DetectionRun, error) {
	return entity.DetectionRun{}, usecase.ErrRunNotFound
}

func (NopRepository) List(context.Context, int) ([]entity.DetectionRun, error) {
	return []entity.DetectionRun{}, nil
}
