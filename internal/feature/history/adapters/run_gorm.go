// Package adapters はhistoryフィーチャーの永続化実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"logodetect_backend/internal/feature/history/domain/entity"
	"logodetect_backend/internal/feature/history/usecase"
)

type runGorm struct {
	db *gorm.DB
}

var _ usecase.RunRepository = (*runGorm)(nil)

// NewRunRepository はGORMを使用したRunRepositoryを生成します。
func NewRunRepository(db *gorm.DB) *runGorm {
	return &runGorm{db: db}
}

// RunModel は detection_runs テーブルの行です。
type RunModel struct {
	ID                  string    `gorm:"primaryKey;size:36"`
	Kind                string    `gorm:"size:16;not null;index"`
	Source              string    `gorm:"size:1024;not null"`
	Weight              string    `gorm:"size:255;not null"`
	ConfidenceThreshold float64   `gorm:"not null"`
	FramesPerSecond     int       `gorm:"not null;default:0"`
	FramesProcessed     int       `gorm:"not null;default:0"`
	TotalDetections     int       `gorm:"not null;default:0"`
	ProcessedVideoURL   string    `gorm:"size:2048"`
	Status              string    `gorm:"size:16;not null"`
	Error               string    `gorm:"type:text"`
	CreatedAt           time.Time `gorm:"not null;index"`
	CompletedAt         *time.Time
}

func (RunModel) TableName() string {
	return "detection_runs"
}

func toModel(e entity.DetectionRun) RunModel {
	return RunModel{
		ID:                  e.ID,
		Kind:                string(e.Kind),
		Source:              e.Source,
		Weight:              e.Weight,
		ConfidenceThreshold: e.ConfidenceThreshold,
		FramesPerSecond:     e.FramesPerSecond,
		FramesProcessed:     e.FramesProcessed,
		TotalDetections:     e.TotalDetections,
		ProcessedVideoURL:   e.ProcessedVideoURL,
		Status:              string(e.Status),
		Error:               e.Error,
		CreatedAt:           e.CreatedAt,
		CompletedAt:         e.CompletedAt,
	}
}

func toEntity(m RunModel) entity.DetectionRun {
	return entity.DetectionRun{
		ID:                  m.ID,
		Kind:                entity.RunKind(m.Kind),
		Source:              m.Source,
		Weight:              m.Weight,
		ConfidenceThreshold: m.ConfidenceThreshold,
		FramesPerSecond:     m.FramesPerSecond,
		FramesProcessed:     m.FramesProcessed,
		TotalDetections:     m.TotalDetections,
		ProcessedVideoURL:   m.ProcessedVideoURL,
		Status:              entity.RunStatus(m.Status),
		Error:               m.Error,
		CreatedAt:           m.CreatedAt,
		CompletedAt:         m.CompletedAt,
	}
}

func (r *runGorm) Create(ctx context.Context, run entity.DetectionRun) error {
	m := toModel(run)
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *runGorm) Save(ctx context.Context, run entity.DetectionRun) error {
	m := toModel(run)
	return r.db.WithContext(ctx).Save(&m).Error
}

func (r *runGorm) Get(ctx context.Context, id string) (entity.DetectionRun, error) {
	var m RunModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.DetectionRun{}, usecase.ErrRunNotFound
	}
	if err != nil {
		return entity.DetectionRun{}, err
	}
	return toEntity(m), nil
}

func (r *runGorm) List(ctx context.Context, limit int) ([]entity.DetectionRun, error) {
	var rows []RunModel
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.DetectionRun, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}
