package adapters

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"logodetect_backend/internal/feature/history/domain/entity"
	"logodetect_backend/internal/feature/history/usecase"
)

// setupTestDB prepares a temporary SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "history.db")), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")
	require.NoError(t, db.AutoMigrate(&RunModel{}), "failed to migrate table")
	return db
}

func sampleRun(id string, created time.Time) entity.DetectionRun {
	return entity.DetectionRun{
		ID:                  id,
		Kind:                entity.RunKindImage,
		Source:              "a.jpg, b.png",
		Weight:              "original.pt",
		ConfidenceThreshold: 0.5,
		Status:              entity.RunStatusRunning,
		CreatedAt:           created,
	}
}

func TestRunGorm_CreateGetSave(t *testing.T) {
	t.Parallel()

	repo := NewRunRepository(setupTestDB(t))
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, sampleRun("r1", created)))

	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusRunning, got.Status)
	assert.Equal(t, "a.jpg, b.png", got.Source)
	assert.Nil(t, got.CompletedAt)

	done := created.Add(time.Minute)
	got.Status = entity.RunStatusCompleted
	got.TotalDetections = 7
	got.CompletedAt = &done
	require.NoError(t, repo.Save(ctx, got))

	got, err = repo.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusCompleted, got.Status)
	assert.Equal(t, 7, got.TotalDetections)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, done.Equal(*got.CompletedAt))
}

func TestRunGorm_Save_Cancelled(t *testing.T) {
	t.Parallel()

	repo := NewRunRepository(setupTestDB(t))
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	run := sampleRun("r-cancel", created)
	run.Kind = entity.RunKindVideo
	require.NoError(t, repo.Create(ctx, run))

	done := created.Add(10 * time.Second)
	run.Status = entity.RunStatusCancelled
	run.FramesProcessed = 3
	run.CompletedAt = &done
	require.NoError(t, repo.Save(ctx, run))

	got, err := repo.Get(ctx, "r-cancel")
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusCancelled, got.Status)
	assert.Empty(t, got.Error)
	assert.Equal(t, 3, got.FramesProcessed)
}

func TestRunGorm_Get_NotFound(t *testing.T) {
	t.Parallel()

	_, err := NewRunRepository(setupTestDB(t)).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, usecase.ErrRunNotFound)
}

func TestRunGorm_List_NewestFirst(t *testing.T) {
	t.Parallel()

	repo := NewRunRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, repo.Create(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)

	runs, err = repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestNopRepository(t *testing.T) {
	t.Parallel()

	var repo NopRepository
	ctx := context.Background()
	assert.NoError(t, repo.Create(ctx, sampleRun("x", time.Now())))
	assert.NoError(t, repo.Save(ctx, sampleRun("x", time.Now())))
	_, err := repo.Get(ctx, "x")
	assert.ErrorIs(t, err, usecase.ErrRunNotFound)
	runs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
