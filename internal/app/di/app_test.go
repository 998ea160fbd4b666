package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	histadapters "logodetect_backend/internal/feature/history/adapters"
	"logodetect_backend/internal/platform/config"
	"logodetect_backend/internal/platform/storage"
)

// testConfig はテスト用のConfigを一時ディレクトリ上に作成します。
func testConfig(t *testing.T, inferenceURL string) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Host:              "127.0.0.1",
		Port:              8000,
		WeightsDir:        filepath.Join(root, "weights"),
		WeightsPattern:    "*.pt",
		DefaultWeight:     "original.pt",
		StaticDir:         filepath.Join(root, "static"),
		FramesDir:         filepath.Join(root, "static", "frames"),
		DefaultFPS:        2,
		DefaultConfidence: 0.5,
		Engine:            config.EngineUltralytics,
		InferenceURL:      inferenceURL,
		InferenceTimeout:  5 * time.Second,
		FFmpegPath:        "ffmpeg",
		FFprobePath:       "ffprobe",
		MaxUploadMB:       16,
		CacheTTL:          time.Minute,
		DBDriver:          config.DBDriverNone,
	}
	for _, d := range []string{cfg.WeightsDir, cfg.FramesDir} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(cfg.WeightsDir, "original.pt"), []byte("weights"), 0o644))
	return cfg
}

func newInferenceServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /models/load", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"loaded"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRunRepository_Disabled(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")

	repo, closeFn, err := NewRunRepository(cfg)
	require.NoError(t, err)
	assert.IsType(t, histadapters.NopRepository{}, repo)
	assert.NoError(t, closeFn())
}

func TestNewRunRepository_SQLite(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")
	cfg.DBDriver = config.DBDriverSQLite
	cfg.DBDSN = filepath.Join(t.TempDir(), "runs.db")

	repo, closeFn, err := NewRunRepository(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeFn()) }()

	runs, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestNewPublisher_LocalWithoutMinIO(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")

	p := NewPublisher(context.Background(), cfg)
	require.IsType(t, &storage.LocalPublisher{}, p)

	url, err := p.Publish(context.Background(), filepath.Join(cfg.StaticDir, "processed_1_clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "/static/processed_1_clip.mp4", url)
}

func TestNewInference_Ultralytics(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")

	inf, err := NewInference(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "original.pt", inf.DefaultWeight)
	require.Len(t, inf.Catalog.List(), 1)
	assert.NoError(t, inf.Close())
}

func TestNewModelWrapper_NilWithoutRedis(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")
	assert.Nil(t, NewRedis(context.Background(), cfg))
	assert.Nil(t, NewModelWrapper(nil, cfg))
}

func TestNewApp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := newInferenceServer(t)
	cfg := testConfig(t, srv.URL)

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close()) }()

	assert.True(t, app.Models.IsLoaded())
	assert.Equal(t, "original.pt", app.Models.CurrentModelName())

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","model_loaded":true}`, w.Body.String())

	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"runs":[]}`, w.Body.String())
}

func TestNewApp_ModelLoadFailureStillStarts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.InferenceTimeout = 500 * time.Millisecond

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close()) }()

	assert.False(t, app.Models.IsLoaded())
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.JSONEq(t, `{"status":"ok","model_loaded":false}`, w.Body.String())
}

func TestNewCatalog_Vision(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")
	cfg.Engine = config.EngineVision

	catalog, def, err := NewCatalog(cfg)
	require.NoError(t, err)
	assert.Equal(t, "cloud-vision", def)
	_, ok := catalog.Find(def)
	assert.True(t, ok)
}
