package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"logodetect_backend/internal/feature/detection/domain/entity"
)

// mockModel はテスト用のModelモック実装です。
type mockModel struct {
	predictFn func(ctx context.Context, imageData []byte, confidence float64) ([]entity.Detection, error)
	calls     int
}

func (m *mockModel) Predict(ctx context.Context, imageData []byte, confidence float64) ([]entity.Detection, error) {
	m.calls++
	if m.predictFn != nil {
		return m.predictFn(ctx, imageData, confidence)
	}
	return nil, nil
}

var sampleDetections = []entity.Detection{
	{BBox: [4]float64{1, 2, 3, 4}, Confidence: 0.9, ClassID: 0, ClassName: "acme"},
}

func expectedKey(ns, weight string, img []byte, conf string) string {
	sum := blake2b.Sum256(img)
	return ns + ":" + weight + ":" + conf + ":" + hex.EncodeToString(sum[:])
}

// TestNewCachingModel_Defaults はデフォルト値（TTLとnamespace）が正しく設定されることを検証します。
func TestNewCachingModel_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		ttl               time.Duration
		namespace         string
		expectedTTL       time.Duration
		expectedNamespace string
	}{
		{name: "default values when zero/empty", expectedTTL: DefaultTTL, expectedNamespace: DefaultNamespace},
		{name: "negative ttl uses default", ttl: -time.Minute, expectedTTL: DefaultTTL, expectedNamespace: DefaultNamespace},
		{name: "custom values preserved", ttl: time.Minute, namespace: "custom", expectedTTL: time.Minute, expectedNamespace: "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewCachingModel(nil, tt.ttl, &mockModel{}, "original.pt", tt.namespace)
			assert.Equal(t, tt.expectedTTL, m.ttl)
			assert.Equal(t, tt.expectedNamespace, m.namespace)
		})
	}
}

// TestCachingModel_Predict_NilRedis はRedis未設定時にキャッシュをバイパスすることを検証します。
func TestCachingModel_Predict_NilRedis(t *testing.T) {
	t.Parallel()

	inner := &mockModel{predictFn: func(context.Context, []byte, float64) ([]entity.Detection, error) {
		return sampleDetections, nil
	}}
	m := NewCachingModel(nil, time.Minute, inner, "original.pt", "")

	got, err := m.Predict(context.Background(), []byte("img"), 0.5)
	require.NoError(t, err)
	assert.Equal(t, sampleDetections, got)
	assert.Equal(t, 1, inner.calls)
}

func TestCachingModel_Predict_CacheHit(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	inner := &mockModel{}
	m := NewCachingModel(db, time.Minute, inner, "original.pt", "ns")

	img := []byte("frame")
	b, _ := json.Marshal(sampleDetections)
	mock.ExpectGet(expectedKey("ns", "original.pt", img, "0.5")).SetVal(string(b))

	got, err := m.Predict(context.Background(), img, 0.5)
	require.NoError(t, err)
	assert.Equal(t, sampleDetections, got)
	assert.Equal(t, 0, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachingModel_CacheKey_ExactThreshold(t *testing.T) {
	t.Parallel()

	m := NewCachingModel(nil, time.Minute, &mockModel{}, "original.pt", "ns")
	img := []byte("frame")

	assert.NotEqual(t, m.cacheKey(img, 0.5001), m.cacheKey(img, 0.5004))
	assert.Equal(t, expectedKey("ns", "original.pt", img, "0.5001"), m.cacheKey(img, 0.5001))
	assert.Equal(t, m.cacheKey(img, 0.5), m.cacheKey(img, 0.50))
}

func TestCachingModel_Predict_CacheMiss(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	inner := &mockModel{predictFn: func(context.Context, []byte, float64) ([]entity.Detection, error) {
		return sampleDetections, nil
	}}
	m := NewCachingModel(db, time.Minute, inner, "my model:v2", "ns")

	img := []byte("frame")
	key := expectedKey("ns", "my_model_v2", img, "0.25")
	b, _ := json.Marshal(sampleDetections)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, b, time.Minute).SetVal("OK")

	got, err := m.Predict(context.Background(), img, 0.25)
	require.NoError(t, err)
	assert.Equal(t, sampleDetections, got)
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingModel_Predict_CorruptedEntry は壊れたキャッシュを削除して推論し直すことを検証します。
func TestCachingModel_Predict_CorruptedEntry(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	inner := &mockModel{predictFn: func(context.Context, []byte, float64) ([]entity.Detection, error) {
		return sampleDetections, nil
	}}
	m := NewCachingModel(db, time.Minute, inner, "original.pt", "ns")

	img := []byte("frame")
	key := expectedKey("ns", "original.pt", img, "0.5")
	b, _ := json.Marshal(sampleDetections)
	mock.ExpectGet(key).SetVal("{not json")
	mock.ExpectDel(key).SetVal(1)
	mock.ExpectSet(key, b, time.Minute).SetVal("OK")

	got, err := m.Predict(context.Background(), img, 0.5)
	require.NoError(t, err)
	assert.Equal(t, sampleDetections, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachingModel_Predict_InnerError(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	inner := &mockModel{predictFn: func(context.Context, []byte, float64) ([]entity.Detection, error) {
		return nil, errors.New("sidecar down")
	}}
	m := NewCachingModel(db, time.Minute, inner, "original.pt", "ns")

	img := []byte("frame")
	mock.ExpectGet(expectedKey("ns", "original.pt", img, "0.5")).RedisNil()

	_, err := m.Predict(context.Background(), img, 0.5)
	assert.EqualError(t, err, "sidecar down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWrapper(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Wrapper(nil, time.Minute, "ns"))

	db, _ := redismock.NewClientMock()
	wrap := Wrapper(db, time.Minute, "ns")
	require.NotNil(t, wrap)

	wrapped := wrap("best.pt", &mockModel{})
	cm, ok := wrapped.(*CachingModel)
	require.True(t, ok)
	assert.Equal(t, "best.pt", cm.weight)
}
