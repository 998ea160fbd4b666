package usecase_test

import (
	"context"
	"errors"
	"image"
	"sync"

	"logodetect_backend/internal/feature/detection/domain/entity"
	"logodetect_backend/internal/feature/detection/usecase"
	histentity "logodetect_backend/internal/feature/history/domain/entity"
)

// ErrEngine はモックと期待値の間で共有されるセンチネルエラーです。
var ErrEngine = errors.New("engine error")

// mockModel はModelインターフェースのモック実装です。
type mockModel struct {
	PredictFunc  func(ctx context.Context, imageData []byte, confidence float64) ([]entity.Detection, error)
	PredictCalls int
}

func (m *mockModel) Predict(ctx context.Context, imageData []byte, confidence float64) ([]entity.Detection, error) {
	m.PredictCalls++
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, imageData, confidence)
	}
	return nil, nil
}

// mockEngine はInferenceEngineインターフェースのモック実装です。
type mockEngine struct {
	mu            sync.Mutex
	LoadModelFunc func(ctx context.Context, weight entity.WeightInfo) (usecase.Model, error)
	DeviceFunc    func(ctx context.Context) (entity.DeviceInfo, error)
	Loaded        []string
}

func (m *mockEngine) LoadModel(ctx context.Context, weight entity.WeightInfo) (usecase.Model, error) {
	m.mu.Lock()
	m.Loaded = append(m.Loaded, weight.Name)
	m.mu.Unlock()
	if m.LoadModelFunc != nil {
		return m.LoadModelFunc(ctx, weight)
	}
	return &mockModel{}, nil
}

func (m *mockEngine) Device(ctx context.Context) (entity.DeviceInfo, error) {
	if m.DeviceFunc != nil {
		return m.DeviceFunc(ctx)
	}
	return entity.DeviceInfo{Device: "cpu", DeviceName: "CPU"}, nil
}

// staticCatalog はWeightCatalogのテスト用実装です。
type staticCatalog []entity.WeightInfo

func (c staticCatalog) List() []entity.WeightInfo { return c }

func (c staticCatalog) Find(name string) (entity.WeightInfo, bool) {
	for _, w := range c {
		if w.Name == name {
			return w, true
		}
	}
	return entity.WeightInfo{}, false
}

// fakeRenderer はImageRendererのテスト用実装です。"broken"というデータはデコードに失敗します。
type fakeRenderer struct{}

func (fakeRenderer) Decode(data []byte) (image.Image, error) {
	if string(data) == "broken" {
		return nil, errors.New("unknown format")
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func (fakeRenderer) Annotate(img image.Image, _ []entity.Detection) image.Image { return img }

func (fakeRenderer) EncodeJPEG(image.Image) ([]byte, error) { return []byte("jpeg"), nil }

// mockRecorder はRunRecorderのモック実装です。
type mockRecorder struct {
	Starts   []histentity.RunStart
	Outcomes []histentity.RunOutcome
}

func (m *mockRecorder) Begin(_ context.Context, start histentity.RunStart) (string, error) {
	m.Starts = append(m.Starts, start)
	return "run-1", nil
}

func (m *mockRecorder) Finish(_ context.Context, _ string, outcome histentity.RunOutcome) error {
	m.Outcomes = append(m.Outcomes, outcome)
	return nil
}

func testCatalog() staticCatalog {
	return staticCatalog{
		{Name: "original.pt", Path: "weights/original.pt", Size: 1024},
		{Name: "finetuned.pt", Path: "weights/finetuned.pt", Size: 2048},
	}
}
