package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"logodetect_backend/internal/feature/detection/domain/entity"
	"logodetect_backend/internal/platform/metrics"
)

// Model はロード済みの検出モデルです。
type Model interface {
	// Predict はエンコード済み画像から閾値以上の検出結果を返します。
	Predict(ctx context.Context, imageData []byte, confidence float64) ([]entity.Detection, error)
}

// InferenceEngine はモデルのロードとデバイス情報の取得を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type InferenceEngine interface {
	LoadModel(ctx context.Context, weight entity.WeightInfo) (Model, error)
	Device(ctx context.Context) (entity.DeviceInfo, error)
}

// WeightCatalog は利用可能な重みの一覧を提供します。
type WeightCatalog interface {
	List() []entity.WeightInfo
	Find(name string) (entity.WeightInfo, bool)
}

// ModelWrapper はロード直後のモデルを装飾します（キャッシュなど）。
type ModelWrapper func(weightName string, m Model) Model

// ModelService はモデルのロード・キャッシュ・切り替えを管理します。
type ModelService struct {
	engine   InferenceEngine
	catalog  WeightCatalog
	settings *Settings
	wrap     ModelWrapper

	loads singleflight.Group // 同じ重みの同時ロードを1回にまとめる

	mu          sync.RWMutex
	models      map[string]Model
	current     Model
	currentName string
}

// NewModelService はModelServiceの新しいインスタンスを生成します。wrapはnilでも構いません。
func NewModelService(engine InferenceEngine, catalog WeightCatalog, settings *Settings, wrap ModelWrapper) *ModelService {
	return &ModelService{
		engine:   engine,
		catalog:  catalog,
		settings: settings,
		wrap:     wrap,
		models:   make(map[string]Model),
	}
}

// LoadDefault は設定で選択されている重みをロードします。
// 失敗してもサービスは起動を続け、IsLoadedがfalseを返します。
func (s *ModelService) LoadDefault(ctx context.Context) error {
	return s.SwitchModel(ctx, s.settings.SelectedWeight())
}

// SwitchModel は指定された重みに切り替えます。ロード済みの重みは再ロードしません。
func (s *ModelService) SwitchModel(ctx context.Context, name string) error {
	slog.Info("モデルの切り替えを開始", "weight", name)

	weight, ok := s.catalog.Find(name)
	if !ok {
		slog.Warn("重みファイルが見つかりません", "weight", name)
		return fmt.Errorf("%w: %s", ErrWeightNotFound, name)
	}

	s.mu.RLock()
	model, cached := s.models[name]
	s.mu.RUnlock()

	if cached {
		slog.Info("キャッシュ済みモデルを使用", "weight", name)
	} else {
		// ロード中も現在のモデルでの推論は継続できるよう、ロックの外でロードする
		v, err, _ := s.loads.Do(name, func() (any, error) {
			return s.load(ctx, weight)
		})
		if err != nil {
			return err
		}
		model = v.(Model)
	}

	s.mu.Lock()
	s.settings.SetSelectedWeight(name)
	s.current = model
	s.currentName = name
	s.mu.Unlock()
	return nil
}

// load はエンジンからモデルをロードし、キャッシュに登録します。
func (s *ModelService) load(ctx context.Context, weight entity.WeightInfo) (Model, error) {
	s.mu.RLock()
	model, cached := s.models[weight.Name]
	s.mu.RUnlock()
	if cached {
		return model, nil
	}

	loaded, err := s.engine.LoadModel(ctx, weight)
	if err != nil {
		slog.Error("モデルのロードに失敗", "weight", weight.Name, "error", err)
		return nil, fmt.Errorf("load model %s: %w", weight.Name, err)
	}
	if s.wrap != nil {
		loaded = s.wrap(weight.Name, loaded)
	}

	s.mu.Lock()
	s.models[weight.Name] = loaded
	s.mu.Unlock()
	slog.Info("モデルのロードに成功", "weight", weight.Name)
	return loaded, nil
}

// IsLoaded はいずれかのモデルがロード済みかどうかを返します。
func (s *ModelService) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// CurrentModelName は選択中の重み名を返します。
func (s *ModelService) CurrentModelName() string {
	return s.settings.SelectedWeight()
}

// Current は現在のモデルとその重み名を返します。
func (s *ModelService) Current() (string, Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return "", nil, ErrModelNotLoaded
	}
	return s.currentName, s.current, nil
}

// AvailableWeights は利用可能な重みの一覧を返します。
func (s *ModelService) AvailableWeights() []entity.WeightInfo {
	return s.catalog.List()
}

// DeviceInfo は推論デバイスの情報を返します。
func (s *ModelService) DeviceInfo(ctx context.Context) (entity.DeviceInfo, error) {
	return s.engine.Device(ctx)
}

// Detect は現在のモデルで推論を実行します。
func (s *ModelService) Detect(ctx context.Context, imageData []byte, confidence float64) ([]entity.Detection, error) {
	name, model, err := s.Current()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	dets, err := model.Predict(ctx, imageData, confidence)
	metrics.InferenceDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	slog.Debug("推論が完了", "weight", name, "confidence", confidence, "detections", len(dets))
	return dets, nil
}
