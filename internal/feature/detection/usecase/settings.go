package usecase

import (
	"path/filepath"
	"sync"

	"logodetect_backend/internal/feature/detection/domain/entity"
)

// Settings は実行時に変更可能な検出設定を保持します。並行アクセスに対して安全です。
type Settings struct {
	mu                  sync.RWMutex
	framesPerSecond     int
	confidenceThreshold float64
	selectedWeight      string
	weightsDir          string
}

// NewSettings は初期値を持つSettingsを生成します。
func NewSettings(fps int, conf float64, selectedWeight, weightsDir string) *Settings {
	return &Settings{
		framesPerSecond:     fps,
		confidenceThreshold: conf,
		selectedWeight:      selectedWeight,
		weightsDir:          weightsDir,
	}
}

// Update はフレームレートと信頼度の閾値を検証してから更新します。
func (s *Settings) Update(fps int, conf float64) error {
	if err := ValidateFramesPerSecond(fps); err != nil {
		return err
	}
	if err := ValidateConfidence(conf); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.framesPerSecond = fps
	s.confidenceThreshold = conf
	return nil
}

// SetSelectedWeight は選択中の重み名を設定します。
func (s *Settings) SetSelectedWeight(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedWeight = name
}

// SelectedWeight は選択中の重み名を返します。
func (s *Settings) SelectedWeight() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedWeight
}

// WeightPath は選択中の重みファイルのパスを返します。
func (s *Settings) WeightPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filepath.Join(s.weightsDir, s.selectedWeight)
}

// Snapshot は現在の設定のコピーを返します。AvailableWeightsは呼び出し側で埋めます。
func (s *Settings) Snapshot() entity.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entity.AppConfig{
		FramesPerSecond:     s.framesPerSecond,
		ConfidenceThreshold: s.confidenceThreshold,
		SelectedWeight:      s.selectedWeight,
	}
}
