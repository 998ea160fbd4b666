package entity

// AppConfig は実行時に変更可能な検出設定のスナップショットです。
type AppConfig struct {
	FramesPerSecond     int
	ConfidenceThreshold float64
	SelectedWeight      string
	AvailableWeights    []WeightInfo
}
