// Package entity はhistoryフィーチャーのドメインモデルを定義します。
package entity

import "time"

// RunKind は検出実行の種類です。
type RunKind string

const (
	RunKindImage RunKind = "image"
	RunKindVideo RunKind = "video"
)

// RunStatus は検出実行の状態です。
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled" // クライアント切断による中断
	RunStatusFailed    RunStatus = "failed"
)

// DetectionRun は画像バッチまたは動画1本に対する検出実行の記録です。
type DetectionRun struct {
	ID                  string
	Kind                RunKind
	Source              string // アップロードされたファイル名
	Weight              string // 使用した重み
	ConfidenceThreshold float64
	FramesPerSecond     int // 動画のみ
	FramesProcessed     int
	TotalDetections     int
	ProcessedVideoURL   string
	Status              RunStatus
	Error               string
	CreatedAt           time.Time
	CompletedAt         *time.Time
}

// RunStart は検出実行の開始時に記録する内容です。
type RunStart struct {
	Kind                RunKind
	Source              string
	Weight              string
	ConfidenceThreshold float64
	FramesPerSecond     int
}

// RunOutcome は検出実行の終了時に記録する内容です。
// Errがcontext.Canceledなら中断、それ以外の非nilなら失敗として記録されます。
type RunOutcome struct {
	FramesProcessed   int
	TotalDetections   int
	ProcessedVideoURL string
	Err               error
}
