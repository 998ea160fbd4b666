// Package entity はvideoフィーチャーのドメインモデルを定義します。
package entity

import detentity "logodetect_backend/internal/feature/detection/domain/entity"

// EventType は動画処理ストリームのイベント種別です。
type EventType string

const (
	EventStatus     EventType = "status"
	EventFrame      EventType = "frame"
	EventComplete   EventType = "complete"
	EventVideoReady EventType = "video_ready"
	EventError      EventType = "error"
)

// VideoEvent は動画処理の進捗を表す1件のイベントです。種別ごとに使われるフィールドが異なります。
type VideoEvent struct {
	Type    EventType
	Message string

	// status
	EstimatedTotalFrames int

	// frame
	FrameNumber int
	FrameURL    string
	Detections  []detentity.Detection
	Timestamp   float64

	// complete
	TotalFrames int

	// complete, video_ready
	ProcessedVideoURL string
}

// VideoInfo は動画ストリームの基本情報です。
type VideoInfo struct {
	FPS         int     // フレームレートの整数部
	Rate        float64 // 正確なフレームレート
	TotalFrames int
	Width       int
	Height      int
}
