// Package handler はvideoフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"logodetect_backend/internal/api"
	dethandler "logodetect_backend/internal/feature/detection/transport/handler"
	detusecase "logodetect_backend/internal/feature/detection/usecase"
	"logodetect_backend/internal/feature/video/domain/entity"
	"logodetect_backend/internal/feature/video/usecase"
)

// DefaultFramesPerSecond はフォームでフレームレートが指定されなかった場合の値です。
const DefaultFramesPerSecond = "2"

// VideoUsecase は動画検出のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type VideoUsecase interface {
	Process(ctx context.Context, req usecase.VideoRequest) (<-chan entity.VideoEvent, error)
}

// VideoHandler は動画検出APIのHTTPリクエストを処理します。
type VideoHandler struct {
	uc VideoUsecase
}

// NewVideoHandler はVideoHandlerの新しいインスタンスを生成します。
func NewVideoHandler(uc VideoUsecase) *VideoHandler {
	return &VideoHandler{uc: uc}
}

// DetectVideo はアップロードされた動画を処理し、進捗をServer-Sent Eventsで返します。
//
// エンドポイント: POST /api/video/detect
// Content-Type: multipart/form-data
// フィールド: file（動画ファイル）, frames_per_second（既定 2）, confidence_threshold（既定 0.5）
//
// ストリーム開始前のエラーは通常のJSONエラーとして返します。
func (h *VideoHandler) DetectVideo(c *gin.Context) {
	fps, err := strconv.Atoi(c.DefaultPostForm("frames_per_second", DefaultFramesPerSecond))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "frames_per_second must be an integer"})
		return
	}
	confidence, err := strconv.ParseFloat(c.DefaultPostForm("confidence_threshold", dethandler.DefaultConfidence), 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "confidence_threshold must be a number"})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "A video file is required in field 'file'"})
		return
	}
	body := api.DetectVideoMultipartBody{FramesPerSecond: &fps, ConfidenceThreshold: &confidence}
	body.File.InitFromMultipart(fh)

	f, err := body.File.Reader()
	if err != nil {
		slog.Error("動画ファイルのオープンに失敗", "filename", fh.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: fmt.Sprintf("Error processing video: %v", err)})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("動画ファイルのクローズに失敗", "error", err)
		}
	}()

	// 書き込みに失敗した場合にパイプラインを止めるため、ハンドラー終了時にキャンセルする
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, err := h.uc.Process(ctx, usecase.VideoRequest{
		Filename:        body.File.Filename(),
		ContentType:     fh.Header.Get("Content-Type"),
		Content:         f,
		FramesPerSecond: *body.FramesPerSecond,
		Confidence:      *body.ConfidenceThreshold,
	})
	switch {
	case errors.Is(err, detusecase.ErrModelNotLoaded):
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "Model not loaded"})
		return
	case errors.Is(err, usecase.ErrNotVideo),
		errors.Is(err, detusecase.ErrInvalidFramesPerSecond),
		errors.Is(err, detusecase.ErrInvalidConfidence):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		return
	case err != nil:
		slog.Error("動画処理の開始に失敗", "filename", fh.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: fmt.Sprintf("Error processing video: %v", err)})
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for ev := range events {
		if err := sse.Encode(c.Writer, sse.Event{Data: toEventPayload(ev)}); err != nil {
			slog.Warn("SSEイベントの送信に失敗", "error", err)
			return
		}
		c.Writer.Flush()
	}
}

// toEventPayload はイベントを種別ごとのレスポンス形式に変換します。
func toEventPayload(ev entity.VideoEvent) any {
	switch ev.Type {
	case entity.EventStatus:
		return api.VideoStatusEvent{
			Type:                 string(ev.Type),
			Message:              ev.Message,
			EstimatedTotalFrames: ev.EstimatedTotalFrames,
		}
	case entity.EventFrame:
		return api.VideoFrameEvent{
			Type:            string(ev.Type),
			FrameNumber:     ev.FrameNumber,
			FrameURL:        ev.FrameURL,
			Detections:      dethandler.ToDetectionResponses(ev.Detections),
			TotalDetections: len(ev.Detections),
			Timestamp:       ev.Timestamp,
		}
	case entity.EventComplete:
		return api.VideoCompleteEvent{
			Type:              string(ev.Type),
			Message:           ev.Message,
			TotalFrames:       ev.TotalFrames,
			ProcessedVideoURL: ev.ProcessedVideoURL,
		}
	case entity.EventVideoReady:
		return api.VideoReadyEvent{
			Type:              string(ev.Type),
			Message:           ev.Message,
			ProcessedVideoURL: ev.ProcessedVideoURL,
		}
	default:
		return api.VideoErrorEvent{Type: string(entity.EventError), Message: ev.Message}
	}
}
