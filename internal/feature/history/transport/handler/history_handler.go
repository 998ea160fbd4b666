// Package handler はhistoryフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	"logodetect_backend/internal/api"
	"logodetect_backend/internal/feature/history/domain/entity"
	"logodetect_backend/internal/feature/history/usecase"
)

// HistoryUsecase は検出履歴参照のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type HistoryUsecase interface {
	List(ctx context.Context, limit int) ([]entity.DetectionRun, error)
	Get(ctx context.Context, id string) (entity.DetectionRun, error)
}

// HistoryHandler は検出履歴のHTTPリクエストを処理します。
type HistoryHandler struct {
	uc HistoryUsecase
}

// NewHistoryHandler はHistoryHandlerの新しいインスタンスを生成します。
func NewHistoryHandler(uc HistoryUsecase) *HistoryHandler {
	return &HistoryHandler{uc: uc}
}

// ListRuns は最近の検出履歴を新しい順に返します。
//
// エンドポイント例:
// GET /api/history?limit=20
func (h *HistoryHandler) ListRuns(c *gin.Context) {
	var params api.ListRunsParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", c.Request.URL.Query(), &params.Limit); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: usecase.ErrInvalidLimit.Error()})
		return
	}
	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}

	runs, err := h.uc.List(c.Request.Context(), limit)
	if errors.Is(err, usecase.ErrInvalidLimit) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		return
	}
	if err != nil {
		slog.Error("検出履歴の取得に失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "Failed to load history"})
		return
	}

	out := make([]api.RunResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, toRunResponse(r))
	}
	c.JSON(http.StatusOK, api.RunListResponse{Runs: out})
}

// GetRun は指定IDの検出履歴を返します。
//
// エンドポイント例:
// GET /api/history/:id
func (h *HistoryHandler) GetRun(c *gin.Context) {
	var id string
	if err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true}); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: "Invalid run id"})
		return
	}

	run, err := h.uc.Get(c.Request.Context(), id)
	if errors.Is(err, usecase.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Detail: "Run not found"})
		return
	}
	if err != nil {
		slog.Error("検出履歴の取得に失敗", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "Failed to load history"})
		return
	}
	c.JSON(http.StatusOK, toRunResponse(run))
}

func toRunResponse(r entity.DetectionRun) api.RunResponse {
	return api.RunResponse{
		ID:                  r.ID,
		Kind:                string(r.Kind),
		Source:              r.Source,
		Weight:              r.Weight,
		ConfidenceThreshold: r.ConfidenceThreshold,
		FramesPerSecond:     r.FramesPerSecond,
		FramesProcessed:     r.FramesProcessed,
		TotalDetections:     r.TotalDetections,
		ProcessedVideoURL:   r.ProcessedVideoURL,
		Status:              string(r.Status),
		Error:               r.Error,
		CreatedAt:           r.CreatedAt,
		CompletedAt:         r.CompletedAt,
	}
}
