// Package handler はbrandinsightフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"logodetect_backend/internal/api"
	"logodetect_backend/internal/feature/brandinsight/domain/entity"
	"logodetect_backend/internal/feature/brandinsight/usecase"
)

// BrandInsightUsecase はブランド分析のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type BrandInsightUsecase interface {
	AnalyzeBrand(ctx context.Context, brandName string) (*entity.BrandAnalysis, error)
}

// BrandInsightHandler はブランド分析のHTTPリクエストを処理します。
type BrandInsightHandler struct {
	uc BrandInsightUsecase
}

// NewBrandInsightHandler はBrandInsightHandlerの新しいインスタンスを生成します。
// ucがnilの場合、機能は無効として扱われます。
func NewBrandInsightHandler(uc BrandInsightUsecase) *BrandInsightHandler {
	return &BrandInsightHandler{uc: uc}
}

// AnalyzeBrand はブランド分析サマリーを生成します。
//
// エンドポイント: POST /api/brands/analyze
// Content-Type: application/json
func (h *BrandInsightHandler) AnalyzeBrand(c *gin.Context) {
	if h.uc == nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Detail: "Brand insight is disabled"})
		return
	}

	var req api.BrandAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("ブランド分析リクエストのバリデーションに失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "brand_name is required"})
		return
	}

	analysis, err := h.uc.AnalyzeBrand(c.Request.Context(), req.BrandName)
	switch {
	case errors.Is(err, usecase.ErrInvalidBrandName):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: strings.TrimPrefix(err.Error(), usecase.ErrInvalidBrandName.Error()+": ")})
		return
	case err != nil:
		slog.Error("ブランド分析に失敗", "error", err, "brand", req.BrandName)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Detail: "Failed to analyze brand"})
		return
	}

	c.JSON(http.StatusOK, api.BrandAnalyzeResponse{
		BrandName: analysis.BrandName,
		Summary:   analysis.Summary,
	})
}
