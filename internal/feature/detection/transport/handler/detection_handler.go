// Package handler はdetectionフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"logodetect_backend/internal/api"
	"logodetect_backend/internal/feature/detection/domain/entity"
	"logodetect_backend/internal/feature/detection/usecase"
	"logodetect_backend/internal/platform/imaging"
)

// DefaultConfidence はフォームで信頼度が指定されなかった場合の閾値です。
const DefaultConfidence = "0.5"

// DetectionUsecase は画像検出・設定・重み管理のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type DetectionUsecase interface {
	IsModelLoaded() bool
	DeviceInfo(ctx context.Context) (entity.DeviceInfo, error)
	GetConfig() entity.AppConfig
	UpdateConfig(fps int, confidence float64) error
	AvailableWeights() []entity.WeightInfo
	CurrentWeight() string
	SwitchWeight(ctx context.Context, name string) error
	DetectImages(ctx context.Context, files []usecase.UploadedImage, confidence float64) ([]entity.ImageResult, error)
}

// DetectionHandler は検出APIのHTTPリクエストを処理します。
type DetectionHandler struct {
	uc DetectionUsecase
}

// NewDetectionHandler はDetectionHandlerの新しいインスタンスを生成します。
func NewDetectionHandler(uc DetectionUsecase) *DetectionHandler {
	return &DetectionHandler{uc: uc}
}

// Root はAPIの稼働状態を返します。
//
// エンドポイント: GET /api/
func (h *DetectionHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, api.RootResponse{Message: "Logo Detection API", Status: "running"})
}

// Health はモデルのロード状態を返します。
//
// エンドポイント: GET /api/health
func (h *DetectionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "healthy", ModelLoaded: h.uc.IsModelLoaded()})
}

// Device は推論デバイスの情報を返します。
//
// エンドポイント: GET /api/device
func (h *DetectionHandler) Device(c *gin.Context) {
	info, err := h.uc.DeviceInfo(c.Request.Context())
	if err != nil {
		slog.Error("デバイス情報の取得に失敗", "error", err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Detail: "Failed to get device info"})
		return
	}
	c.JSON(http.StatusOK, api.DeviceResponse{
		Device:          info.Device,
		DeviceName:      info.DeviceName,
		MemoryTotal:     info.MemoryTotal,
		MemoryAllocated: info.MemoryAllocated,
		MemoryCached:    info.MemoryCached,
	})
}

// GetConfig は現在の検出設定を返します。
//
// エンドポイント: GET /api/config
func (h *DetectionHandler) GetConfig(c *gin.Context) {
	cfg := h.uc.GetConfig()
	c.JSON(http.StatusOK, api.ConfigResponse{
		FramesPerSecond:     cfg.FramesPerSecond,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		SelectedWeight:      cfg.SelectedWeight,
		AvailableWeights:    toWeightResponses(cfg.AvailableWeights),
	})
}

// UpdateConfig はフレームレートと信頼度の閾値を更新します。
//
// エンドポイント: POST /api/config
// Content-Type: application/json
func (h *DetectionHandler) UpdateConfig(c *gin.Context) {
	var req api.ConfigUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("設定更新リクエストのバリデーションに失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "frames_per_second and confidence_threshold are required"})
		return
	}

	if err := h.uc.UpdateConfig(*req.FramesPerSecond, *req.ConfidenceThreshold); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Configuration updated successfully"})
}

// Weights は利用可能な重みと選択中の重みを返します。
//
// エンドポイント: GET /api/weights
func (h *DetectionHandler) Weights(c *gin.Context) {
	c.JSON(http.StatusOK, api.WeightsResponse{
		AvailableWeights: toWeightResponses(h.uc.AvailableWeights()),
		CurrentWeight:    h.uc.CurrentWeight(),
	})
}

// SwitchWeight は使用する重みを切り替えます。
//
// エンドポイント: POST /api/weights/switch
// Content-Type: application/json
func (h *DetectionHandler) SwitchWeight(c *gin.Context) {
	var req api.WeightSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "weight_name is required"})
		return
	}

	if err := h.uc.SwitchWeight(c.Request.Context(), req.WeightName); err != nil {
		slog.Warn("重みの切り替えに失敗", "weight", req.WeightName, "error", err)
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: fmt.Sprintf("Failed to switch to weight: %s", req.WeightName)})
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: fmt.Sprintf("Switched to weight: %s", req.WeightName)})
}

// DetectImages はアップロードされた複数の画像からロゴを検出します。
//
// エンドポイント: POST /api/images/detect
// Content-Type: multipart/form-data
// フィールド: files（画像ファイル、複数可）, confidence_threshold（既定 0.5）
func (h *DetectionHandler) DetectImages(c *gin.Context) {
	if !h.uc.IsModelLoaded() {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "Model not loaded"})
		return
	}

	confidence, err := strconv.ParseFloat(c.DefaultPostForm("confidence_threshold", DefaultConfidence), 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "confidence_threshold must be a number"})
		return
	}
	if err := usecase.ValidateConfidence(confidence); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		return
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		slog.Warn("画像ファイルの取得に失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "At least one file is required in field 'files'"})
		return
	}

	headers := form.File["files"]
	body := api.DetectImagesMultipartBody{ConfidenceThreshold: &confidence}
	for _, fh := range headers {
		var f openapi_types.File
		f.InitFromMultipart(fh)
		body.Files = append(body.Files, f)
	}

	uploads := make([]usecase.UploadedImage, 0, len(body.Files))
	for i, f := range body.Files {
		data, err := f.Bytes()
		if err != nil {
			slog.Error("画像データの読み取りに失敗", "filename", f.Filename(), "error", err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: fmt.Sprintf("Error processing images: %v", err)})
			return
		}
		uploads = append(uploads, usecase.UploadedImage{
			Filename:    f.Filename(),
			ContentType: headers[i].Header.Get("Content-Type"),
			Data:        data,
		})
	}

	results, err := h.uc.DetectImages(c.Request.Context(), uploads, *body.ConfidenceThreshold)
	switch {
	case errors.Is(err, usecase.ErrModelNotLoaded):
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "Model not loaded"})
		return
	case errors.Is(err, usecase.ErrInvalidConfidence):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		return
	case err != nil:
		slog.Error("画像の検出に失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: fmt.Sprintf("Error processing images: %v", err)})
		return
	}

	out := make([]api.ImageResultResponse, 0, len(results))
	for _, r := range results {
		res := api.ImageResultResponse{
			Filename:        r.Filename,
			Detections:      ToDetectionResponses(r.Detections),
			TotalDetections: r.TotalDetections(),
			Error:           r.Error,
		}
		if url := imaging.JPEGDataURL(r.AnnotatedImage); url != "" {
			res.AnnotatedImage = &url
		}
		out = append(out, res)
	}
	c.JSON(http.StatusOK, api.ImageDetectResponse{Results: out})
}

// ToDetectionResponses は検出結果をレスポンス形式に変換します。nilは空配列になります。
func ToDetectionResponses(dets []entity.Detection) []api.DetectionResponse {
	out := make([]api.DetectionResponse, 0, len(dets))
	for _, d := range dets {
		out = append(out, api.DetectionResponse{
			Bbox:       []float64{d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3]},
			Confidence: d.Confidence,
			ClassID:    d.ClassID,
			ClassName:  d.ClassName,
		})
	}
	return out
}

func toWeightResponses(ws []entity.WeightInfo) []api.WeightResponse {
	out := make([]api.WeightResponse, 0, len(ws))
	for _, w := range ws {
		out = append(out, api.WeightResponse{
			Name:        w.Name,
			Path:        w.Path,
			Size:        w.Size,
			Description: w.Description,
		})
	}
	return out
}
