package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"logodetect_backend/internal/feature/detection/domain/entity"
	histentity "logodetect_backend/internal/feature/history/domain/entity"
	"logodetect_backend/internal/platform/metrics"
)

// ImageRenderer は画像のデコード・検出枠の描画・JPEGエンコードを行います。
type ImageRenderer interface {
	Decode(data []byte) (image.Image, error)
	Annotate(img image.Image, detections []entity.Detection) image.Image
	EncodeJPEG(img image.Image) ([]byte, error)
}

// RunRecorder は検出実行の履歴を記録します。
// 記録の失敗は検出処理自体を失敗させません。
type RunRecorder interface {
	Begin(ctx context.Context, start histentity.RunStart) (string, error)
	Finish(ctx context.Context, id string, outcome histentity.RunOutcome) error
}

// UploadedImage はアップロードされた1枚の画像です。
type UploadedImage struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DetectionUsecase は画像検出と検出設定・重み管理のビジネスロジックを提供します。
type DetectionUsecase struct {
	models   *ModelService
	settings *Settings
	renderer ImageRenderer
	recorder RunRecorder
}

// NewDetectionUsecase はDetectionUsecaseの新しいインスタンスを生成します。recorderはnilでも構いません。
func NewDetectionUsecase(models *ModelService, settings *Settings, renderer ImageRenderer, recorder RunRecorder) *DetectionUsecase {
	return &DetectionUsecase{models: models, settings: settings, renderer: renderer, recorder: recorder}
}

// IsModelLoaded はモデルがロード済みかどうかを返します。
func (u *DetectionUsecase) IsModelLoaded() bool {
	return u.models.IsLoaded()
}

// DeviceInfo は推論デバイスの情報を返します。
func (u *DetectionUsecase) DeviceInfo(ctx context.Context) (entity.DeviceInfo, error) {
	return u.models.DeviceInfo(ctx)
}

// GetConfig は現在の設定と利用可能な重みを返します。
func (u *DetectionUsecase) GetConfig() entity.AppConfig {
	cfg := u.settings.Snapshot()
	cfg.AvailableWeights = u.models.AvailableWeights()
	return cfg
}

// UpdateConfig はフレームレートと信頼度の閾値を更新します。
func (u *DetectionUsecase) UpdateConfig(fps int, confidence float64) error {
	if err := u.settings.Update(fps, confidence); err != nil {
		return err
	}
	slog.Info("設定を更新", "frames_per_second", fps, "confidence_threshold", confidence)
	return nil
}

// AvailableWeights は利用可能な重みの一覧を返します。
func (u *DetectionUsecase) AvailableWeights() []entity.WeightInfo {
	return u.models.AvailableWeights()
}

// CurrentWeight は選択中の重み名を返します。
func (u *DetectionUsecase) CurrentWeight() string {
	return u.models.CurrentModelName()
}

// SwitchWeight は指定された重みに切り替えます。
func (u *DetectionUsecase) SwitchWeight(ctx context.Context, name string) error {
	return u.models.SwitchModel(ctx, name)
}

// DetectInImage は1枚の画像からロゴを検出し、検出枠を描画したJPEGを返します。
func (u *DetectionUsecase) DetectInImage(ctx context.Context, imageData []byte, confidence float64) ([]entity.Detection, []byte, error) {
	if !u.models.IsLoaded() {
		return nil, nil, ErrModelNotLoaded
	}
	img, err := u.renderer.Decode(imageData)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	detections, err := u.models.Detect(ctx, imageData, confidence)
	if err != nil {
		return nil, nil, err
	}

	annotated, err := u.renderer.EncodeJPEG(u.renderer.Annotate(img, detections))
	if err != nil {
		return nil, nil, fmt.Errorf("encode annotated image: %w", err)
	}
	return detections, annotated, nil
}

// DetectImages は複数の画像に対して検出を行います。
// 不正な画像はファイル単位のエラーとして結果に含め、推論エンジンの失敗は全体のエラーとして返します。
func (u *DetectionUsecase) DetectImages(ctx context.Context, files []UploadedImage, confidence float64) ([]entity.ImageResult, error) {
	if !u.models.IsLoaded() {
		return nil, ErrModelNotLoaded
	}
	if err := ValidateConfidence(confidence); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	runID := u.beginRun(ctx, files, confidence)

	results := make([]entity.ImageResult, 0, len(files))
	total := 0
	for _, f := range files {
		if !IsImageFile(f.ContentType, f.Filename) {
			metrics.ImagesProcessedTotal.WithLabelValues("rejected").Inc()
			results = append(results, entity.ImageResult{
				Filename:   f.Filename,
				Detections: []entity.Detection{},
				Error:      fmt.Sprintf("File %s is not a valid image", f.Filename),
			})
			continue
		}

		detections, annotated, err := u.DetectInImage(ctx, f.Data, confidence)
		if errors.Is(err, ErrInvalidImage) {
			slog.Warn("画像のデコードに失敗", "filename", f.Filename, "error", err)
			metrics.ImagesProcessedTotal.WithLabelValues("rejected").Inc()
			results = append(results, entity.ImageResult{
				Filename:   f.Filename,
				Detections: []entity.Detection{},
				Error:      fmt.Sprintf("File %s is not a valid image", f.Filename),
			})
			continue
		}
		if err != nil {
			metrics.ImagesProcessedTotal.WithLabelValues("failed").Inc()
			u.finishRun(ctx, runID, histentity.RunOutcome{FramesProcessed: len(results), TotalDetections: total, Err: err})
			return nil, fmt.Errorf("detect %s: %w", f.Filename, err)
		}

		metrics.ImagesProcessedTotal.WithLabelValues("ok").Inc()
		metrics.DetectionsTotal.WithLabelValues("image").Add(float64(len(detections)))
		total += len(detections)
		results = append(results, entity.ImageResult{
			Filename:       f.Filename,
			Detections:     detections,
			AnnotatedImage: annotated,
		})
	}

	u.finishRun(ctx, runID, histentity.RunOutcome{FramesProcessed: len(results), TotalDetections: total})
	return results, nil
}

func (u *DetectionUsecase) beginRun(ctx context.Context, files []UploadedImage, confidence float64) string {
	if u.recorder == nil {
		return ""
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Filename)
	}
	id, err := u.recorder.Begin(ctx, histentity.RunStart{
		Kind:                histentity.RunKindImage,
		Source:              strings.Join(names, ", "),
		Weight:              u.models.CurrentModelName(),
		ConfidenceThreshold: confidence,
	})
	if err != nil {
		slog.Warn("検出履歴の記録に失敗", "error", err)
		return ""
	}
	return id
}

func (u *DetectionUsecase) finishRun(ctx context.Context, id string, outcome histentity.RunOutcome) {
	if u.recorder == nil || id == "" {
		return
	}
	if err := u.recorder.Finish(ctx, id, outcome); err != nil {
		slog.Warn("検出履歴の更新に失敗", "run_id", id, "error", err)
	}
}
