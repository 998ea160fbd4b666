// Package vision はGoogle Cloud Vision APIのロゴ検出を推論エンジンとして提供します。
package vision

import (
	"context"
	"fmt"
	"math"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"

	"logodetect_backend/internal/feature/detection/domain/entity"
	"logodetect_backend/internal/feature/detection/usecase"
)

// WeightName はカタログ上でVision APIを表す重み名です。
const WeightName = "cloud-vision"

// annotator はVision APIクライアントのうち本パッケージが使用するメソッドです。
type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
}

// limiter は呼び出し頻度の制限です。
type limiter interface {
	Wait(ctx context.Context) error
}

// Engine はGoogle Cloud Vision APIを使用してロゴを検出します。
type Engine struct {
	client  annotator
	closer  func() error
	limiter limiter
}

// EngineがInferenceEngineを実装していることをコンパイル時に検証します。
var _ usecase.InferenceEngine = (*Engine)(nil)

// NewEngine はADCを使用してEngineの新しいインスタンスを生成します。limはnilでも構いません。
func NewEngine(ctx context.Context, lim limiter) (*Engine, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &Engine{client: client, closer: client.Close, limiter: lim}, nil
}

// Close はVision APIクライアントを解放します。
func (e *Engine) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer()
}

// Catalog はVision API用の重み一覧です。ファイルは存在しません。
func Catalog() []entity.WeightInfo {
	return []entity.WeightInfo{{
		Name:        WeightName,
		Path:        WeightName,
		Description: "Google Cloud Vision logo detection",
	}}
}

// LoadModel はVision APIを呼び出すモデルを返します。ロード処理は不要です。
func (e *Engine) LoadModel(_ context.Context, weight entity.WeightInfo) (usecase.Model, error) {
	if weight.Name != WeightName {
		return nil, fmt.Errorf("vision engine does not support weight %q", weight.Name)
	}
	return &Model{engine: e}, nil
}

// Device はクラウド推論であることを返します。
func (e *Engine) Device(context.Context) (entity.DeviceInfo, error) {
	return entity.DeviceInfo{Device: "cloud", DeviceName: "Google Cloud Vision"}, nil
}

// Model はVision APIの呼び出しを1つのモデルとして扱います。
// クラスIDはレスポンスごとに、閾値を満たしたロゴ名が初めて現れた順に0から採番されます。
type Model struct {
	engine *Engine
}

var _ usecase.Model = (*Model)(nil)

// Predict は画像バイト列からロゴを検出し、閾値未満の結果を除外します。
func (m *Model) Predict(ctx context.Context, imageData []byte, confidence float64) ([]entity.Detection, error) {
	if m.engine.limiter != nil {
		if err := m.engine.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: imageData},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_LOGO_DETECTION},
				},
			},
		},
	}

	resp, err := m.engine.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision API request failed: %w", err)
	}

	if len(resp.Responses) == 0 {
		return []entity.Detection{}, nil
	}

	if resp.Responses[0].Error != nil {
		return nil, fmt.Errorf("vision API error: %s", resp.Responses[0].Error.Message)
	}

	dets := make([]entity.Detection, 0, len(resp.Responses[0].LogoAnnotations))
	classes := make(map[string]int)
	for _, logo := range resp.Responses[0].LogoAnnotations {
		score := float64(logo.Score)
		if score < confidence {
			continue
		}
		dets = append(dets, entity.Detection{
			BBox:       boundingBox(logo.BoundingPoly),
			Confidence: score,
			ClassID:    classID(classes, logo.Description),
			ClassName:  logo.Description,
		})
	}
	return dets, nil
}

func classID(classes map[string]int, name string) int {
	id, ok := classes[name]
	if !ok {
		id = len(classes)
		classes[name] = id
	}
	return id
}

// boundingBox は多角形の頂点を囲む [x1, y1, x2, y2] を返します。
func boundingBox(poly *visionpb.BoundingPoly) [4]float64 {
	if poly == nil || len(poly.Vertices) == 0 {
		return [4]float64{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range poly.Vertices {
		x, y := float64(v.X), float64(v.Y)
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	return [4]float64{minX, minY, maxX, maxY}
}
