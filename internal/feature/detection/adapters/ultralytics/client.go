// Package ultralytics はUltralytics YOLO推論サイドカーをHTTP経由で利用する推論エンジンを提供します。
package ultralytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"logodetect_backend/internal/feature/detection/domain/entity"
	"logodetect_backend/internal/feature/detection/usecase"
)

// maxErrorBody はエラーメッセージに含めるレスポンスボディの最大バイト数です。
const maxErrorBody = 1024

// Engine は推論サイドカーに接続するInferenceEngine実装です。
type Engine struct {
	baseURL string
	client  *http.Client
}

// Engineが InferenceEngine を実装していることをコンパイル時に検証します。
var _ usecase.InferenceEngine = (*Engine)(nil)

// NewEngine は指定されたベースURLとHTTPクライアントでEngineを生成します。
func NewEngine(baseURL string, client *http.Client) *Engine {
	return &Engine{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type loadRequest struct {
	Name       string `json:"name"`
	WeightPath string `json:"weight_path"`
}

type detectionDTO struct {
	BBox       []float64 `json:"bbox"`
	Confidence float64   `json:"confidence"`
	ClassID    int       `json:"class_id"`
	ClassName  string    `json:"class_name"`
}

type predictResponse struct {
	Detections []detectionDTO `json:"detections"`
}

type deviceResponse struct {
	Device          string `json:"device"`
	DeviceName      string `json:"device_name"`
	MemoryTotal     *int64 `json:"memory_total,omitempty"`
	MemoryAllocated *int64 `json:"memory_allocated,omitempty"`
	MemoryCached    *int64 `json:"memory_cached,omitempty"`
}

// LoadModel はサイドカーに重みのロードを依頼します。サイドカー側でデバイスへの転送まで行われます。
func (e *Engine) LoadModel(ctx context.Context, weight entity.WeightInfo) (usecase.Model, error) {
	body, err := json.Marshal(loadRequest{Name: weight.Name, WeightPath: weight.Path})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/models/load", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load model request failed: %w", err)
	}
	defer closeBody(res)

	if res.StatusCode != http.StatusOK {
		return nil, statusError("load model", res)
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return &Model{engine: e, weight: weight}, nil
}

// Device はサイドカーが使用しているデバイスの情報を取得します。
func (e *Engine) Device(ctx context.Context) (entity.DeviceInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/device", nil)
	if err != nil {
		return entity.DeviceInfo{}, err
	}
	res, err := e.client.Do(req)
	if err != nil {
		return entity.DeviceInfo{}, fmt.Errorf("device request failed: %w", err)
	}
	defer closeBody(res)

	if res.StatusCode != http.StatusOK {
		return entity.DeviceInfo{}, statusError("device", res)
	}
	var dr deviceResponse
	if err := json.NewDecoder(res.Body).Decode(&dr); err != nil {
		return entity.DeviceInfo{}, fmt.Errorf("decode device response: %w", err)
	}
	if dr.DeviceName == "" {
		dr.DeviceName = "Unknown"
	}
	return entity.DeviceInfo{
		Device:          dr.Device,
		DeviceName:      dr.DeviceName,
		MemoryTotal:     dr.MemoryTotal,
		MemoryAllocated: dr.MemoryAllocated,
		MemoryCached:    dr.MemoryCached,
	}, nil
}

// Model はサイドカー上にロードされた1つの重みです。
type Model struct {
	engine *Engine
	weight entity.WeightInfo
}

var _ usecase.Model = (*Model)(nil)

// Predict は画像をmultipartで送信し、検出結果を受け取ります。
func (m *Model) Predict(ctx context.Context, imageData []byte, confidence float64) ([]entity.Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("write image data: %w", err)
	}
	if err := writer.WriteField("weight_path", m.weight.Path); err != nil {
		return nil, err
	}
	if err := writer.WriteField("conf", strconv.FormatFloat(confidence, 'f', -1, 64)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.engine.baseURL+"/predict", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := m.engine.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request failed: %w", err)
	}
	defer closeBody(res)

	if res.StatusCode != http.StatusOK {
		return nil, statusError("predict", res)
	}

	var pr predictResponse
	if err := json.NewDecoder(res.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}

	out := make([]entity.Detection, 0, len(pr.Detections))
	for _, d := range pr.Detections {
		if len(d.BBox) != 4 {
			return nil, fmt.Errorf("invalid bbox length %d for class %q", len(d.BBox), d.ClassName)
		}
		// サイドカーは閾値でフィルタ済みだが、念のため閾値未満を除外する
		if d.Confidence < confidence {
			continue
		}
		out = append(out, entity.Detection{
			BBox:       [4]float64{d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3]},
			Confidence: d.Confidence,
			ClassID:    d.ClassID,
			ClassName:  d.ClassName,
		})
	}
	return out, nil
}

func statusError(op string, res *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	return fmt.Errorf("%s failed with status %d: %s", op, res.StatusCode, strings.TrimSpace(string(b)))
}

func closeBody(res *http.Response) {
	if err := res.Body.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err)
	}
}
