// Package gemini はGoogle Gemini APIを使用したブランド分析クライアントを提供します。
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"logodetect_backend/internal/feature/brandinsight/usecase"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"

	systemInstruction = "あなたはブランド戦略のアナリストです。ロゴ検出で見つかったブランドについて、" +
		"事実に基づき簡潔な箇条書きで回答してください。"
	maxOutputTokens = 1024
)

// ErrEmptyResponse はモデルが本文を返さなかった場合に返されます。
var ErrEmptyResponse = errors.New("gemini returned an empty response")

// contentGenerator はgenai.Modelsのうち本パッケージが使用するメソッドです。
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAnalyzer はGoogle Gemini APIを使用してブランド分析を生成します。
type GeminiAnalyzer struct {
	models contentGenerator
	model  string
	config *genai.GenerateContentConfig
}

// GeminiAnalyzerがBrandAnalyzerを実装していることをコンパイル時に検証します。
var _ usecase.BrandAnalyzer = (*GeminiAnalyzer)(nil)

// NewGeminiAnalyzer はADCを使用してGeminiAnalyzerの新しいインスタンスを生成します。
// 環境変数 GOOGLE_GENAI_USE_VERTEXAI, GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION が必要です。
// modelが空の場合はDefaultModelを使用します。
func NewGeminiAnalyzer(ctx context.Context, model string) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newAnalyzer(client.Models, model), nil
}

func newAnalyzer(models contentGenerator, model string) *GeminiAnalyzer {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiAnalyzer{
		models: models,
		model:  model,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.4),
			MaxOutputTokens:   maxOutputTokens,
		},
	}
}

// Analyze はプロンプトを使用して分析サマリーを生成します。
func (g *GeminiAnalyzer) Analyze(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
