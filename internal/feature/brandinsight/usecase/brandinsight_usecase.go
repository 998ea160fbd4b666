// Package usecase はbrandinsightフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"logodetect_backend/internal/feature/brandinsight/domain/entity"
)

const (
	// AnalysisPromptTemplate はブランド分析のプロンプトテンプレートです。
	AnalysisPromptTemplate = "日本語で、ブランド分析の観点から%sの特徴と強みを3つ挙げて。"
	// MaxBrandNameLength はブランド名の最大文字数（rune数）です。
	MaxBrandNameLength = 100
)

// ErrInvalidBrandName はブランド名が検証に失敗した場合に返されます。
var ErrInvalidBrandName = errors.New("invalid brand name")

// validBrandName はブランド名に許可される文字パターンです（英数字・日本語・スペース・中黒・記号の一部）。
var validBrandName = regexp.MustCompile(`^[\p{L}\p{N}\s・\-\.&,_]+$`)

// BrandAnalyzer はブランド分析を生成するリポジトリインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type BrandAnalyzer interface {
	// Analyze はプロンプトから分析サマリーを生成します。
	Analyze(ctx context.Context, prompt string) (string, error)
}

// brandInsightUsecase はブランド分析のビジネスロジックを提供します。
type brandInsightUsecase struct {
	analyzer BrandAnalyzer
}

// NewBrandInsightUsecase はbrandInsightUsecaseの新しいインスタンスを生成します。
func NewBrandInsightUsecase(analyzer BrandAnalyzer) *brandInsightUsecase {
	return &brandInsightUsecase{analyzer: analyzer}
}

// AnalyzeBrand はブランド名から分析サマリーを生成します。
// 検出クラス名の区切りとして使われるアンダースコアはスペースとして扱います。
func (u *brandInsightUsecase) AnalyzeBrand(ctx context.Context, brandName string) (*entity.BrandAnalysis, error) {
	name := strings.TrimSpace(brandName)
	if name == "" {
		return nil, fmt.Errorf("%w: brand name is required", ErrInvalidBrandName)
	}
	if utf8.RuneCountInString(name) > MaxBrandNameLength {
		return nil, fmt.Errorf("%w: brand name exceeds maximum length of %d characters", ErrInvalidBrandName, MaxBrandNameLength)
	}
	if !validBrandName.MatchString(name) {
		return nil, fmt.Errorf("%w: brand name contains invalid characters", ErrInvalidBrandName)
	}

	prompt := fmt.Sprintf(AnalysisPromptTemplate, strings.ReplaceAll(name, "_", " "))
	summary, err := u.analyzer.Analyze(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("brand analyzer failed for %q: %w", name, err)
	}
	return &entity.BrandAnalysis{
		BrandName: name,
		Summary:   summary,
	}, nil
}
