// Package entity はbrandinsightフィーチャーのドメインモデルを定義します。
package entity

// BrandAnalysis は検出されたブランドの分析結果を表します。
type BrandAnalysis struct {
	BrandName string // 分析対象のブランド名（検出クラス名）
	Summary   string // AI生成の分析サマリー
}
