// Package entity はdetectionフィーチャーのドメインモデルを定義します。
package entity

// Detection は画像中で検出された1件のロゴを表します。
type Detection struct {
	BBox       [4]float64 // バウンディングボックス（x1, y1, x2, y2、ピクセル座標）
	Confidence float64    // 信頼度スコア（0.0 ~ 1.0）
	ClassID    int        // モデル上のクラスID
	ClassName  string     // クラス名（ブランド名）
}

// ImageResult は1枚の画像に対する検出結果です。
type ImageResult struct {
	Filename       string
	Detections     []Detection
	AnnotatedImage []byte // 検出枠を描画したJPEG。検出失敗時はnil
	Error          string // ファイル単位のエラー（不正な画像など）
}

// TotalDetections は検出件数を返します。
func (r ImageResult) TotalDetections() int {
	return len(r.Detections)
}
