package entity

// WeightInfo は利用可能なモデル重みファイルを表します。
type WeightInfo struct {
	Name        string
	Path        string
	Size        int64
	Description string
}
