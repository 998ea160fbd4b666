package usecase

import (
	"math"
	"strings"
)

const (
	// MinFramesPerSecond は動画処理で指定可能な最小フレームレートです。
	MinFramesPerSecond = 1
	// MaxFramesPerSecond は動画処理で指定可能な最大フレームレートです。
	MaxFramesPerSecond = 30
)

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".bmp": {}, ".gif": {}, ".tiff": {}, ".webp": {},
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".avi": {}, ".mov": {}, ".mkv": {}, ".wmv": {}, ".flv": {}, ".webm": {}, ".m4v": {},
}

// IsImageFile はMIMEタイプまたは拡張子から画像ファイルかどうかを判定します。
func IsImageFile(contentType, filename string) bool {
	return matchesMedia(contentType, filename, "image/", imageExtensions)
}

// IsVideoFile はMIMEタイプまたは拡張子から動画ファイルかどうかを判定します。
func IsVideoFile(contentType, filename string) bool {
	return matchesMedia(contentType, filename, "video/", videoExtensions)
}

func matchesMedia(contentType, filename, mimePrefix string, exts map[string]struct{}) bool {
	if strings.HasPrefix(contentType, mimePrefix) {
		return true
	}
	if filename == "" {
		return false
	}
	// 最後のドット以降を拡張子として扱う（ドットがなければファイル名全体）
	ext := filename
	if i := strings.LastIndex(filename, "."); i >= 0 {
		ext = filename[i+1:]
	}
	_, ok := exts["."+strings.ToLower(ext)]
	return ok
}

// CalculateSkipFrames は目標フレームレートを得るために何フレームごとに処理するかを返します。
func CalculateSkipFrames(videoFPS, targetFPS int) int {
	if targetFPS <= 0 {
		return 1
	}
	return max(1, videoFPS/targetFPS)
}

// ValidateConfidence は信頼度の閾値を検証します。
func ValidateConfidence(conf float64) error {
	if math.IsNaN(conf) || conf < 0.0 || conf > 1.0 {
		return ErrInvalidConfidence
	}
	return nil
}

// ValidateFramesPerSecond はフレームレートを検証します。
func ValidateFramesPerSecond(fps int) error {
	if fps < MinFramesPerSecond || fps > MaxFramesPerSecond {
		return ErrInvalidFramesPerSecond
	}
	return nil
}
