// Package usecase はdetectionフィーチャーのビジネスロジックを実装します。
package usecase

import "errors"

var (
	// ErrModelNotLoaded はモデルが一つもロードされていない場合に返されます。
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrWeightNotFound は指定された重みがカタログに存在しない場合に返されます。
	ErrWeightNotFound = errors.New("weight file not found")

	// ErrInvalidImage は画像をデコードできない場合に返されます。
	ErrInvalidImage = errors.New("could not decode image")

	// ErrInvalidConfidence は信頼度の閾値が0.0〜1.0の範囲外の場合に返されます。
	ErrInvalidConfidence = errors.New("Confidence threshold must be between 0.0 and 1.0")

	// ErrInvalidFramesPerSecond はフレームレートが1〜30の範囲外の場合に返されます。
	ErrInvalidFramesPerSecond = errors.New("Frames per second must be between 1 and 30")

	// ErrNoImages はアップロードされた画像が一枚もない場合に返されます。
	ErrNoImages = errors.New("at least one image file is required")
)
