// Package adapters はvideoフィーチャーの外部ツール実装を提供します。
package adapters

import (
	"context"

	"logodetect_backend/internal/feature/video/domain/entity"
	"logodetect_backend/internal/feature/video/usecase"
	"logodetect_backend/internal/platform/ffmpeg"
)

// FFmpegToolkit はffmpeg/ffprobeを使用するMediaToolkit実装です。
type FFmpegToolkit struct {
	tk *ffmpeg.Toolkit
}

var _ usecase.MediaToolkit = (*FFmpegToolkit)(nil)

// NewFFmpegToolkit はFFmpegToolkitの新しいインスタンスを生成します。
func NewFFmpegToolkit(tk *ffmpeg.Toolkit) *FFmpegToolkit {
	return &FFmpegToolkit{tk: tk}
}

func (f *FFmpegToolkit) Probe(ctx context.Context, path string) (entity.VideoInfo, error) {
	info, err := f.tk.Probe(ctx, path)
	if err != nil {
		return entity.VideoInfo{}, err
	}
	return entity.VideoInfo{
		FPS:         info.FPS,
		Rate:        info.Rate,
		TotalFrames: info.TotalFrames,
		Width:       info.Width,
		Height:      info.Height,
	}, nil
}

func (f *FFmpegToolkit) ExtractFrames(ctx context.Context, src, dir string) ([]string, error) {
	return f.tk.ExtractFrames(ctx, src, dir)
}

func (f *FFmpegToolkit) Encode(ctx context.Context, dir string, fps int, out string) error {
	return f.tk.Encode(ctx, dir, fps, out)
}
