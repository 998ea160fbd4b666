// Package usecase はvideoフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	detentity "logodetect_backend/internal/feature/detection/domain/entity"
	detusecase "logodetect_backend/internal/feature/detection/usecase"
	histentity "logodetect_backend/internal/feature/history/domain/entity"
	"logodetect_backend/internal/feature/video/domain/entity"
	"logodetect_backend/internal/platform/metrics"
)

const (
	// StaticURLPrefix は静的ファイルの公開URLのプレフィックスです。
	StaticURLPrefix = "/static"
	// FramesURLPrefix は処理済みフレームの公開URLのプレフィックスです。
	FramesURLPrefix = "/static/frames"
	// FallbackFPS はフレームレートが取得できない動画をエンコードする際のフレームレートです。
	FallbackFPS = 25
)

// ErrNotVideo はアップロードされたファイルが動画でない場合に返されます。
var ErrNotVideo = errors.New("File must be a video")

// MediaToolkit は動画の解析・フレーム抽出・エンコードを行います。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type MediaToolkit interface {
	Probe(ctx context.Context, path string) (entity.VideoInfo, error)
	// ExtractFrames は全フレームをJPEGとしてdirに書き出し、順番通りのパスを返します。
	ExtractFrames(ctx context.Context, src, dir string) ([]string, error)
	// Encode は dir/frame_%06d.jpg を動画にまとめます。
	Encode(ctx context.Context, dir string, fps int, out string) error
}

// Detector は現在のモデルによる推論を提供します。
type Detector interface {
	IsLoaded() bool
	CurrentModelName() string
	Detect(ctx context.Context, imageData []byte, confidence float64) ([]detentity.Detection, error)
}

// Publisher は処理済み動画を公開し、ダウンロードURLを返します。
type Publisher interface {
	Publish(ctx context.Context, localPath string) (string, error)
}

// Dirs は動画処理で使用するディレクトリです。
type Dirs struct {
	StaticDir string
	FramesDir string
	// TempDir は作業ディレクトリの親です。空の場合はOSの既定を使用します。
	TempDir string
}

// VideoRequest は動画検出のリクエストです。
type VideoRequest struct {
	Filename        string
	ContentType     string
	Content         io.Reader
	FramesPerSecond int
	Confidence      float64
}

// VideoUsecase は動画のロゴ検出パイプラインを提供します。
type VideoUsecase struct {
	detector  Detector
	toolkit   MediaToolkit
	renderer  detusecase.ImageRenderer
	publisher Publisher
	recorder  detusecase.RunRecorder
	dirs      Dirs
	now       func() time.Time
	newJobID  func() string
}

// NewVideoUsecase はVideoUsecaseの新しいインスタンスを生成します。recorderはnilでも構いません。
func NewVideoUsecase(detector Detector, toolkit MediaToolkit, renderer detusecase.ImageRenderer, publisher Publisher, recorder detusecase.RunRecorder, dirs Dirs) *VideoUsecase {
	return &VideoUsecase{
		detector:  detector,
		toolkit:   toolkit,
		renderer:  renderer,
		publisher: publisher,
		recorder:  recorder,
		dirs:      dirs,
		now:       time.Now,
		newJobID:  func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] },
	}
}

// Validate はリクエストを検証します。モデル・ファイル種別・フレームレート・信頼度の順に確認します。
func (u *VideoUsecase) Validate(filename, contentType string, fps int, confidence float64) error {
	if !u.detector.IsLoaded() {
		return detusecase.ErrModelNotLoaded
	}
	if !detusecase.IsVideoFile(contentType, filename) {
		return ErrNotVideo
	}
	if err := detusecase.ValidateFramesPerSecond(fps); err != nil {
		return err
	}
	return detusecase.ValidateConfidence(confidence)
}

// videoJob は1本の動画処理の状態です。
type videoJob struct {
	id         string
	runID      string
	upload     string
	output     string
	info       entity.VideoInfo
	fps        int
	confidence float64
	tempDir    string
	framesDir  string
}

// jobResult はパイプラインの集計結果です。
type jobResult struct {
	processed  int
	detections int
	videoURL   string
}

// Process はアップロードを保存して動画を解析し、処理イベントのストリームを返します。
// ストリーム開始前の失敗はエラーとして返し、開始後の失敗は error イベントとして通知します。
// ctxがキャンセルされるとパイプラインは中断され、チャネルは閉じられます。
func (u *VideoUsecase) Process(ctx context.Context, req VideoRequest) (<-chan entity.VideoEvent, error) {
	if err := u.Validate(req.Filename, req.ContentType, req.FramesPerSecond, req.Confidence); err != nil {
		return nil, err
	}

	stamp := u.now().Unix()
	base := safeBase(req.Filename)
	upload := filepath.Join(u.dirs.StaticDir, fmt.Sprintf("uploaded_%d_%s", stamp, base))
	if err := saveUpload(upload, req.Content); err != nil {
		return nil, err
	}

	info, err := u.toolkit.Probe(ctx, upload)
	if err != nil {
		removeFile(upload)
		return nil, fmt.Errorf("probe video: %w", err)
	}
	slog.Info("動画の解析が完了", "filename", base, "fps", info.FPS, "total_frames", info.TotalFrames,
		"width", info.Width, "height", info.Height)

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	job := &videoJob{
		id:         u.newJobID(),
		upload:     upload,
		output:     filepath.Join(u.dirs.StaticDir, fmt.Sprintf("processed_%d_%s.mp4", stamp, stem)),
		info:       info,
		fps:        req.FramesPerSecond,
		confidence: req.Confidence,
	}
	job.runID = u.beginRun(ctx, base, req)

	events := make(chan entity.VideoEvent, 8)
	go u.run(ctx, job, events)
	return events, nil
}

func (u *VideoUsecase) run(ctx context.Context, job *videoJob, events chan<- entity.VideoEvent) {
	defer close(events)
	defer u.cleanup(job)

	metrics.ActiveVideoJobs.Inc()
	defer metrics.ActiveVideoJobs.Dec()

	emit := func(e entity.VideoEvent) bool {
		select {
		case events <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}

	res, err := u.pipeline(ctx, job, emit)
	if err != nil {
		u.discardArtifacts(job)
	}
	switch {
	case err == nil:
		metrics.VideoJobsTotal.WithLabelValues("completed").Inc()
		slog.Info("動画処理が完了", "job", job.id, "processed_frames", res.processed, "detections", res.detections)
	case ctx.Err() != nil:
		metrics.VideoJobsTotal.WithLabelValues("cancelled").Inc()
		slog.Warn("動画処理が中断されました", "job", job.id, "error", ctx.Err())
		err = ctx.Err()
	default:
		metrics.VideoJobsTotal.WithLabelValues("failed").Inc()
		slog.Error("動画処理に失敗", "job", job.id, "error", err)
		emit(entity.VideoEvent{Type: entity.EventError, Message: err.Error()})
	}

	// 履歴の更新はリクエストのキャンセルに影響されないようにする
	u.finishRun(context.WithoutCancel(ctx), job.runID, histentity.RunOutcome{
		FramesProcessed:   res.processed,
		TotalDetections:   res.detections,
		ProcessedVideoURL: res.videoURL,
		Err:               err,
	})
}

func (u *VideoUsecase) pipeline(ctx context.Context, job *videoJob, emit func(entity.VideoEvent) bool) (jobResult, error) {
	var res jobResult
	skip := detusecase.CalculateSkipFrames(job.info.FPS, job.fps)

	if !emit(entity.VideoEvent{
		Type:                 entity.EventStatus,
		Message:              "Starting video processing...",
		EstimatedTotalFrames: job.info.TotalFrames / skip,
	}) {
		return res, ctx.Err()
	}

	tempDir, err := os.MkdirTemp(u.dirs.TempDir, "logodetect-video-*")
	if err != nil {
		return res, fmt.Errorf("create temp dir: %w", err)
	}
	job.tempDir = tempDir
	srcDir := filepath.Join(tempDir, "src")
	outDir := filepath.Join(tempDir, "out")
	framesDir := filepath.Join(u.dirs.FramesDir, job.id)
	job.framesDir = framesDir
	for _, d := range []string{srcDir, outDir, framesDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return res, fmt.Errorf("create dir %s: %w", d, err)
		}
	}

	start := time.Now()
	frames, err := u.toolkit.ExtractFrames(ctx, job.upload, srcDir)
	if err != nil {
		return res, fmt.Errorf("extract frames: %w", err)
	}
	metrics.VideoStageDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())

	// 1パス目: skip間隔のフレームを推論し、結果を逐次通知する
	start = time.Now()
	results := make(map[int][]detentity.Detection)
	sampled := make([]int, 0, len(frames)/skip+1)
	for i, framePath := range frames {
		if i%skip != 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		data, err := os.ReadFile(framePath)
		if err != nil {
			return res, fmt.Errorf("read frame %d: %w", i, err)
		}
		dets, annotated, err := u.detectFrame(ctx, data, job.confidence)
		sampled = append(sampled, i)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			slog.Warn("フレームの処理に失敗", "job", job.id, "frame", i, "error", err)
			results[i] = nil
			continue
		}
		results[i] = dets

		name := fmt.Sprintf("frame_%06d.jpg", res.processed)
		if err := os.WriteFile(filepath.Join(framesDir, name), annotated, 0o644); err != nil {
			return res, fmt.Errorf("write frame %s: %w", name, err)
		}

		timestamp := 0.0
		if job.info.Rate > 0 {
			timestamp = float64(i) / job.info.Rate
		}
		if !emit(entity.VideoEvent{
			Type:        entity.EventFrame,
			FrameNumber: res.processed,
			FrameURL:    path.Join(FramesURLPrefix, job.id, name),
			Detections:  dets,
			Timestamp:   timestamp,
		}) {
			return res, ctx.Err()
		}
		res.processed++
		res.detections += len(dets)
		metrics.DetectionsTotal.WithLabelValues("video").Add(float64(len(dets)))
	}
	metrics.VideoStageDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())

	localURL := path.Join(StaticURLPrefix, filepath.Base(job.output))
	if !emit(entity.VideoEvent{
		Type:              entity.EventComplete,
		Message:           "Video processing completed",
		TotalFrames:       res.processed,
		ProcessedVideoURL: localURL,
	}) {
		return res, ctx.Err()
	}

	// 2パス目: 全フレームに最も近い推論済みフレームの検出結果を描画する
	start = time.Now()
	for i, framePath := range frames {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		var dets []detentity.Detection
		if nearest, ok := NearestSampledFrame(i, sampled); ok {
			dets = results[nearest]
		}
		out := filepath.Join(outDir, fmt.Sprintf("frame_%06d.jpg", i))
		if err := u.renderFrame(framePath, out, dets); err != nil {
			return res, err
		}
	}
	metrics.VideoStageDuration.WithLabelValues("render").Observe(time.Since(start).Seconds())

	fps := job.info.FPS
	if fps <= 0 {
		fps = FallbackFPS
	}
	start = time.Now()
	if err := u.toolkit.Encode(ctx, outDir, fps, job.output); err != nil {
		return res, fmt.Errorf("Error creating video with FFmpeg: %w", err)
	}
	metrics.VideoStageDuration.WithLabelValues("encode").Observe(time.Since(start).Seconds())

	res.videoURL = localURL
	if u.publisher != nil {
		url, err := u.publisher.Publish(ctx, job.output)
		if err != nil {
			slog.Warn("動画の公開に失敗、ローカルURLを使用", "job", job.id, "error", err)
		}
		if url != "" {
			res.videoURL = url
		}
	}

	if !emit(entity.VideoEvent{
		Type:              entity.EventVideoReady,
		Message:           "Video with detections created successfully",
		ProcessedVideoURL: res.videoURL,
	}) {
		return res, ctx.Err()
	}
	return res, nil
}

// detectFrame は1フレームを推論し、検出枠を描画したJPEGを返します。
func (u *VideoUsecase) detectFrame(ctx context.Context, data []byte, confidence float64) ([]detentity.Detection, []byte, error) {
	img, err := u.renderer.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", detusecase.ErrInvalidImage, err)
	}
	dets, err := u.detector.Detect(ctx, data, confidence)
	if err != nil {
		return nil, nil, err
	}
	annotated, err := u.renderer.EncodeJPEG(u.renderer.Annotate(img, dets))
	if err != nil {
		return nil, nil, err
	}
	return dets, annotated, nil
}

// renderFrame は検出結果がなければ元のフレームをそのままコピーします。
func (u *VideoUsecase) renderFrame(src, dst string, dets []detentity.Detection) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read frame %s: %w", filepath.Base(src), err)
	}
	if len(dets) > 0 {
		img, err := u.renderer.Decode(data)
		if err != nil {
			return fmt.Errorf("decode frame %s: %w", filepath.Base(src), err)
		}
		if data, err = u.renderer.EncodeJPEG(u.renderer.Annotate(img, dets)); err != nil {
			return fmt.Errorf("encode frame %s: %w", filepath.Base(src), err)
		}
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write frame %s: %w", filepath.Base(dst), err)
	}
	return nil
}

func (u *VideoUsecase) cleanup(job *videoJob) {
	removeFile(job.upload)
	if job.tempDir != "" {
		if err := os.RemoveAll(job.tempDir); err != nil {
			slog.Warn("作業ディレクトリの削除に失敗", "dir", job.tempDir, "error", err)
		}
	}
}

// discardArtifacts は失敗・中断したジョブの公開フレームと未完成の出力動画を削除します。
func (u *VideoUsecase) discardArtifacts(job *videoJob) {
	if job.framesDir != "" {
		if err := os.RemoveAll(job.framesDir); err != nil {
			slog.Warn("フレームディレクトリの削除に失敗", "dir", job.framesDir, "error", err)
		}
	}
	removeFile(job.output)
}

// PruneFrames はFramesDir配下のジョブディレクトリのうち、maxAgeより古いものを削除します。
// 削除したディレクトリ数を返します。maxAgeが0以下の場合は何もしません。
func (u *VideoUsecase) PruneFrames(now time.Time, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(u.dirs.FramesDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read frames dir: %w", err)
	}
	cutoff := now.Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		dir := filepath.Join(u.dirs.FramesDir, e.Name())
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("古いフレームディレクトリの削除に失敗", "dir", dir, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		slog.Info("古いフレームディレクトリを削除", "count", removed, "max_age", maxAge)
	}
	return removed, nil
}

// RunFrameJanitor はctxが終了するまでinterval毎にPruneFramesを実行します。
func (u *VideoUsecase) RunFrameJanitor(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 || maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := u.PruneFrames(u.now(), maxAge); err != nil {
			slog.Warn("フレームディレクトリの掃除に失敗", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (u *VideoUsecase) beginRun(ctx context.Context, source string, req VideoRequest) string {
	if u.recorder == nil {
		return ""
	}
	id, err := u.recorder.Begin(ctx, histentity.RunStart{
		Kind:                histentity.RunKindVideo,
		Source:              source,
		Weight:              u.detector.CurrentModelName(),
		ConfidenceThreshold: req.Confidence,
		FramesPerSecond:     req.FramesPerSecond,
	})
	if err != nil {
		slog.Warn("検出履歴の記録に失敗", "error", err)
		return ""
	}
	return id
}

func (u *VideoUsecase) finishRun(ctx context.Context, id string, outcome histentity.RunOutcome) {
	if u.recorder == nil || id == "" {
		return
	}
	if err := u.recorder.Finish(ctx, id, outcome); err != nil {
		slog.Warn("検出履歴の更新に失敗", "run_id", id, "error", err)
	}
}

// safeBase はアップロードされたファイル名からディレクトリ部分を取り除きます。
func safeBase(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return "video"
	}
	return base
}

func saveUpload(dst string, src io.Reader) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		removeFile(dst)
		return fmt.Errorf("save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		removeFile(dst)
		return fmt.Errorf("save upload: %w", err)
	}
	return nil
}

func removeFile(p string) {
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("ファイルの削除に失敗", "path", p, "error", err)
	}
}
