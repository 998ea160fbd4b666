// Package ffmpeg wraps the ffprobe and ffmpeg binaries used by the video pipeline.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrNotFound is returned when the ffmpeg or ffprobe binary is missing.
var ErrNotFound = errors.New("FFmpeg not found. Please install FFmpeg to process videos.")

// maxStderr bounds the stderr tail kept in error messages.
const maxStderr = 2048

// Runner executes a binary and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command with os/exec. Stderr is attached to the error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		// covers both a PATH lookup miss and a missing absolute path
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[len(msg)-maxStderr:]
		}
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, msg)
	}
	return stdout.Bytes(), nil
}

// VideoInfo describes the first video stream of a file.
type VideoInfo struct {
	// FPS is the integer part of Rate.
	FPS         int
	Rate        float64
	TotalFrames int
	Width       int
	Height      int
	Duration    float64
}

// Toolkit runs probe, frame extraction and encoding.
type Toolkit struct {
	ffmpeg  string
	ffprobe string
	run     Runner
}

// New returns a Toolkit using the given binaries. A nil runner uses ExecRunner.
func New(ffmpegPath, ffprobePath string, run Runner) *Toolkit {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if run == nil {
		run = ExecRunner
	}
	return &Toolkit{ffmpeg: ffmpegPath, ffprobe: ffprobePath, run: run}
}

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// Probe reads frame rate, frame count and dimensions of the first video stream.
func (t *Toolkit) Probe(ctx context.Context, path string) (VideoInfo, error) {
	out, err := t.run(ctx, t.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "v:0",
		path,
	)
	if err != nil {
		return VideoInfo{}, err
	}

	var po probeOutput
	if err := json.Unmarshal(out, &po); err != nil {
		return VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(po.Streams) == 0 {
		return VideoInfo{}, fmt.Errorf("no video stream found in %s", filepath.Base(path))
	}
	s := po.Streams[0]

	rate := parseRate(s.RFrameRate)
	if rate <= 0 {
		rate = parseRate(s.AvgFrameRate)
	}
	duration, _ := strconv.ParseFloat(s.Duration, 64)

	total, err := strconv.Atoi(s.NbFrames)
	if err != nil || total <= 0 {
		total = int(math.Round(duration * rate))
	}

	return VideoInfo{
		FPS:         int(rate),
		Rate:        rate,
		TotalFrames: total,
		Width:       s.Width,
		Height:      s.Height,
		Duration:    duration,
	}, nil
}

// ExtractFrames writes every frame of src into dir as JPEG and returns the paths in order.
func (t *Toolkit) ExtractFrames(ctx context.Context, src, dir string) ([]string, error) {
	pattern := filepath.Join(dir, "src_%06d.jpg")
	if _, err := t.run(ctx, t.ffmpeg,
		"-v", "error",
		"-i", src,
		"-vsync", "0",
		"-q:v", "2",
		"-y",
		pattern,
	); err != nil {
		return nil, err
	}

	frames, err := filepath.Glob(filepath.Join(dir, "src_*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("glob frames: %w", err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted from video")
	}
	sortFrames(frames)
	slog.Debug("frames extracted", "count", len(frames), "dir", dir)
	return frames, nil
}

// Encode assembles dir/frame_%06d.jpg into an H.264 MP4 at fps.
func (t *Toolkit) Encode(ctx context.Context, dir string, fps int, out string) error {
	if fps <= 0 {
		fps = 25
	}
	_, err := t.run(ctx, t.ffmpeg,
		"-y",
		"-v", "error",
		"-framerate", strconv.Itoa(fps),
		"-i", filepath.Join(dir, "frame_%06d.jpg"),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		out,
	)
	if err != nil {
		return err
	}
	slog.Info("video encoded", "output", out, "fps", fps)
	return nil
}

// sortFrames orders frame paths by their numeric index. The %06d pattern widens
// past 999999, so lexical order is not enough.
func sortFrames(frames []string) {
	sort.SliceStable(frames, func(i, j int) bool {
		a, b := frameIndex(frames[i]), frameIndex(frames[j])
		if a != b {
			return a < b
		}
		return frames[i] < frames[j]
	})
}

// frameIndex extracts N from ".../<prefix>_N.jpg", or -1.
func frameIndex(path string) int {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	i := strings.LastIndexByte(name, '_')
	if i < 0 {
		return -1
	}
	n, err := strconv.Atoi(name[i+1:])
	if err != nil {
		return -1
	}
	return n
}

// parseRate parses ffprobe rates such as "30000/1001" or "25".
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
