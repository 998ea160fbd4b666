package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

func recordingRunner(out []byte, err error, calls *[]call) Runner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{name: name, args: args})
		return out, err
	}
}

func TestToolkit_Probe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		out  string
		want VideoInfo
	}{
		{
			name: "ntsc rate with frame count",
			out:  `{"streams":[{"width":1920,"height":1080,"r_frame_rate":"30000/1001","avg_frame_rate":"30000/1001","nb_frames":"300","duration":"10.01"}]}`,
			want: VideoInfo{FPS: 29, Rate: 30000.0 / 1001.0, TotalFrames: 300, Width: 1920, Height: 1080, Duration: 10.01},
		},
		{
			name: "falls back to avg rate and duration",
			out:  `{"streams":[{"width":640,"height":360,"r_frame_rate":"0/0","avg_frame_rate":"25/1","duration":"4.0"}]}`,
			want: VideoInfo{FPS: 25, Rate: 25, TotalFrames: 100, Width: 640, Height: 360, Duration: 4},
		},
		{
			name: "integer rate",
			out:  `{"streams":[{"width":2,"height":2,"r_frame_rate":"12","nb_frames":"N/A","duration":"0.5"}]}`,
			want: VideoInfo{FPS: 12, Rate: 12, TotalFrames: 6, Width: 2, Height: 2, Duration: 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls []call
			tk := New("/usr/bin/ffmpeg", "/usr/bin/ffprobe", recordingRunner([]byte(tt.out), nil, &calls))

			got, err := tk.Probe(context.Background(), "in.mp4")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			require.Len(t, calls, 1)
			assert.Equal(t, "/usr/bin/ffprobe", calls[0].name)
			assert.Contains(t, calls[0].args, "-show_streams")
			assert.Equal(t, "in.mp4", calls[0].args[len(calls[0].args)-1])
		})
	}
}

func TestToolkit_Probe_Errors(t *testing.T) {
	t.Parallel()

	var calls []call
	_, err := New("", "", recordingRunner([]byte(`{"streams":[]}`), nil, &calls)).Probe(context.Background(), "a.mp4")
	assert.ErrorContains(t, err, "no video stream")

	_, err = New("", "", recordingRunner([]byte(`not json`), nil, &calls)).Probe(context.Background(), "a.mp4")
	assert.ErrorContains(t, err, "parse ffprobe output")

	_, err = New("", "", recordingRunner(nil, ErrNotFound, &calls)).Probe(context.Background(), "a.mp4")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToolkit_ExtractFrames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		assert.Equal(t, "ffmpeg", name)
		assert.Equal(t, filepath.Join(dir, "src_%06d.jpg"), args[len(args)-1])
		for _, n := range []string{"src_000002.jpg", "src_000001.jpg", "src_000003.jpg"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("jpg"), 0o644))
		}
		return nil, nil
	}

	frames, err := New("", "", run).ExtractFrames(context.Background(), "in.mp4", dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "src_000001.jpg"),
		filepath.Join(dir, "src_000002.jpg"),
		filepath.Join(dir, "src_000003.jpg"),
	}, frames)
}

func TestToolkit_ExtractFrames_NumericOrderPastSixDigits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	run := func(context.Context, string, ...string) ([]byte, error) {
		for _, n := range []string{"src_1000000.jpg", "src_999999.jpg", "src_000001.jpg"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("jpg"), 0o644))
		}
		return nil, nil
	}

	frames, err := New("", "", run).ExtractFrames(context.Background(), "in.mp4", dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "src_000001.jpg"),
		filepath.Join(dir, "src_999999.jpg"),
		filepath.Join(dir, "src_1000000.jpg"),
	}, frames)
}

func TestToolkit_ExtractFrames_NoFrames(t *testing.T) {
	t.Parallel()

	var calls []call
	_, err := New("", "", recordingRunner(nil, nil, &calls)).ExtractFrames(context.Background(), "in.mp4", t.TempDir())
	assert.EqualError(t, err, "no frames extracted from video")
}

func TestToolkit_Encode(t *testing.T) {
	t.Parallel()

	var calls []call
	tk := New("ffmpeg", "ffprobe", recordingRunner(nil, nil, &calls))

	require.NoError(t, tk.Encode(context.Background(), "/tmp/frames", 0, "out.mp4"))
	require.Len(t, calls, 1)
	args := calls[0].args
	assert.Equal(t, []string{"-framerate", "25"}, args[3:5])
	assert.Contains(t, args, "libx264")
	assert.Contains(t, args, "+faststart")
	assert.Equal(t, filepath.Join("/tmp/frames", "frame_%06d.jpg"), args[6])
	assert.Equal(t, "out.mp4", args[len(args)-1])
}

func TestToolkit_Encode_Failure(t *testing.T) {
	t.Parallel()

	var calls []call
	boom := errors.New("exit status 1")
	err := New("", "", recordingRunner(nil, boom, &calls)).Encode(context.Background(), "d", 30, "o.mp4")
	assert.ErrorIs(t, err, boom)
}

func TestExecRunner_NotFound(t *testing.T) {
	t.Parallel()

	_, err := ExecRunner(context.Background(), "definitely-not-an-ffmpeg-binary-xyz")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "FFmpeg not found. Please install FFmpeg to process videos.", err.Error())
}

func TestExecRunner_AbsolutePathMissing(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "bin", "ffmpeg")
	_, err := ExecRunner(context.Background(), missing, "-version")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseRate(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 29.97, parseRate("30000/1001"), 0.01)
	assert.Equal(t, 25.0, parseRate("25"))
	assert.Equal(t, 0.0, parseRate("0/0"))
	assert.Equal(t, 0.0, parseRate(""))
}
