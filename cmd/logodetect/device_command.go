package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"logodetect_backend/internal/app/di"
	"logodetect_backend/internal/feature/detection/usecase"
	"logodetect_backend/internal/platform/imaging"
)

// smokeFrameSize is the edge of the blank test frame, the usual YOLO input size.
const smokeFrameSize = 640

func newDeviceCommand(ctx *commandContext) *cobra.Command {
	var runs int

	cmd := &cobra.Command{
		Use:   "device",
		Short: "Print inference device info and time predictions on a blank frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			inference, err := di.NewInference(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = inference.Close() }()

			out := cmd.OutOrStdout()
			info, err := inference.Engine.Device(cmd.Context())
			if err != nil {
				return fmt.Errorf("get device info: %w", err)
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Device", "Name", "Memory total", "Allocated", "Cached"},
				[][]string{{info.Device, info.DeviceName, bytesOrDash(info.MemoryTotal), bytesOrDash(info.MemoryAllocated), bytesOrDash(info.MemoryCached)}},
				nil,
			))
			if runs <= 0 {
				return nil
			}

			settings := usecase.NewSettings(cfg.DefaultFPS, cfg.DefaultConfidence, inference.DefaultWeight, cfg.WeightsDir)
			models := usecase.NewModelService(inference.Engine, inference.Catalog, settings, nil)
			if err := models.LoadDefault(cmd.Context()); err != nil {
				return err
			}

			frame, err := blankFrame()
			if err != nil {
				return err
			}
			timings := make([]time.Duration, 0, runs)
			for range runs {
				start := time.Now()
				if _, err := models.Detect(cmd.Context(), frame, cfg.DefaultConfidence); err != nil {
					return fmt.Errorf("prediction failed: %w", err)
				}
				timings = append(timings, time.Since(start))
			}

			lo, hi, avg := summarize(timings)
			fmt.Fprintln(out, renderTable(
				[]string{"Weight", "Runs", "Min", "Avg", "Max"},
				[][]string{{inference.DefaultWeight, fmt.Sprint(runs), lo.String(), avg.String(), hi.String()}},
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&runs, "runs", 3, "Number of timed predictions (0 skips the benchmark)")
	return cmd
}

func blankFrame() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, smokeFrameSize, smokeFrameSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return imaging.NewRenderer(imaging.DefaultJPEGQuality).EncodeJPEG(img)
}

func summarize(ds []time.Duration) (lo, hi, avg time.Duration) {
	if len(ds) == 0 {
		return 0, 0, 0
	}
	lo, hi = ds[0], ds[0]
	var total time.Duration
	for _, d := range ds {
		lo = min(lo, d)
		hi = max(hi, d)
		total += d
	}
	return lo, hi, total / time.Duration(len(ds))
}

func bytesOrDash(v *int64) string {
	if v == nil {
		return "-"
	}
	return humanize.IBytes(uint64(*v))
}
