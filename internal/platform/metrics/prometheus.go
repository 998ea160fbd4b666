// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ImagesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logodetect_images_processed_total",
		Help: "Total number of uploaded images handled, by outcome",
	}, []string{"status"})

	DetectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logodetect_detections_total",
		Help: "Total number of logos detected, by source",
	}, []string{"source"})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "logodetect_inference_duration_seconds",
		Help:    "Latency of a single model prediction",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"weight"})

	VideoJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logodetect_video_jobs_total",
		Help: "Total number of video jobs, by final status",
	}, []string{"status"})

	VideoStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "logodetect_video_stage_duration_seconds",
		Help:    "Duration of each video pipeline stage",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	ActiveVideoJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "logodetect_active_video_jobs",
		Help: "Number of video jobs currently streaming",
	})
)

// Handler exposes the default registry as a gin handler.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
