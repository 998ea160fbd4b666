// Package router はHTTPルーティングを構成します。
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	brandhandler "logodetect_backend/internal/feature/brandinsight/transport/handler"
	dethandler "logodetect_backend/internal/feature/detection/transport/handler"
	histhandler "logodetect_backend/internal/feature/history/transport/handler"
	videohandler "logodetect_backend/internal/feature/video/transport/handler"
	platformhandler "logodetect_backend/internal/platform/http/handler"
	jwtmw "logodetect_backend/internal/platform/jwt"
	"logodetect_backend/internal/platform/metrics"
)

// Handlers はルーターに登録するハンドラーの集合です。
type Handlers struct {
	Detection *dethandler.DetectionHandler
	Video     *videohandler.VideoHandler
	History   *histhandler.HistoryHandler
	Brand     *brandhandler.BrandInsightHandler
	Ready     platformhandler.ReadyFunc
}

// Options はルーターの動作設定です。
type Options struct {
	StaticDir      string
	AdminJWTSecret string
	MaxUploadBytes int64
}

// NewRouter はAPI・静的ファイル・運用エンドポイントを登録したエンジンを返します。
func NewRouter(h Handlers, opt Options) *gin.Engine {
	r := gin.Default()
	if opt.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = opt.MaxUploadBytes
	}

	// ブラウザのフロントエンドから直接呼ばれるため全オリジンを許可
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	// 認証不要
	// 導通確認用
	r.GET("/healthz", platformhandler.Health(h.Ready))
	r.HEAD("/healthz", platformhandler.Health(h.Ready))
	r.OPTIONS("/healthz", platformhandler.Health(h.Ready))
	r.GET("/metrics", metrics.Handler())
	if opt.StaticDir != "" {
		r.Static("/static", opt.StaticDir)
	}

	api := r.Group("/api")
	if opt.MaxUploadBytes > 0 {
		api.Use(limitBody(opt.MaxUploadBytes))
	}
	{
		api.GET("/", h.Detection.Root)
		api.GET("/health", h.Detection.Health)
		api.GET("/device", h.Detection.Device)
		api.GET("/config", h.Detection.GetConfig)
		api.GET("/weights", h.Detection.Weights)
		api.POST("/images/detect", h.Detection.DetectImages)
		api.POST("/video/detect", h.Video.DetectVideo)
		api.GET("/history", h.History.ListRuns)
		api.GET("/history/:id", h.History.GetRun)
		api.POST("/brands/analyze", h.Brand.AnalyzeBrand)
	}

	// 設定を変更するルート
	// ADMIN_JWT_SECRET が設定されている場合のみ管理者トークンが必要になる
	admin := api.Group("/")
	admin.Use(jwtmw.AdminRequired(opt.AdminJWTSecret))
	{
		admin.POST("/config", h.Detection.UpdateConfig)
		admin.POST("/weights/switch", h.Detection.SwitchWeight)
	}

	return r
}

// limitBody はリクエストボディをmaxバイトに制限します。
func limitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
