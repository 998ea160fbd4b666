// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// EngineUltralytics selects the HTTP inference sidecar.
	EngineUltralytics = "ultralytics"
	// EngineVision selects Google Cloud Vision logo detection.
	EngineVision = "vision"

	// DBDriverSQLite stores run history in a local SQLite file.
	DBDriverSQLite = "sqlite"
	// DBDriverPostgres stores run history in PostgreSQL.
	DBDriverPostgres = "postgres"
	// DBDriverNone disables run history.
	DBDriverNone = "none"
)

// Config holds every environment-driven setting of the service.
type Config struct {
	Host     string `env:"HOST"      envDefault:"0.0.0.0"`
	Port     int    `env:"PORT"      envDefault:"8000"`
	AppEnv   string `env:"APP_ENV"   envDefault:"production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	WeightsDir     string `env:"WEIGHTS_DIR"     envDefault:"weights"`
	WeightsPattern string `env:"WEIGHTS_PATTERN" envDefault:"*.pt"`
	DefaultWeight  string `env:"DEFAULT_WEIGHT"  envDefault:"original.pt"`
	StaticDir      string `env:"STATIC_DIR"      envDefault:"static"`
	FramesDir      string `env:"FRAMES_DIR"      envDefault:"static/frames"`

	// FramesRetention is how long per-job frame directories are kept. 0 disables pruning.
	FramesRetention time.Duration `env:"FRAMES_RETENTION" envDefault:"24h"`

	DefaultFPS        int     `env:"DEFAULT_FPS"        envDefault:"2"`
	DefaultConfidence float64 `env:"DEFAULT_CONFIDENCE" envDefault:"0.5"`

	Engine           string        `env:"ENGINE"            envDefault:"ultralytics"`
	InferenceURL     string        `env:"INFERENCE_URL"     envDefault:"http://localhost:5000"`
	InferenceTimeout time.Duration `env:"INFERENCE_TIMEOUT" envDefault:"60s"`
	VisionRateLimit  int           `env:"VISION_RATE_LIMIT" envDefault:"600"`

	FFmpegPath  string `env:"FFMPEG_PATH"  envDefault:"ffmpeg"`
	FFprobePath string `env:"FFPROBE_PATH" envDefault:"ffprobe"`
	MaxUploadMB int64  `env:"MAX_UPLOAD_MB" envDefault:"512"`

	RedisHost     string        `env:"REDIS_HOST"`
	RedisPort     string        `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN"    envDefault:"logodetect.db"`

	MinIOEndpoint  string `env:"MINIO_ENDPOINT"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL"  envDefault:"false"`
	MinIOBucket    string `env:"MINIO_BUCKET"   envDefault:"processed-videos"`

	AdminJWTSecret string `env:"ADMIN_JWT_SECRET"`

	GeminiEnabled bool   `env:"GEMINI_ENABLED" envDefault:"false"`
	GeminiModel   string `env:"GEMINI_MODEL"   envDefault:"gemini-2.5-flash"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug(".env not found; using system environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that struct tags cannot express.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DefaultFPS < 1 || c.DefaultFPS > 30 {
		return fmt.Errorf("DEFAULT_FPS must be between 1 and 30, got %d", c.DefaultFPS)
	}
	if c.DefaultConfidence < 0 || c.DefaultConfidence > 1 {
		return fmt.Errorf("DEFAULT_CONFIDENCE must be between 0.0 and 1.0, got %v", c.DefaultConfidence)
	}
	switch c.Engine {
	case EngineUltralytics, EngineVision:
	default:
		return fmt.Errorf("unknown ENGINE %q", c.Engine)
	}
	switch c.DBDriver {
	case DBDriverSQLite, DBDriverPostgres, DBDriverNone:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// IsDevelopment reports whether development mode is enabled.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// RedisEnabled reports whether a Redis host was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// MinIOEnabled reports whether processed videos are published to MinIO.
func (c *Config) MinIOEnabled() bool {
	return c.MinIOEndpoint != ""
}

// MaxUploadBytes returns the upload size guard in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// EnsureDirectories creates the static, frames and weights directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.StaticDir, c.FramesDir, c.WeightsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
