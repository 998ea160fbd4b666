package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"logodetect_backend/internal/app/di"
	"logodetect_backend/internal/platform/logging"
)

const (
	shutdownTimeout    = 15 * time.Second
	frameSweepInterval = time.Hour
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var dev bool
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if dev {
				cfg.AppEnv = "development"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logging.Setup(os.Stderr, cfg.LogLevel, cfg.IsDevelopment())
			if cfg.IsDevelopment() {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := di.NewApp(runCtx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					slog.Error("failed to release resources", "error", err)
				}
			}()

			go app.Video.RunFrameJanitor(runCtx, frameSweepInterval, cfg.FramesRetention)

			// SSEの配信が長時間続くため WriteTimeout は設定しない
			srv := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           app.Router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("server listening", "addr", cfg.Addr(), "engine", cfg.Engine)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-runCtx.Done():
			}

			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().BoolVar(&dev, "dev", false, "Development mode (debug logging, gin debug mode)")
	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides PORT)")
	return cmd
}
