package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/scontrino/internal/server"
	"github.com/MeKo-Tech/scontrino/internal/version"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP receipt API",
		Long: `Start an HTTP server that reads receipts over a REST API.

Endpoints:
  POST /v1/receipts/scan     multipart upload, field "image"
  POST /v1/receipts/capture  JSON {"image": "<data URL or base64>"}
  POST /v1/receipts/parse    JSON {"tokens": ["..."]}
  GET  /health               health check
  GET  /metrics              Prometheus metrics

Examples:
  scontrino serve
  scontrino serve --host 0.0.0.0 --port 3000 --rate-limit-per-minute 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := a.cfg.Server
			validate, _ := cmd.Flags().GetBool("validate")

			s, cleanup, err := a.newScanner(validate)
			if err != nil {
				return err
			}
			defer cleanup()

			timeout := time.Duration(sc.TimeoutSec) * time.Second
			srv, err := server.NewServer(server.Config{
				Host:               sc.Host,
				Port:               sc.Port,
				CORSOrigin:         sc.CORSOrigin,
				MaxUploadMB:        int64(sc.MaxUploadMB),
				Timeout:            timeout,
				Version:            version.Version,
				RateLimitPerMinute: sc.RateLimitPerMinute,
				RateLimitPerDay:    sc.RateLimitPerDay,
			}, s)
			if err != nil {
				return fmt.Errorf("failed to initialize server: %w", err)
			}
			defer func() { _ = srv.Close() }()

			httpServer := &http.Server{
				Addr:              fmt.Sprintf("%s:%d", sc.Host, sc.Port),
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       timeout,
				WriteTimeout:      timeout + 5*time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("Starting receipt server", "host", sc.Host, "port", sc.Port)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
				slog.Info("Shutting down server")
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(sc.ShutdownTimeout)*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			slog.Info("Server stopped")
			return nil
		},
	}

	f := cmd.Flags()
	f.String("host", "localhost", "server host")
	f.IntP("port", "p", 8080, "server port")
	f.String("cors-origin", "*", "allowed CORS origin")
	f.Int("max-upload-size", 20, "maximum upload size in MB")
	f.Int("timeout", 60, "per-request processing timeout in seconds")
	f.Int("shutdown-timeout", 10, "graceful shutdown timeout in seconds")
	f.Int("rate-limit-per-minute", 0, "requests per client per minute on receipt endpoints (0 = unlimited)")
	f.Int("rate-limit-per-day", 0, "requests per client per day on receipt endpoints (0 = unlimited)")
	f.Bool("validate", false, "include consistency issues in responses")
	a.bind(cmd, map[string]string{
		"host":                  "server.host",
		"port":                  "server.port",
		"cors-origin":           "server.cors_origin",
		"max-upload-size":       "server.max_upload_mb",
		"timeout":               "server.timeout_sec",
		"shutdown-timeout":      "server.shutdown_timeout",
		"rate-limit-per-minute": "server.rate_limit_per_minute",
		"rate-limit-per-day":    "server.rate_limit_per_day",
	})
	return cmd
}
