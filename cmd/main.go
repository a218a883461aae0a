package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sinhau/pixelbliss/internal/adapters/providers"
	"github.com/sinhau/pixelbliss/internal/adapters/social"
	app "github.com/sinhau/pixelbliss/internal/app"
	"github.com/sinhau/pixelbliss/internal/config"
	"github.com/sinhau/pixelbliss/pkg/logger"
	"github.com/sinhau/pixelbliss/pkg/metrics"
)

// Metrics server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dryRun := false
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "run":
		case "dry-run":
			dryRun = true
		default:
			os.Stderr.WriteString("usage: pixelbliss [run|dry-run]\n")
			return 2
		}
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Expose metrics for the duration of the run when configured. A one-shot
	// process is normally scraped via the pushgateway-less pattern of running
	// under an agent; the endpoint mainly serves local inspection.
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		go func() {
			loggerInstance.Info(ctx, "serving metrics", logger.String("addr", cfg.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				loggerInstance.Warn(ctx, "metrics server failed", logger.Error(err))
			}
		}()
	}

	opts := []app.Option{app.WithLogger(loggerInstance)}
	if cfg.Alerts.WebhookURL != "" {
		opts = append(opts, app.WithAlerter(social.NewWebhookAlerter(cfg.Alerts.WebhookURL)))
	}
	if cfg.Upscale.Enabled {
		opts = append(opts, app.WithUpscaler(providers.ResampleUpscaler{}))
	}

	svc := app.New(cfg, opts...)
	res, err := svc.RunOnce(ctx, dryRun)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if shutdownErr := metricsSrv.Shutdown(shutdownCtx); shutdownErr != nil {
			loggerInstance.Warn(ctx, "metrics server shutdown failed", logger.Error(shutdownErr))
		}
		cancel()
	}

	if err != nil {
		loggerInstance.Error(ctx, "run failed",
			logger.String("outcome", string(res.Outcome)),
			logger.Error(err),
		)
		return 1
	}
	if !res.Outcome.Benign() {
		return 1
	}
	return 0
}
