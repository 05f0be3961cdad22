package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ajo/internal/backend"
	"ajo/internal/cli"
	"ajo/internal/config"
	apphttp "ajo/internal/http"
	"ajo/internal/log"
	"ajo/internal/metrics"
	"ajo/internal/services"
)

func main() {
	cfg, logger := cli.MustLoad(log.ComponentApp)
	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// run owns every resource it opens, so its deferred cleanup completes
// before main decides the exit code.
func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid backend configuration: %w", err)
	}
	b, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	m := metrics.New(nil)
	groups := services.NewGroupService(b.Repo, b.Dispatcher,
		services.WithLogger(logger),
		services.WithMetrics(m))
	reports := services.NewReportService(groups,
		services.WithReportCache(b.Cache),
		services.WithExporter(b.Exporter),
		services.WithReportMetrics(m))

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Groups:             groups,
		Reports:            reports,
		Ready:              b.Ready,
		Metrics:            m,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting ajo server",
			"port", cfg.Port,
			"storage", cfg.DataBackend,
			"export", cfg.ExportBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
