package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docbake/internal/asset"
	"git.home.luguber.info/inful/docbake/internal/config"
	"git.home.luguber.info/inful/docbake/internal/logfields"
	"git.home.luguber.info/inful/docbake/internal/metrics"
	"git.home.luguber.info/inful/docbake/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SourceFlags `embed:""`
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address (overrides watch.metrics_addr)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, w.SourceFlags)
	if err != nil {
		return err
	}
	if w.MetricsAddr != "" {
		cfg.Watch.MetricsAddr = w.MetricsAddr
	}
	logger := configureLogging(g, cfg, root.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunWatch(ctx, cfg, logger)
}

// RunWatch copies everything once and then follows changes until ctx is done.
func RunWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var rec metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Watch.MetricsAddr != "" {
		reg := prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
		stop := serveMetrics(cfg.Watch.MetricsAddr, reg, logger)
		defer stop()
	}

	if err := RunCopy(cfg, logger, rec, os.Stderr); err != nil {
		logger.Warn("Initial copy finished with errors; watching anyway", logfields.Error(err))
	}

	newCopier := func() *asset.Asset {
		return asset.New(cfg, asset.WithLogger(logger), asset.WithRecorder(rec))
	}
	w := watch.New(cfg,
		func() watch.Copier { return newCopier() },
		watch.WithLogger(logger),
		watch.WithResync(cfg.ResyncInterval(), func() { newCopier().Run() }),
	)
	return w.Run(ctx)
}

func serveMetrics(addr string, reg *prom.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("Serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", logfields.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown error", logfields.Error(err))
		}
	}
}
