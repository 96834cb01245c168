package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xadriann/stockwatch/internal/api"
	"github.com/xadriann/stockwatch/internal/config"
	"github.com/xadriann/stockwatch/internal/detect"
	"github.com/xadriann/stockwatch/internal/engine"
	"github.com/xadriann/stockwatch/internal/idcloud"
	"github.com/xadriann/stockwatch/internal/locations"
	"github.com/xadriann/stockwatch/internal/processor"
	"github.com/xadriann/stockwatch/internal/sink"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	cfgPath := flag.String("config", "configs/monitor.yaml", "Path to monitor YAML config")
	backfill := flag.Bool("backfill", false, "Fetch recent events from the iD Cloud API at startup")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Location mapper ──────────────────────────────────────────────────────
	// Optional: without it the sublocation rules go quiet and alerts show raw
	// location URNs.
	var classifier detect.SublocationClassifier
	mapper := locations.New(cfg.API)
	if cfg.API.Token != "" {
		initCtx, initCancel := context.WithTimeout(ctx, 30*time.Second)
		if err := mapper.Initialize(initCtx); err != nil {
			slog.Warn("location mapper unavailable, using raw location IDs", "err", err)
		} else {
			classifier = mapper
			slog.Info("location mapper ready", "organization", mapper.OrganizationName())
		}
		initCancel()
	}

	// ── Detectors, processor, sinks, engine ──────────────────────────────────
	detectors := detect.NewAll(cfg.Rules, classifier)
	proc := processor.New(detectors)
	sinks := sink.FromConfig(cfg.Sinks)
	eng := engine.New(ctx, proc, sinks, cfg.Engine)
	slog.Info("detection engine started", "rules", len(detectors))

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		newDetectors := detect.NewAll(newCfg.Rules, classifier)
		if err := eng.Do(ctx, func(p *processor.Processor) {
			p.SwapDetectors(newDetectors)
		}); err != nil {
			slog.Warn("hot-reload skipped: engine busy", "err", err)
			return
		}
		slog.Info("rules hot-reloaded", "rules", len(newDetectors))
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── Startup backfill ─────────────────────────────────────────────────────
	if *backfill {
		go runBackfill(ctx, cfg, eng)
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	listenAddr := cfg.HTTP.Addr
	if *addr != "" {
		listenAddr = *addr
	}
	handler := api.New(eng, loader, classifier)
	srv := &http.Server{
		Addr:         listenAddr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop the event worker
	eng.Shutdown()
	slog.Info("goodbye")
}

// runBackfill pulls recent events from the iD Cloud API and feeds them
// through the engine in API order.
func runBackfill(ctx context.Context, cfg *config.Config, eng *engine.Engine) {
	client := idcloud.New(cfg.API)
	hours := cfg.API.QueryHoursBack
	if hours <= 0 {
		hours = 24
	}

	events, err := client.FetchAll(ctx, idcloud.RecentParams(hours, "", ""))
	if err != nil {
		slog.Error("backfill fetch failed", "err", err)
		return
	}
	slog.Info("backfill fetched", "events", len(events), "hours", hours)

	queued := 0
	for _, ev := range events {
		if eng.ProcessAsync(ev) {
			queued++
		}
	}
	slog.Info("backfill queued", "queued", queued, "dropped", len(events)-queued)
}
