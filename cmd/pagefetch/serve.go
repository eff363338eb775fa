package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/pagefetch/api"
	"github.com/use-agent/pagefetch/api/middleware"
	"github.com/use-agent/pagefetch/browser"
	"github.com/use-agent/pagefetch/cache"
	"github.com/use-agent/pagefetch/cleaner"
	"github.com/use-agent/pagefetch/fetcher"
	"github.com/use-agent/pagefetch/metrics"
	"github.com/use-agent/pagefetch/models"
	"github.com/use-agent/pagefetch/worker"
)

const shutdownGrace = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	// ── 1. Configuration + logging ──────────────────────────────────
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	slog.Info("pagefetch starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxSessions", cfg.Admission.MaxSessions,
		"evasion", browser.EvasionScriptVersion,
	)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 2. Browser ──────────────────────────────────────────────────
	engine, err := browser.Launch(cfg.Browser)
	if err != nil {
		slog.Error("failed to launch browser", "error", err)
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			slog.Warn("browser close failed", "error", err)
		}
	}()

	// ── 3. Pipeline ─────────────────────────────────────────────────
	pool := worker.New(cfg.Extraction.Workers)
	defer pool.Close()

	m := metrics.New()
	f, err := fetcher.New(cfg, fetcher.Deps{
		Engine:    engine,
		Extractor: cleaner.NewExtractor(cfg.Heuristics, cfg.Extraction.MinContentLength),
		Pool:      pool,
		Metrics:   m,
	})
	if err != nil {
		return fmt.Errorf("build fetcher: %w", err)
	}
	defer f.Close()

	cc := cache.New(cfg.Cache.MaxEntries)
	defer cc.Close()

	admission := middleware.NewAdmission(cfg.Admission)
	m.RegisterGauge("sessions_active", "Open browser sessions.", func() float64 { return float64(engine.ActiveSessions()) })
	m.RegisterGauge("requests_admitted", "Requests holding an admission slot.", func() float64 { return float64(admission.InFlight()) })
	m.RegisterGauge("extract_workers_busy", "Busy extraction workers.", func() float64 { return float64(pool.Active()) })
	m.RegisterGauge("cache_entries", "Cached fetch responses.", func() float64 { return float64(cc.Len()) })

	// ── 4. Router ───────────────────────────────────────────────────
	router := api.NewRouter(ctx, cfg, api.Deps{
		Fetcher:   f,
		Cache:     cc,
		Metrics:   m,
		Admission: admission,
		StartTime: time.Now(),
		Stats: func() (models.LoadStats, models.LoadStats) {
			return models.LoadStats{Capacity: admission.Capacity(), Active: engine.ActiveSessions()},
				models.LoadStats{Capacity: pool.Capacity(), Active: pool.Active()}
		},
	})

	// ── 5. HTTP server ──────────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("HTTP server error", "error", err)
			return err
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Deferred closes run next: cache, fetcher, pool, then the browser.
	slog.Info("pagefetch stopped")
	return nil
}
