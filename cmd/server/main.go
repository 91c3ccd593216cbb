// Package main is the entry point for the Liquidation Roulette API server.
// It wires together all services and starts the HTTP server alongside the
// WebSocket hub and background scheduler.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/evetabi/liquidation-roulette/internal/api"
	"github.com/evetabi/liquidation-roulette/internal/catalogue"
	"github.com/evetabi/liquidation-roulette/internal/config"
	"github.com/evetabi/liquidation-roulette/internal/idgen"
	"github.com/evetabi/liquidation-roulette/internal/narrative"
	"github.com/evetabi/liquidation-roulette/internal/repository"
	"github.com/evetabi/liquidation-roulette/internal/scheduler"
	"github.com/evetabi/liquidation-roulette/internal/service"
	"github.com/evetabi/liquidation-roulette/internal/ws"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ── 1. Logger ─────────────────────────────────────────────────────────────
	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting liquidation roulette server", "env", cfg.Server.Env, "port", cfg.Server.Port)

	// ── 2. Reference data ─────────────────────────────────────────────────────
	cat, err := catalogue.Load(cfg.Catalogue.Path)
	if err != nil {
		logger.Error("catalogue load failed", "path", cfg.Catalogue.Path, "err", err)
		os.Exit(1)
	}
	logger.Info("catalogue loaded", "protocols", cat.Len())

	// ── 3. Registry ───────────────────────────────────────────────────────────
	repo := repository.NewRoundRepository(idgen.FromFormat(cfg.Round.IDFormat))

	// ── 4. Services ───────────────────────────────────────────────────────────
	clock := service.SystemClock
	roundSvc := service.NewRoundService(repo, cat, cfg, clock, logger)
	betSvc := service.NewBetService(repo, cat, clock, logger)
	resolutionSvc := service.NewResolutionService(repo, cat, clock, logger)

	var narrator narrative.Narrator
	if cfg.NarrativeEnabled() {
		narrator = narrative.NewClient(cfg.Narrative, logger)
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, narrative endpoints disabled")
	}
	narrativeSvc := service.NewNarrativeService(narrator, repo, cat, cfg, logger)

	if cfg.Auth.OperatorSecret == "" {
		logger.Warn("OPERATOR_JWT_SECRET not set, operator routes are open")
	}

	// ── 5. WebSocket Hub ──────────────────────────────────────────────────────
	hub := ws.NewHub(cfg.Server.AllowedOrigins, logger)

	roundSvc.SetBroadcaster(hub)
	betSvc.SetBroadcaster(hub)
	resolutionSvc.SetBroadcaster(hub)

	// ── 6. Scheduler ──────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(roundSvc, hub, cfg, clock, logger)

	// ── 7. HTTP Router ────────────────────────────────────────────────────────
	router := api.SetupRouter(api.RouterDeps{
		RoundSvc:      roundSvc,
		BetSvc:        betSvc,
		ResolutionSvc: resolutionSvc,
		NarrativeSvc:  narrativeSvc,
		Hub:           hub,
		Cfg:           cfg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// ── 8. Run until signalled ────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(ctx) })
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received, draining connections…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "err", err)
		os.Exit(1)
	}

	stats := roundSvc.Stats()
	logger.Info("server stopped cleanly", "rounds", stats.Rounds, "bets", stats.Bets)
}
