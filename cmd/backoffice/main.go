// Package main is the operator CLI for a running Liquidation Roulette
// server.  It lists rounds and protocols, opens rounds and settles them.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/backoffice"
	"github.com/evetabi/liquidation-roulette/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defaults := backoffice.Options{
		Addr:     envOr("BACKOFFICE_ADDR", "http://localhost:"+cfg.Server.Port),
		Secret:   cfg.Auth.OperatorSecret,
		Subject:  envOr("USER", "operator"),
		TokenTTL: 15 * time.Minute,
		Timeout:  cfg.Server.WriteTimeout,
	}

	if err := backoffice.Run(ctx, os.Args[1:], os.Stdout, defaults); err != nil {
		if errors.Is(err, backoffice.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
