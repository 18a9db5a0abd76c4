package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spindoctor/internal/api"
	"spindoctor/internal/config"
	"spindoctor/internal/ghoststore"
	"spindoctor/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	store, err := ghoststore.Open(ctx, cfg.Store)
	if err != nil {
		logger.Error("ghost store open failed", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	sessions := session.NewService(store, logger, session.Options{
		MaxTurns: cfg.MaxTurns,
		Seed:     cfg.RNGSeed,
	})
	server := api.New(cfg, logger, sessions)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("spin api listening", "addr", cfg.Addr, "postgres", cfg.Store.UsePostgres(), "max_turns", cfg.MaxTurns)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
