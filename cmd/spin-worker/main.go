package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spindoctor/internal/config"
	"spindoctor/internal/ghoststore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
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

	prune := func() error {
		n, err := ghoststore.PruneOlderThan(ctx, store, cfg.Retention, time.Now())
		if err != nil {
			return err
		}
		logger.Info("ghost prune complete", "deleted", n, "retention", cfg.Retention.String())
		return nil
	}

	if cfg.RunOnce {
		if err := prune(); err != nil {
			logger.Error("prune failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	ticker := time.NewTicker(cfg.PruneEvery)
	defer ticker.Stop()

	logger.Info("worker started", "prune_every", cfg.PruneEvery.String(), "retention", cfg.Retention.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			if err := prune(); err != nil {
				logger.Error("prune failed", "err", err)
			}
		}
	}
}
