package ghoststore

import (
	"context"
	"fmt"
	"time"

	"spindoctor/internal/config"
	"spindoctor/internal/db"
)

// Open picks Postgres when a database URL is configured and SQLite otherwise.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	if cfg.UsePostgres() {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store, err := NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	}
	sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	store, err := NewSQLite(ctx, sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

// PruneOlderThan deletes runs that finished more than retention before now.
func PruneOlderThan(ctx context.Context, store Store, retention time.Duration, now time.Time) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %s", retention)
	}
	return store.PruneRuns(ctx, now.Add(-retention))
}
