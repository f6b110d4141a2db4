package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/rmxops/plantctl/internal/catalog"
	"github.com/rmxops/plantctl/internal/db"
	"github.com/rmxops/plantctl/internal/reconcile"
)

func initStore(ctx context.Context) (catalog.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "plantctl.db"
		}
		store, err := catalog.NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.Store.DatabaseURL, &db.PoolConfig{
			MaxConns: cfg.Store.Pool.MaxConns,
			MinConns: cfg.Store.Pool.MinConns,
		})
		if err != nil {
			return nil, err
		}
		return catalog.NewPostgresStore(pool), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initEngine(store catalog.Store, plantID string) *reconcile.Engine {
	if plantID == "" {
		plantID = cfg.Plant.ID
	}
	return reconcile.NewEngine(store, plantID,
		reconcile.WithWorkers(cfg.Batch.Workers),
		reconcile.WithFallbackRate(cfg.Batch.FallbackRPS),
	)
}
