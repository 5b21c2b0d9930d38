package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"GlowMint/internal/catalog"
	"GlowMint/internal/config"
	"GlowMint/internal/store"
	"GlowMint/pkg/kit"
)

const service = "catalog-seed"

// catalog-seed writes the built-in products into the products table of the
// configured SQL database (DATABASE_URL, or SQLITE_PATH when
// STORE_BACKEND=sqlite) so that CATALOG_SOURCE=sql has something to load.
func main() {
	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("config", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	d, dsn := store.Postgres, cfg.DatabaseURL
	if cfg.StoreBackend == config.BackendSQLite {
		d, dsn = store.SQLite, cfg.SQLitePath
	}
	if dsn == "" {
		log.Fatal("no database configured: set DATABASE_URL or STORE_BACKEND=sqlite")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.OpenSQL(ctx, d, dsn)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	cat := catalog.Builtin()
	if err := catalog.SeedSQL(ctx, db, d, cat); err != nil {
		log.Fatal("seed catalog", zap.Error(err))
	}

	log.Info("catalog seeded", zap.Int("products", cat.Len()))
}
