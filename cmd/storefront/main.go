package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"GlowMint/internal/cart"
	"GlowMint/internal/catalog"
	"GlowMint/internal/checkout"
	"GlowMint/internal/config"
	"GlowMint/internal/notify"
	"GlowMint/internal/store"
	"GlowMint/internal/visitor"
	"GlowMint/internal/web"
	"GlowMint/internal/wishlist"
	"GlowMint/pkg/kit"
)

const (
	service      = "storefront"
	startTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("config", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	kv, db, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("open store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeStore()

	cat, err := loadCatalog(ctx, cfg, db)
	if err != nil {
		log.Fatal("load catalog", zap.String("source", cfg.CatalogSource), zap.Error(err))
	}
	log.Info("catalog loaded", zap.String("source", cfg.CatalogSource), zap.Int("products", cat.Len()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := kit.NewMetrics(reg)

	toasts := notify.NewQueue(kv, notify.Config{
		TTL:         cfg.ToastTTL,
		Log:         log,
		Timeout:     cfg.StoreTimeout,
		SoftFailure: metrics.SoftFailure,
	})
	carts := cart.NewManager(kv, cart.Config{
		Notifier:    toasts,
		Log:         log,
		Timeout:     cfg.StoreTimeout,
		OnCount:     web.RecordCount,
		SoftFailure: metrics.SoftFailure,
	})
	wishes := wishlist.NewManager(kv, wishlist.Config{
		Notifier:    toasts,
		Log:         log,
		Timeout:     cfg.StoreTimeout,
		SoftFailure: metrics.SoftFailure,
	})

	h := web.NewHandler(web.Deps{
		Catalog:  cat,
		Cart:     carts,
		Wishlist: wishes,
		Checkout: &checkout.Service{Cart: carts, Notifier: toasts, Log: log},
		Toasts:   toasts,
		Store:    kv,
		Visitor: visitor.Cookies{
			Name:   cfg.VisitorCookie,
			Secure: cfg.CookieSecure,
			Tokens: visitor.NewTokenMaker(visitorSecret(cfg, log)),
			Log:    log,
		},
		MutationLimitPerMin: cfg.MutationLimitPerMin,
	}, web.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		Metrics:        metrics,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(cfg.Addr(), h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// openStore builds the configured key-value backend. Remote backends sit
// behind a circuit breaker. db is set for SQL backends so the catalog can
// share the pool.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.KV, *sql.DB, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis not reachable yet", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		kv := store.NewBreakerKV("redis", store.NewRedisKV(client), cfg.BreakerMaxFailures)
		return kv, nil, func() { _ = client.Close() }, nil

	case config.BackendPostgres, config.BackendSQLite:
		d, dsn := store.Postgres, cfg.DatabaseURL
		if cfg.StoreBackend == config.BackendSQLite {
			d, dsn = store.SQLite, cfg.SQLitePath
		}

		db, err := store.OpenSQL(ctx, d, dsn)
		if err != nil {
			return nil, nil, nil, err
		}
		sqlKV := store.NewSQLKV(db, d)
		if err := sqlKV.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}

		var kv store.KV = sqlKV
		if d == store.Postgres {
			kv = store.NewBreakerKV("postgres", sqlKV, cfg.BreakerMaxFailures)
		}
		return kv, db, func() { _ = db.Close() }, nil

	default:
		return store.NewMemKV(), nil, func() {}, nil
	}
}

func loadCatalog(ctx context.Context, cfg *config.Config, db *sql.DB) (*catalog.Catalog, error) {
	if cfg.CatalogSource != config.CatalogSQL {
		return catalog.Builtin(), nil
	}

	if db == nil {
		pg, err := store.OpenSQL(ctx, store.Postgres, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer func() { _ = pg.Close() }()
		db = pg
	}

	cat, err := catalog.LoadSQL(ctx, db)
	if err != nil {
		return nil, err
	}
	if cat.Len() == 0 {
		return nil, fmt.Errorf("products table is empty; run catalog-seed first")
	}
	return cat, nil
}

// visitorSecret falls back to a per-process random key; visitor cookies then
// stop verifying after a restart.
func visitorSecret(cfg *config.Config, log *zap.Logger) string {
	if cfg.VisitorSecret != "" {
		return cfg.VisitorSecret
	}

	b := make([]byte, 32)
	_, _ = rand.Read(b)
	log.Warn("VISITOR_SECRET not set, using a random key for this process")
	return hex.EncodeToString(b)
}
