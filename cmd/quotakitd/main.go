package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/quotakit/modules/governance"
	"github.com/dmitrymomot/quotakit/pkg/billing"
	"github.com/dmitrymomot/quotakit/pkg/config"
	"github.com/dmitrymomot/quotakit/pkg/httpserver"
	"github.com/dmitrymomot/quotakit/pkg/logger"
	"github.com/dmitrymomot/quotakit/pkg/pg"
	"github.com/dmitrymomot/quotakit/pkg/quota"
	"github.com/dmitrymomot/quotakit/pkg/ratelimit"
	qredis "github.com/dmitrymomot/quotakit/pkg/redis"
	"github.com/dmitrymomot/quotakit/pkg/subscription"
)

type appConfig struct {
	Logger logger.Config
	PG     pg.Config
	Redis  qredis.Config
	HTTP   httpserver.Config

	PaddleWebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	TierCatalogPath     string `env:"TIER_CATALOG_PATH"` // optional YAML override of the built-in tier table
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.NewFromConfig(cfg.Logger, logger.WithAttr(slog.String("app", "quotakitd")))

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("quotakitd exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	healthChecks := []func(context.Context) error{pg.Healthcheck(pool)}

	// The shared counter store is optional. Without it every limiter fails
	// open, which keeps the product available at the cost of per-instance
	// accuracy.
	var counterStore ratelimit.Store
	if cfg.Redis.ConnectionURL != "" {
		client, err := qredis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		counterStore = ratelimit.NewRedisStore(client)
		healthChecks = append(healthChecks, qredis.Healthcheck(client))
	} else {
		log.Warn("REDIS_URL not set, rate limiters will fail open")
	}

	catalog := subscription.DefaultCatalog()
	if cfg.TierCatalogPath != "" {
		catalog, err = subscription.LoadCatalog(cfg.TierCatalogPath)
		if err != nil {
			return err
		}
	}

	subs := subscription.NewPgStore(pool)
	quotaSvc := quota.NewService(subs, quota.NewPgLedger(pool), quota.WithLogger(log))

	limits, err := ratelimit.NewRegistry(counterStore, nil, log)
	if err != nil {
		return err
	}

	verifier, err := billing.NewPaddleVerifier(cfg.PaddleWebhookSecret)
	if err != nil {
		return err
	}
	reconciler := billing.NewReconciler(subs, verifier,
		billing.WithCatalog(catalog),
		billing.WithReconcilerLogger(log),
	)

	scanner := subscription.NewTrialScanner(subs, subscription.WithScannerLogger(log))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	module := governance.New(governance.Deps{
		Quota:      quotaSvc,
		Limits:     limits,
		Subs:       subs,
		Reconciler: reconciler,
		Scanner:    scanner,
		Log:        log,
		Registerer: registry,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", httpserver.HealthCheckHandler(log, healthChecks...))
	r.Method("GET", "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Mount("/v1", module.Router())

	return httpserver.New(cfg.HTTP, log).Run(ctx, r)
}
