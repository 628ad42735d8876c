package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yannickabena/mboa-storefront/api/routes"
	"github.com/yannickabena/mboa-storefront/internal/cart"
	"github.com/yannickabena/mboa-storefront/internal/categories"
	checkoutsvc "github.com/yannickabena/mboa-storefront/internal/checkout"
	"github.com/yannickabena/mboa-storefront/internal/products"
	"github.com/yannickabena/mboa-storefront/internal/session"
	"github.com/yannickabena/mboa-storefront/pkg/config"
	"github.com/yannickabena/mboa-storefront/pkg/logger"
	"github.com/yannickabena/mboa-storefront/pkg/metrics"
	"github.com/yannickabena/mboa-storefront/pkg/redis"
	"github.com/yannickabena/mboa-storefront/pkg/tokenstore"
	"github.com/yannickabena/mboa-storefront/pkg/upstream"

	toastsvc "github.com/yannickabena/mboa-storefront/internal/toast"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var redisClient *redis.Client
	var tokens tokenstore.Store
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		tokens = tokenstore.NewRedis(redisClient, cfg.Session.TTL)
	} else {
		logg.Warn(context.Background(), "redis not configured, session tokens held in process memory")
		tokens = tokenstore.NewMemory()
	}

	upstreamClient, err := upstream.NewClient(cfg.Upstream, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build upstream client", err)
		os.Exit(1)
	}

	sessions, err := session.NewService(upstreamClient, tokens, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create session service", err)
		os.Exit(1)
	}
	productSvc, err := products.NewService(upstreamClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}
	carts := cart.NewStore()
	checkout, err := checkoutsvc.NewService(upstreamClient, carts)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	categoryCache := categories.NewCache(categories.UpstreamFetch(upstreamClient), cfg.Categories.CacheTTL, logg)
	resolver := categories.NewResolver(categoryCache, logg)
	toasts := toastsvc.NewCenter(cfg.Toast.AutoClose)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			Redis:          redisClient,
			HTTPMetrics:    httpMetrics,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			Sessions:       sessions,
			Carts:          carts,
			Checkout:       checkout,
			Products:       productSvc,
			CategoryCache:  categoryCache,
			Resolver:       resolver,
			Toasts:         toasts,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "storefront server stopped unexpectedly", err)
		os.Exit(1)
	}
}
