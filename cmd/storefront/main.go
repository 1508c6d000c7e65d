package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/confirmation"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/internal/workspace"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/storeapi"
)

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "storefront stopped with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	readiness := map[string]controllers.Pinger{}

	var redisClient *redis.Client
	if cfg.NeedsRedis() || cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
		readiness["redis"] = redisClient
	}

	var dbClient *db.Client
	if cfg.NeedsDB() {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			return err
		}
		closers = append(closers, dbClient.Close)
		readiness["database"] = dbClient
		if err := migrate.MaybeRun(ctx, cfg.DB, logg, dbClient); err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewStorefront(registry)

	api, err := storeapi.NewClient(cfg.Backend, storeapi.WithLogger(logg), storeapi.WithMetrics(recorder))
	if err != nil {
		return err
	}

	slots, err := cartStore(cfg, redisClient, dbClient)
	if err != nil {
		return err
	}
	sessStore, err := sessionStore(cfg, redisClient)
	if err != nil {
		return err
	}
	sessions, err := session.NewManager(sessStore, api, logg)
	if err != nil {
		return err
	}

	policy, err := checkout.PolicyFromConfig(cfg.Checkout)
	if err != nil {
		return err
	}
	workspaces, err := workspace.NewRegistry(workspace.Params{
		Store:       slots,
		SlotPrefix:  cfg.Cart.Slot,
		Backend:     api,
		CartOptions: cart.Options{Logger: logg, Metrics: recorder},
		Checkout: checkout.Options{
			Policy:  policy,
			Cities:  cfg.Checkout.Cities,
			Logger:  logg,
			Metrics: recorder,
		},
		Logger:  logg,
		IdleTTL: cfg.Cart.IdleTTL,
	})
	if err != nil {
		return err
	}

	confirmer, err := confirmation.NewHandler(api, confirmation.Options{
		Timeout: cfg.Confirmation.Timeout,
		Logger:  logg,
		Metrics: recorder,
	})
	if err != nil {
		return err
	}

	deps := routes.Deps{
		Commerce:   api,
		Sessions:   sessions,
		Workspaces: workspaces,
		Confirmer:  confirmer,
		Throttles:  recorder,
		Readiness:  readiness,
		Metrics:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	if redisClient != nil {
		deps.RateLimits = redisClient
	} else {
		logg.Info(ctx, "sign-in throttling disabled, no redis configured")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := workspaces.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "workspace sweeper stopped unexpectedly", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"env":         cfg.App.Env,
			"addr":        addr,
			"cart_driver": cfg.Cart.Driver,
		}), "starting storefront server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(context.Background(), "shutting down storefront server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func cartStore(cfg *config.Config, redisClient *redis.Client, dbClient *db.Client) (cart.SlotStore, error) {
	switch cfg.Cart.Driver {
	case config.DriverRedis:
		return cart.NewRedisStore(redisClient, cfg.Cart.TTL)
	case config.DriverSQL:
		return cart.NewSQLStore(dbClient.DB())
	default:
		return cart.NewMemoryStore(), nil
	}
}

func sessionStore(cfg *config.Config, redisClient *redis.Client) (session.Store, error) {
	if cfg.Session.Driver == config.DriverRedis {
		return session.NewRedisStore(redisClient, cfg.Session.TTL)
	}
	return session.NewMemoryStore(cfg.Session.TTL), nil
}
