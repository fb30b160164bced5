// Package main is the entry point for the market data aggregation gateway.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"marketgateway/internal/cache"
	"marketgateway/internal/config"
	"marketgateway/internal/fallback"
	"marketgateway/internal/gateway"
	"marketgateway/internal/provider"
	"marketgateway/internal/quote"
	"marketgateway/internal/repository"
	"marketgateway/internal/service"
	"marketgateway/internal/worker"
)

// App holds all application dependencies and manages their lifecycle.
type App struct {
	cfg         *config.Config
	logger      *zap.SugaredLogger
	db          *sql.DB
	rdbCache    *redis.Client
	rdbAsynq    *redis.Client
	store       cache.Store
	memStore    *cache.MemoryStore
	asynqClient *asynq.Client
	asynqServer *asynq.Server
	asynqMux    *asynq.ServeMux
	httpServer  *http.Server
}

// NewApp initializes all dependencies and returns a ready-to-run App.
func NewApp(cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{
		cfg:    cfg,
		logger: logger,
	}

	if err := app.initStorage(); err != nil {
		_ = app.close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.close()
		return nil, err
	}

	return app, nil
}

// close releases database, Redis, and cache resources
func (app *App) close() error {
	var errs []error
	if app.asynqClient != nil {
		if err := app.asynqClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("asynq client close: %w", err))
		}
	}
	if app.rdbAsynq != nil {
		if err := app.rdbAsynq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis asynq close: %w", err))
		}
	}
	if app.rdbCache != nil {
		if err := app.rdbCache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis cache close: %w", err))
		}
	}
	if app.memStore != nil {
		app.memStore.Close()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (app *App) initStorage() error {
	if app.cfg.Database.Enabled {
		db, err := repository.NewPostgresDB(&app.cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to Postgres: %w", err)
		}
		app.db = db

		if err := repository.RunMigrations(app.db, app.logger); err != nil {
			return fmt.Errorf("run DB migrations: %w", err)
		}
	}

	staleTTL := time.Duration(app.cfg.Cache.StaleTTLSec) * time.Second
	switch app.cfg.Cache.Backend {
	case "redis":
		app.rdbCache = redis.NewClient(&redis.Options{
			Addr: app.cfg.Redis.CacheAddr,
		})
		if err := app.rdbCache.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("connect to Redis (cache, %s): %w", app.cfg.Redis.CacheAddr, err)
		}
		app.store = cache.NewRedisStore(app.rdbCache, staleTTL)
		app.logger.Infow("Using Redis quote cache", "addr", app.cfg.Redis.CacheAddr)
	default:
		sweep := time.Duration(app.cfg.Cache.SweepIntervalSec) * time.Second
		app.memStore = cache.NewMemoryStore(sweep, staleTTL)
		app.store = app.memStore
		app.logger.Infow("Using in-memory quote cache", "sweep_interval", sweep)
	}

	return nil
}

func (app *App) initServices() error {
	redisOpt := asynq.RedisClientOpt{Addr: app.cfg.Redis.AsynqAddr}

	app.rdbAsynq = redis.NewClient(&redis.Options{Addr: app.cfg.Redis.AsynqAddr})
	app.asynqClient = asynq.NewClient(redisOpt)
	app.asynqServer = asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:              app.cfg.Worker.Concurrency,
			DelayedTaskCheckInterval: time.Duration(app.cfg.Worker.CheckIntervalSec) * time.Second,
			TaskCheckInterval:        time.Duration(app.cfg.Worker.CheckIntervalSec) * time.Second,
		},
	)
	app.logger.Infow("Asynq configured", "addr", app.cfg.Redis.AsynqAddr)

	adapters := app.newAdapterChain()
	if len(adapters) == 0 {
		return fmt.Errorf("no providers are configured: fmp requires api_key, scrape requires enabled=true")
	}

	var historyRepo repository.HistoryRepository
	var recorder gateway.HistoryRecorder
	if app.db != nil {
		repo := repository.NewPostgresHistoryRepository(app.db)
		historyRepo = repo
		recorder = repo
	}

	gw := gateway.New(
		app.store,
		adapters,
		fallback.NewTable(app.cfg.Fallback.Overrides),
		recorder,
		app.logger,
		app.gatewayConfig(),
	)

	asynqEnqueuer := worker.NewAsynqEnqueuer(
		app.asynqClient,
		app.cfg.Worker.MaxRetry,
		time.Duration(app.cfg.Worker.TimeoutSec)*time.Second,
	)
	refreshService := service.NewRefreshService(
		gw,
		asynqEnqueuer,
		historyRepo,
		app.logger,
		app.cfg.Gateway.BatchLimit,
	)

	app.asynqMux = asynq.NewServeMux()
	app.asynqMux.HandleFunc(service.TaskTypeRefreshQuote, worker.NewRefreshHandler(refreshService, app.logger))

	app.initHTTP(gw, refreshService)
	return nil
}

// newAdapterChain builds the ordered provider chain. Order is fallback order:
// earlier adapters are tried first for every asset class they support.
func (app *App) newAdapterChain() []provider.Adapter {
	var adapters []provider.Adapter

	if app.cfg.FMP.APIKey != "" {
		adapters = append(adapters, provider.NewFMPAdapter(app.cfg.FMP.BaseURL, app.cfg.FMP.APIKey, app.cfg.FMP.TimeoutSec))
	} else {
		app.logger.Warnw("FMP API key not set; stock and forex coverage limited to the fallback table")
	}

	adapters = append(adapters,
		provider.NewBinanceAdapter(app.cfg.Binance.BaseURL, app.cfg.Binance.TimeoutSec),
		provider.NewCoinbaseAdapter(app.cfg.Coinbase.BaseURL, app.cfg.Coinbase.TimeoutSec),
		provider.NewCoinGeckoAdapter(app.cfg.CoinGecko.BaseURL, app.cfg.CoinGecko.APIKey, app.cfg.CoinGecko.TimeoutSec),
	)

	if app.cfg.Scrape.Enabled {
		adapters = append(adapters, provider.NewScrapeAdapter(app.cfg.Scrape.BaseURL, app.cfg.Scrape.TimeoutSec))
	}

	return adapters
}

func (app *App) gatewayConfig() gateway.Config {
	classTTL := make(map[quote.AssetClass]time.Duration, len(app.cfg.Cache.ClassTTLSec))
	for name, sec := range app.cfg.Cache.ClassTTLSec {
		class, err := quote.ParseAssetClass(name)
		if err != nil {
			app.logger.Warnw("Ignoring TTL for unknown asset class", "class", name)
			continue
		}
		classTTL[class] = time.Duration(sec) * time.Second
	}

	return gateway.Config{
		LiveTTL:            time.Duration(app.cfg.Cache.LiveTTLSec) * time.Second,
		DefaultTTL:         time.Duration(app.cfg.Cache.DefaultTTLSec) * time.Second,
		ClassTTL:           classTTL,
		StaleTTL:           time.Duration(app.cfg.Cache.StaleTTLSec) * time.Second,
		ChainTimeout:       time.Duration(app.cfg.Gateway.ChainTimeoutSec) * time.Second,
		BreakerThreshold:   app.cfg.Breaker.Threshold,
		BreakerResetWindow: time.Duration(app.cfg.Breaker.ResetWindowSec) * time.Second,
		BatchLimit:         app.cfg.Gateway.BatchLimit,
		BatchConcurrency:   app.cfg.Gateway.BatchConcurrency,
	}
}

// Run starts the HTTP server and Asynq worker, blocking until the context is canceled.
func (app *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Infow("Starting Asynq worker server")
		if err := app.asynqServer.Start(app.asynqMux); err != nil {
			return fmt.Errorf("asynq worker failed to start: %w", err)
		}

		<-ctx.Done()
		return nil
	})

	g.Go(func() error {
		app.logger.Infow("HTTP server listening", "port", app.cfg.Server.Port)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown: triggered by context cancellation (signal or component failure).
	g.Go(func() error {
		<-ctx.Done()
		return app.shutdown()
	})

	return g.Wait()
}

// shutdown performs ordered teardown: HTTP server -> Asynq worker -> connections.
// This ensures in-flight tasks finish before the connections close.
func (app *App) shutdown() error {
	app.logger.Infow("Shutting down server...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 1. Stop accepting new HTTP requests, drain in-flight
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Errorw("HTTP server shutdown error", "error", err)
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	// 2. Drain in-flight Asynq tasks
	app.asynqServer.Shutdown()

	// 3. Close connections (asynq client, Redis, cache, database)
	if err := app.close(); err != nil {
		app.logger.Errorw("Connection cleanup errors", "error", err)
		errs = append(errs, err)
	}

	app.logger.Infow("Shutdown complete")
	return errors.Join(errs...)
}
