package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chumbacash/pebble-crypto-backend/internal/adapters/cache"
	"github.com/chumbacash/pebble-crypto-backend/internal/adapters/exchange"
	httpAdapter "github.com/chumbacash/pebble-crypto-backend/internal/adapters/http"
	"github.com/chumbacash/pebble-crypto-backend/internal/adapters/postgres"
	"github.com/chumbacash/pebble-crypto-backend/internal/config"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
	"github.com/chumbacash/pebble-crypto-backend/internal/registry"
	"github.com/chumbacash/pebble-crypto-backend/internal/services"
	"github.com/chumbacash/pebble-crypto-backend/internal/stream"
	"github.com/chumbacash/pebble-crypto-backend/internal/worker"
)

func main() {
	// Initialize logger
	logger := initLogger()
	slog.SetDefault(logger)

	logger.Info("starting exchange aggregation service")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build and start application
	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	// Start application components
	if err := app.Start(ctx); err != nil {
		logger.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	// Wait for shutdown signal
	waitForShutdown(ctx, cancel, app, logger)
}

func initLogger() *slog.Logger {
	logLevel := os.Getenv("LOG_LEVEL")
	logFormat := os.Getenv("LOG_FORMAT")

	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if logFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// buildAdapters instantiates one adapter per enabled exchange. The
// position in the enabled list defines the adapter's priority rank.
func buildAdapters(cfg config.ExchangesConfig, logger *slog.Logger) []ports.ExchangeAdapter {
	adapters := make([]ports.ExchangeAdapter, 0, len(cfg.Enabled))
	for i, name := range cfg.Enabled {
		priority := i + 1
		opts := []exchange.Option{
			exchange.WithTimeout(cfg.Timeout),
			exchange.WithLogger(logger),
		}

		switch name {
		case "binance":
			adapters = append(adapters, exchange.NewBinance(priority, opts...))
		case "kucoin":
			adapters = append(adapters, exchange.NewKucoin(priority, opts...))
		case "bybit":
			adapters = append(adapters, exchange.NewBybit(priority, opts...))
		case "gateio":
			adapters = append(adapters, exchange.NewGateio(priority, opts...))
		case "bitget":
			adapters = append(adapters, exchange.NewBitget(priority, opts...))
		case "okx":
			adapters = append(adapters, exchange.NewOkx(priority, opts...))
		}
	}
	return adapters
}

// Application holds all components
type Application struct {
	db         *postgres.DB
	redis      *redis.Client
	httpServer *httpAdapter.Server
	recorder   *worker.Recorder
	live       *stream.Manager
	multi      *stream.Manager
	logger     *slog.Logger
}

func buildApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("building application")

	// 1. Infrastructure Layer - Exchange Adapters
	adapters := buildAdapters(cfg.Exchanges, logger)
	reg := registry.New(adapters, cfg.Exchanges.FailureThreshold, logger)

	// 2. Service Layer
	aggregator := services.NewAggregatorService(
		reg,
		cfg.Exchanges.Timeout,
		cfg.Aggregator.MaxSymbols,
		cfg.Aggregator.MaxConcurrency,
		logger,
	)

	arbitrage := services.NewArbitrageService(
		aggregator,
		cfg.Arbitrage.MinSpreadPercent,
		cfg.Arbitrage.MaxSymbols,
		logger,
	)

	failover := services.NewFailoverSource(reg, cfg.Exchanges.Timeout, logger)

	// 3. Infrastructure Layer - Symbol Cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, symbol cache falls back to memory", "error", err)
		redisClient.Close()
		redisClient = nil
	}
	symbolCache := cache.NewSymbolCache(redisClient, logger)

	pairs := services.NewPairService(adapters[0], symbolCache, logger)

	// Klines are served by the binance adapter only
	var klines ports.KlineFetcher
	for _, a := range adapters {
		if b, ok := a.(*exchange.Binance); ok {
			klines = b
			break
		}
	}

	// 4. Streaming Layer
	live := stream.NewManager(failover, cfg.Stream.SingleInterval, logger)
	multi := stream.NewManager(failover, cfg.Stream.MultiInterval, logger)

	// 5. Optional History Persistence
	var (
		db       *postgres.DB
		history  ports.HistoryService
		recorder *worker.Recorder
	)
	if cfg.History.Enabled {
		var err error
		db, err = postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}

		snapshotRepo := postgres.NewSnapshotRepository(db)
		retention := time.Duration(cfg.History.RetentionDays) * 24 * time.Hour
		history = services.NewHistoryService(
			aggregator,
			snapshotRepo,
			cfg.History.Symbols,
			retention,
			logger,
		)
		recorder = worker.NewRecorder(history, cfg.History.Interval, logger)
	}

	// 6. Transport Layer - HTTP Server
	handler := httpAdapter.NewHandler(
		aggregator,
		arbitrage,
		reg,
		pairs,
		klines,
		history,
		live,
		multi,
		logger,
	)
	limiter := httpAdapter.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	httpServer := httpAdapter.NewServer(cfg.Server, handler, limiter, logger)

	logger.Info("application built successfully",
		"exchanges", cfg.Exchanges.Enabled,
		"history_enabled", cfg.History.Enabled,
	)

	return &Application{
		db:         db,
		redis:      redisClient,
		httpServer: httpServer,
		recorder:   recorder,
		live:       live,
		multi:      multi,
		logger:     logger,
	}, nil
}

func (a *Application) Start(ctx context.Context) error {
	a.logger.Info("starting application components")

	// Start best-price recorder in background when enabled
	if a.recorder != nil {
		go func() {
			if err := a.recorder.Start(ctx); err != nil {
				a.logger.Error("recorder error", "error", err)
			}
		}()
	}

	// Start HTTP server in background (will block until shutdown)
	go func() {
		if err := a.httpServer.Start(); err != nil {
			a.logger.Error("http server error", "error", err)
		}
	}()

	a.logger.Info("application started",
		"http_addr", a.httpServer.Addr(),
	)

	return nil
}

func (a *Application) Shutdown() {
	a.logger.Info("shutting down application")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop recorder first
	if a.recorder != nil {
		if err := a.recorder.Stop(); err != nil {
			a.logger.Error("failed to stop recorder", "error", err)
		}
	}

	// Stop polling loops feeding WebSocket clients
	a.live.Shutdown()
	a.multi.Shutdown()

	// Stop HTTP server
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown http server", "error", err)
	}

	// Close infrastructure connections
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}

	a.logger.Info("application shutdown complete")
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, app *Application, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
		app.Shutdown()
	case <-ctx.Done():
		app.Shutdown()
	}
}
