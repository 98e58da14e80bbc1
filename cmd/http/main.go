package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/rafaelleal24/storefront/docs"
	"github.com/rafaelleal24/storefront/internal/adapters/config"
	"github.com/rafaelleal24/storefront/internal/adapters/http"
	"github.com/rafaelleal24/storefront/internal/adapters/http/controllers"
	"github.com/rafaelleal24/storefront/internal/adapters/http/middleware"
	"github.com/rafaelleal24/storefront/internal/adapters/memory"
	"github.com/rafaelleal24/storefront/internal/adapters/mongo"
	"github.com/rafaelleal24/storefront/internal/adapters/mongo/repository"
	"github.com/rafaelleal24/storefront/internal/adapters/outbox"
	"github.com/rafaelleal24/storefront/internal/adapters/rabbitmq"
	"github.com/rafaelleal24/storefront/internal/adapters/redis"
	"github.com/rafaelleal24/storefront/internal/core/domain"
	"github.com/rafaelleal24/storefront/internal/core/logger"
	"github.com/rafaelleal24/storefront/internal/core/port"
	"github.com/rafaelleal24/storefront/internal/core/service"
)

// @title       Storefront API
// @version     1.0
// @description Product catalog and session cart API for the demo storefront

// @host     localhost:8080
// @BasePath /

//go:generate swag init -d ../.. -g cmd/http/main.go -o ../../docs --parseInternal

const (
	idempotencyPollInterval = 100 * time.Millisecond
	idempotencyPollTimeout  = 5 * time.Second
)

func main() {
	// initialize config and logger
	cfg := config.NewConfig()
	if err := logger.Initialize(logger.Options{
		CollectorEndpoint: cfg.Logger.Endpoint,
		ServiceName:       cfg.Logger.ServiceName,
		IsProduction:      cfg.Logger.IsProduction,
		Verbose:           cfg.Logger.Verbose,
	}); err != nil {
		// logger not available yet, fall back to stderr
		fmt.Fprintln(os.Stderr, "failed to initialize logger: "+err.Error())
		os.Exit(1)
	}

	// cancellable context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// catalog is embedded and immutable
	catalog, err := domain.DefaultCatalog()
	if err != nil {
		logger.Fatal(ctx, "Failed to load catalog", err, nil)
	}
	logger.Info(ctx, "Catalog loaded", map[string]any{"products": catalog.Len()})

	healthCheckers := []controllers.HealthChecker{
		{Name: "catalog", Check: func(context.Context) error {
			if catalog.Len() == 0 {
				return fmt.Errorf("catalog is empty")
			}
			return nil
		}},
	}

	// session store, idempotency store and rate limiter
	var (
		sessionStore     port.CachePort[domain.Session]
		idempotencyStore port.CachePort[service.IdempotencyEntry[domain.Session]]
		rateLimiter      middleware.RateLimiter
	)
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		redisClient, err := redis.NewConnection(cfg.Redis)
		if err != nil {
			logger.Fatal(ctx, "Failed to connect to Redis", err, nil)
		}
		defer redisClient.Close()
		logger.Info(ctx, "Connected to Redis", nil)

		sessionStore = redis.NewCache[domain.Session](redisClient, "session")
		idempotencyStore = redis.NewCache[service.IdempotencyEntry[domain.Session]](redisClient, "idempotency")
		rateLimiter = redis.NewRateLimiter(redisClient)
		healthCheckers = append(healthCheckers, controllers.HealthChecker{Name: "redis", Check: redisClient.Ping})
	default:
		sessions := memory.NewCache[domain.Session]()
		idempotency := memory.NewCache[service.IdempotencyEntry[domain.Session]]()
		go sessions.RunSweeper(ctx)
		go idempotency.RunSweeper(ctx)

		sessionStore = sessions
		idempotencyStore = idempotency
		rateLimiter = memory.NewRateLimiter(cfg.RateLimit.Window)
		logger.Info(ctx, "Using in-memory session store", nil)
	}

	// cart events, relayed through the mongo outbox when enabled
	events := outbox.NewDiscardRecorder()
	if cfg.Events.Enabled {
		mongoClient, err := mongo.NewConnection(cfg.Mongo)
		if err != nil {
			logger.Fatal(ctx, "Failed to connect to MongoDB", err, nil)
		}
		defer mongo.Disconnect(mongoClient)
		logger.Info(ctx, "Connected to MongoDB", map[string]any{"database": cfg.Mongo.Database})

		broker, err := rabbitmq.NewPublisher(cfg.RabbitMQ)
		if err != nil {
			logger.Fatal(ctx, "Failed to connect to RabbitMQ", err, nil)
		}
		defer broker.Close()
		logger.Info(ctx, "Connected to RabbitMQ", nil)

		outboxRepository := repository.NewOutboxRepository(mongoClient.Database(cfg.Mongo.Database))
		if err := outboxRepository.EnsureIndexes(ctx); err != nil {
			logger.Fatal(ctx, "Failed to prepare outbox collection", err, nil)
		}
		events = outbox.NewRecorder(outboxRepository)

		outboxHandler := outbox.NewHandler(outboxRepository, broker, cfg.Outbox)
		go outboxHandler.Start(ctx)
		logger.Info(ctx, "Outbox handler started", map[string]any{"interval": cfg.Outbox.Interval.String(), "batch_size": cfg.Outbox.BatchSize})

		healthCheckers = append(healthCheckers,
			controllers.HealthChecker{Name: "mongodb", Optional: true, Check: func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }},
			controllers.HealthChecker{Name: "rabbitmq", Optional: true, Check: broker.HealthCheck},
		)
	}

	// services
	catalogService := service.NewCatalogService(catalog)
	idempotencyService := service.NewIdempotencyService(idempotencyStore, cfg.Store.IdempotencyTTL, idempotencyPollInterval, idempotencyPollTimeout)
	cartService := service.NewCartService(catalogService, sessionStore, events, idempotencyService, cfg.Store.SessionTTL)

	// controllers
	productController := controllers.NewProductController(catalogService)
	sessionController := controllers.NewSessionController(cartService)
	cartController := controllers.NewCartController(cartService)
	healthController := controllers.NewHealthController(healthCheckers)

	// router
	router := http.NewRouter(healthController, productController, sessionController, cartController, rateLimiter, cfg.RateLimit)

	// graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info(ctx, "Received shutdown signal", map[string]any{"signal": sig.String()})
		cancel()
	}()

	logger.Info(ctx, "Starting HTTP server", map[string]any{
		"addr":          cfg.HTTP.BindInterface + ":" + cfg.HTTP.Port,
		"store_backend": string(cfg.Store.Backend),
		"events":        cfg.Events.Enabled,
	})
	if err := router.ListenAndServe(ctx, cfg.HTTP); err != nil {
		logger.Fatal(ctx, "Failed to start HTTP server", err, nil)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := logger.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintln(os.Stderr, "logger shutdown error: "+err.Error())
	}
}
