// Package main is the entry point for the ledger API.
// It loads configuration, wires the store, cache, event stream and payment
// provider into the services, and starts the HTTP server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ajo/internal/clock"
	"ajo/internal/config"
	"ajo/internal/events"
	"ajo/internal/handlers"
	"ajo/internal/metrics"
	"ajo/internal/middleware"
	"ajo/internal/providers/paystack"
	"ajo/internal/repositories"
	"ajo/internal/repositories/cache"
	"ajo/internal/routes"
	"ajo/internal/services/commission"
	"ajo/internal/services/ledger"
	"ajo/internal/services/payout"
	"ajo/internal/services/webhook"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	health := map[string]handlers.Pinger{}

	// Ledger store
	var repo repositories.LedgerRepository
	switch cfg.Server.LedgerStore {
	case "memory":
		if config.IsProduction() {
			log.Fatal("LEDGER_STORE=memory is not allowed in production")
		}
		log.Println("⚠️ Using in-memory ledger store, data is lost on restart")
		repo = repositories.NewMemoryLedgerRepository()
	default:
		db, err := repositories.InitDB(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := repositories.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("Failed to get database instance: %v", err)
		}
		defer func() {
			if err := sqlDB.Close(); err != nil {
				log.Printf("⚠️ Failed to close database connection: %v", err)
			}
		}()
		log.Println("✅ Successfully connected to database with connection pooling")
		repo = repositories.NewLedgerRepository(db)
	}
	health["database"] = repo

	// Cache
	var cacheSvc cache.Cache
	if cfg.Redis.Enabled {
		redisCache := cache.NewCacheService(cache.NewRedisClient(&cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), cfg.Cache.TTL)
		if err := redisCache.HealthCheck(context.Background()); err != nil {
			log.Printf("⚠️ Redis unavailable, falling back to in-process cache: %v", err)
			cacheSvc = cache.NewMemoryCache(cfg.Cache.TTL)
		} else {
			defer func() {
				if err := redisCache.Close(); err != nil {
					log.Printf("⚠️ Failed to close Redis connection: %v", err)
				}
			}()
			cacheSvc = redisCache
			health["redis"] = handlers.PingFunc(redisCache.HealthCheck)
		}
	} else {
		cacheSvc = cache.NewMemoryCache(cfg.Cache.TTL)
	}

	// Ledger events
	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		writer := events.NewKafkaWriter(cfg.Kafka)
		defer func() {
			if err := writer.Close(); err != nil {
				log.Printf("⚠️ Failed to close Kafka writer: %v", err)
			}
		}()
		publisher = events.NewKafkaPublisher(writer)
		log.Printf("✅ Publishing ledger events to %s", cfg.Kafka.Topic)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewPrometheusCollector(registry)

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	if cfg.Paystack.SecretKey == "" {
		log.Fatal("PAYSTACK_SECRET_KEY must be set")
	}
	location, err := time.LoadLocation(cfg.Commission.Timezone)
	if err != nil {
		log.Fatalf("Invalid COMMISSION_TIMEZONE %q: %v", cfg.Commission.Timezone, err)
	}

	clk := clock.RealClock{}
	locks := ledger.NewOwnerLocks()
	ledgerSvc := ledger.NewService(repo, clk, publisher, collector)
	payoutSvc := payout.NewService(
		repo,
		ledgerSvc,
		paystack.NewClient(cfg.Paystack),
		locks,
		payout.Config{TransferTimeout: cfg.Paystack.TransferTimeout},
		collector,
	)
	webhookSvc := webhook.NewService(
		repo,
		ledgerSvc,
		locks,
		clk,
		webhook.Config{Secret: cfg.Paystack.WebhookSecret},
		collector,
	)
	commissionSvc := commission.NewService(
		repo,
		ledgerSvc,
		cacheSvc,
		clk,
		commission.Config{
			BaseBonusMinor:   cfg.Commission.BaseBonusMinor,
			PerDayBonusMinor: cfg.Commission.PerDayBonusMinor,
			BonusCapMinor:    cfg.Commission.BonusCapMinor,
			Location:         location,
			CacheTTL:         cfg.Cache.TTL,
		},
		collector,
	)

	app := fiber.New(fiber.Config{
		AppName: "ajo-ledger",
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	routes.SetupRoutes(app, routes.Dependencies{
		Auth:                 middleware.NewAuthMiddleware(cfg.Auth.JWTSecret),
		Ledger:               ledgerSvc,
		Payout:               payoutSvc,
		Webhook:              webhookSvc,
		Commission:           commissionSvc,
		Health:               health,
		WithdrawalsPerMinute: config.GetIntEnv("WITHDRAWALS_PER_MINUTE", 5),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Server shutdown error: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
