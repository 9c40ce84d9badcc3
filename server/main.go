package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/aswathylr-builds/order-pipeline/cache"
	"github.com/aswathylr-builds/order-pipeline/catalog"
	"github.com/aswathylr-builds/order-pipeline/codec"
	"github.com/aswathylr-builds/order-pipeline/customer"
	"github.com/aswathylr-builds/order-pipeline/events"
	"github.com/aswathylr-builds/order-pipeline/health"
	"github.com/aswathylr-builds/order-pipeline/metrics"
	"github.com/aswathylr-builds/order-pipeline/payment"
	"github.com/aswathylr-builds/order-pipeline/pipeline"
	"github.com/aswathylr-builds/order-pipeline/repository"
	"github.com/aswathylr-builds/order-pipeline/repository/inmem"
	"github.com/aswathylr-builds/order-pipeline/repository/postgres"
)

func main() {
	// Get configuration from environment variables
	httpPort := getEnvAsInt("HTTP_PORT", 8080)
	healthPort := getEnvAsInt("HEALTH_PORT", 8091)
	databaseURL := getEnv("DATABASE_URL", "")
	redisAddr := getEnv("REDIS_ADDR", "")
	kafkaBrokers := getEnv("KAFKA_BROKERS", "")
	kafkaTopic := getEnv("KAFKA_TOPIC", "order-events")
	temporalHost := getEnv("TEMPORAL_HOST", "")
	encryptionKey := getEnv("ENCRYPTION_KEY", "")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthServer := health.NewServer(healthPort)

	// Repositories: Postgres when configured, seeded in-memory otherwise.
	var (
		products  repository.ProductRepository
		customers repository.CustomerRepository
		orders    repository.OrderRepository
	)
	if databaseURL != "" {
		pool, perr := pgxpool.New(ctx, databaseURL)
		if perr != nil {
			logger.Fatal("postgres connect failed", zap.Error(perr))
		}
		defer pool.Close()
		products = postgres.NewProductRepository(pool)
		customers = postgres.NewCustomerRepository(pool)
		orders = postgres.NewOrderRepository(pool)
		healthServer.RegisterChecker(health.NewPostgresChecker(pool))
		logger.Info("using postgres repositories")
	} else {
		products, customers, orders = seedStores()
		logger.Info("DATABASE_URL not set, using seeded in-memory repositories")
	}

	// Customer lookups go through redis when available.
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		customers = cache.NewCustomerCache(customers, rdb, 5*time.Minute)
		healthServer.RegisterChecker(health.NewRedisChecker(rdb))
		logger.Info("customer cache enabled", zap.String("redis", redisAddr))
	}

	// Event publishing is best effort.
	var publisher events.Publisher = events.NopPublisher{}
	if kafkaBrokers != "" {
		kp := events.NewKafkaPublisher(kafkaBrokers, kafkaTopic)
		defer kp.Close()
		publisher = kp
		healthServer.RegisterChecker(health.NewKafkaChecker(firstBroker(kafkaBrokers)))
		logger.Info("kafka publisher enabled", zap.String("topic", kafkaTopic))
	}

	// Fulfillment handoff is optional; without Temporal, accepted orders
	// simply stay in Pending until a worker picks them up another way.
	var temporalClient client.Client
	if temporalHost != "" {
		clientOptions := client.Options{HostPort: temporalHost}
		if encryptionKey != "" {
			key, kerr := codec.ParseKey(encryptionKey)
			if kerr != nil {
				logger.Fatal("invalid encryption key", zap.Error(kerr))
			}
			dc, derr := codec.NewEncryptionDataConverter(key)
			if derr != nil {
				logger.Fatal("encryption data converter failed", zap.Error(derr))
			}
			clientOptions.DataConverter = dc
		}
		temporalClient, err = client.Dial(clientOptions)
		if err != nil {
			logger.Fatal("temporal connect failed", zap.Error(err))
		}
		defer temporalClient.Close()
		healthServer.RegisterChecker(health.NewTemporalChecker(temporalClient))
		logger.Info("fulfillment handoff enabled", zap.String("temporal", temporalHost))
	}

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	service := pipeline.NewService(pipeline.Deps{
		Products:  products,
		Customers: customers,
		Orders:    orders,
		Payments:  payment.NewDefaultDispatcher(nil),
		Publisher: publisher,
		Metrics:   pipelineMetrics,
		Logger:    logger,
	})

	api := newAPI(service, orders, temporalClient, registry, logger)

	if err := healthServer.Start(); err != nil {
		logger.Fatal("health server start failed", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", httpPort),
		Handler:      api.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.Int("port", httpPort))
		if serr := httpServer.ListenAndServe(); serr != nil && serr != http.ErrServerClosed {
			errCh <- serr
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("received shutdown signal")
	case serr := <-errCh:
		logger.Error("http server error", zap.Error(serr))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		logger.Error("http shutdown error", zap.Error(serr))
	}
	if serr := healthServer.Shutdown(shutdownCtx); serr != nil {
		logger.Error("health shutdown error", zap.Error(serr))
	}
	logger.Info("server shutdown complete")
}

// seedStores builds in-memory repositories with a small demo catalog so the
// API is usable without a database.
func seedStores() (repository.ProductRepository, repository.CustomerRepository, repository.OrderRepository) {
	products := inmem.NewProductStore(
		catalog.Product{ID: "prod-1", Name: "Mechanical Keyboard", Price: decimal.NewFromFloat(350.00), Stock: 10, Active: true},
		catalog.Product{ID: "prod-2", Name: "USB-C Cable", Price: decimal.NewFromFloat(25.90), Stock: 100, Active: true},
		catalog.Product{ID: "prod-3", Name: "Go Course eBook Download", Price: decimal.NewFromFloat(89.90), Stock: 0, Active: true},
		catalog.Product{ID: "prod-4", Name: "Home Cleaning Service", Price: decimal.NewFromFloat(120.00), Stock: 5, Active: true},
	)
	customers := inmem.NewCustomerStore(
		customer.Customer{ID: "cust-1", Name: "Ana Souza", Email: "ana.souza@example.com"},
		customer.Customer{ID: "cust-2", Name: "Bruno Lima", Email: "bruno.lima@example.com"},
	)
	return products, customers, inmem.NewOrderStore()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func firstBroker(brokersCSV string) string {
	return strings.TrimSpace(strings.Split(brokersCSV, ",")[0])
}
