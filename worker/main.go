package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/aswathylr-builds/order-pipeline/activities"
	"github.com/aswathylr-builds/order-pipeline/codec"
	"github.com/aswathylr-builds/order-pipeline/events"
	"github.com/aswathylr-builds/order-pipeline/health"
	"github.com/aswathylr-builds/order-pipeline/repository"
	"github.com/aswathylr-builds/order-pipeline/repository/inmem"
	"github.com/aswathylr-builds/order-pipeline/repository/postgres"
	"github.com/aswathylr-builds/order-pipeline/workflows"
)

const (
	taskQueue = "order-fulfillment-queue"
)

func main() {
	// Get configuration from environment variables
	temporalHost := getEnv("TEMPORAL_HOST", "localhost:7233")
	databaseURL := getEnv("DATABASE_URL", "")
	kafkaBrokers := getEnv("KAFKA_BROKERS", "")
	kafkaTopic := getEnv("KAFKA_TOPIC", "order-events")
	encryptionKey := getEnv("ENCRYPTION_KEY", "")
	healthPort := getEnvAsInt("HEALTH_PORT", 8090)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create Temporal client options
	clientOptions := client.Options{
		HostPort: temporalHost,
	}

	// Enable encryption if a key is configured
	if encryptionKey != "" {
		key, err := codec.ParseKey(encryptionKey)
		if err != nil {
			log.Fatalf("Invalid encryption key: %v", err)
		}
		dataConverter, err := codec.NewEncryptionDataConverter(key)
		if err != nil {
			log.Fatalf("Failed to create encryption data converter: %v", err)
		}
		clientOptions.DataConverter = dataConverter
		log.Println("Payload encryption enabled for worker")
	}

	// Create the Temporal client
	c, err := client.Dial(clientOptions)
	if err != nil {
		log.Fatalf("Unable to create Temporal client: %v", err)
	}
	defer c.Close()

	// Create and configure health check server
	healthServer := health.NewServer(healthPort)
	healthServer.RegisterChecker(health.NewTemporalChecker(c))

	// Wire the order store: Postgres when configured, in-memory otherwise
	var orders repository.OrderRepository
	if databaseURL != "" {
		pool, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			log.Fatalf("Unable to connect to Postgres: %v", err)
		}
		defer pool.Close()
		orders = postgres.NewOrderRepository(pool)
		healthServer.RegisterChecker(health.NewPostgresChecker(pool))
		log.Println("Using Postgres order store")
	} else {
		orders = inmem.NewOrderStore()
		log.Println("DATABASE_URL not set, using in-memory order store")
	}

	// Wire the event publisher: Kafka when configured, no-op otherwise
	var publisher events.Publisher = events.NopPublisher{}
	if kafkaBrokers != "" {
		kp := events.NewKafkaPublisher(kafkaBrokers, kafkaTopic)
		defer kp.Close()
		publisher = kp
		healthServer.RegisterChecker(health.NewKafkaChecker(firstBroker(kafkaBrokers)))
		log.Printf("Publishing order events to Kafka topic %q", kafkaTopic)
	}

	// Create worker
	w := worker.New(c, taskQueue, worker.Options{})

	// Register workflows
	w.RegisterWorkflow(workflows.FulfillmentWorkflow)
	w.RegisterWorkflow(workflows.ShippingWorkflow)

	// Register activities
	fulfillment := activities.NewFulfillmentActivities(orders, publisher)
	w.RegisterActivity(fulfillment.ConfirmOrder)
	w.RegisterActivity(fulfillment.ProcessOrder)
	w.RegisterActivity(fulfillment.ShipOrder)
	w.RegisterActivity(fulfillment.DeliverOrder)
	w.RegisterActivity(fulfillment.CancelOrder)
	w.RegisterActivity(fulfillment.NotifyOrderCompleted)

	log.Printf("Worker starting on task queue: %s", taskQueue)
	log.Printf("Temporal Host: %s", temporalHost)

	// Start health check server
	if err := healthServer.Start(); err != nil {
		log.Fatalf("Failed to start health check server: %v", err)
	}

	// Handle OS signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Start worker in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Println("Worker started successfully")
		if err := w.Run(worker.InterruptCh()); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigCh:
		log.Println("Received shutdown signal, gracefully stopping...")
	case err := <-errCh:
		log.Printf("Worker error: %v", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	log.Println("Stopping worker...")
	w.Stop()

	log.Println("Stopping health check server...")
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Health server shutdown error: %v", err)
	}

	log.Println("Worker shutdown complete")
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
