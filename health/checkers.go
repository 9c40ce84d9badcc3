package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.temporal.io/sdk/client"
)

// TemporalChecker checks Temporal server connectivity
type TemporalChecker struct {
	client client.Client
}

// NewTemporalChecker creates a new Temporal health checker
func NewTemporalChecker(c client.Client) *TemporalChecker {
	return &TemporalChecker{client: c}
}

// Name returns the checker name
func (t *TemporalChecker) Name() string {
	return "temporal"
}

// Check performs the health check
func (t *TemporalChecker) Check(ctx context.Context) ComponentHealth {
	start := time.Now()

	_, err := t.client.CheckHealth(ctx, &client.CheckHealthRequest{})
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("Temporal connection failed: %v", err),
			Latency: latency.String(),
		}
	}

	return ComponentHealth{
		Status:  StatusHealthy,
		Message: "Connected to Temporal server",
		Latency: latency.String(),
	}
}

// PostgresChecker checks database connectivity
type PostgresChecker struct {
	pool *pgxpool.Pool
}

// NewPostgresChecker creates a new Postgres health checker
func NewPostgresChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool}
}

// Name returns the checker name
func (p *PostgresChecker) Name() string {
	return "postgres"
}

// Check performs the health check
func (p *PostgresChecker) Check(ctx context.Context) ComponentHealth {
	start := time.Now()

	err := p.pool.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("Postgres ping failed: %v", err),
			Latency: latency.String(),
		}
	}

	return ComponentHealth{
		Status:  StatusHealthy,
		Message: "Connected to Postgres",
		Latency: latency.String(),
	}
}

// RedisChecker checks cache connectivity. The cache degrades gracefully
// when unreachable, so a failed ping reports degraded rather than unhealthy.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker
func NewRedisChecker(c *redis.Client) *RedisChecker {
	return &RedisChecker{client: c}
}

// Name returns the checker name
func (r *RedisChecker) Name() string {
	return "redis"
}

// Check performs the health check
func (r *RedisChecker) Check(ctx context.Context) ComponentHealth {
	start := time.Now()

	err := r.client.Ping(ctx).Err()
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("Redis ping failed: %v", err),
			Latency: latency.String(),
		}
	}

	return ComponentHealth{
		Status:  StatusHealthy,
		Message: "Connected to Redis",
		Latency: latency.String(),
	}
}

// KafkaChecker checks broker connectivity. Event publishing is best effort,
// so an unreachable broker reports degraded.
type KafkaChecker struct {
	broker string
}

// NewKafkaChecker creates a new Kafka health checker for a single broker
func NewKafkaChecker(broker string) *KafkaChecker {
	return &KafkaChecker{broker: broker}
}

// Name returns the checker name
func (k *KafkaChecker) Name() string {
	return "kafka"
}

// Check performs the health check
func (k *KafkaChecker) Check(ctx context.Context) ComponentHealth {
	start := time.Now()

	conn, err := kafka.DialContext(ctx, "tcp", k.broker)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("Kafka dial failed: %v", err),
			Latency: latency.String(),
		}
	}
	defer conn.Close()

	return ComponentHealth{
		Status:  StatusHealthy,
		Message: "Connected to Kafka broker",
		Latency: latency.String(),
	}
}

// HTTPChecker checks HTTP endpoint availability
type HTTPChecker struct {
	name   string
	url    string
	client *http.Client
}

// NewHTTPChecker creates a new HTTP health checker
func NewHTTPChecker(name, url string) *HTTPChecker {
	return &HTTPChecker{
		name: name,
		url:  url,
		client: &http.Client{
			Timeout: 3 * time.Second,
		},
	}
}

// Name returns the checker name
func (h *HTTPChecker) Name() string {
	return h.name
}

// Check performs the health check
func (h *HTTPChecker) Check(ctx context.Context) ComponentHealth {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, "GET", h.url, nil)
	if err != nil {
		return ComponentHealth{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("Failed to create request: %v", err),
		}
	}

	resp, err := h.client.Do(req)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("Request failed: %v", err),
			Latency: latency.String(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return ComponentHealth{
			Status:  StatusHealthy,
			Message: fmt.Sprintf("HTTP %d", resp.StatusCode),
			Latency: latency.String(),
		}
	}

	return ComponentHealth{
		Status:  StatusDegraded,
		Message: fmt.Sprintf("HTTP %d", resp.StatusCode),
		Latency: latency.String(),
	}
}
