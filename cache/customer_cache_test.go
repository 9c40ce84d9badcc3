package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aswathylr-builds/order-pipeline/customer"
	"github.com/aswathylr-builds/order-pipeline/repository"
	"github.com/aswathylr-builds/order-pipeline/repository/inmem"
)

// unreachableRedis points at a closed port so every cache operation fails
// fast. The decorator must degrade to the inner repository.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:            "127.0.0.1:1",
		DialTimeout:     50 * time.Millisecond,
		ReadTimeout:     50 * time.Millisecond,
		WriteTimeout:    50 * time.Millisecond,
		MaxRetries:      -1,
		PoolTimeout:     50 * time.Millisecond,
		MinIdleConns:    0,
		ConnMaxIdleTime: time.Second,
	})
}

func TestCacheDegradesWhenRedisDown(t *testing.T) {
	inner := inmem.NewCustomerStore(
		customer.Customer{ID: "cust-1", Name: "Ana Souza", Email: "ana@example.com"},
	)
	c := NewCustomerCache(inner, unreachableRedis(), time.Minute)

	got, err := c.GetByID(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", got.Name)
}

func TestCachePropagatesNotFound(t *testing.T) {
	c := NewCustomerCache(inmem.NewCustomerStore(), unreachableRedis(), time.Minute)

	_, err := c.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
