// Package cache provides read-through caching decorators for repository
// lookups. Cache failures degrade to the wrapped repository; they are never
// fatal.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aswathylr-builds/order-pipeline/customer"
	"github.com/aswathylr-builds/order-pipeline/repository"
)

// CustomerCache wraps a CustomerRepository with a redis read-through cache.
type CustomerCache struct {
	inner repository.CustomerRepository
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCustomerCache builds the decorator. A zero ttl defaults to 5 minutes.
func NewCustomerCache(inner repository.CustomerRepository, rdb *redis.Client, ttl time.Duration) *CustomerCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CustomerCache{inner: inner, rdb: rdb, ttl: ttl}
}

func (c *CustomerCache) GetByID(ctx context.Context, id string) (customer.Customer, error) {
	key := "customer:" + id

	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var cust customer.Customer
		if jerr := json.Unmarshal(data, &cust); jerr == nil {
			return cust, nil
		}
		// corrupt entry: fall through and refresh
	}

	cust, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return customer.Customer{}, err
	}

	if data, jerr := json.Marshal(cust); jerr == nil {
		_ = c.rdb.Set(ctx, key, data, c.ttl).Err()
	}
	return cust, nil
}

var _ repository.CustomerRepository = (*CustomerCache)(nil)
