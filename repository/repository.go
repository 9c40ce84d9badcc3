package repository

import (
	"context"
	"errors"

	"github.com/aswathylr-builds/order-pipeline/catalog"
	"github.com/aswathylr-builds/order-pipeline/customer"
	"github.com/aswathylr-builds/order-pipeline/order"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("repository: not found")

	// ErrInsufficientStock is returned by a conditional stock decrement
	// that would drive stock negative. The decrement is atomic: callers
	// either get the full quantity or nothing.
	ErrInsufficientStock = errors.New("repository: insufficient stock")

	// ErrDuplicateOrder is returned when creating an order whose id or
	// idempotency key already exists.
	ErrDuplicateOrder = errors.New("repository: duplicate order")
)

// ProductRepository exposes catalog lookups and the atomic conditional
// stock decrement the pipeline relies on for race-free reservation.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (catalog.Product, error)
	// BatchGet resolves all ids in one call. Missing ids are simply absent
	// from the result; the caller decides whether that is fatal.
	BatchGet(ctx context.Context, ids []string) (map[string]catalog.Product, error)
	// DecrementStock subtracts qty only if at least qty remains, as one
	// atomic operation. Returns ErrInsufficientStock otherwise.
	DecrementStock(ctx context.Context, id string, qty int) error
	// RestoreStock adds qty back. Used by reservation rollback.
	RestoreStock(ctx context.Context, id string, qty int) error
}

// CustomerRepository resolves buyers.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (customer.Customer, error)
}

// OrderRepository persists order aggregates.
type OrderRepository interface {
	// Create stores a new order. idempotencyKey may be empty; when set, a
	// reused key fails with ErrDuplicateOrder.
	Create(ctx context.Context, o *order.Order, idempotencyKey string) error
	Update(ctx context.Context, o *order.Order) error
	GetByID(ctx context.Context, id string) (*order.Order, error)
	// GetByIdempotencyKey returns the order previously created under key,
	// or ErrNotFound.
	GetByIdempotencyKey(ctx context.Context, key string) (*order.Order, error)
}
