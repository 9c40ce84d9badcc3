// Package inmem provides in-memory repositories for tests and local
// development. All implementations are safe for concurrent use.
package inmem

import (
	"context"
	"fmt"
	"sync"

	"github.com/aswathylr-builds/order-pipeline/catalog"
	"github.com/aswathylr-builds/order-pipeline/customer"
	"github.com/aswathylr-builds/order-pipeline/order"
	"github.com/aswathylr-builds/order-pipeline/repository"
)

// ProductStore implements repository.ProductRepository over a map.
type ProductStore struct {
	mu       sync.Mutex
	products map[string]catalog.Product
}

// NewProductStore seeds the store with the given products.
func NewProductStore(products ...catalog.Product) *ProductStore {
	s := &ProductStore{products: make(map[string]catalog.Product, len(products))}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

// Put inserts or replaces a product.
func (s *ProductStore) Put(p catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *ProductStore) GetByID(_ context.Context, id string) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("%w: product %s", repository.ErrNotFound, id)
	}
	return p, nil
}

func (s *ProductStore) BatchGet(_ context.Context, ids []string) (map[string]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// DecrementStock performs the conditional decrement under the store lock,
// so concurrent callers cannot both observe sufficient stock.
func (s *ProductStore) DecrementStock(_ context.Context, id string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return fmt.Errorf("%w: product %s", repository.ErrNotFound, id)
	}
	if p.Stock < qty {
		return fmt.Errorf("%w: product %s has %d, requested %d", repository.ErrInsufficientStock, id, p.Stock, qty)
	}
	p.Stock -= qty
	s.products[id] = p
	return nil
}

func (s *ProductStore) RestoreStock(_ context.Context, id string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return fmt.Errorf("%w: product %s", repository.ErrNotFound, id)
	}
	p.Stock += qty
	s.products[id] = p
	return nil
}

// CustomerStore implements repository.CustomerRepository over a map.
type CustomerStore struct {
	mu        sync.RWMutex
	customers map[string]customer.Customer
}

// NewCustomerStore seeds the store with the given customers.
func NewCustomerStore(customers ...customer.Customer) *CustomerStore {
	s := &CustomerStore{customers: make(map[string]customer.Customer, len(customers))}
	for _, c := range customers {
		s.customers[c.ID] = c
	}
	return s
}

func (s *CustomerStore) GetByID(_ context.Context, id string) (customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return customer.Customer{}, fmt.Errorf("%w: customer %s", repository.ErrNotFound, id)
	}
	return c, nil
}

// OrderStore implements repository.OrderRepository over snapshot maps.
type OrderStore struct {
	mu     sync.Mutex
	orders map[string]order.Snapshot
	byKey  map[string]string
}

// NewOrderStore creates an empty store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]order.Snapshot),
		byKey:  make(map[string]string),
	}
}

func (s *OrderStore) Create(_ context.Context, o *order.Order, idempotencyKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[o.ID()]; exists {
		return fmt.Errorf("%w: order %s", repository.ErrDuplicateOrder, o.ID())
	}
	if idempotencyKey != "" {
		if _, exists := s.byKey[idempotencyKey]; exists {
			return fmt.Errorf("%w: idempotency key reused", repository.ErrDuplicateOrder)
		}
		s.byKey[idempotencyKey] = o.ID()
	}
	s.orders[o.ID()] = o.Snapshot()
	return nil
}

func (s *OrderStore) Update(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[o.ID()]; !exists {
		return fmt.Errorf("%w: order %s", repository.ErrNotFound, o.ID())
	}
	s.orders[o.ID()] = o.Snapshot()
	return nil
}

func (s *OrderStore) GetByID(_ context.Context, id string) (*order.Order, error) {
	s.mu.Lock()
	snap, ok := s.orders[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: order %s", repository.ErrNotFound, id)
	}
	return order.FromSnapshot(snap)
}

func (s *OrderStore) GetByIdempotencyKey(ctx context.Context, key string) (*order.Order, error) {
	s.mu.Lock()
	id, ok := s.byKey[key]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: idempotency key", repository.ErrNotFound)
	}
	return s.GetByID(ctx, id)
}
