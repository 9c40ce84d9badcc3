// Package postgres provides pgx-backed repositories. The stock decrement
// is a single conditional UPDATE so concurrent reservations for the same
// product cannot oversubscribe inventory.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/aswathylr-builds/order-pipeline/catalog"
	"github.com/aswathylr-builds/order-pipeline/customer"
	"github.com/aswathylr-builds/order-pipeline/order"
	"github.com/aswathylr-builds/order-pipeline/repository"
)

// ProductRepository implements repository.ProductRepository.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository builds the repository over a shared pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (catalog.Product, error) {
	var (
		p     catalog.Product
		price string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price::text, stock, active FROM products WHERE id=$1`, id,
	).Scan(&p.ID, &p.Name, &price, &p.Stock, &p.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, fmt.Errorf("%w: product %s", repository.ErrNotFound, id)
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("query product: %w", err)
	}
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("parse product price: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) BatchGet(ctx context.Context, ids []string) (map[string]catalog.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, price::text, stock, active FROM products WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := make(map[string]catalog.Product, len(ids))
	for rows.Next() {
		var (
			p     catalog.Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.Name, &price, &p.Stock, &p.Active); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse product price: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// DecrementStock is the atomic conditional reservation: the WHERE clause
// guarantees stock never goes negative even under concurrent callers.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET stock = stock - $2 WHERE id=$1 AND stock >= $2`, id, qty,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the product is gone or stock was insufficient; re-check
		// so the caller gets the right error.
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
		return fmt.Errorf("%w: product %s, requested %d", repository.ErrInsufficientStock, id, qty)
	}
	return nil
}

func (r *ProductRepository) RestoreStock(ctx context.Context, id string, qty int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET stock = stock + $2 WHERE id=$1`, id, qty,
	)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s", repository.ErrNotFound, id)
	}
	return nil
}

// CustomerRepository implements repository.CustomerRepository.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository builds the repository over a shared pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (customer.Customer, error) {
	var c customer.Customer
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email FROM customers WHERE id=$1`, id,
	).Scan(&c.ID, &c.Name, &c.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return customer.Customer{}, fmt.Errorf("%w: customer %s", repository.ErrNotFound, id)
	}
	if err != nil {
		return customer.Customer{}, fmt.Errorf("query customer: %w", err)
	}
	return c, nil
}

// OrderRepository implements repository.OrderRepository. Orders and lines
// are written in one transaction.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository builds the repository over a shared pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order, idempotencyKey string) error {
	snap := o.Snapshot()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO orders(id, customer_id, status, payment_status, payment_method, created_at, updated_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7)`,
		snap.ID, snap.CustomerID, snap.Status, snap.PaymentStatus, snap.PaymentMethod, snap.CreatedAt, snap.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: order %s", repository.ErrDuplicateOrder, snap.ID)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, l := range snap.Lines {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_lines(id, order_id, product_id, quantity, unit_price)
			 VALUES($1, $2, $3, $4, $5)`,
			l.ID, snap.ID, l.ProductID, l.Quantity, l.UnitPrice.String(),
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if idempotencyKey != "" {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_idempotency(idempotency_key, order_id) VALUES($1, $2)`,
			idempotencyKey, snap.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: idempotency key reused", repository.ErrDuplicateOrder)
			}
			return fmt.Errorf("insert idempotency key: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	snap := o.Snapshot()
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status=$2, payment_status=$3, updated_at=$4 WHERE id=$1`,
		snap.ID, snap.Status, snap.PaymentStatus, snap.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %s", repository.ErrNotFound, snap.ID)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var snap order.Snapshot
	err := r.pool.QueryRow(ctx,
		`SELECT id, customer_id, status, payment_status, payment_method, created_at, updated_at
		 FROM orders WHERE id=$1`, id,
	).Scan(&snap.ID, &snap.CustomerID, &snap.Status, &snap.PaymentStatus, &snap.PaymentMethod, &snap.CreatedAt, &snap.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %s", repository.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, quantity, unit_price::text FROM order_lines WHERE order_id=$1 ORDER BY id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l     order.LineSnapshot
			price string
		)
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Quantity, &price); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse line price: %w", err)
		}
		snap.Lines = append(snap.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order.FromSnapshot(snap)
}

func (r *OrderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*order.Order, error) {
	var id string
	err := r.pool.QueryRow(ctx,
		`SELECT order_id FROM order_idempotency WHERE idempotency_key=$1`, key,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: idempotency key", repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query idempotency key: %w", err)
	}
	return r.GetByID(ctx, id)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
