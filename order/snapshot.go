package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aswathylr-builds/order-pipeline/payment"
)

// Snapshot is the persistence representation of an order. It exists so that
// repositories can store and rehydrate aggregates without poking at order
// internals or bypassing the state machine.
type Snapshot struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	Lines         []LineSnapshot  `json:"lines"`
	Status        Status          `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	PaymentMethod payment.Method  `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// LineSnapshot is the persistence representation of a line item.
type LineSnapshot struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Snapshot captures the current state of the order. The total is included
// for reporting convenience only; it is always recomputed on rehydration.
func (o *Order) Snapshot() Snapshot {
	lines := make([]LineSnapshot, len(o.lines))
	for i, l := range o.lines {
		lines[i] = LineSnapshot{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	return Snapshot{
		ID:            o.id,
		CustomerID:    o.customerID,
		Lines:         lines,
		Status:        o.status,
		PaymentStatus: o.paymentStatus,
		PaymentMethod: o.method,
		Total:         o.Total(),
		CreatedAt:     o.createdAt,
		UpdatedAt:     o.updatedAt,
	}
}

// FromSnapshot rehydrates an aggregate from persisted state. Line and
// status invariants are re-checked so a corrupted row cannot produce an
// order the state machine would never have allowed.
func FromSnapshot(s Snapshot) (*Order, error) {
	if s.CustomerID == "" {
		return nil, ErrMissingCustomer
	}
	if !knownStatus(s.Status) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, s.Status)
	}
	if !knownPaymentStatus(s.PaymentStatus) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPaymentStatus, s.PaymentStatus)
	}
	if len(s.Lines) == 0 && s.Status != StatusCancelled {
		return nil, ErrEmptyOrder
	}
	lines := make([]Line, len(s.Lines))
	for i, l := range s.Lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if !l.UnitPrice.IsPositive() {
			return nil, ErrInvalidUnitPrice
		}
		lines[i] = Line{ID: l.ID, ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	return &Order{
		id:            s.ID,
		customerID:    s.CustomerID,
		lines:         lines,
		status:        s.Status,
		paymentStatus: s.PaymentStatus,
		method:        s.PaymentMethod,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
	}, nil
}

func knownStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func knownPaymentStatus(p PaymentStatus) bool {
	switch p {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}
