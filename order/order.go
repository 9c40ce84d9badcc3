package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aswathylr-builds/order-pipeline/payment"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// PaymentStatus represents the payment state of an order, tracked
// independently of the order status.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// Line is a single line item. Lines are owned by exactly one order and
// become immutable once the order leaves the pending state.
type Line struct {
	ID        string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// NewLine builds a validated line item.
func NewLine(productID string, quantity int, unitPrice decimal.Decimal) (Line, error) {
	if productID == "" {
		return Line{}, ErrMissingProduct
	}
	if quantity <= 0 {
		return Line{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if !unitPrice.IsPositive() {
		return Line{}, fmt.Errorf("%w: got %s", ErrInvalidUnitPrice, unitPrice)
	}
	return Line{
		ID:        uuid.NewString(),
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}, nil
}

// Subtotal returns quantity × unit price for this line.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is the aggregate root for a customer order. All mutation goes
// through the named transition and line operations; fields are unexported
// so callers cannot bypass the state machine.
type Order struct {
	id            string
	customerID    string
	lines         []Line
	status        Status
	paymentStatus PaymentStatus
	method        payment.Method
	createdAt     time.Time
	updatedAt     time.Time
}

// New creates an order in Pending/Pending with the given lines.
// At least one valid line is required.
func New(customerID string, method payment.Method, lines []Line) (*Order, error) {
	if customerID == "" {
		return nil, ErrMissingCustomer
	}
	if _, err := payment.ParseMethod(string(method)); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	now := time.Now().UTC()
	o := &Order{
		id:            uuid.NewString(),
		customerID:    customerID,
		status:        StatusPending,
		paymentStatus: PaymentPending,
		method:        method,
		createdAt:     now,
		updatedAt:     now,
	}
	for _, l := range lines {
		if err := o.appendLine(l); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// appendLine adopts an existing line, keeping its ID, after re-checking the
// line invariants. A line for an already-present product merges into that
// line's quantity instead.
func (o *Order) appendLine(l Line) error {
	if l.ProductID == "" {
		return ErrMissingProduct
	}
	if l.Quantity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, l.Quantity)
	}
	if !l.UnitPrice.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidUnitPrice, l.UnitPrice)
	}
	for i := range o.lines {
		if o.lines[i].ProductID == l.ProductID {
			o.lines[i].Quantity += l.Quantity
			return nil
		}
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	o.lines = append(o.lines, l)
	return nil
}

func (o *Order) ID() string                    { return o.id }
func (o *Order) CustomerID() string            { return o.customerID }
func (o *Order) Status() Status                { return o.status }
func (o *Order) PaymentStatus() PaymentStatus  { return o.paymentStatus }
func (o *Order) PaymentMethod() payment.Method { return o.method }
func (o *Order) CreatedAt() time.Time          { return o.createdAt }
func (o *Order) UpdatedAt() time.Time          { return o.updatedAt }

// Lines returns a copy of the line items in insertion order.
func (o *Order) Lines() []Line {
	out := make([]Line, len(o.lines))
	copy(out, o.lines)
	return out
}

// Total derives the order total from its lines. It is never stored.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (o *Order) touch() {
	o.updatedAt = time.Now().UTC()
}

// AddItem appends a line while the order is still pending. Adding a product
// already present on the order increases that line's quantity instead of
// creating a duplicate line.
func (o *Order) AddItem(productID string, quantity int, unitPrice decimal.Decimal) error {
	if o.status != StatusPending {
		return fmt.Errorf("%w: status is %s", ErrOrderLocked, o.status)
	}
	line, err := NewLine(productID, quantity, unitPrice)
	if err != nil {
		return err
	}
	for i := range o.lines {
		if o.lines[i].ProductID == productID {
			o.lines[i].Quantity += quantity
			o.touch()
			return nil
		}
	}
	o.lines = append(o.lines, line)
	o.touch()
	return nil
}

// RemoveItem removes the line for productID. The last remaining line cannot
// be removed; an order keeps at least one line while not cancelled.
func (o *Order) RemoveItem(productID string) error {
	if o.status != StatusPending {
		return fmt.Errorf("%w: status is %s", ErrOrderLocked, o.status)
	}
	for i := range o.lines {
		if o.lines[i].ProductID == productID {
			if len(o.lines) == 1 {
				return ErrEmptyOrder
			}
			o.lines = append(o.lines[:i], o.lines[i+1:]...)
			o.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: product %s", ErrLineNotFound, productID)
}

// UpdateItemQuantity replaces the quantity on the line for productID.
func (o *Order) UpdateItemQuantity(productID string, quantity int) error {
	if o.status != StatusPending {
		return fmt.Errorf("%w: status is %s", ErrOrderLocked, o.status)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	for i := range o.lines {
		if o.lines[i].ProductID == productID {
			o.lines[i].Quantity = quantity
			o.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: product %s", ErrLineNotFound, productID)
}

// Confirm moves Pending → Confirmed.
func (o *Order) Confirm() error {
	if o.status != StatusPending {
		return transitionError("confirm", o.status, StatusConfirmed)
	}
	o.status = StatusConfirmed
	o.touch()
	return nil
}

// StartProcessing moves Confirmed → Processing.
func (o *Order) StartProcessing() error {
	if o.status != StatusConfirmed {
		return transitionError("startProcessing", o.status, StatusProcessing)
	}
	o.status = StatusProcessing
	o.touch()
	return nil
}

// Ship moves Processing → Shipped. Shipping requires completed payment.
func (o *Order) Ship() error {
	if o.status != StatusProcessing || o.paymentStatus != PaymentCompleted {
		return transitionError("ship", o.status, StatusShipped)
	}
	o.status = StatusShipped
	o.touch()
	return nil
}

// Deliver moves Shipped → Delivered, a terminal state.
func (o *Order) Deliver() error {
	if o.status != StatusShipped {
		return transitionError("deliver", o.status, StatusDelivered)
	}
	o.status = StatusDelivered
	o.touch()
	return nil
}

// Cancel moves Pending or Confirmed → Cancelled and forces the payment
// status to Cancelled. Cancelled is terminal.
func (o *Order) Cancel() error {
	if o.status != StatusPending && o.status != StatusConfirmed {
		return transitionError("cancel", o.status, StatusCancelled)
	}
	o.status = StatusCancelled
	o.paymentStatus = PaymentCancelled
	o.touch()
	return nil
}

// CompletePayment moves payment Pending → Completed.
func (o *Order) CompletePayment() error {
	if o.paymentStatus != PaymentPending {
		return paymentTransitionError("completePayment", o.paymentStatus, PaymentCompleted)
	}
	o.paymentStatus = PaymentCompleted
	o.touch()
	return nil
}

// FailPayment moves payment Pending → Failed.
func (o *Order) FailPayment() error {
	if o.paymentStatus != PaymentPending {
		return paymentTransitionError("failPayment", o.paymentStatus, PaymentFailed)
	}
	o.paymentStatus = PaymentFailed
	o.touch()
	return nil
}
