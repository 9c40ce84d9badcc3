// Package pipeline turns a raw "place an order" request into a persisted,
// paid, stock-adjusted order, or a well-formed rejection.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/aswathylr-builds/order-pipeline/catalog"
	"github.com/aswathylr-builds/order-pipeline/customer"
	"github.com/aswathylr-builds/order-pipeline/events"
	"github.com/aswathylr-builds/order-pipeline/metrics"
	"github.com/aswathylr-builds/order-pipeline/order"
	"github.com/aswathylr-builds/order-pipeline/payment"
	"github.com/aswathylr-builds/order-pipeline/repository"
	"github.com/aswathylr-builds/order-pipeline/validation"
)

// LineRequest is one requested line item.
type LineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest is the transport-independent inbound contract.
type CreateOrderRequest struct {
	CustomerID     string         `json:"customer_id"`
	Lines          []LineRequest  `json:"lines"`
	PaymentMethod  string         `json:"payment_method"`
	PaymentData    payment.Data   `json:"payment_data"`
	CustomerMeta   *customer.Meta `json:"customer_meta,omitempty"`
	IdempotencyKey string         `json:"-"`
}

// CreateOrderResult is returned on success. Validation carries any warnings
// and handler metadata even though the order was accepted. Replayed is set
// when an idempotency key matched a previously created order.
type CreateOrderResult struct {
	Order      *order.Order
	Payment    payment.Result
	Validation validation.Result
	Replayed   bool
}

// Deps wires the pipeline's collaborators. Products, Customers, Orders and
// Payments are required; the rest default to no-op implementations.
type Deps struct {
	Products   repository.ProductRepository
	Customers  repository.CustomerRepository
	Orders     repository.OrderRepository
	Classifier catalog.TypeClassifier
	Chain      validation.Chain
	Payments   *payment.Dispatcher
	Publisher  events.Publisher
	Metrics    *metrics.PipelineMetrics
	Logger     *zap.Logger
}

// Service orchestrates order creation. It is stateless per request and safe
// for concurrent use.
type Service struct {
	products   repository.ProductRepository
	customers  repository.CustomerRepository
	orders     repository.OrderRepository
	classifier catalog.TypeClassifier
	chain      validation.Chain
	payments   *payment.Dispatcher
	publisher  events.Publisher
	metrics    *metrics.PipelineMetrics
	logger     *zap.Logger
}

// NewService builds the pipeline from its dependencies.
func NewService(deps Deps) *Service {
	s := &Service{
		products:   deps.Products,
		customers:  deps.Customers,
		orders:     deps.Orders,
		classifier: deps.Classifier,
		chain:      deps.Chain,
		payments:   deps.Payments,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
	if s.classifier == nil {
		s.classifier = catalog.NameClassifier{}
	}
	if s.chain.Empty() {
		s.chain = validation.NewDefaultChain()
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// CreateOrder runs the full acceptance pipeline. Failures are returned as
// *Error with a FailureCode; only infrastructure faults (storage down and
// the like) surface as plain errors.
//
// Stock reservation runs after payment but before the order is persisted:
// each line is claimed with an atomic conditional decrement, and a lost
// race rolls back the lines already claimed and compensates the payment.
// This closes the check-then-act window without a cross-store transaction.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	// Step 1: request shape, before any repository access.
	if perr := validateRequestShape(req); perr != nil {
		s.count("invalid_request")
		return nil, perr
	}

	// Idempotent replay: a reused key returns the stored order.
	if req.IdempotencyKey != "" {
		if existing, err := s.orders.GetByIdempotencyKey(ctx, req.IdempotencyKey); err == nil {
			s.count("replayed")
			return &CreateOrderResult{Order: existing, Replayed: true}, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("idempotency lookup: %w", err)
		}
	}

	// Step 2: resolve the customer.
	cust, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.count("customer_not_found")
			return nil, failure(CodeCustomerNotFound, "customer %s not found", req.CustomerID)
		}
		return nil, fmt.Errorf("customer lookup: %w", err)
	}

	// Step 3: batch-resolve products; any missing id is fatal.
	ids := make([]string, 0, len(req.Lines))
	for _, l := range req.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.BatchGet(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("product lookup: %w", err)
	}
	var missing []string
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		s.count("products_not_found")
		return nil, failure(CodeProductsNotFound, "products not found: %s", strings.Join(missing, ", "))
	}

	// Step 4: classify product types via the pluggable policy.
	types := make(map[string]catalog.ProductType, len(products))
	for id, p := range products {
		types[id] = s.classifier.Classify(p)
	}

	// Step 5: every referenced product must be orderable at all.
	for _, id := range ids {
		p := products[id]
		if !p.Active || (types[id] != catalog.TypeDigital && p.Stock <= 0) {
			s.count("product_unavailable")
			return nil, failure(CodeProductUnavailable, "product %s is not available", id)
		}
	}

	// Step 6: build the aggregate in Pending/Pending with catalog prices.
	method, err := payment.ParseMethod(req.PaymentMethod)
	if err != nil {
		s.count("invalid_request")
		return nil, failure(CodeInvalidRequest, "payment method %q is not supported", req.PaymentMethod)
	}
	lines := make([]order.Line, 0, len(req.Lines))
	for _, l := range req.Lines {
		line, lerr := order.NewLine(l.ProductID, l.Quantity, products[l.ProductID].Price)
		if lerr != nil {
			s.count("invalid_request")
			return nil, failure(CodeInvalidRequest, "line for product %s: %v", l.ProductID, lerr)
		}
		lines = append(lines, line)
	}
	o, err := order.New(req.CustomerID, method, lines)
	if err != nil {
		s.count("invalid_request")
		return nil, failure(CodeInvalidRequest, "order construction: %v", err)
	}

	// Step 7: the full validation chain. No side effects on rejection.
	vres := s.chain.Handle(validation.NewContext(o, cust, products, types, req.CustomerMeta))
	if !vres.Valid {
		s.count("validation_rejected")
		s.publish(ctx, events.New(o.ID(), events.TypeOrderRejected, map[string]any{"errors": vres.Errors}))
		return nil, &Error{
			Code:       CodeValidationFailed,
			Message:    fmt.Sprintf("order rejected by validation: %s", strings.Join(vres.Errors, "; ")),
			Validation: &vres,
		}
	}

	// Step 8: dispatch payment.
	strategy, err := s.payments.CreateStrategy(method)
	if err != nil {
		return nil, fmt.Errorf("payment dispatch: %w", err)
	}
	pres := strategy.Process(o.Total(), req.PaymentData)
	s.observePayment(method, pres)
	if !pres.Success {
		s.count("payment_failed")
		s.logger.Info("payment failed",
			zap.String("order_id", o.ID()),
			zap.String("method", string(method)),
			zap.String("reason", pres.ErrorMessage))
		return nil, &Error{
			Code:       CodePaymentFailed,
			Message:    pres.ErrorMessage,
			Validation: &vres,
		}
	}

	// Step 9: mark payment completed on the aggregate.
	if err := o.CompletePayment(); err != nil {
		return nil, fmt.Errorf("complete payment: %w", err)
	}
	s.publish(ctx, events.New(o.ID(), events.TypePaymentCaptured, map[string]any{
		"transaction_id": pres.TransactionID,
		"amount":         o.Total().StringFixed(2),
	}))

	// Step 10: reserve stock atomically, line by line, rolling back claimed
	// lines if any conditional decrement loses a race.
	if perr := s.reserveStock(ctx, o, types, pres); perr != nil {
		return nil, perr
	}

	// Step 11: persist the accepted order.
	if err := s.orders.Create(ctx, o, req.IdempotencyKey); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) && req.IdempotencyKey != "" {
			// Lost an idempotency race: release our reservation and hand
			// back the winner's order.
			s.releaseStock(ctx, o, types)
			s.publish(ctx, events.New(o.ID(), events.TypePaymentRefunded, map[string]any{
				"transaction_id": pres.TransactionID,
				"reason":         "idempotent replay",
			}))
			if existing, gerr := s.orders.GetByIdempotencyKey(ctx, req.IdempotencyKey); gerr == nil {
				s.count("replayed")
				return &CreateOrderResult{Order: existing, Replayed: true}, nil
			}
		}
		s.releaseStock(ctx, o, types)
		s.publish(ctx, events.New(o.ID(), events.TypePaymentRefunded, map[string]any{
			"transaction_id": pres.TransactionID,
			"reason":         "persistence failure",
		}))
		return nil, fmt.Errorf("persist order: %w", err)
	}

	// Step 12: report the accepted order with warnings intact.
	s.count("accepted")
	s.publish(ctx, events.New(o.ID(), events.TypeOrderCreated, map[string]any{
		"customer_id": o.CustomerID(),
		"total":       o.Total().StringFixed(2),
		"method":      string(method),
	}))
	s.publish(ctx, events.New(o.ID(), events.TypeInventoryDeducted, nil))
	s.logger.Info("order accepted",
		zap.String("order_id", o.ID()),
		zap.String("customer_id", o.CustomerID()),
		zap.String("total", o.Total().StringFixed(2)),
		zap.Int("warnings", len(vres.Warnings)))

	return &CreateOrderResult{Order: o, Payment: pres, Validation: vres}, nil
}

// reserveStock claims every line with the repository's atomic conditional
// decrement. A failed claim is the post-payment stock race: the lines taken
// so far are restored and the payment is compensated.
func (s *Service) reserveStock(ctx context.Context, o *order.Order, types map[string]catalog.ProductType, pres payment.Result) *Error {
	var claimed []order.Line
	for _, line := range o.Lines() {
		if types[line.ProductID] == catalog.TypeDigital {
			continue // digital goods are not scarce
		}
		if err := s.products.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			for _, c := range claimed {
				if rerr := s.products.RestoreStock(ctx, c.ProductID, c.Quantity); rerr != nil {
					s.logger.Error("stock rollback failed",
						zap.String("order_id", o.ID()),
						zap.String("product_id", c.ProductID),
						zap.Error(rerr))
				}
			}
			if s.metrics != nil {
				s.metrics.StockConflicts.Inc()
			}
			s.count("stock_conflict")
			s.publish(ctx, events.New(o.ID(), events.TypeInventoryReleased, nil))
			s.publish(ctx, events.New(o.ID(), events.TypePaymentRefunded, map[string]any{
				"transaction_id": pres.TransactionID,
				"reason":         "stock conflict",
			}))
			s.publish(ctx, events.New(o.ID(), events.TypeOrderCompensated, map[string]any{
				"product_id": line.ProductID,
			}))
			return failure(CodeStockConflict,
				"stock for product %s was claimed by a concurrent order; payment %s has been refunded",
				line.ProductID, pres.TransactionID)
		}
		claimed = append(claimed, line)
	}
	return nil
}

// releaseStock undoes a full reservation. Digital lines were never claimed
// and are skipped.
func (s *Service) releaseStock(ctx context.Context, o *order.Order, types map[string]catalog.ProductType) {
	for _, line := range o.Lines() {
		if types[line.ProductID] == catalog.TypeDigital {
			continue
		}
		_ = s.products.RestoreStock(ctx, line.ProductID, line.Quantity)
	}
}

func validateRequestShape(req CreateOrderRequest) *Error {
	if strings.TrimSpace(req.CustomerID) == "" {
		return failure(CodeInvalidRequest, "customer_id is required")
	}
	if len(req.Lines) == 0 {
		return failure(CodeInvalidRequest, "at least one line is required")
	}
	for i, l := range req.Lines {
		if strings.TrimSpace(l.ProductID) == "" {
			return failure(CodeInvalidRequest, "line %d: product_id is required", i)
		}
		if l.Quantity <= 0 {
			return failure(CodeInvalidRequest, "line %d: quantity must be greater than zero", i)
		}
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return failure(CodeInvalidRequest, "payment_method is required")
	}
	return nil
}

func (s *Service) count(outcome string) {
	if s.metrics != nil {
		s.metrics.Orders.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) observePayment(method payment.Method, res payment.Result) {
	if s.metrics != nil {
		s.metrics.PaymentMS.WithLabelValues(string(method)).Observe(float64(res.ProcessingTimeMs))
	}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("order_id", e.OrderID),
			zap.String("type", e.Type),
			zap.Error(err))
	}
}
