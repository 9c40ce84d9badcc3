package pipeline_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/aswathylr-builds/order-pipeline/catalog"
	"github.com/aswathylr-builds/order-pipeline/customer"
	"github.com/aswathylr-builds/order-pipeline/events"
	"github.com/aswathylr-builds/order-pipeline/metrics"
	"github.com/aswathylr-builds/order-pipeline/order"
	"github.com/aswathylr-builds/order-pipeline/payment"
	"github.com/aswathylr-builds/order-pipeline/pipeline"
	"github.com/aswathylr-builds/order-pipeline/repository/inmem"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type env struct {
	products  *inmem.ProductStore
	customers *inmem.CustomerStore
	orders    *inmem.OrderStore
	published *capturePublisher
	metrics   *metrics.PipelineMetrics
	service   *pipeline.Service
}

func newEnv(t *testing.T, failures payment.FailureSource, products ...catalog.Product) *env {
	t.Helper()
	e := &env{
		products: inmem.NewProductStore(products...),
		customers: inmem.NewCustomerStore(
			customer.Customer{ID: "cust-1", Name: "Ana Souza", Email: "ana@example.com"},
		),
		orders:    inmem.NewOrderStore(),
		published: &capturePublisher{},
		metrics:   metrics.NewPipelineMetrics(prometheus.NewRegistry()),
	}
	e.service = pipeline.NewService(pipeline.Deps{
		Products:  e.products,
		Customers: e.customers,
		Orders:    e.orders,
		Payments:  payment.NewDefaultDispatcher(failures),
		Publisher: e.published,
		Metrics:   e.metrics,
	})
	return e
}

func physical(id string, price float64, stock int) catalog.Product {
	return catalog.Product{ID: id, Name: "Widget " + id, Price: decimal.NewFromFloat(price), Stock: stock, Active: true}
}

func pixRequest(lines ...pipeline.LineRequest) pipeline.CreateOrderRequest {
	return pipeline.CreateOrderRequest{
		CustomerID:    "cust-1",
		Lines:         lines,
		PaymentMethod: "PIX",
		PaymentData: payment.Data{
			Method: payment.MethodPix,
			Pix:    &payment.PixData{PixKey: "ana@example.com", UserDocument: "12345678901"},
		},
	}
}

func stockOf(t *testing.T, e *env, id string) int {
	t.Helper()
	p, err := e.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func asPipelineError(t *testing.T, err error) *pipeline.Error {
	t.Helper()
	require.Error(t, err)
	perr, ok := err.(*pipeline.Error)
	require.True(t, ok, "expected *pipeline.Error, got %T: %v", err, err)
	return perr
}

func TestCreateOrderPixHappyPath(t *testing.T) {
	e := newEnv(t, payment.NeverFail{}, physical("prod-1", 100.00, 10))

	res, err := e.service.CreateOrder(context.Background(), pixRequest(
		pipeline.LineRequest{ProductID: "prod-1", Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, order.StatusPending, res.Order.Status())
	assert.Equal(t, order.PaymentCompleted, res.Order.PaymentStatus())
	assert.True(t, res.Order.Total().Equal(decimal.NewFromInt(100)))
	assert.True(t, strings.HasPrefix(res.Payment.TransactionID, "PIX-"))
	assert.True(t, res.Validation.Valid)
	assert.False(t, res.Replayed)

	// one unit reserved
	assert.Equal(t, 9, stockOf(t, e, "prod-1"))

	// persisted and loadable
	stored, err := e.orders.GetByID(context.Background(), res.Order.ID())
	require.NoError(t, err)
	assert.Equal(t, order.PaymentCompleted, stored.PaymentStatus())

	assert.Equal(t, []string{
		events.TypePaymentCaptured,
		events.TypeOrderCreated,
		events.TypeInventoryDeducted,
	}, e.published.types())
}

func TestCreateOrderMissingProductsIsFatal(t *testing.T) {
	e := newEnv(t, payment.NeverFail{}, physical("prod-1", 100.00, 10))

	_, err := e.service.CreateOrder(context.Background(), pixRequest(
		pipeline.LineRequest{ProductID: "prod-1", Quantity: 1},
		pipeline.LineRequest{ProductID: "ghost-b", Quantity: 1},
		pipeline.LineRequest{ProductID: "ghost-a", Quantity: 1},
	))

	perr := asPipelineError(t, err)
	assert.Equal(t, pipeline.CodeProductsNotFound, perr.Code)
	// missing ids are named, sorted
	assert.Contains(t, perr.Message, "ghost-a, ghost-b")

	// nothing happened
	assert.Equal(t, 10, stockOf(t, e, "prod-1"))
	assert.Empty(t, e.published.types())
}

func TestCreateOrderBelowMinimumIsRejected(t *testing.T) {
	e := newEnv(t, payment.NeverFail{}, physical("prod-1", 5.00, 10))

	_, err := e.service.CreateOrder(context.Background(), pixRequest(
		pipeline.LineRequest{ProductID: "prod-1", Quantity: 1},
	))

	perr := asPipelineError(t, err)
	assert.Equal(t, pipeline.CodeValidationFailed, perr.Code)
	require.NotNil(t, perr.Validation)
	assert.Contains(t, strings.Join(perr.Validation.Errors, "\n"), "minimum order value is 10.00")

	// rejection has no side effects beyond the rejection event
	assert.Equal(t, 10, stockOf(t, e, "prod-1"))
	assert.Equal(t, []string{events.TypeOrderRejected}, e.published.types())

	// no payment was attempted
	count := testutil.CollectAndCount(e.metrics.PaymentMS)
	assert.Zero(t, count)
}

func TestCreateOrderPaymentDeclined(t *testing.T) {
	e := newEnv(t, payment.AlwaysFail{}, physical("prod-1", 100.00, 10))

	req := pixRequest(pipeline.LineRequest{ProductID: "prod-1", Quantity: 1})
	_, err := e.service.CreateOrder(context.Background(), req)

	perr := asPipelineError(t, err)
	assert.Equal(t, pipeline.CodePaymentFailed, perr.Code)
	assert.Equal(t, "pix key not found", perr.Message)
	// validation ran and is surfaced alongside the decline
	require.NotNil(t, perr.Validation)
	assert.True(t, perr.Validation.Valid)

	assert.Equal(t, 10, stockOf(t, e, "prod-1"))
}

func TestCreateOrderInvalidPaymentData(t *testing.T) {
	e := newEnv(t, payment.NeverFail{}, physical("prod-1", 100.00, 10))

	req := pixRequest(pipeline.LineRequest{ProductID: "prod-1", Quantity: 1})
	req.PaymentData.Pix.UserDocument = "42" // not a CPF or CNPJ

	_, err := e.service.CreateOrder(context.Background(), req)

	perr := asPipelineError(t, err)
	assert.Equal(t, pipeline.CodePaymentFailed, perr.Code)
	assert.Equal(t, "invalid pix data", perr.Message)
}

func TestCreateOrderCustomerNotFound(t *testing.T) {
	e := newEnv(t, payment.NeverFail{}, physical("prod-1", 100.00, 10))

	req := pixRequest(pipeline.LineRequest{ProductID: "prod-1", Quantity: 1})
	req.CustomerID = "cust-unknown"

	_, err := e.service.CreateOrder(context.Background(), req)

	perr := asPipelineError(t, err)
	assert.Equal(t, pipeline.CodeCustomerNotFound, perr.Code)
	assert.Contains(t, perr.Message, "cust-unknown")
}

func TestCreateOrderInactiveProduct(t *testing.T) {
	p := physical("prod-1", 100.00, 10)
	p.Active = false
	e := newEnv(t, payment.NeverFail{}, p)

	_, err := e.service.CreateOrder(context.Background(), pixRequest(
		pipeline.LineRequest{ProductID: "prod-1", Quantity: 1},
	))

	perr := asPipelineError(t, err)
	assert.Equal(t, pipeline.CodeProductUnavailable, perr.Code)
}

func TestCreateOrderRequestShape(t *testing.T) {
	e := newEnv(t, payment.NeverFail{}, physical("prod-1", 100.00, 10))

	tests := []struct {
		name   string
		mutate func(*pipeline.CreateOrderRequest)
	}{
		{"no customer", func(r *pipeline.CreateOrderRequest) { r.CustomerID = " " }},
		{"no lines", func(r *pipeline.CreateOrderRequest) { r.Lines = nil }},
		{"zero quantity", func(r *pipeline.CreateOrderRequest) { r.Lines[0].Quantity = 0 }},
		{"blank product", func(r *pipeline.CreateOrderRequest) { r.Lines[0].ProductID = "" }},
		{"no method", func(r *pipeline.CreateOrderRequest) { r.PaymentMethod = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := pixRequest(pipeline.LineRequest{ProductID: "prod-1", Quantity: 1})
			tt.mutate(&req)
			_, err := e.service.CreateOrder(context.Background(), req)
			perr := asPipelineError(t, err)
			assert.Equal(t, pipeline.CodeInvalidRequest, perr.Code)
		})
	}

	// unsupported method is caught after lookups but still maps to the
	// same code
	req := pixRequest(pipeline.LineRequest{ProductID: "prod-1", Quantity: 1})
	req.PaymentMethod = "BITCOIN"
	_, err := e.service.CreateOrder(context.Background(), req)
	assert.Equal(t, pipeline.CodeInvalidRequest, asPipelineError(t, err).Code)
}

func TestCreateOrderDigitalSkipsReservation(t *testing.T) {
	e := newEnv(t, payment.NeverFail{}, catalog.Product{
		ID: "ebook-1", Name: "Go Patterns eBook", Price: decimal.NewFromFloat(49.90), Stock: 0, Active: true,
	})

	res, err := e.service.CreateOrder(context.Background(), pixRequest(
		pipeline.LineRequest{ProductID: "ebook-1", Quantity: 3},
	))
	require.NoError(t, err)
	assert.Equal(t, order.PaymentCompleted, res.Order.PaymentStatus())

	// digital stock is a sentinel; nothing gets decremented
	assert.Equal(t, 0, stockOf(t, e, "ebook-1"))
}

func TestCreateOrderIdempotentReplay(t *testing.T) {
	e := newEnv(t, payment.NeverFail{}, physical("prod-1", 100.00, 10))

	req := pixRequest(pipeline.LineRequest{ProductID: "prod-1", Quantity: 1})
	req.IdempotencyKey = "req-123"

	first, err := e.service.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := e.service.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID(), second.Order.ID())

	// the replay charged and reserved nothing
	assert.Equal(t, 9, stockOf(t, e, "prod-1"))
}

func TestConcurrentOrdersForLastUnit(t *testing.T) {
	e := newEnv(t, payment.NeverFail{}, physical("prod-1", 100.00, 1))

	results := make([]*pipeline.CreateOrderResult, 2)
	errs := make([]error, 2)

	var g errgroup.Group
	for i := 0; i < 2; i++ {
		i := i
		g.Go(func() error {
			results[i], errs[i] = e.service.CreateOrder(context.Background(),
				pixRequest(pipeline.LineRequest{ProductID: "prod-1", Quantity: 1}))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var accepted, conflicted int
	for i := range errs {
		if errs[i] == nil {
			accepted++
			assert.Equal(t, order.PaymentCompleted, results[i].Order.PaymentStatus())
			continue
		}
		perr := asPipelineError(t, errs[i])
		// depending on where the winner's decrement lands, the loser is
		// refused at the availability gate, by the validation chain, or at
		// the post-payment reservation; all three leave no residue
		assert.Contains(t,
			[]pipeline.FailureCode{
				pipeline.CodeStockConflict,
				pipeline.CodeValidationFailed,
				pipeline.CodeProductUnavailable,
			},
			perr.Code)
		conflicted++
	}

	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, conflicted)

	// never negative, never oversold
	assert.Equal(t, 0, stockOf(t, e, "prod-1"))
}

// staleReadStore makes validation observe stock levels that a concurrent
// order has already claimed underneath, forcing the post-payment conflict
// branch deterministically.
type staleReadStore struct {
	*inmem.ProductStore
	staleStock map[string]int
}

func (s *staleReadStore) BatchGet(ctx context.Context, ids []string) (map[string]catalog.Product, error) {
	out, err := s.ProductStore.BatchGet(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, stock := range s.staleStock {
		if p, ok := out[id]; ok {
			p.Stock = stock
			out[id] = p
		}
	}
	return out, nil
}

func TestStockConflictCompensatesPayment(t *testing.T) {
	// prod-a claims fine; prod-b was drained by a concurrent order after
	// this request's validation read. The claimed prod-a units must be
	// restored and the payment compensated.
	inner := inmem.NewProductStore(
		physical("prod-a", 100.00, 5),
		physical("prod-b", 100.00, 1),
	)
	store := &staleReadStore{ProductStore: inner, staleStock: map[string]int{"prod-b": 5}}

	published := &capturePublisher{}
	m := metrics.NewPipelineMetrics(prometheus.NewRegistry())
	service := pipeline.NewService(pipeline.Deps{
		Products: store,
		Customers: inmem.NewCustomerStore(
			customer.Customer{ID: "cust-1", Name: "Ana Souza", Email: "ana@example.com"},
		),
		Orders:    inmem.NewOrderStore(),
		Payments:  payment.NewDefaultDispatcher(payment.NeverFail{}),
		Publisher: published,
		Metrics:   m,
	})

	_, err := service.CreateOrder(context.Background(), pixRequest(
		pipeline.LineRequest{ProductID: "prod-a", Quantity: 2},
		pipeline.LineRequest{ProductID: "prod-b", Quantity: 2},
	))

	perr := asPipelineError(t, err)
	assert.Equal(t, pipeline.CodeStockConflict, perr.Code)
	assert.Contains(t, perr.Message, "prod-b")
	assert.Contains(t, perr.Message, "refunded")

	// the partial reservation was rolled back
	pa, err := inner.GetByID(context.Background(), "prod-a")
	require.NoError(t, err)
	assert.Equal(t, 5, pa.Stock)
	pb, err := inner.GetByID(context.Background(), "prod-b")
	require.NoError(t, err)
	assert.Equal(t, 1, pb.Stock)

	// the compensation trail was published
	types := published.types()
	assert.Contains(t, types, events.TypeInventoryReleased)
	assert.Contains(t, types, events.TypePaymentRefunded)
	assert.Contains(t, types, events.TypeOrderCompensated)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StockConflicts))
}
