package payment

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Dispatcher selects the strategy for a requested method. It is an explicit
// registry value built at construction time and holds no per-request state,
// so one dispatcher may be shared across concurrent requests.
type Dispatcher struct {
	strategies map[Method]Strategy
}

// NewDispatcher builds a dispatcher over the given strategies. A later
// strategy for the same method replaces an earlier one.
func NewDispatcher(strategies ...Strategy) *Dispatcher {
	d := &Dispatcher{strategies: make(map[Method]Strategy, len(strategies))}
	for _, s := range strategies {
		d.strategies[s.Method()] = s
	}
	return d
}

// NewDefaultDispatcher registers the three built-in strategies sharing one
// failure source.
func NewDefaultDispatcher(failures FailureSource) *Dispatcher {
	return NewDispatcher(
		NewCreditCardStrategy(failures),
		NewPixStrategy(failures),
		NewBoletoStrategy(),
	)
}

// CreateStrategy returns the strategy registered for method.
func (d *Dispatcher) CreateStrategy(method Method) (Strategy, error) {
	s, ok := d.strategies[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	return s, nil
}

// Processor wraps one active strategy. The strategy can be swapped, which
// supports retry-with-fallback flows in callers that want them.
type Processor struct {
	strategy Strategy
}

// NewProcessor builds a processor around an initial strategy.
func NewProcessor(strategy Strategy) *Processor {
	return &Processor{strategy: strategy}
}

// Use swaps the active strategy.
func (p *Processor) Use(strategy Strategy) {
	p.strategy = strategy
}

// CurrentMethod reports the method of the active strategy.
func (p *Processor) CurrentMethod() Method {
	return p.strategy.Method()
}

// ValidatePaymentData validates data against the active strategy.
func (p *Processor) ValidatePaymentData(data Data) bool {
	return p.strategy.Validate(data)
}

// ProcessPayment processes a charge with the active strategy.
func (p *Processor) ProcessPayment(amount decimal.Decimal, data Data) Result {
	return p.strategy.Process(amount, data)
}
