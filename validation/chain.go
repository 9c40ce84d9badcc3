package validation

// Handler inspects one concern of an order draft. Handlers are
// order-independent and stateless: the same context always produces the
// same result.
type Handler interface {
	Name() string
	Validate(ctx Context) Result
}

// Chain evaluates handlers in a fixed order with short-circuit semantics:
// once a handler reports invalid, no later handler runs, but the returned
// result still merges everything from the handlers that did run.
type Chain struct {
	handlers []Handler
}

// NewChain composes handlers in evaluation order.
func NewChain(handlers ...Handler) Chain {
	return Chain{handlers: handlers}
}

// NewDefaultChain is the complete composition the pipeline always runs:
// stock and payment-method legality are the cheapest and most fundamental
// checks, so they fail fast before customer and business-rule evaluation.
func NewDefaultChain() Chain {
	return NewChain(
		StockHandler{},
		PaymentHandler{},
		CustomerHandler{},
		BusinessRulesHandler{},
	)
}

// Empty reports whether the chain has no handlers.
func (c Chain) Empty() bool { return len(c.handlers) == 0 }

// Handle runs the chain against ctx.
func (c Chain) Handle(ctx Context) Result {
	out := OK()
	for _, h := range c.handlers {
		r := h.Validate(ctx)
		out = Merge(out, r)
		if !r.Valid {
			break
		}
	}
	return out
}
