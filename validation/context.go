package validation

import (
	"time"

	"github.com/aswathylr-builds/order-pipeline/catalog"
	"github.com/aswathylr-builds/order-pipeline/customer"
	"github.com/aswathylr-builds/order-pipeline/order"
)

// Context bundles everything handlers need to evaluate one order draft.
// It is built fresh per validation run and never persisted. Now is captured
// once at construction so re-validating an unchanged context is
// deterministic.
type Context struct {
	Order    *order.Order
	Customer customer.Customer
	Products map[string]catalog.Product
	Types    map[string]catalog.ProductType
	Meta     *customer.Meta
	Now      time.Time
}

// NewContext builds a validation context pinned to the current time.
func NewContext(o *order.Order, c customer.Customer, products map[string]catalog.Product, types map[string]catalog.ProductType, meta *customer.Meta) Context {
	return Context{
		Order:    o,
		Customer: c,
		Products: products,
		Types:    types,
		Meta:     meta,
		Now:      time.Now(),
	}
}
