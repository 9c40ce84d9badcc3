package catalog

import (
	"github.com/shopspring/decimal"
)

// ProductType drives the stock reservation policy for a product.
type ProductType string

const (
	TypePhysical ProductType = "PHYSICAL"
	TypeDigital  ProductType = "DIGITAL"
	TypeService  ProductType = "SERVICE"
)

// DigitalCapacity is the stock proxy for digital products. Digital goods
// are not truly scarce; the sentinel keeps the reservation policy uniform.
const DigitalCapacity = 999999

// Product is the catalog view the pipeline consumes. Stock counts units for
// physical products and available slots for services.
type Product struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock"`
	Active bool            `json:"active"`
}

// Available reports whether the product can be ordered at all: it must be
// active and have stock (or slots) remaining.
func (p Product) Available() bool {
	return p.Active && p.Stock > 0
}

// AvailableFor returns the reservable quantity under the policy for t.
func (p Product) AvailableFor(t ProductType) int {
	if t == TypeDigital {
		return DigitalCapacity
	}
	return p.Stock
}
