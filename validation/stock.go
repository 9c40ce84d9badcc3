package validation

import (
	"fmt"

	"github.com/aswathylr-builds/order-pipeline/catalog"
)

// StockHandler checks every line against the reservation policy for the
// product's type: physical products need stock, digital products use the
// capacity sentinel, services need free slots.
type StockHandler struct{}

func (StockHandler) Name() string { return "stock" }

func (StockHandler) Validate(ctx Context) Result {
	res := OK()
	stockMeta := make(map[string]any)

	for _, line := range ctx.Order.Lines() {
		p, ok := ctx.Products[line.ProductID]
		if !ok {
			res.addError(fmt.Sprintf("product %s not found", line.ProductID))
			continue
		}
		t, ok := ctx.Types[line.ProductID]
		if !ok {
			t = catalog.TypePhysical
		}
		available := p.AvailableFor(t)
		stockMeta[line.ProductID] = map[string]any{
			"available": available,
			"requested": line.Quantity,
			"type":      string(t),
		}

		switch t {
		case catalog.TypePhysical:
			if available < line.Quantity {
				res.addError(fmt.Sprintf("insufficient stock for product %s: available %d, requested %d", p.ID, available, line.Quantity))
			} else if available < 2*line.Quantity {
				res.addWarning(fmt.Sprintf("low stock for product %s: available %d, requested %d", p.ID, available, line.Quantity))
			}
		case catalog.TypeDigital:
			if available < line.Quantity {
				res.addError(fmt.Sprintf("digital capacity exceeded for product %s", p.ID))
			}
		case catalog.TypeService:
			if available < line.Quantity {
				res.addError(fmt.Sprintf("not enough available slots for service %s: available %d, requested %d", p.ID, available, line.Quantity))
			}
		}
	}

	res.setMetadata("stockValidation", stockMeta)
	return res
}
