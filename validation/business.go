package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aswathylr-builds/order-pipeline/catalog"
)

const (
	// MaxOrderLines caps the number of lines per order.
	MaxOrderLines = 10

	businessHoursStart = 8
	businessHoursEnd   = 18
)

// highValueThreshold triggers the outside-business-hours warning.
var highValueThreshold = decimal.NewFromInt(1000)

// BusinessRulesHandler enforces cross-line rules: line cap, duplicate
// products, fulfillment-category mixing and the business-hours window for
// high-value orders.
type BusinessRulesHandler struct{}

func (BusinessRulesHandler) Name() string { return "businessRules" }

func (BusinessRulesHandler) Validate(ctx Context) Result {
	res := OK()
	lines := ctx.Order.Lines()

	if len(lines) > MaxOrderLines {
		res.addError(fmt.Sprintf("order has %d lines, maximum is %d", len(lines), MaxOrderLines))
	}

	// The aggregate merges duplicate products on add; this guards callers
	// that construct orders through another path.
	seen := make(map[string]bool, len(lines))
	categories := make(map[catalog.ProductType]bool)
	for _, line := range lines {
		if seen[line.ProductID] {
			res.addError(fmt.Sprintf("duplicate product %s across lines", line.ProductID))
		}
		seen[line.ProductID] = true
		if t, ok := ctx.Types[line.ProductID]; ok {
			categories[t] = true
		}
	}

	if categories[catalog.TypePhysical] && categories[catalog.TypeDigital] {
		res.addWarning("order mixes physical and digital products: fulfillment will be coordinated separately")
	}
	if categories[catalog.TypeService] && (categories[catalog.TypePhysical] || categories[catalog.TypeDigital]) {
		res.addWarning("order mixes services with goods: scheduling and delivery are coordinated separately")
	}

	hour := ctx.Now.Hour()
	outsideHours := hour < businessHoursStart || hour >= businessHoursEnd
	if outsideHours && ctx.Order.Total().GreaterThan(highValueThreshold) {
		res.addWarning("high-value order placed outside business hours: processing may be delayed until the next window")
	}

	res.setMetadata("businessRulesValidation", map[string]any{
		"lineCount":     len(lines),
		"maxLines":      MaxOrderLines,
		"categories":    categoryList(categories),
		"businessHours": fmt.Sprintf("%02d:00-%02d:00", businessHoursStart, businessHoursEnd),
	})
	return res
}

func categoryList(set map[catalog.ProductType]bool) []string {
	out := make([]string, 0, len(set))
	for _, t := range []catalog.ProductType{catalog.TypePhysical, catalog.TypeDigital, catalog.TypeService} {
		if set[t] {
			out = append(out, string(t))
		}
	}
	return out
}
