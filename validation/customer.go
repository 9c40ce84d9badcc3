package validation

import (
	"fmt"
	"strings"

	"github.com/aswathylr-builds/order-pipeline/payment"
)

// allowedRegions is the delivery allow-list (BR macro-regions).
var allowedRegions = map[string]bool{
	"north":        true,
	"northeast":    true,
	"central-west": true,
	"southeast":    true,
	"south":        true,
}

// CustomerHandler checks buyer eligibility: contact data shape, credit
// limit for card orders, and the delivery region allow-list.
type CustomerHandler struct{}

func (CustomerHandler) Name() string { return "customer" }

func (CustomerHandler) Validate(ctx Context) Result {
	res := OK()
	c := ctx.Customer

	if !c.HasValidEmail() {
		res.addError(fmt.Sprintf("customer email %q is not well-formed", c.Email))
	}
	if !c.HasValidName() {
		res.addError("customer name must have at least 2 characters")
	}

	meta := map[string]any{"customerId": c.ID}
	if ctx.Meta != nil {
		if ctx.Meta.CreditLimit != nil && ctx.Order.PaymentMethod() == payment.MethodCreditCard {
			limit := *ctx.Meta.CreditLimit
			meta["creditLimit"] = limit.StringFixed(2)
			if ctx.Order.Total().GreaterThan(limit) {
				res.addError(fmt.Sprintf("order total %s exceeds credit limit %s", ctx.Order.Total().StringFixed(2), limit.StringFixed(2)))
			}
		}
		if region := strings.ToLower(strings.TrimSpace(ctx.Meta.DeliveryRegion)); region != "" {
			meta["deliveryRegion"] = region
			if !allowedRegions[region] {
				res.addError(fmt.Sprintf("delivery region %q is not served", region))
			}
		}
		if ctx.Meta.VIP {
			meta["vip"] = true
			res.addWarning("vip customer: priority handling applies")
		}
	}

	res.setMetadata("customerValidation", meta)
	return res
}
