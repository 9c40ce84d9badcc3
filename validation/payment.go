package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aswathylr-builds/order-pipeline/payment"
)

// Pricing thresholds for the payment handler.
var (
	// MinimumOrderTotal is the smallest accepted order value.
	MinimumOrderTotal = decimal.NewFromInt(10)

	// creditCardReviewThreshold marks high-value card orders for extra
	// processing time.
	creditCardReviewThreshold = decimal.NewFromInt(5000)

	// boletoReviewThreshold marks high-value boleto orders, which settle
	// slowly to begin with.
	boletoReviewThreshold = decimal.NewFromInt(1000)
)

// PaymentHandler checks payment-method legality and order value rules.
type PaymentHandler struct{}

func (PaymentHandler) Name() string { return "payment" }

func (PaymentHandler) Validate(ctx Context) Result {
	res := OK()
	method := ctx.Order.PaymentMethod()
	total := ctx.Order.Total()

	if _, err := payment.ParseMethod(string(method)); err != nil {
		res.addError(fmt.Sprintf("unrecognized payment method %q", method))
	}

	if total.LessThan(MinimumOrderTotal) {
		res.addError(fmt.Sprintf("minimum order value is %s, got %s", MinimumOrderTotal.StringFixed(2), total.StringFixed(2)))
	}

	if method == payment.MethodCreditCard && total.GreaterThan(creditCardReviewThreshold) {
		res.addWarning(fmt.Sprintf("high-value credit card order (%s) may take extra processing time", total.StringFixed(2)))
	}
	if method == payment.MethodBoleto && total.GreaterThan(boletoReviewThreshold) {
		res.addWarning(fmt.Sprintf("high-value boleto order (%s) may take extra processing time", total.StringFixed(2)))
	}

	res.setMetadata("paymentValidation", map[string]any{
		"method":  string(method),
		"total":   total.StringFixed(2),
		"minimum": MinimumOrderTotal.StringFixed(2),
	})
	return res
}
