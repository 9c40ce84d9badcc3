package pipeline

import (
	"fmt"

	"github.com/aswathylr-builds/order-pipeline/validation"
)

// FailureCode classifies pipeline rejections for callers. Codes are stable:
// transports map them to their own status scheme.
type FailureCode string

const (
	// CodeInvalidRequest covers request-shape problems caught before any
	// repository access.
	CodeInvalidRequest FailureCode = "INVALID_REQUEST"

	// CodeCustomerNotFound means the referenced customer does not exist.
	CodeCustomerNotFound FailureCode = "CUSTOMER_NOT_FOUND"

	// CodeProductsNotFound names product ids the catalog could not resolve.
	CodeProductsNotFound FailureCode = "PRODUCTS_NOT_FOUND"

	// CodeProductUnavailable means a referenced product is inactive or out
	// of stock by its own availability rule.
	CodeProductUnavailable FailureCode = "PRODUCT_UNAVAILABLE"

	// CodeValidationFailed carries the aggregated validation chain result.
	CodeValidationFailed FailureCode = "VALIDATION_FAILED"

	// CodePaymentFailed covers both invalid payment data and simulated
	// gateway declines; the message distinguishes them.
	CodePaymentFailed FailureCode = "PAYMENT_FAILED"

	// CodeStockConflict is the post-payment reservation race: payment was
	// captured but stock was claimed by a concurrent order. The payment
	// has been compensated.
	CodeStockConflict FailureCode = "STOCK_CONFLICT"
)

// Error is the structured rejection the pipeline returns. Validation is set
// only when the validation chain produced a result worth surfacing.
type Error struct {
	Code       FailureCode
	Message    string
	Validation *validation.Result
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline: %s: %s", e.Code, e.Message)
}

func failure(code FailureCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
