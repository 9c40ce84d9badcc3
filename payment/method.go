package payment

import (
	"errors"
	"fmt"
	"strings"
)

// Method identifies a supported payment method.
type Method string

const (
	MethodCreditCard Method = "CREDIT_CARD"
	MethodPix        Method = "PIX"
	MethodBoleto     Method = "BOLETO"
)

// ErrUnsupportedMethod is returned when a payment method is not recognized
// or has no registered strategy.
var ErrUnsupportedMethod = errors.New("payment: unsupported payment method")

// Methods lists the recognized methods in a stable order.
func Methods() []Method {
	return []Method{MethodCreditCard, MethodPix, MethodBoleto}
}

// ParseMethod normalizes and validates a method string.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToUpper(strings.TrimSpace(s))) {
	case MethodCreditCard:
		return MethodCreditCard, nil
	case MethodPix:
		return MethodPix, nil
	case MethodBoleto:
		return MethodBoleto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
	}
}
