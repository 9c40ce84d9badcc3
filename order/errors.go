package order

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is wrapped by every illegal order-status
	// transition attempt. State never changes on a rejected transition.
	ErrInvalidTransition = errors.New("order: invalid status transition")

	// ErrInvalidPaymentTransition is wrapped by illegal payment-status
	// transition attempts.
	ErrInvalidPaymentTransition = errors.New("order: invalid payment status transition")

	// ErrOrderLocked is returned by line mutations once the order has left
	// the pending state.
	ErrOrderLocked = errors.New("order: lines are locked")

	// ErrEmptyOrder is returned when an operation would leave the order
	// without any line.
	ErrEmptyOrder = errors.New("order: at least one line is required")

	ErrMissingCustomer  = errors.New("order: customer id is required")
	ErrMissingProduct   = errors.New("order: product id is required")
	ErrInvalidQuantity  = errors.New("order: quantity must be greater than zero")
	ErrInvalidUnitPrice = errors.New("order: unit price must be greater than zero")
	ErrLineNotFound     = errors.New("order: line not found")

	// ErrUnknownStatus and ErrUnknownPaymentStatus are returned by
	// FromSnapshot for persisted values outside the enums.
	ErrUnknownStatus        = errors.New("order: unknown status")
	ErrUnknownPaymentStatus = errors.New("order: unknown payment status")
)

func transitionError(op string, from Status, to Status) error {
	return fmt.Errorf("%w: %s from %s to %s", ErrInvalidTransition, op, from, to)
}

func paymentTransitionError(op string, from PaymentStatus, to PaymentStatus) error {
	return fmt.Errorf("%w: %s from %s to %s", ErrInvalidPaymentTransition, op, from, to)
}
