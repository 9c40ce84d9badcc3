package payment

import (
	"github.com/shopspring/decimal"
)

// Strategy is one payment-method-specific processing algorithm. Process
// always runs Validate before any side effect: invalid data yields a failed
// Result without simulating a transaction, so an invalid-data failure is
// distinguishable from a gateway decline via ErrorMessage.
type Strategy interface {
	Method() Method
	Validate(data Data) bool
	Process(amount decimal.Decimal, data Data) Result
}

// Simulated gateway failure probabilities. Boleto issuance is deterministic
// and has no failure channel.
const (
	creditCardFailureRate = 0.05
	pixFailureRate        = 0.01
)
