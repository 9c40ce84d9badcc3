package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditCardStrategy charges a credit card against a simulated gateway.
type CreditCardStrategy struct {
	failures FailureSource
	now      func() time.Time
}

// NewCreditCardStrategy builds the strategy. A nil failure source falls
// back to the seeded random source.
func NewCreditCardStrategy(failures FailureSource) *CreditCardStrategy {
	if failures == nil {
		failures = NewRandomFailureSource()
	}
	return &CreditCardStrategy{failures: failures, now: time.Now}
}

// WithClock overrides the clock used for expiry checks. Test hook.
func (s *CreditCardStrategy) WithClock(now func() time.Time) *CreditCardStrategy {
	s.now = now
	return s
}

func (s *CreditCardStrategy) Method() Method { return MethodCreditCard }

// Validate checks card number, expiry, cvv and cardholder name.
func (s *CreditCardStrategy) Validate(data Data) bool {
	cc := data.CreditCard
	if cc == nil {
		return false
	}
	number := stripSpaces(cc.CardNumber)
	if len(number) != 16 || !allDigits(number) {
		return false
	}
	if !expiryInFuture(cc.ExpiryDate, s.now()) {
		return false
	}
	if l := len(cc.CVV); l < 3 || l > 4 || !allDigits(cc.CVV) {
		return false
	}
	if strings.TrimSpace(cc.CardholderName) == "" {
		return false
	}
	return true
}

func (s *CreditCardStrategy) Process(amount decimal.Decimal, data Data) Result {
	start := time.Now()
	if !s.Validate(data) {
		return Result{
			Success:          false,
			ErrorMessage:     "invalid credit card data",
			ProcessingTimeMs: elapsedMs(start),
		}
	}
	if s.failures.Fail(creditCardFailureRate) {
		return Result{
			Success:          false,
			ErrorMessage:     "declined by bank",
			ProcessingTimeMs: elapsedMs(start),
		}
	}
	return Result{
		Success:          true,
		TransactionID:    "CC-" + uuid.NewString(),
		ProcessingTimeMs: elapsedMs(start),
	}
}

// expiryInFuture parses MM/YY and reports whether the card is still valid
// strictly after now. A card expiring this month is accepted through the
// end of the month.
func expiryInFuture(expiry string, now time.Time) bool {
	parts := strings.Split(strings.TrimSpace(expiry), "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return false
	}
	if !allDigits(parts[0]) || !allDigits(parts[1]) {
		return false
	}
	month := int(parts[0][0]-'0')*10 + int(parts[0][1]-'0')
	year := 2000 + int(parts[1][0]-'0')*10 + int(parts[1][1]-'0')
	if month < 1 || month > 12 {
		return false
	}
	// first instant of the month after expiry
	expiresAt := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return now.Before(expiresAt)
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
