package payment

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	pixEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	pixUUIDPattern  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// PixStrategy processes instant pix transfers. A pix key may be an email
// address, an 11-digit or 14-digit document number, or a random UUID key.
type PixStrategy struct {
	failures FailureSource
}

// NewPixStrategy builds the strategy. A nil failure source falls back to
// the seeded random source.
func NewPixStrategy(failures FailureSource) *PixStrategy {
	if failures == nil {
		failures = NewRandomFailureSource()
	}
	return &PixStrategy{failures: failures}
}

func (s *PixStrategy) Method() Method { return MethodPix }

// Validate checks the pix key shape and the payer document.
func (s *PixStrategy) Validate(data Data) bool {
	px := data.Pix
	if px == nil {
		return false
	}
	if !validPixKey(px.PixKey) {
		return false
	}
	return validDocument(px.UserDocument)
}

func (s *PixStrategy) Process(amount decimal.Decimal, data Data) Result {
	start := time.Now()
	if !s.Validate(data) {
		return Result{
			Success:          false,
			ErrorMessage:     "invalid pix data",
			ProcessingTimeMs: elapsedMs(start),
		}
	}
	if s.failures.Fail(pixFailureRate) {
		return Result{
			Success:          false,
			ErrorMessage:     "pix key not found",
			ProcessingTimeMs: elapsedMs(start),
		}
	}
	return Result{
		Success:          true,
		TransactionID:    "PIX-" + uuid.NewString(),
		ProcessingTimeMs: elapsedMs(start),
	}
}

func validPixKey(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	if pixEmailPattern.MatchString(key) || pixUUIDPattern.MatchString(key) {
		return true
	}
	digits := onlyDigits(key)
	return digits == key && (len(digits) == 11 || len(digits) == 14)
}

// validDocument accepts CPF (11 digits) or CNPJ (14 digits) after
// stripping punctuation.
func validDocument(doc string) bool {
	digits := onlyDigits(doc)
	return len(digits) == 11 || len(digits) == 14
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r < '0' || r > '9' {
			return -1
		}
		return r
	}, s)
}
