package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BoletoStrategy issues a boleto for later settlement. Issuance is
// deterministic; there is no simulated gateway failure.
type BoletoStrategy struct{}

// NewBoletoStrategy builds the strategy.
func NewBoletoStrategy() *BoletoStrategy {
	return &BoletoStrategy{}
}

func (s *BoletoStrategy) Method() Method { return MethodBoleto }

// Validate checks the payer document, name and address.
func (s *BoletoStrategy) Validate(data Data) bool {
	b := data.Boleto
	if b == nil {
		return false
	}
	if !validDocument(b.UserDocument) {
		return false
	}
	if strings.TrimSpace(b.UserName) == "" {
		return false
	}
	return strings.TrimSpace(b.UserAddress) != ""
}

func (s *BoletoStrategy) Process(amount decimal.Decimal, data Data) Result {
	start := time.Now()
	if !s.Validate(data) {
		return Result{
			Success:          false,
			ErrorMessage:     "invalid boleto data",
			ProcessingTimeMs: elapsedMs(start),
		}
	}
	return Result{
		Success:          true,
		TransactionID:    "BOL-" + uuid.NewString(),
		ProcessingTimeMs: elapsedMs(start),
	}
}
