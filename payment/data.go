package payment

// Data carries method-specific payment details as a tagged union. Exactly
// one variant matching Method is expected to be set; strategies validate
// their own variant and ignore the rest.
type Data struct {
	Method     Method          `json:"method"`
	CreditCard *CreditCardData `json:"credit_card,omitempty"`
	Pix        *PixData        `json:"pix,omitempty"`
	Boleto     *BoletoData     `json:"boleto,omitempty"`
}

// CreditCardData is the input required to charge a credit card.
type CreditCardData struct {
	CardNumber     string `json:"card_number"`
	ExpiryDate     string `json:"expiry_date"` // MM/YY
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholder_name"`
}

// PixData is the input required for a pix transfer.
type PixData struct {
	PixKey       string `json:"pix_key"`
	UserDocument string `json:"user_document"`
}

// BoletoData is the input required to issue a boleto.
type BoletoData struct {
	UserDocument string `json:"user_document"`
	UserName     string `json:"user_name"`
	UserAddress  string `json:"user_address"`
}

// Result is the outcome of a processing attempt. TransactionID is set only
// on success; ErrorMessage only on failure.
type Result struct {
	Success          bool   `json:"success"`
	TransactionID    string `json:"transaction_id,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}
