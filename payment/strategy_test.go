package payment

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAmount = decimal.NewFromFloat(150.00)

func validCardData() Data {
	return Data{
		Method: MethodCreditCard,
		CreditCard: &CreditCardData{
			CardNumber:     "4111 1111 1111 1111",
			ExpiryDate:     "12/39",
			CVV:            "123",
			CardholderName: "Ana Souza",
		},
	}
}

func validPixData() Data {
	return Data{
		Method: MethodPix,
		Pix: &PixData{
			PixKey:       "ana@example.com",
			UserDocument: "12345678901",
		},
	}
}

func validBoletoData() Data {
	return Data{
		Method: MethodBoleto,
		Boleto: &BoletoData{
			UserDocument: "12.345.678/0001-95",
			UserName:     "Ana Souza",
			UserAddress:  "Rua das Flores 100, São Paulo",
		},
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" credit_card ")
	require.NoError(t, err)
	assert.Equal(t, MethodCreditCard, m)

	m, err = ParseMethod("PIX")
	require.NoError(t, err)
	assert.Equal(t, MethodPix, m)

	_, err = ParseMethod("BITCOIN")
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestCreditCardSuccess(t *testing.T) {
	s := NewCreditCardStrategy(NeverFail{})

	res := s.Process(testAmount, validCardData())

	assert.True(t, res.Success)
	assert.True(t, strings.HasPrefix(res.TransactionID, "CC-"))
	assert.Empty(t, res.ErrorMessage)
}

func TestCreditCardValidation(t *testing.T) {
	s := NewCreditCardStrategy(NeverFail{})

	mutate := func(f func(*CreditCardData)) Data {
		d := validCardData()
		f(d.CreditCard)
		return d
	}

	tests := []struct {
		name string
		data Data
	}{
		{"missing variant", Data{Method: MethodCreditCard}},
		{"short number", mutate(func(c *CreditCardData) { c.CardNumber = "4111" })},
		{"non-numeric number", mutate(func(c *CreditCardData) { c.CardNumber = "4111-1111-1111-1111" })},
		{"short cvv", mutate(func(c *CreditCardData) { c.CVV = "12" })},
		{"long cvv", mutate(func(c *CreditCardData) { c.CVV = "12345" })},
		{"expired card", mutate(func(c *CreditCardData) { c.ExpiryDate = "01/20" })},
		{"malformed expiry", mutate(func(c *CreditCardData) { c.ExpiryDate = "2030-01" })},
		{"blank name", mutate(func(c *CreditCardData) { c.CardholderName = "  " })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, s.Validate(tt.data))
			res := s.Process(testAmount, tt.data)
			assert.False(t, res.Success)
			assert.Equal(t, "invalid credit card data", res.ErrorMessage)
			assert.Empty(t, res.TransactionID)
		})
	}
}

func TestCreditCardExpiryBoundary(t *testing.T) {
	// a card expiring this month is good through the end of the month
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	s := NewCreditCardStrategy(NeverFail{}).WithClock(func() time.Time { return now })

	d := validCardData()
	d.CreditCard.ExpiryDate = "06/25"
	assert.True(t, s.Validate(d))

	d.CreditCard.ExpiryDate = "05/25"
	assert.False(t, s.Validate(d))
}

func TestCreditCardDecline(t *testing.T) {
	s := NewCreditCardStrategy(AlwaysFail{})

	res := s.Process(testAmount, validCardData())

	assert.False(t, res.Success)
	assert.Equal(t, "declined by bank", res.ErrorMessage)
	assert.Empty(t, res.TransactionID)
}

func TestPixSuccess(t *testing.T) {
	s := NewPixStrategy(NeverFail{})

	res := s.Process(testAmount, validPixData())

	assert.True(t, res.Success)
	assert.True(t, strings.HasPrefix(res.TransactionID, "PIX-"))
}

func TestPixKeyShapes(t *testing.T) {
	s := NewPixStrategy(NeverFail{})

	keys := map[string]bool{
		"ana@example.com":                      true,
		"12345678901":                          true, // CPF
		"12345678000195":                       true, // CNPJ
		"b7a2a4a0-9c1d-4d0a-8a3f-2f1e5c6d7e8f": true, // random key
		"":                                     false,
		"not a key":                            false,
		"12345":                                false,
		"ana@example":                          false,
	}

	for key, want := range keys {
		d := validPixData()
		d.Pix.PixKey = key
		assert.Equal(t, want, s.Validate(d), "key %q", key)
	}
}

func TestPixDocumentValidation(t *testing.T) {
	s := NewPixStrategy(NeverFail{})

	d := validPixData()
	d.Pix.UserDocument = "123.456.789-01" // punctuation is stripped
	assert.True(t, s.Validate(d))

	d.Pix.UserDocument = "1234"
	assert.False(t, s.Validate(d))

	res := s.Process(testAmount, d)
	assert.False(t, res.Success)
	assert.Equal(t, "invalid pix data", res.ErrorMessage)
}

func TestPixKeyNotFound(t *testing.T) {
	s := NewPixStrategy(AlwaysFail{})

	res := s.Process(testAmount, validPixData())

	assert.False(t, res.Success)
	assert.Equal(t, "pix key not found", res.ErrorMessage)
}

func TestBoletoIsDeterministic(t *testing.T) {
	s := NewBoletoStrategy()

	// no failure channel: issuance always succeeds on valid data
	for i := 0; i < 50; i++ {
		res := s.Process(testAmount, validBoletoData())
		require.True(t, res.Success)
		require.True(t, strings.HasPrefix(res.TransactionID, "BOL-"))
	}
}

func TestBoletoValidation(t *testing.T) {
	s := NewBoletoStrategy()

	d := validBoletoData()
	d.Boleto.UserAddress = " "
	assert.False(t, s.Validate(d))

	d = validBoletoData()
	d.Boleto.UserName = ""
	assert.False(t, s.Validate(d))

	d = validBoletoData()
	d.Boleto.UserDocument = "99"
	res := s.Process(testAmount, d)
	assert.False(t, res.Success)
	assert.Equal(t, "invalid boleto data", res.ErrorMessage)
}

func TestDispatcher(t *testing.T) {
	d := NewDefaultDispatcher(NeverFail{})

	for _, m := range Methods() {
		s, err := d.CreateStrategy(m)
		require.NoError(t, err)
		assert.Equal(t, m, s.Method())
	}

	_, err := d.CreateStrategy("BITCOIN")
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestProcessorSwapsStrategies(t *testing.T) {
	p := NewProcessor(NewCreditCardStrategy(NeverFail{}))
	assert.Equal(t, MethodCreditCard, p.CurrentMethod())
	assert.True(t, p.ValidatePaymentData(validCardData()))

	p.Use(NewPixStrategy(NeverFail{}))
	assert.Equal(t, MethodPix, p.CurrentMethod())
	assert.False(t, p.ValidatePaymentData(validCardData()))

	res := p.ProcessPayment(testAmount, validPixData())
	assert.True(t, res.Success)
	assert.True(t, strings.HasPrefix(res.TransactionID, "PIX-"))
}
