package customer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Customer is the buyer view the pipeline consumes.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HasValidEmail reports whether the customer's email is well-formed.
func (c Customer) HasValidEmail() bool {
	return emailPattern.MatchString(strings.TrimSpace(c.Email))
}

// HasValidName requires at least two characters after trimming.
func (c Customer) HasValidName() bool {
	return len(strings.TrimSpace(c.Name)) >= 2
}

// Meta carries optional per-request customer attributes that only some
// validation handlers consume.
type Meta struct {
	CreditLimit    *decimal.Decimal `json:"credit_limit,omitempty"`
	DeliveryRegion string           `json:"delivery_region,omitempty"`
	VIP            bool             `json:"vip,omitempty"`
}
