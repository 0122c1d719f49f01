// README: Common money and id value objects used across modules.
package types

import "fmt"

// ID identifies sessions, stores and products. Values come from upstream systems unchanged.
type ID string

// Money is an amount in minor units (cents) plus an ISO currency code.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Major returns the amount in major units.
func (m Money) Major() float64 {
	return float64(m.Amount) / 100.0
}

func (m Money) String() string {
	cur := m.Currency
	if cur == "" {
		cur = "USD"
	}
	return fmt.Sprintf("%.2f %s", m.Major(), cur)
}
