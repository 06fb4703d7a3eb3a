// Package money provides exact monetary arithmetic for the pricing engine.
// All amounts are denominated in cents; per-base-unit prices are fractional
// cents (butter at $142.56 per 36/1LB case is 0.8731 cents per gram).
// NEVER use float64 for money calculations.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is a monetary amount in cents with full precision
type Cents struct {
	amount decimal.Decimal
}

// FromInt creates Cents from a whole cent count
func FromInt(cents int64) Cents {
	return Cents{amount: decimal.NewFromInt(cents)}
}

// FromString creates Cents from a decimal string
func FromString(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Cents{}, err
	}
	return Cents{amount: d}, nil
}

// MustFromString creates Cents from a decimal string, panicking on bad input.
// Intended for constants and tests.
func MustFromString(s string) Cents {
	c, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return c
}

// FromDecimal creates Cents from a decimal
func FromDecimal(d decimal.Decimal) Cents {
	return Cents{amount: d}
}

// Zero creates zero cents
func Zero() Cents {
	return Cents{amount: decimal.Zero}
}

// Decimal returns the underlying decimal amount
func (c Cents) Decimal() decimal.Decimal {
	return c.amount
}

// Add adds two amounts
func (c Cents) Add(other Cents) Cents {
	return Cents{amount: c.amount.Add(other.amount)}
}

// Sub subtracts an amount
func (c Cents) Sub(other Cents) Cents {
	return Cents{amount: c.amount.Sub(other.amount)}
}

// Mul multiplies by a scalar quantity
func (c Cents) Mul(factor decimal.Decimal) Cents {
	return Cents{amount: c.amount.Mul(factor)}
}

// Div divides by a scalar quantity
func (c Cents) Div(divisor decimal.Decimal) Cents {
	return Cents{amount: c.amount.Div(divisor)}
}

// Cmp compares two amounts: -1 if c < other, 0 if equal, 1 if c > other
func (c Cents) Cmp(other Cents) int {
	return c.amount.Cmp(other.amount)
}

// IsZero reports whether the amount is zero
func (c Cents) IsZero() bool {
	return c.amount.IsZero()
}

// IsNegative reports whether the amount is negative
func (c Cents) IsNegative() bool {
	return c.amount.IsNegative()
}

// RoundCents rounds to the currency minor unit (whole cents, half-up)
func (c Cents) RoundCents() int64 {
	return c.amount.Round(0).IntPart()
}

// Equal reports whether two amounts are exactly equal
func (c Cents) Equal(other Cents) bool {
	return c.amount.Equal(other.amount)
}

// String returns the raw cent amount (full precision)
func (c Cents) String() string {
	return c.amount.String()
}

// Dollars formats the amount as dollars with precision scaled to magnitude,
// matching how per-base-unit prices are displayed ($0.0087/g, $0.153/oz, $3.96/lb)
func (c Cents) Dollars() string {
	dollars := c.amount.Div(decimal.NewFromInt(100))
	switch {
	case dollars.Abs().LessThan(decimal.NewFromFloat(0.01)):
		return "$" + dollars.StringFixed(4)
	case dollars.Abs().LessThan(decimal.NewFromInt(1)):
		return "$" + dollars.StringFixed(3)
	default:
		return "$" + dollars.StringFixed(2)
	}
}

// PerUnit formats the amount as dollars per unit, e.g. "$0.0087/g"
func (c Cents) PerUnit(unit string) string {
	return fmt.Sprintf("%s/%s", c.Dollars(), unit)
}

// MarshalJSON encodes the cent amount as a JSON number
func (c Cents) MarshalJSON() ([]byte, error) {
	return c.amount.MarshalJSON()
}

// UnmarshalJSON decodes a JSON number into a cent amount
func (c *Cents) UnmarshalJSON(data []byte) error {
	return c.amount.UnmarshalJSON(data)
}
