package types

import (
	"github.com/shopspring/decimal"
)

// Money is a price or total in the store currency. It marshals as a bare
// JSON number and accepts numbers or numeric strings on input.
type Money struct {
	decimal.Decimal
}

func NewMoney(amount int64) Money {
	return Money{Decimal: decimal.NewFromInt(amount)}
}

func MoneyFromFloat(amount float64) Money {
	return Money{Decimal: decimal.NewFromFloat(amount)}
}

// ParseMoney parses a decimal string such as "1299.50".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Decimal: d}, nil
}

func (m Money) Add(other Money) Money {
	return Money{Decimal: m.Decimal.Add(other.Decimal)}
}

// Times multiplies the amount by a line quantity.
func (m Money) Times(qty int) Money {
	return Money{Decimal: m.Decimal.Mul(decimal.NewFromInt(int64(qty)))}
}

func (m Money) Equal(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}

// Display renders the amount with two decimals, e.g. "3000.00".
func (m Money) Display() string {
	return m.Decimal.StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	return m.Decimal.UnmarshalJSON(data)
}

// MarshalYAML keeps CLI yaml output numeric.
func (m Money) MarshalYAML() (any, error) {
	f, _ := m.Decimal.Float64()
	return f, nil
}
