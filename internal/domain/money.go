package domain

import (
	"fmt"
	"math"
)

// Money is a currency amount in minor units (cents). Totals and prices
// stay integers end to end so report formatting is the only place a
// decimal point ever appears.
type Money int64

func MoneyFromUnits(units, cents int64) Money {
	return Money(units*100 + cents)
}

func (m Money) Units() int64 {
	return int64(m) / 100
}

func (m Money) Cents() int64 {
	return int64(m) % 100
}

// String renders the amount as a currency string, e.g. "$12.34".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

// MulQuantity returns price times quantity, guarding against overflow.
func (m Money) MulQuantity(qty int) (Money, error) {
	if qty != 0 && int64(m) > math.MaxInt64/int64(qty) {
		return 0, fmt.Errorf("money overflow: %d * %d", int64(m), qty)
	}
	return m * Money(qty), nil
}
