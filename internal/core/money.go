// Package core provides money parsing and handling utilities.
//
// Amounts are carried as integer minor units everywhere in the ledger. Decimal
// strings only appear at the edges (HTTP forms, CLI flags) and are converted here.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Money is an amount in minor currency units.
type Money struct {
	Minor int64
}

func (m Money) Validate() error {
	if m.Minor <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Minor: m.Minor + o.Minor} }

// Mul multiplies by a count, e.g. contribution × member count.
func (m Money) Mul(n int) Money { return Money{Minor: m.Minor * int64(n)} }

// String renders the amount in major units with two decimals, e.g. "500.00".
func (m Money) String() string {
	return decimal.New(m.Minor, -2).StringFixed(2)
}

// Major returns the amount in major units for display purposes only.
func (m Money) Major() float64 {
	f, _ := decimal.New(m.Minor, -2).Float64()
	return f
}

// ParseDecimalToMinor converts a decimal string to minor units with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Negative,
// zero and malformed values are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseDecimalToMinor("50000")  -> 5000000, nil
//	ParseDecimalToMinor("12,34")  -> 1234, nil
//	ParseDecimalToMinor("12.345") -> 1235, nil
func ParseDecimalToMinor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	minor := d.Shift(2).Round(0)
	if !minor.IsPositive() || minor.GreaterThan(decimal.NewFromInt(maxMinor)) {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

const maxMinor = (1<<63 - 1) / 100
