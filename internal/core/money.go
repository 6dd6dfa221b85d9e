// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Decimal arithmetic (percentages,
// averages) goes through shopspring/decimal so that no float rounding leaks
// into reports.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	// largest amount whose cents still fit in an int64
	maxAmount = decimal.New(1<<63-1, -2)
)

// ParseAmount converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Zero, negative and signed values are
// rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents
//	ParseAmount("-1")     -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		// decimal accepts exponents; amounts typed by a person never have one
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.GreaterThan(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Cents: d.Mul(hundred).Round(0).IntPart()}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// NewMoney builds Money from a whole-unit integer and a cent remainder.
func NewMoney(units, cents int64) Money {
	return Money{Cents: units*100 + cents}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two decimals, e.g. "-12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

// Percent returns part/total*100. ok is false when total is zero, in which
// case the ratio is not applicable.
func Percent(part, total Money) (pct decimal.Decimal, ok bool) {
	if total.Cents == 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(part.Cents).Mul(hundred).Div(decimal.NewFromInt(total.Cents)), true
}

// Average divides total by n and rounds half-up to the cent. n <= 0 yields
// zero.
func Average(total Money, n int) Money {
	if n <= 0 {
		return Money{}
	}
	avg := decimal.NewFromInt(total.Cents).Div(decimal.NewFromInt(int64(n))).Round(0)
	return Money{Cents: avg.IntPart()}
}
