// Package money provides fixed-point monetary arithmetic with a scale of
// two fractional digits and a single rounding rule (round half away from
// zero). Every Money value visible outside this package has already been
// rounded to scale; intermediate math may carry more precision but must
// round before a value crosses a component boundary.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const scale = 2

var hundred = decimal.NewFromInt(100)

type Money struct {
	d decimal.Decimal
}

func Zero() Money {
	return Money{}
}

// FromString parses a decimal string such as "10.00" and rounds it to scale.
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{d: d.Round(scale)}, nil
}

// MustFromString is FromString for trusted literals; it panics on bad input.
func MustFromString(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func FromInt(units int64) Money {
	return Money{d: decimal.NewFromInt(units)}
}

func FromDecimal(d decimal.Decimal) Money {
	return Money{d: d.Round(scale)}
}

func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// MulInt multiplies by an integer quantity and rounds to scale.
func (m Money) MulInt(qty int64) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(qty)).Round(scale)}
}

// Percent computes value * p / 100 rounded to scale in a single step, so the
// same logical quantity is never rounded twice.
func (m Money) Percent(p decimal.Decimal) Money {
	return Money{d: m.d.Mul(p).Div(hundred).Round(scale)}
}

// SplitHalf divides the value into two halves whose sum is exactly the
// original: the first half is round(value/2), the second is the remainder.
func (m Money) SplitHalf() (Money, Money) {
	first := Money{d: m.d.Div(decimal.NewFromInt(2)).Round(scale)}
	return first, m.Sub(first)
}

// Floor10 returns value // 10 truncated toward zero, the loyalty points rule.
func (m Money) Floor10() int {
	return int(m.d.Abs().Div(decimal.NewFromInt(10)).IntPart())
}

func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

func (m Money) IsZero() bool {
	return m.d.IsZero()
}

func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// String renders the value with exactly two fractional digits, e.g. "35.40".
func (m Money) String() string {
	return m.d.StringFixed(scale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
