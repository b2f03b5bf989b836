// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. The JSON form is a bare decimal number
// (1200, 1200.5) that round-trips without float drift.
package core

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact amount with two fraction digits.
type Money struct {
	Cents int64
}

// NewMoney builds a Money from whole units and cents, e.g. NewMoney(12, 34) is 12,34.
func NewMoney(units, cents int64) Money {
	return Money{Cents: units*100 + cents}
}

// MoneyFromDecimal converts d to cents, rounding half away from zero.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// Decimal returns the amount as a decimal.Decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Add returns m + o.
func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

// Sub returns m - o.
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Cents == 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Cents < 0 }

// Validate checks that the amount is strictly positive, as required for bills.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// String renders the amount with a dot and two decimals ("1200.50").
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON writes the amount as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	s := string(data)
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return ErrInvalidAmount
	}
	*m = MoneyFromDecimal(d)
	return nil
}

// ParseAmount converts user input to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an optional
// "R$" prefix and thousand separators when both separators are present
// ("1.234,56" or "1,234.56": the last one wins as decimal separator). A leading
// minus sign is kept so callers can reject negative values themselves.
//
// Examples:
//
//	ParseAmount("12,34")    -> 12.34
//	ParseAmount("R$ 1.234,5") -> 1234.50
//	ParseAmount("-3")       -> -3.00
func ParseAmount(s string) (Money, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	neg := strings.HasPrefix(cleaned, "-")
	cleaned = strings.TrimPrefix(cleaned, "-")
	if cleaned == "" || strings.Contains(cleaned, "-") {
		return Money{}, ErrInvalidAmount
	}

	comma := strings.LastIndex(cleaned, ",")
	dot := strings.LastIndex(cleaned, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			cleaned = strings.ReplaceAll(cleaned[:comma], ".", "") + "." + cleaned[comma+1:]
		} else {
			cleaned = strings.ReplaceAll(cleaned[:dot], ",", "") + cleaned[dot:]
		}
		if strings.ContainsAny(cleaned[:strings.LastIndex(cleaned, ".")], ",.") {
			return Money{}, ErrInvalidAmount
		}
	case comma >= 0:
		if strings.Count(cleaned, ",") > 1 {
			return Money{}, ErrInvalidAmount
		}
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case dot >= 0:
		if strings.Count(cleaned, ".") > 1 {
			return Money{}, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(cleaned, ".") {
		cleaned = "0" + cleaned
	}
	if strings.HasSuffix(cleaned, ".") {
		cleaned += "0"
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m := MoneyFromDecimal(d)
	if neg {
		m.Cents = -m.Cents
	}
	return m, nil
}

// FormatCurrency renders m in Brazilian reais, e.g. "R$ 1.234,56".
func FormatCurrency(m Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	units := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	frac := strconv.FormatInt(cents%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + "R$ " + b.String() + "," + frac
}

// ParsePositiveAmount parses s like ParseAmount and rejects zero or negative
// results. Bill amounts go through here.
func ParsePositiveAmount(s string) (Money, error) {
	m, err := ParseAmount(s)
	if err != nil {
		return Money{}, err
	}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}
