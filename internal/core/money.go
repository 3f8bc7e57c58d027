// Package core provides money parsing and handling utilities.
//
// Amounts are decimals. Values coming from user input are parsed strictly,
// values read back from persisted records are parsed defensively: anything
// that does not look like a number counts as zero.
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount. It marshals to a bare JSON number.
type Money struct {
	decimal.Decimal
}

// Zero returns a zero amount.
func Zero() Money {
	return Money{Decimal: decimal.Zero}
}

// NewMoney wraps a decimal.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MustMoney parses s and panics on failure. Intended for literals.
func MustMoney(s string) Money {
	return Money{Decimal: decimal.RequireFromString(s)}
}

func (m Money) Add(o Money) Money { return Money{Decimal: m.Decimal.Add(o.Decimal)} }
func (m Money) Sub(o Money) Money { return Money{Decimal: m.Decimal.Sub(o.Decimal)} }

// Max returns the larger of m and o.
func (m Money) Max(o Money) Money {
	if m.Decimal.GreaterThan(o.Decimal) {
		return m
	}
	return o
}

func (m Money) Equal(o Money) bool { return m.Decimal.Equal(o.Decimal) }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

// UnmarshalJSON accepts numbers and numeric strings; anything else is zero.
func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = Zero()
		return nil
	}
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		*m = Zero()
		return nil
	}
	*m = ParseAmount(raw)
	return nil
}

// ParseAmount converts a raw persisted value into Money. Non-numeric or
// missing values yield zero instead of an error.
func ParseAmount(v any) Money {
	switch n := v.(type) {
	case nil:
		return Zero()
	case Money:
		return n
	case decimal.Decimal:
		return Money{Decimal: n}
	case json.Number:
		return parseLenient(n.String())
	case string:
		return parseLenient(n)
	case float64:
		return Money{Decimal: decimal.NewFromFloat(n)}
	case float32:
		return Money{Decimal: decimal.NewFromFloat32(n)}
	case int:
		return Money{Decimal: decimal.NewFromInt(int64(n))}
	case int64:
		return Money{Decimal: decimal.NewFromInt(n)}
	case int32:
		return Money{Decimal: decimal.NewFromInt32(n)}
	default:
		return Zero()
	}
}

// Limits on amounts read from user input or storage. Exponent notation is
// never accepted, so maxAmountLength also bounds the expanded digit count.
const (
	MaxIntegerDigits  = 15
	MaxFractionDigits = 2
	maxAmountLength   = 32
)

var maxAmount = decimal.New(1, MaxIntegerDigits)

func parseLenient(s string) Money {
	d, err := parseDecimal(s)
	if err != nil {
		return Zero()
	}
	return Money{Decimal: d}
}

// parseDecimal accepts both dot (12.34) and comma (12,34) decimal separators.
// Exponent notation and overlong input are rejected.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountLength || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// parseUserAmount is parseDecimal plus the integer and fraction digit limits.
func parseUserAmount(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) || !d.Equal(d.Round(MaxFractionDigits)) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParsePositiveAmount parses user input that must be strictly greater than
// zero, as required for payments and increases.
func ParsePositiveAmount(s string) (Money, error) {
	d, err := parseUserAmount(s)
	if err != nil {
		return Money{}, err
	}
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Decimal: d}, nil
}

// ParseNonNegativeAmount parses user input for record amounts, which may be
// zero but never negative.
func ParseNonNegativeAmount(s string) (Money, error) {
	d, err := parseUserAmount(s)
	if err != nil {
		return Money{}, err
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Decimal: d}, nil
}

// Validate checks that the amount can be used for a ledger movement.
func (m Money) Validate() error {
	if !m.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
