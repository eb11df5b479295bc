// Package core holds the domain types shared by the budget, expense and
// storage packages.
//
// This file contains the lenient amount type used for expense values that
// arrive from clients or from storage.
package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value that decodes leniently.
//
// A JSON number or numeric string yields a valid amount. Null, missing and
// non-numeric values yield an invalid amount whose value is zero; decoding
// never fails because of the amount alone.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// NewAmount wraps a decimal as a valid amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Value: d, Valid: true}
}

// MustAmount parses s and panics on failure. Intended for tests and constants.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseAmount parses a decimal string strictly.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Unparseable
// input returns a zero amount and a *DataError so callers can decide whether
// to report it.
func ParseAmount(raw string) (Amount, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Amount{}, &DataError{Field: "amount", Value: raw}
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, &DataError{Field: "amount", Value: raw}
	}
	return NewAmount(d), nil
}

// OrZero returns the value, or zero when the amount is invalid.
func (a Amount) OrZero() decimal.Decimal {
	if !a.Valid {
		return decimal.Zero
	}
	return a.Value
}

// String formats the amount with two decimals.
func (a Amount) String() string {
	return FormatAmount(a.OrZero())
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return a.Value.MarshalJSON()
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*a = Amount{}
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			*a = Amount{}
			return nil
		}
		s = str
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		*a = Amount{}
		return nil
	}
	*a = parsed
	return nil
}

// FormatAmount renders d with exactly two decimals, half-up.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
