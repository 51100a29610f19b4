// Package money provides integer-cent monetary amounts and parsing.
//
// All ledger arithmetic is done in cents to keep sums exact; float64 is
// only ever produced for display.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidAmount = errors.New("invalid monetary amount")

// Cents is a monetary amount in centavos (hundredths of a real).
type Cents int64

// Reais returns the amount as a float64 for display purposes only.
// Use Cents for all calculations to avoid floating-point drift.
func (c Cents) Reais() float64 {
	return float64(c) / 100.0
}

// String formats the amount as Brazilian currency, e.g. "R$ 1234,56".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%sR$ %d,%02d", sign, v/100, v%100)
}

// ParseDecimal converts a decimal string to cents with half-up rounding on
// the third decimal place. Both dot (12.34) and comma (12,34) separators are
// accepted. Only positive amounts are valid.
//
// Examples:
//
//	ParseDecimal("12.34") -> 1234, nil
//	ParseDecimal("12,34") -> 1234, nil
//	ParseDecimal("12.346") -> 1235, nil (rounds up)
func ParseDecimal(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}

	// First two fractional digits, then half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return Cents(cents), nil
}
