// Package core provides money parsing and handling utilities.
//
// This file contains the amount parser used at every ingestion boundary and
// the Optional type used for figures that may be undefined (ratios with a
// zero denominator, fields an upstream aggregate did not supply).
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to a decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an
// optional leading sign and surrounding whitespace. Thousands separators are
// not supported: "1,234.5" is rejected rather than guessed.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-40")   -> -40, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrMissingAmount
	}
	if strings.Count(s, ",") > 0 && strings.Contains(s, ".") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Optional is a float figure that may be undefined.
type Optional struct {
	Value float64
	Valid bool
}

func Some(v float64) Optional {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Optional{}
	}
	return Optional{Value: v, Valid: true}
}

func None() Optional { return Optional{} }

// OrZero returns the value, or 0 when undefined.
func (o Optional) OrZero() float64 {
	if !o.Valid {
		return 0
	}
	return o.Value
}

// Format renders the value with the given precision, or "—" when undefined.
func (o Optional) Format(prec int) string {
	if !o.Valid {
		return "—"
	}
	return strconv.FormatFloat(o.Value, 'f', prec, 64)
}
