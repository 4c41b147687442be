package utils

import (
	"math"
	"strconv"
)

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round2Ptr rounds an optional value to two decimal places, preserving nil.
// Non-finite values (NaN, ±Inf) collapse to nil so they never reach output.
func Round2Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	r := Round2(*v)
	return &r
}

// FormatOptional renders an optional numeric for display: two decimals, or
// the empty string when the value is absent.
func FormatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(Round2(*v), 'f', 2, 64)
}

// ParseOptional parses a cell value back into an optional numeric.
// Empty or non-numeric strings yield nil.
func ParseOptional(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
