// Package utils provides small shared helpers: ticker normalization and
// numeric rounding/formatting.
package utils

import "strings"

// NormalizeTicker canonicalizes a user-supplied ticker symbol:
// whitespace trimmed, uppercased.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// SlugifyKey converts a display name to the lowercase hyphenated form the
// upstream API uses for sector and industry keys, e.g.
// "Consumer Cyclical" → "consumer-cyclical".
func SlugifyKey(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "&", "and")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, "-")
}
