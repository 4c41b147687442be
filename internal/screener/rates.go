package screener

// RateProvider converts a reporting currency to a USD multiplier.
// Production uses the fixed StaticRates table; a live FX feed can be swapped
// in behind this interface without touching the enrichment code.
type RateProvider interface {
	// Rate returns the currency → USD conversion factor. Unknown currencies
	// return 1.0, which treats them as USD. That is a known approximation.
	Rate(currency string) float64
}

// StaticRates is the built-in fixed conversion table.
type StaticRates map[string]float64

// DefaultRates returns the standard static table.
func DefaultRates() StaticRates {
	return StaticRates{
		"USD": 1.0,
		"EUR": 1.1,
		"GBP": 1.3,
		"JPY": 0.007,
		"CAD": 0.75,
	}
}

// Rate implements RateProvider.
func (r StaticRates) Rate(currency string) float64 {
	if rate, ok := r[currency]; ok {
		return rate
	}
	return 1.0
}
