package screener

import (
	"math"
	"sort"
)

// GradientColumns are colored direct: higher is better.
var GradientColumns = []string{
	"Gross Margin (%)", "EBIT Margin (%)", "EBITDA Margin (%)",
}

// InverseGradientColumns are valuation multiples: lower is better, so the
// scale is inverted.
var InverseGradientColumns = []string{
	"P/E", "EV/EBITDA", "EV/Sales", "P/FCF",
}

// Normalize computes a [0,1] color-scale value per row for one column.
// Bounds are the 5th and 95th percentiles of the present values; each value
// is clipped to those bounds and rescaled. Absent values stay absent and
// must render as "no color". With inverse set, the scale flips so that low
// values map toward 1.
func Normalize(values []*float64, inverse bool) []*float64 {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
			present = append(present, *v)
		}
	}

	out := make([]*float64, len(values))
	if len(present) == 0 {
		return out
	}

	lower := Percentile(present, 0.05)
	upper := Percentile(present, 0.95)
	if upper == lower {
		// Zero-variance column after clipping; emit absent rather than
		// dividing by zero.
		return out
	}

	for i, v := range values {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		clipped := math.Min(math.Max(*v, lower), upper)
		n := (clipped - lower) / (upper - lower)
		if inverse {
			n = 1 - n
		}
		out[i] = &n
	}
	return out
}

// Percentile returns the q-th quantile (0 ≤ q ≤ 1) of vals using linear
// interpolation between order statistics, matching the conventional
// dataframe quantile definition.
func Percentile(vals []float64, q float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
