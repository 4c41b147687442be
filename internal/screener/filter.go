package screener

// Filters holds the user-selected restrictions. A nil/zero field means "no
// restriction" for that axis; active filters compose as a conjunction.
type Filters struct {
	CapMin  *float64 // inclusive lower bound on Market Cap (M USD)
	CapMax  *float64 // inclusive upper bound on Market Cap (M USD)
	TopN    int      // keep only the N largest by market cap, 0 = unlimited
	Ratings []string // keep only rows whose Rating is in this set, empty = all
}

// Apply returns a new table with all active filters applied, sorted by
// market cap descending. TopN is defined over the range-filtered set, so the
// range filter runs first; the rating filter can shrink the result below N.
func (f Filters) Apply(t Table) Table {
	out := make(Table, 0, len(t))
	for _, rec := range t {
		if !f.capInRange(rec.MarketCap) {
			continue
		}
		out = append(out, rec)
	}

	out.SortByMarketCap()

	if f.TopN > 0 && len(out) > f.TopN {
		out = out[:f.TopN]
	}

	if len(f.Ratings) > 0 {
		allowed := make(map[string]bool, len(f.Ratings))
		for _, r := range f.Ratings {
			allowed[r] = true
		}
		kept := out[:0]
		for _, rec := range out {
			if allowed[rec.Rating] {
				kept = append(kept, rec)
			}
		}
		out = kept
	}

	return out
}

func (f Filters) capInRange(cap *float64) bool {
	if f.CapMin == nil && f.CapMax == nil {
		return true
	}
	if cap == nil {
		// A range filter is active but the row has no market cap.
		return false
	}
	if f.CapMin != nil && *cap < *f.CapMin {
		return false
	}
	if f.CapMax != nil && *cap > *f.CapMax {
		return false
	}
	return true
}
