// Package screener implements the screening pipeline: reference-data lookup,
// per-industry aggregation, fundamentals enrichment, filtering/sorting, and
// the color-scale normalization used by styled exports.
package screener

import (
	"sort"

	"github.com/investia/sectorscreen/pkg/models"
)

// Table is an ordered sequence of enriched company records. Tickers are the
// logical key but duplicates are allowed; only upload ingestion deduplicates.
type Table []models.CompanyRecord

// Tickers returns the ticker column in row order.
func (t Table) Tickers() []string {
	out := make([]string, len(t))
	for i, rec := range t {
		out[i] = rec.Ticker
	}
	return out
}

// Column extracts a numeric column by canonical header name. Non-numeric
// columns return nil.
func (t Table) Column(name string) []*float64 {
	out := make([]*float64, len(t))
	for i, rec := range t {
		switch name {
		case "Revenue (M USD)":
			out[i] = rec.Revenue
		case "Market Cap (M USD)":
			out[i] = rec.MarketCap
		case "Gross Margin (%)":
			out[i] = rec.GrossMargin
		case "EBIT Margin (%)":
			out[i] = rec.EBITMargin
		case "EBITDA Margin (%)":
			out[i] = rec.EBITDAMargin
		case "P/E":
			out[i] = rec.PE
		case "EV/EBITDA":
			out[i] = rec.EVEBITDA
		case "EV/Sales":
			out[i] = rec.EVSales
		case "P/FCF":
			out[i] = rec.PFCF
		case "Market Weight (%)":
			out[i] = rec.MarketWeight
		default:
			return nil
		}
	}
	return out
}

// SortByMarketCap sorts the table by market cap descending, in place.
// The sort is stable; rows without a market cap sink to the bottom.
func (t Table) SortByMarketCap() {
	sort.SliceStable(t, func(i, j int) bool {
		a, b := t[i].MarketCap, t[j].MarketCap
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
}

// Append concatenates another table, preserving both row orders. Duplicate
// tickers across the two sources are kept.
func (t Table) Append(other Table) Table {
	return append(t, other...)
}
