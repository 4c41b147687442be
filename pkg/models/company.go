// Package models defines the core data structures used throughout Sector Screen.
package models

// CompanyRecord is one fully enriched row of the screening table.
// Monetary fields are USD millions; margin and weight fields are percentages.
// Numeric fields are pointers because upstream data is frequently incomplete:
// a nil value means "not reported", which is distinct from zero.
type CompanyRecord struct {
	Name         string   `json:"name"`
	Ticker       string   `json:"ticker"`
	Revenue      *float64 `json:"revenue_musd"`
	MarketCap    *float64 `json:"market_cap_musd"`
	GrossMargin  *float64 `json:"gross_margin_pct"`
	EBITMargin   *float64 `json:"ebit_margin_pct"`
	EBITDAMargin *float64 `json:"ebitda_margin_pct"`
	PE           *float64 `json:"pe"`
	EVEBITDA     *float64 `json:"ev_ebitda"`
	EVSales      *float64 `json:"ev_sales"`
	PFCF         *float64 `json:"p_fcf"`
	MarketWeight *float64 `json:"market_weight_pct"`
	Industry     string   `json:"industry"`
	Rating       string   `json:"rating"`
}

// Columns returns the canonical column ordering for display and export.
func Columns() []string {
	return []string{
		"Name", "Ticker", "Revenue (M USD)", "Market Cap (M USD)", "Gross Margin (%)",
		"EBIT Margin (%)", "EBITDA Margin (%)", "P/E", "EV/EBITDA", "EV/Sales",
		"P/FCF", "Market Weight (%)", "Industry", "Rating",
	}
}

// IndustryCompany is one pre-enrichment row as returned by an industry
// company-table lookup. MarketWeight is the raw fraction from upstream.
type IndustryCompany struct {
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	MarketWeight *float64 `json:"market_weight,omitempty"`
	Rating       string   `json:"rating,omitempty"`
	Industry     string   `json:"industry,omitempty"` // tag applied during aggregation
}

// Fundamentals holds the raw per-ticker values fetched from the upstream
// data API. Margins are fractions (0.42 = 42%); monetary values are in the
// reporting currency, unscaled. Any field may be missing.
type Fundamentals struct {
	Ticker          string   `json:"ticker"`
	Currency        string   `json:"currency"`
	Revenue         *float64 `json:"revenue,omitempty"`
	MarketCap       *float64 `json:"market_cap,omitempty"`
	FreeCashFlow    *float64 `json:"free_cash_flow,omitempty"`
	GrossMargin     *float64 `json:"gross_margin,omitempty"`
	EBITMargin      *float64 `json:"ebit_margin,omitempty"`
	OperatingMargin *float64 `json:"operating_margin,omitempty"`
	EBITDAMargin    *float64 `json:"ebitda_margin,omitempty"`
	TrailingPE      *float64 `json:"trailing_pe,omitempty"`
	EVToEBITDA      *float64 `json:"ev_to_ebitda,omitempty"`
	EVToRevenue     *float64 `json:"ev_to_revenue,omitempty"`
}

// Float returns a pointer to v. Convenience for building optional fields.
func Float(v float64) *float64 { return &v }
