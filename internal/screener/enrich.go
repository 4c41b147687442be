package screener

import (
	"context"

	"github.com/investia/sectorscreen/internal/datasource"
	"github.com/investia/sectorscreen/pkg/models"
	"github.com/investia/sectorscreen/pkg/utils"
)

// millionsDivisor scales raw monetary values to millions.
const millionsDivisor = 1_000_000

// Enricher turns pre-enrichment company rows into fully computed records by
// fetching fundamentals per ticker and deriving the display metrics.
type Enricher struct {
	src   datasource.DataSource
	rates RateProvider
}

// NewEnricher creates an enricher over the given data source and rate table.
func NewEnricher(src datasource.DataSource, rates RateProvider) *Enricher {
	if rates == nil {
		rates = DefaultRates()
	}
	return &Enricher{src: src, rates: rates}
}

// Enrich fetches fundamentals for every input row and emits the enriched
// table in the same order. A failed fetch degrades that row to absent
// fundamentals; it never aborts the batch.
func (e *Enricher) Enrich(ctx context.Context, rows []models.IndustryCompany) Table {
	out := make(Table, 0, len(rows))
	for _, row := range rows {
		fund, err := e.src.Fundamentals(ctx, row.Symbol)
		if err != nil {
			fund = &models.Fundamentals{Ticker: row.Symbol, Currency: "USD"}
		}
		out = append(out, e.enrichRow(row, fund))
	}
	return out
}

// enrichRow computes one record from a source row and its raw fundamentals.
func (e *Enricher) enrichRow(row models.IndustryCompany, f *models.Fundamentals) models.CompanyRecord {
	rate := e.rates.Rate(f.Currency)

	rec := models.CompanyRecord{
		Name:     row.Name,
		Ticker:   row.Symbol,
		Industry: row.Industry,
		Rating:   row.Rating,
	}

	rec.Revenue = toMillionsUSD(f.Revenue, rate)
	rec.MarketCap = toMillionsUSD(f.MarketCap, rate)
	freeCashFlow := toMillionsUSD(f.FreeCashFlow, rate)

	rec.GrossMargin = toPercent(f.GrossMargin)
	rec.EBITDAMargin = toPercent(f.EBITDAMargin)

	// EBIT margin prefers the direct field, falling back to operating margin.
	ebit := f.EBITMargin
	if ebit == nil {
		ebit = f.OperatingMargin
	}
	rec.EBITMargin = toPercent(ebit)

	rec.PE = f.TrailingPE
	rec.EVEBITDA = f.EVToEBITDA
	rec.EVSales = f.EVToRevenue

	// P/FCF requires both operands; a zero free cash flow stays absent
	// rather than producing Inf.
	if rec.MarketCap != nil && freeCashFlow != nil && *freeCashFlow != 0 {
		rec.PFCF = models.Float(*rec.MarketCap / *freeCashFlow)
	}

	rec.MarketWeight = toPercent(row.MarketWeight)

	return roundRecord(rec)
}

// toMillionsUSD converts a raw monetary value to USD millions. Absent stays
// absent; it is never defaulted to zero.
func toMillionsUSD(v *float64, rate float64) *float64 {
	if v == nil {
		return nil
	}
	return models.Float(*v * rate / millionsDivisor)
}

// toPercent converts a fraction to a percentage, preserving absence.
func toPercent(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return models.Float(*v * 100)
}

// roundRecord rounds every numeric field to two decimals for display.
func roundRecord(rec models.CompanyRecord) models.CompanyRecord {
	rec.Revenue = utils.Round2Ptr(rec.Revenue)
	rec.MarketCap = utils.Round2Ptr(rec.MarketCap)
	rec.GrossMargin = utils.Round2Ptr(rec.GrossMargin)
	rec.EBITMargin = utils.Round2Ptr(rec.EBITMargin)
	rec.EBITDAMargin = utils.Round2Ptr(rec.EBITDAMargin)
	rec.PE = utils.Round2Ptr(rec.PE)
	rec.EVEBITDA = utils.Round2Ptr(rec.EVEBITDA)
	rec.EVSales = utils.Round2Ptr(rec.EVSales)
	rec.PFCF = utils.Round2Ptr(rec.PFCF)
	rec.MarketWeight = utils.Round2Ptr(rec.MarketWeight)
	return rec
}
