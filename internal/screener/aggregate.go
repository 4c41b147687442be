package screener

import (
	"context"

	"github.com/investia/sectorscreen/internal/datasource"
	"github.com/investia/sectorscreen/pkg/models"
)

// Screener wires the catalog and enricher over one data source and drives
// the full selection → table pipeline.
type Screener struct {
	src      datasource.DataSource
	catalog  *Catalog
	enricher *Enricher
}

// New creates a screener over the given data source with the default static
// rate table.
func New(src datasource.DataSource) *Screener {
	return NewWithRates(src, DefaultRates())
}

// NewWithRates creates a screener with a custom rate provider.
func NewWithRates(src datasource.DataSource, rates RateProvider) *Screener {
	return &Screener{
		src:      src,
		catalog:  NewCatalog(src),
		enricher: NewEnricher(src, rates),
	}
}

// Catalog returns the reference-data lookup.
func (s *Screener) Catalog() *Catalog { return s.catalog }

// Enricher returns the enrichment stage for direct use (upload ingestion).
func (s *Screener) Enricher() *Enricher { return s.enricher }

// Combine fetches the company table for every selected industry, tags rows
// with their industry name, concatenates in selection order, and enriches
// the combined table. Industries that fail or come back empty are skipped;
// if nothing survives the result is an empty table, not an error.
func (s *Screener) Combine(ctx context.Context, industries []models.Industry, method models.RankMethod) Table {
	var combined []models.IndustryCompany
	for _, ind := range industries {
		rows, err := s.src.Companies(ctx, ind.Key, method)
		if err != nil || len(rows) == 0 {
			continue
		}
		for _, row := range rows {
			row.Industry = ind.Name
			combined = append(combined, row)
		}
	}
	if len(combined) == 0 {
		return Table{}
	}
	return s.enricher.Enrich(ctx, combined)
}
