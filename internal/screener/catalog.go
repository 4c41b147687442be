package screener

import (
	"context"
	"time"

	"github.com/investia/sectorscreen/internal/datasource"
)

// Catalog is the reference-data lookup: sector names and per-sector industry
// tables. Industry lookups are cached for the session and degrade to an
// empty map on upstream failure, so a flaky API never breaks a selection.
type Catalog struct {
	src   datasource.DataSource
	cache *datasource.Cache
}

// NewCatalog creates a catalog over the given data source.
func NewCatalog(src datasource.DataSource) *Catalog {
	return &Catalog{
		src:   src,
		cache: datasource.NewCache(time.Hour),
	}
}

// Sectors returns the fixed display-name → sector-key table.
func (c *Catalog) Sectors() map[string]string {
	return c.src.Sectors()
}

// Industries returns the display-name → industry-key table for a sector.
// Any upstream failure yields an empty map.
func (c *Catalog) Industries(ctx context.Context, sectorKey string) map[string]string {
	cacheKey := "industries:" + sectorKey
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(map[string]string)
	}

	industries, err := c.src.Industries(ctx, sectorKey)
	if err != nil {
		return map[string]string{}
	}

	c.cache.Set(cacheKey, industries)
	return industries
}
