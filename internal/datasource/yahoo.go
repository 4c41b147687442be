package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/investia/sectorscreen/pkg/models"
	"github.com/investia/sectorscreen/pkg/utils"
)

// Yahoo implements the DataSource interface using the Yahoo Finance API.
type Yahoo struct {
	baseURL string // query API base, e.g. https://query1.finance.yahoo.com
	siteURL string // public site base used by the HTML scrape fallback

	cache   *Cache
	limiter *RateLimiter
	group   singleflight.Group // collapses concurrent identical reference lookups
}

// NewYahoo creates a new Yahoo Finance data source.
func NewYahoo() *Yahoo {
	return &Yahoo{
		baseURL: "https://query1.finance.yahoo.com",
		siteURL: "https://finance.yahoo.com",
		cache:   NewCache(30 * time.Minute),
		limiter: NewRateLimiter(5, time.Second), // 5 req/s
	}
}

// Name returns the data source name.
func (y *Yahoo) Name() string { return "Yahoo Finance" }

// sectorKeys is the fixed top-level market classification. Yahoo has exactly
// these eleven sectors; there is no endpoint worth calling for them.
var sectorKeys = map[string]string{
	"Basic Materials":        "basic-materials",
	"Communication Services": "communication-services",
	"Consumer Cyclical":      "consumer-cyclical",
	"Consumer Defensive":     "consumer-defensive",
	"Energy":                 "energy",
	"Financial Services":     "financial-services",
	"Healthcare":             "healthcare",
	"Industrials":            "industrials",
	"Real Estate":            "real-estate",
	"Technology":             "technology",
	"Utilities":              "utilities",
}

// Sectors returns the fixed display-name → sector-key table.
func (y *Yahoo) Sectors() map[string]string {
	out := make(map[string]string, len(sectorKeys))
	for name, key := range sectorKeys {
		out[name] = key
	}
	return out
}

// --- Yahoo Finance API response types ---

// yfVal is Yahoo's wrapped numeric: {"raw": 123.4, "fmt": "123.40"}.
type yfVal struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

func fval(v *yfVal) *float64 {
	if v == nil {
		return nil
	}
	raw := v.Raw
	return &raw
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yfSectorResponse struct {
	Sectors struct {
		Result []yfSectorResult `json:"result"`
		Error  *yfError         `json:"error"`
	} `json:"sectors"`
}

type yfSectorResult struct {
	Key        string            `json:"key"`
	Name       string            `json:"name"`
	Industries []yfIndustryEntry `json:"industries"`
}

type yfIndustryEntry struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type yfIndustryResponse struct {
	Industries struct {
		Result []yfIndustryResult `json:"result"`
		Error  *yfError           `json:"error"`
	} `json:"industries"`
}

type yfIndustryResult struct {
	Key       string      `json:"key"`
	Name      string      `json:"name"`
	Companies []yfCompany `json:"companies"`
}

type yfCompany struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	MarketWeight *yfVal `json:"marketWeight"`
	Rating       string `json:"rating"`
}

type yfQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []yfQuoteSummaryResult `json:"result"`
		Error  *yfError               `json:"error"`
	} `json:"quoteSummary"`
}

type yfQuoteSummaryResult struct {
	Price         *yfPrice         `json:"price"`
	SummaryDetail *yfSummaryDetail `json:"summaryDetail"`
	FinancialData *yfFinancialData `json:"financialData"`
	KeyStatistics *yfKeyStatistics `json:"defaultKeyStatistics"`
}

type yfPrice struct {
	ShortName string `json:"shortName"`
	LongName  string `json:"longName"`
	Currency  string `json:"currency"`
}

type yfSummaryDetail struct {
	Currency   string `json:"currency"`
	TrailingPE *yfVal `json:"trailingPE"`
	MarketCap  *yfVal `json:"marketCap"`
}

type yfFinancialData struct {
	FinancialCurrency string `json:"financialCurrency"`
	TotalRevenue      *yfVal `json:"totalRevenue"`
	FreeCashflow      *yfVal `json:"freeCashflow"`
	GrossMargins      *yfVal `json:"grossMargins"`
	EbitMargins       *yfVal `json:"ebitMargins"`
	OperatingMargins  *yfVal `json:"operatingMargins"`
	EbitdaMargins     *yfVal `json:"ebitdaMargins"`
}

type yfKeyStatistics struct {
	EnterpriseToEbitda  *yfVal `json:"enterpriseToEbitda"`
	EnterpriseToRevenue *yfVal `json:"enterpriseToRevenue"`
}

// --- Public methods ---

// Industries returns the display-name → industry-key table for a sector.
// Results are cached for the session; concurrent identical lookups are
// collapsed into a single upstream call.
func (y *Yahoo) Industries(ctx context.Context, sectorKey string) (map[string]string, error) {
	cacheKey := "industries:" + sectorKey
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(map[string]string), nil
	}

	v, err, _ := y.group.Do(cacheKey, func() (any, error) {
		industries, err := y.fetchIndustries(ctx, sectorKey)
		if err != nil {
			// The JSON endpoint is flaky for some sectors; fall back to
			// scraping the public sector page before giving up.
			scraped, scrapeErr := y.scrapeIndustries(ctx, sectorKey)
			if scrapeErr != nil {
				return nil, err
			}
			industries = scraped
		}
		y.cache.Set(cacheKey, industries)
		return industries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

func (y *Yahoo) fetchIndustries(ctx context.Context, sectorKey string) (map[string]string, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/finance/sectors/%s?formatted=false", y.baseURL, sectorKey)
	body, status, err := doGet(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		if status == 404 {
			return nil, fmt.Errorf("%w: %s", ErrSectorNotFound, sectorKey)
		}
		return nil, fmt.Errorf("yahoo sector %s: %w", sectorKey, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfSectorResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yahoo sector: %w", err)
	}
	if resp.Sectors.Error != nil {
		return nil, fmt.Errorf("yahoo API error: %s", resp.Sectors.Error.Description)
	}
	if len(resp.Sectors.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSectorNotFound, sectorKey)
	}

	industries := make(map[string]string)
	for _, ind := range resp.Sectors.Result[0].Industries {
		if ind.Name == "" || ind.Key == "" {
			continue
		}
		industries[ind.Name] = ind.Key
	}
	return industries, nil
}

// Companies returns the ranked company table for an industry.
func (y *Yahoo) Companies(ctx context.Context, industryKey string, method models.RankMethod) ([]models.IndustryCompany, error) {
	cacheKey := fmt.Sprintf("companies:%s:%s", industryKey, method)
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.([]models.IndustryCompany), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/finance/industries/%s/%s?formatted=false", y.baseURL, industryKey, method)
	body, status, err := doGet(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		if status == 404 {
			return nil, fmt.Errorf("%w: %s", ErrIndustryNotFound, industryKey)
		}
		return nil, fmt.Errorf("yahoo industry %s: %w", industryKey, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfIndustryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yahoo industry: %w", err)
	}
	if resp.Industries.Error != nil {
		return nil, fmt.Errorf("yahoo API error: %s", resp.Industries.Error.Description)
	}
	if len(resp.Industries.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrIndustryNotFound, industryKey)
	}

	rows := make([]models.IndustryCompany, 0, len(resp.Industries.Result[0].Companies))
	for _, c := range resp.Industries.Result[0].Companies {
		if c.Symbol == "" {
			continue
		}
		rows = append(rows, models.IndustryCompany{
			Symbol:       utils.NormalizeTicker(c.Symbol),
			Name:         c.Name,
			MarketWeight: fval(c.MarketWeight),
			Rating:       c.Rating,
		})
	}

	y.cache.SetWithTTL(cacheKey, rows, 15*time.Minute)
	return rows, nil
}

// Fundamentals returns raw per-ticker fundamentals from the quoteSummary API.
func (y *Yahoo) Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	symbol := utils.NormalizeTicker(ticker)

	cacheKey := "fundamentals:" + symbol
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(*models.Fundamentals), nil
	}

	result, err := y.fetchQuoteSummary(ctx, symbol)
	if err != nil {
		return nil, err
	}

	f := &models.Fundamentals{
		Ticker:   symbol,
		Currency: "USD",
	}
	// Currency preference: price, then summaryDetail, then the USD default.
	currencySet := false
	if p := result.Price; p != nil && p.Currency != "" {
		f.Currency = p.Currency
		currencySet = true
	}
	if sd := result.SummaryDetail; sd != nil {
		if !currencySet && sd.Currency != "" {
			f.Currency = sd.Currency
		}
		f.TrailingPE = fval(sd.TrailingPE)
		f.MarketCap = fval(sd.MarketCap)
	}
	if fd := result.FinancialData; fd != nil {
		f.Revenue = fval(fd.TotalRevenue)
		f.FreeCashFlow = fval(fd.FreeCashflow)
		f.GrossMargin = fval(fd.GrossMargins)
		f.EBITMargin = fval(fd.EbitMargins)
		f.OperatingMargin = fval(fd.OperatingMargins)
		f.EBITDAMargin = fval(fd.EbitdaMargins)
	}
	if ks := result.KeyStatistics; ks != nil {
		f.EVToEBITDA = fval(ks.EnterpriseToEbitda)
		f.EVToRevenue = fval(ks.EnterpriseToRevenue)
	}

	y.cache.SetWithTTL(cacheKey, f, 15*time.Minute)
	return f, nil
}

// CompanyName resolves a ticker to its display name.
func (y *Yahoo) CompanyName(ctx context.Context, ticker string) (string, error) {
	symbol := utils.NormalizeTicker(ticker)

	cacheKey := "name:" + symbol
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(string), nil
	}

	result, err := y.fetchQuoteSummary(ctx, symbol)
	if err != nil {
		return "", err
	}
	if result.Price == nil {
		return "", fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	name := coalesce(result.Price.LongName, result.Price.ShortName)
	if name == "" {
		return "", fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	y.cache.Set(cacheKey, name)
	return name, nil
}

func (y *Yahoo) fetchQuoteSummary(ctx context.Context, symbol string) (*yfQuoteSummaryResult, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	modules := "price,summaryDetail,financialData,defaultKeyStatistics"
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s", y.baseURL, symbol, modules)

	body, status, err := doGet(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		if status == 404 {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return nil, fmt.Errorf("yahoo quoteSummary %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfQuoteSummaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yahoo quoteSummary: %w", err)
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo API error: %s", resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	return &resp.QuoteSummary.Result[0], nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
