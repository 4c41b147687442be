package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/investia/sectorscreen/pkg/models"
	"github.com/investia/sectorscreen/pkg/utils"
)

// News fetches per-ticker headlines from the Yahoo Finance RSS feed.
type News struct {
	feedURL string // format string taking the ticker symbol
	cache   *Cache
	limiter *RateLimiter
	parser  *gofeed.Parser
}

// NewNews creates a news source with the default Yahoo Finance headline feed.
func NewNews() *News {
	return &News{
		feedURL: "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US",
		cache:   NewCache(10 * time.Minute),
		limiter: NewRateLimiter(2, time.Second),
		parser:  gofeed.NewParser(),
	}
}

// Name returns the data source name.
func (n *News) Name() string { return "Yahoo Finance News" }

// TickerNews returns recent headlines for the given ticker, newest first.
func (n *News) TickerNews(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error) {
	symbol := utils.NormalizeTicker(ticker)

	cacheKey := "news:" + symbol
	if cached, ok := n.cache.Get(cacheKey); ok {
		return clip(cached.([]models.NewsItem), limit), nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := n.parser.ParseURLWithContext(fmt.Sprintf(n.feedURL, symbol), ctx)
	if err != nil {
		return nil, fmt.Errorf("news feed %s: %w", symbol, err)
	}

	items := make([]models.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		item := models.NewsItem{
			Title:  it.Title,
			Link:   it.Link,
			Source: feed.Title,
		}
		if it.PublishedParsed != nil {
			item.Published = it.PublishedParsed.Format(time.RFC3339)
		}
		items = append(items, item)
	}

	n.cache.Set(cacheKey, items)
	return clip(items, limit), nil
}

func clip(items []models.NewsItem, limit int) []models.NewsItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
