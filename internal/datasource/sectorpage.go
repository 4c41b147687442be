package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/investia/sectorscreen/pkg/utils"
)

// scrapeIndustries extracts the industry list from the public Yahoo Finance
// sector page. Used as a fallback when the JSON sectors endpoint fails; the
// page carries the same name/key pairs in its industries table.
func (y *Yahoo) scrapeIndustries(ctx context.Context, sectorKey string) (map[string]string, error) {
	url := fmt.Sprintf("%s/sectors/%s/", y.siteURL, sectorKey)

	body, _, err := doGet(ctx, url, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, fmt.Errorf("yahoo sector page %s: %w", sectorKey, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse sector page: %w", err)
	}

	industries := make(map[string]string)

	// Industry links look like /sectors/<sector>/<industry>/.
	prefix := "/sectors/" + sectorKey + "/"
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.HasPrefix(href, prefix) {
			return
		}
		key := strings.Trim(strings.TrimPrefix(href, prefix), "/")
		if key == "" || strings.Contains(key, "/") {
			return
		}
		name := strings.TrimSpace(sel.Text())
		if name == "" {
			return
		}
		industries[name] = key
	})

	if len(industries) == 0 {
		// Some page variants render industries as a plain table; recover the
		// key from the display name in that case.
		doc.Find("table tbody tr td:first-child").Each(func(_ int, sel *goquery.Selection) {
			name := strings.TrimSpace(sel.Text())
			if name == "" {
				return
			}
			industries[name] = utils.SlugifyKey(name)
		})
	}

	if len(industries) == 0 {
		return nil, fmt.Errorf("%w: %s (no industries on sector page)", ErrSectorNotFound, sectorKey)
	}
	return industries, nil
}
