// Package ingest handles user-uploaded ticker lists. The flow is split into
// independently testable steps: parse the spreadsheet, validate/normalize the
// ticker column, then let the caller enrich and merge.
package ingest

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/investia/sectorscreen/pkg/models"
	"github.com/investia/sectorscreen/pkg/utils"
)

// ValidationError is a user-facing rejection of an uploaded file. The message
// is safe to surface verbatim.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Rejection messages. Kept as variables so handlers and tests can compare.
var (
	ErrUnreadable   = &ValidationError{Reason: "could not read the uploaded file"}
	ErrExtraColumns = &ValidationError{Reason: "the file must contain exactly one ticker per row"}
	ErrNoTickers    = &ValidationError{Reason: "no valid tickers found in the uploaded file"}
)

// ParseTickerFile reads the first sheet of an uploaded spreadsheet into a raw
// cell grid. A parse failure is reported as ErrUnreadable; no partial result
// is returned.
func ParseTickerFile(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, ErrUnreadable
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrUnreadable
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, ErrUnreadable
	}
	return rows, nil
}

// ValidateTickers checks the raw grid shape and normalizes the ticker column:
// tickers live in the first column only, one per row; cells are trimmed,
// uppercased, and deduplicated. Empty cells are dropped.
func ValidateTickers(rows [][]string) ([]string, error) {
	for _, row := range rows {
		for col := 1; col < len(row); col++ {
			if strings.TrimSpace(row[col]) != "" {
				return nil, ErrExtraColumns
			}
		}
	}

	seen := make(map[string]bool)
	var tickers []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		ticker := utils.NormalizeTicker(row[0])
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true
		tickers = append(tickers, ticker)
	}

	if len(tickers) == 0 {
		return nil, ErrNoTickers
	}
	return tickers, nil
}

// BuildRows turns validated tickers into pre-enrichment rows, resolving each
// display name through the lookup function. A failed lookup leaves the name
// empty; it never rejects the ticker.
func BuildRows(tickers []string, lookupName func(ticker string) (string, error)) []models.IndustryCompany {
	rows := make([]models.IndustryCompany, 0, len(tickers))
	for _, ticker := range tickers {
		name, err := lookupName(ticker)
		if err != nil {
			name = ""
		}
		rows = append(rows, models.IndustryCompany{Symbol: ticker, Name: name})
	}
	return rows
}
