package report

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/investia/sectorscreen/internal/screener"
	"github.com/investia/sectorscreen/pkg/models"
)

func sampleTable() screener.Table {
	return screener.Table{
		{
			Name:         "NVIDIA Corporation",
			Ticker:       "NVDA",
			Revenue:      models.Float(60922.0),
			MarketCap:    models.Float(3200000.0),
			GrossMargin:  models.Float(75.29),
			EBITMargin:   models.Float(62.06),
			EBITDAMargin: models.Float(63.51),
			PE:           models.Float(65.12),
			EVEBITDA:     models.Float(51.3),
			EVSales:      models.Float(32.6),
			PFCF:         models.Float(118.42),
			MarketWeight: models.Float(35.5),
			Industry:     "Semiconductors",
			Rating:       "Buy",
		},
		{
			Name:     "Private Holding",
			Ticker:   "PRIV",
			Industry: "Semiconductors",
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	table := sampleTable()

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, table); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	got, err := ReadTable(&buf)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if len(got) != len(table) {
		t.Fatalf("row count: want %d, got %d", len(table), len(got))
	}

	for i := range table {
		want, have := table[i], got[i]
		if have.Name != want.Name || have.Ticker != want.Ticker {
			t.Errorf("row %d identity: want %s/%s, got %s/%s",
				i, want.Name, want.Ticker, have.Name, have.Ticker)
		}
		if have.Industry != want.Industry || have.Rating != want.Rating {
			t.Errorf("row %d tags: want %s/%s, got %s/%s",
				i, want.Industry, want.Rating, have.Industry, have.Rating)
		}
		checkCell(t, i, "revenue", want.Revenue, have.Revenue)
		checkCell(t, i, "market cap", want.MarketCap, have.MarketCap)
		checkCell(t, i, "gross margin", want.GrossMargin, have.GrossMargin)
		checkCell(t, i, "p/fcf", want.PFCF, have.PFCF)
	}
}

func TestStyledRoundTripSameValues(t *testing.T) {
	table := sampleTable()

	var plain, styled bytes.Buffer
	if err := WriteXLSX(&plain, table); err != nil {
		t.Fatalf("plain export failed: %v", err)
	}
	if err := WriteStyledXLSX(&styled, table); err != nil {
		t.Fatalf("styled export failed: %v", err)
	}

	plainTable, err := ReadTable(&plain)
	if err != nil {
		t.Fatalf("read plain: %v", err)
	}
	styledTable, err := ReadTable(&styled)
	if err != nil {
		t.Fatalf("read styled: %v", err)
	}

	if len(plainTable) != len(styledTable) {
		t.Fatalf("row counts differ: plain %d, styled %d", len(plainTable), len(styledTable))
	}
	for i := range plainTable {
		if !reflect.DeepEqual(plainTable[i], styledTable[i]) {
			t.Errorf("row %d differs between plain and styled export", i)
		}
	}
}

func TestWriteEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, screener.Table{}); err != nil {
		t.Fatalf("empty export failed: %v", err)
	}
	got, err := ReadTable(&buf)
	if err != nil {
		t.Fatalf("read empty: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected 0 rows, got %d", len(got))
	}
}

func TestRampColorEndpoints(t *testing.T) {
	if got := RampColor(0); got != "D73027" {
		t.Errorf("ramp at 0: want D73027 (red anchor), got %s", got)
	}
	if got := RampColor(1); got != "1A9850" {
		t.Errorf("ramp at 1: want 1A9850 (green anchor), got %s", got)
	}
	// Clamping.
	if RampColor(-5) != RampColor(0) || RampColor(5) != RampColor(1) {
		t.Error("out-of-range values must clamp to the endpoints")
	}
	// Midpoint hits the yellow anchor.
	if got := RampColor(0.5); got != "FEE08B" {
		t.Errorf("ramp at 0.5: want FEE08B (yellow anchor), got %s", got)
	}
}

func checkCell(t *testing.T, row int, name string, want, got *float64) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Errorf("row %d %s: want absent, got %v", row, name, *got)
	case want != nil && got == nil:
		t.Errorf("row %d %s: want %v, got absent", row, name, *want)
	case want != nil && got != nil && *want != *got:
		t.Errorf("row %d %s: want %v, got %v", row, name, *want, *got)
	}
}
