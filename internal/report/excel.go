// Package report serializes screening tables to spreadsheet files: a plain
// export and a styled export that embeds the color-scale backgrounds for the
// margin and valuation columns.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/investia/sectorscreen/internal/screener"
	"github.com/investia/sectorscreen/pkg/models"
	"github.com/investia/sectorscreen/pkg/utils"
)

// SheetName is the sheet all exports are written to.
const SheetName = "Companies"

// indexHeader labels the visible 1-based row number column.
const indexHeader = "#"

// WriteXLSX writes the plain (unstyled) export: header row, 1-based index
// column, then one row per record in table order.
func WriteXLSX(w io.Writer, table screener.Table) error {
	f, err := newWorkbook(table)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// WriteStyledXLSX writes the styled export: the plain layout plus background
// fills from the percentile-normalized color scale. Margin columns use the
// direct scale, valuation multiples the inverse scale; rows without a value
// get a neutral gray fill.
func WriteStyledXLSX(w io.Writer, table screener.Table) error {
	f, err := newWorkbook(table)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, col := range screener.GradientColumns {
		if err := styleColumn(f, table, col, false); err != nil {
			return err
		}
	}
	for _, col := range screener.InverseGradientColumns {
		if err := styleColumn(f, table, col, true); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// newWorkbook builds the shared layout: header plus data rows.
func newWorkbook(table screener.Table) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := append([]string{indexHeader}, models.Columns()...)
	for col, name := range header {
		ref, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(SheetName, ref, name); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, rec := range table {
		cells := recordCells(i+1, rec)
		for col, val := range cells {
			ref, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(SheetName, ref, val); err != nil {
				f.Close()
				return nil, fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	return f, nil
}

// recordCells renders one record in the canonical column order, prefixed
// with the visible row index. Absent numerics render as empty cells.
func recordCells(index int, rec models.CompanyRecord) []any {
	return []any{
		index,
		rec.Name,
		rec.Ticker,
		optionalCell(rec.Revenue),
		optionalCell(rec.MarketCap),
		optionalCell(rec.GrossMargin),
		optionalCell(rec.EBITMargin),
		optionalCell(rec.EBITDAMargin),
		optionalCell(rec.PE),
		optionalCell(rec.EVEBITDA),
		optionalCell(rec.EVSales),
		optionalCell(rec.PFCF),
		optionalCell(rec.MarketWeight),
		rec.Industry,
		rec.Rating,
	}
}

func optionalCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

// styleColumn applies the background color scale to one column.
func styleColumn(f *excelize.File, table screener.Table, column string, inverse bool) error {
	values := table.Column(column)
	if values == nil {
		return nil
	}
	normalized := screener.Normalize(values, inverse)

	colIdx := columnIndex(column)
	if colIdx < 0 {
		return nil
	}

	for row, n := range normalized {
		fill := NeutralFill
		if n != nil {
			fill = RampColor(*n)
		}
		styleID, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
		})
		if err != nil {
			return fmt.Errorf("create style: %w", err)
		}
		// +2: one for the index column, one for 1-based cell coordinates.
		ref, _ := excelize.CoordinatesToCellName(colIdx+2, row+2)
		if err := f.SetCellStyle(SheetName, ref, ref, styleID); err != nil {
			return fmt.Errorf("apply style %s: %w", ref, err)
		}
	}
	return nil
}

// columnIndex returns the 0-based position of a canonical column name.
func columnIndex(name string) int {
	for i, col := range models.Columns() {
		if col == name {
			return i
		}
	}
	return -1
}

// ReadTable reads a previously exported workbook back into a table,
// ignoring styling. Used for round-trip verification and for re-importing
// exported files.
func ReadTable(r io.Reader) (screener.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return screener.Table{}, nil
	}

	table := make(screener.Table, 0, len(rows)-1)
	for _, row := range rows[1:] {
		table = append(table, rowToRecord(row))
	}
	return table, nil
}

func rowToRecord(row []string) models.CompanyRecord {
	cell := func(i int) string {
		// Column 0 is the visible index; data starts at 1.
		if i+1 < len(row) {
			return row[i+1]
		}
		return ""
	}
	return models.CompanyRecord{
		Name:         cell(0),
		Ticker:       cell(1),
		Revenue:      utils.ParseOptional(cell(2)),
		MarketCap:    utils.ParseOptional(cell(3)),
		GrossMargin:  utils.ParseOptional(cell(4)),
		EBITMargin:   utils.ParseOptional(cell(5)),
		EBITDAMargin: utils.ParseOptional(cell(6)),
		PE:           utils.ParseOptional(cell(7)),
		EVEBITDA:     utils.ParseOptional(cell(8)),
		EVSales:      utils.ParseOptional(cell(9)),
		PFCF:         utils.ParseOptional(cell(10)),
		MarketWeight: utils.ParseOptional(cell(11)),
		Industry:     cell(12),
		Rating:       cell(13),
	}
}
