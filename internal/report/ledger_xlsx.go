// Package report renders ledger snapshots for people who live in spreadsheets.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sample-logistics/internal/core"
)

var ledgerHeader = []interface{}{
	"sample_id",
	"location_kind",
	"location_id",
	"location_name",
	"warehouse_id",
	"store_name",
	"product_name",
	"sku",
	"quantity",
	"dispatch_id",
	"eligible_showrooms",
	"updated_at",
}

// WriteLedgerXLSX writes one sheet named after the warehouse with a row per
// ledger entry, followed by a total row.
func WriteLedgerXLSX(w io.Writer, warehouse core.Warehouse, samples []core.Sample) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := sheetName(warehouse)
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &ledgerHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	total := 0
	row := 2
	for _, s := range samples {
		var dispatchID interface{}
		if s.DispatchID != nil {
			dispatchID = *s.DispatchID
		}
		excelRow := []interface{}{
			s.ID,
			string(s.Location.LocationKind()),
			s.Location.LocationID(),
			s.LocationName,
			s.WarehouseID,
			s.StoreName,
			s.ProductName,
			s.SKU,
			s.Quantity,
			dispatchID,
			joinIDs(s.Showrooms),
			s.UpdatedAt.UTC().Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", row, err)
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
		total += s.Quantity
		row++
	}

	totalRow := []interface{}{"total", nil, nil, nil, nil, nil, nil, nil, total}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address total row: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &totalRow); err != nil {
		return fmt.Errorf("failed to write total row: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// FileName returns the download name for a warehouse export taken at t.
func FileName(warehouse core.Warehouse, t time.Time) string {
	return fmt.Sprintf("samples_warehouse_%d_%s.xlsx", warehouse.ID, t.Format("20060102_150405"))
}

var sheetNameReplacer = strings.NewReplacer(
	":", "-", "\\", "-", "/", "-", "?", "", "*", "", "[", "(", "]", ")",
)

// sheetName makes the warehouse name acceptable to Excel: no : \ / ? * [ ], no
// leading or trailing apostrophe, at most 31 characters.
func sheetName(w core.Warehouse) string {
	name := strings.Trim(sheetNameReplacer.Replace(w.Name), "' ")
	if name == "" {
		name = fmt.Sprintf("Warehouse %d", w.ID)
	}
	r := []rune(name)
	if len(r) > 31 {
		r = r[:31]
	}
	return strings.TrimRight(string(r), "' ")
}

func joinIDs(ids []int64) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprint(id)
	}
	return out
}
