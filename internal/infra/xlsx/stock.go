// Package xlsx reads and writes stock count sheets.
package xlsx

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/domain/inventory"
	"github.com/Spok95/factory-mix/internal/domain/materials"
)

var header = []any{"material_id", "name", "unit", "threshold", "quantity", "counted"}

const (
	colID      = 0
	colCounted = 5
)

// WriteMaterials writes one row per material with an empty counted column to be filled in on the floor.
func WriteMaterials(w io.Writer, mats []materials.Material) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	for i, m := range mats {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{m.ID, m.Name, string(m.Unit), m.Threshold.InexactFloat64(), m.Quantity.InexactFloat64()}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	return f.Write(w)
}

// ReadCounts parses a sheet written by WriteMaterials. Rows with an empty id or counted cell are skipped.
func ReadCounts(data []byte) ([]inventory.Count, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Invalid("not an xlsx file: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errs.Invalid("sheet has no material rows")
	}
	if len(rows[0]) <= colCounted || strings.TrimSpace(rows[0][colCounted]) != "counted" {
		return nil, errs.Invalid("expected column %d to be counted", colCounted+1)
	}

	seen := map[int64]int{}
	var out []inventory.Count
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) <= colCounted {
			continue
		}
		idStr := strings.TrimSpace(row[colID])
		qtyStr := strings.TrimSpace(row[colCounted])
		if idStr == "" || qtyStr == "" {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			return nil, errs.Invalid("row %d: bad material_id %q", i+1, idStr)
		}
		qty, err := decimal.NewFromString(strings.ReplaceAll(qtyStr, ",", "."))
		if err != nil || qty.IsNegative() {
			return nil, errs.Invalid("row %d: bad counted quantity %q", i+1, qtyStr)
		}
		if prev, ok := seen[id]; ok {
			return nil, errs.Invalid("row %d: material %d already counted in row %d", i+1, id, prev)
		}
		seen[id] = i + 1
		out = append(out, inventory.Count{MaterialID: id, Counted: qty})
	}
	return out, nil
}
