package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"comment-insights-go/internal/types"
)

const SheetName = "Comments"

// WriteXLSX writes one header row plus one row per record, restricted to fields.
// Absent values leave the cell empty.
func WriteXLSX(w io.Writer, fields []Field, records []types.CanonicalRecord) error {
	if len(fields) == 0 {
		return fmt.Errorf("no columns selected")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(fields))
	for i, fld := range fields {
		header[i] = string(fld)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		row := make([]any, len(fields))
		for j, fld := range fields {
			row[j] = Value(r, fld)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r.Index, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
