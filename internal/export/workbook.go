package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/landtitles/internal/table"
)

const (
	// FileName is the attachment name of every export.
	FileName = "Tabel_Titluri_Export.xlsx"
	// MimeType is the xlsx content type.
	MimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SheetFull    = "Tabel_Complet"
	SheetCompact = "Format_Compact"

	defaultSheet = "Sheet1"
)

// WriteWorkbook writes full and compact as two sheets of one workbook, header
// row first, in column order. The full sheet is active.
func WriteWorkbook(w io.Writer, full, compact *table.Table) error {
	if full == nil || compact == nil {
		return fmt.Errorf("both tables are required")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeSheet(f, SheetFull, full); err != nil {
		return err
	}
	if err := writeSheet(f, SheetCompact, compact); err != nil {
		return err
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}
	idx, err := f.GetSheetIndex(SheetFull)
	if err != nil {
		return fmt.Errorf("locate sheet %s: %w", SheetFull, err)
	}
	f.SetActiveSheet(idx)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, tbl *table.Table) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("open sheet %s: %w", name, err)
	}

	header := make([]interface{}, len(tbl.Columns))
	for i, column := range tbl.Columns {
		header[i] = column
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header of %s: %w", name, err)
	}

	for rowIdx, row := range tbl.Rows {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for i, value := range row {
			values[i] = cellValue(value)
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d of %s: %w", rowIdx+1, name, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet %s: %w", name, err)
	}
	return nil
}

// cellValue maps a table value to something excelize stores natively. Null
// values become empty cells.
func cellValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string, bool, int64, float64, int, int32, float32:
		return v
	case time.Time:
		return v
	case *time.Time:
		if v == nil {
			return nil
		}
		return *v
	case json.Number:
		return v.String()
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return table.Text(v)
	}
}
