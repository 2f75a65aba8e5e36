package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/landtitles/internal/table"
)

// WorkbookSource reads every sheet of an .xlsx workbook into a table named after
// the sheet.
type WorkbookSource struct {
	payload []byte
}

// NewWorkbookSource wraps the raw workbook bytes.
func NewWorkbookSource(payload []byte) *WorkbookSource {
	return &WorkbookSource{payload: payload}
}

// Tables implements TableSource.
func (s *WorkbookSource) Tables(ctx context.Context) (*table.Set, error) {
	f, err := excelize.OpenReader(bytes.NewReader(s.payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	reader, err := newCellReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook properties: %w", err)
	}

	set := table.NewSet()
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := reader.sheetRecords(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
		}
		set.Add(buildTable(sheet, records))
	}
	return set, nil
}

// cellReader converts stored cell values into typed values. Display formats are
// never applied: a number stays a number and text stays text, whatever the
// cell's number format renders.
type cellReader struct {
	f        *excelize.File
	date1904 bool
	dateFmt  map[int]bool
}

func newCellReader(f *excelize.File) (*cellReader, error) {
	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, err
	}
	r := &cellReader{f: f, dateFmt: make(map[int]bool)}
	if props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}
	return r, nil
}

func (r *cellReader) sheetRecords(sheet string) ([][]any, error) {
	rows, err := r.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	records := make([][]any, len(rows))
	for rowIdx, row := range rows {
		record := make([]any, len(row))
		for colIdx, raw := range row {
			if raw == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return nil, err
			}
			value, err := r.cellValue(sheet, cell, raw)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", cell, err)
			}
			record[colIdx] = value
		}
		records[rowIdx] = record
	}
	return records, nil
}

func (r *cellReader) cellValue(sheet, cell, raw string) (any, error) {
	cellType, err := r.f.GetCellType(sheet, cell)
	if err != nil {
		return nil, err
	}
	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return raw, nil
	case excelize.CellTypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return raw, nil
		}
		return b, nil
	case excelize.CellTypeError:
		return nil, nil
	case excelize.CellTypeDate:
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return ts.UTC(), nil
		}
		return raw, nil
	}

	// Unset and "n" cells hold a number.
	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw, nil
	}
	isDate, err := r.isDateCell(sheet, cell)
	if err != nil {
		return nil, err
	}
	if isDate {
		if ts, err := excelize.ExcelDateToTime(num, r.date1904); err == nil {
			return ts, nil
		}
		return num, nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i, nil
	}
	return num, nil
}

func (r *cellReader) isDateCell(sheet, cell string) (bool, error) {
	styleID, err := r.f.GetCellStyle(sheet, cell)
	if err != nil {
		return false, err
	}
	if styleID == 0 {
		return false, nil
	}
	if isDate, ok := r.dateFmt[styleID]; ok {
		return isDate, nil
	}
	style, err := r.f.GetStyle(styleID)
	if err != nil {
		return false, err
	}
	isDate := isDateNumFmt(style.NumFmt)
	if style.CustomNumFmt != nil {
		isDate = isDateFormatCode(*style.CustomNumFmt)
	}
	r.dateFmt[styleID] = isDate
	return isDate, nil
}

// isDateNumFmt reports whether a built-in number format id renders a date or time.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code contains date or time
// tokens outside quoted literals, escapes and bracketed sections.
func isDateFormatCode(code string) bool {
	for i := 0; i < len(code); i++ {
		switch c := code[i]; c {
		case '"':
			if end := strings.IndexByte(code[i+1:], '"'); end >= 0 {
				i += end + 1
			} else {
				return false
			}
		case '[':
			if end := strings.IndexByte(code[i+1:], ']'); end >= 0 {
				i += end + 1
			} else {
				return false
			}
		case '\\', '_', '*':
			i++
		case 'y', 'Y', 'm', 'M', 'd', 'D', 'h', 'H', 's', 'S':
			return true
		}
	}
	return false
}
