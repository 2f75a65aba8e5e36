package ingestion

import (
	"fmt"
	"strings"

	"github.com/rpattn/landtitles/internal/table"
)

// buildTable turns typed sheet records into a table. The first non-empty record
// is the header row; empty records are skipped. Cell values are kept as read.
func buildTable(name string, records [][]any) *table.Table {
	var headerRow []any
	var dataRows [][]any
	for _, row := range records {
		if isBlankRow(row) {
			continue
		}
		if headerRow == nil {
			headerRow = row
			continue
		}
		dataRows = append(dataRows, row)
	}

	if headerRow == nil {
		return table.New(name, nil)
	}

	headers := sanitizeHeaders(headerRow)
	tbl := table.New(name, headers)
	for _, raw := range dataRows {
		// width always matches, so AppendRow cannot fail
		_ = tbl.AppendRow(padRow(raw, len(headers)))
	}
	return tbl
}

func isBlankRow(row []any) bool {
	for _, cell := range row {
		if cell != nil {
			return false
		}
	}
	return true
}

func sanitizeHeaders(raw []any) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)

	for idx, value := range raw {
		var name string
		if value != nil {
			name = strings.TrimSpace(table.Text(value))
		}
		if name == "" {
			name = fmt.Sprintf("column_%d", idx+1)
		}

		base := name
		count := seen[base]
		if count > 0 {
			name = fmt.Sprintf("%s_%d", base, count+1)
		}
		seen[base] = count + 1

		headers[idx] = name
	}

	return headers
}

func padRow(row []any, length int) table.Row {
	padded := make(table.Row, length)
	copy(padded, row)
	return padded
}
