package table

import (
	"fmt"
)

// Project returns a copy restricted to columns, in the given order.
func (t *Table) Project(columns ...string) (*Table, error) {
	indices := make([]int, len(columns))
	for i, column := range columns {
		idx, ok := t.ColumnIndex(column)
		if !ok {
			return nil, fmt.Errorf("project %s: column %q not found", t.Name, column)
		}
		indices[i] = idx
	}

	out := New(t.Name, columns)
	out.Rows = make([]Row, len(t.Rows))
	for r, row := range t.Rows {
		projected := make(Row, len(indices))
		for i, idx := range indices {
			projected[i] = row[idx]
		}
		out.Rows[r] = projected
	}
	return out, nil
}

// Distinct removes rows equal to an earlier row across every column, keeping the
// first occurrence. Two nulls compare equal.
func (t *Table) Distinct() *Table {
	out := New(t.Name, t.Columns)
	seen := make(map[string]struct{}, len(t.Rows))
	for _, row := range t.Rows {
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, append(Row(nil), row...))
	}
	return out
}
