package table

import (
	"fmt"
)

// Row holds one value per column, aligned with Table.Columns.
type Row []any

// Table is an ordered, in-memory rowset with a named column list.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// New creates an empty table with the given columns.
func New(name string, columns []string) *Table {
	return &Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
		Rows:    []Row{},
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// AppendRow adds a row. The row must carry exactly one value per column.
func (t *Table) AppendRow(row Row) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("table %s: row has %d values, expected %d", t.Name, len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// ColumnIndex returns the position of a column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for idx, column := range t.Columns {
		if column == name {
			return idx, true
		}
	}
	return -1, false
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Value returns the cell at rowIdx for the named column.
func (t *Table) Value(rowIdx int, column string) (any, bool) {
	if rowIdx < 0 || rowIdx >= len(t.Rows) {
		return nil, false
	}
	colIdx, ok := t.ColumnIndex(column)
	if !ok {
		return nil, false
	}
	return t.Rows[rowIdx][colIdx], true
}

// Column returns every value of the named column in row order.
func (t *Table) Column(name string) ([]any, error) {
	colIdx, ok := t.ColumnIndex(name)
	if !ok {
		return nil, fmt.Errorf("table %s: column %q not found", t.Name, name)
	}
	values := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[colIdx]
	}
	return values, nil
}

// Clone returns a deep copy of the row slices. Cell values are scalars and are shared.
func (t *Table) Clone() *Table {
	clone := New(t.Name, t.Columns)
	clone.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		clone.Rows[i] = append(Row(nil), row...)
	}
	return clone
}

// Head returns a copy holding at most n leading rows. n <= 0 returns every row.
func (t *Table) Head(n int) *Table {
	if n <= 0 || n >= len(t.Rows) {
		return t.Clone()
	}
	head := New(t.Name, t.Columns)
	head.Rows = make([]Row, n)
	for i := 0; i < n; i++ {
		head.Rows[i] = append(Row(nil), t.Rows[i]...)
	}
	return head
}

// WithColumn returns a copy of the table with a derived column. An existing column
// of the same name is overwritten in place, otherwise the column is appended.
func (t *Table) WithColumn(name string, derive func(Row) any) *Table {
	out := t.Clone()
	colIdx, exists := out.ColumnIndex(name)
	if !exists {
		out.Columns = append(out.Columns, name)
	}
	for i, row := range out.Rows {
		value := derive(t.Rows[i])
		if exists {
			row[colIdx] = value
			continue
		}
		out.Rows[i] = append(row, value)
	}
	return out
}

// WithTextColumn derives name as the text form of source. Null stays null.
func (t *Table) WithTextColumn(name, source string) (*Table, error) {
	srcIdx, ok := t.ColumnIndex(source)
	if !ok {
		return nil, fmt.Errorf("table %s: column %q not found", t.Name, source)
	}
	return t.WithColumn(name, func(row Row) any {
		if IsNull(row[srcIdx]) {
			return nil
		}
		return Text(row[srcIdx])
	}), nil
}

// Records converts rows into column-keyed maps, e.g. for JSON previews.
func (t *Table) Records() []map[string]any {
	records := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make(map[string]any, len(t.Columns))
		for i, column := range t.Columns {
			record[column] = row[i]
		}
		records = append(records, record)
	}
	return records
}

// Set maps table names to tables, remembering the order they were added in.
type Set struct {
	names  []string
	tables map[string]*Table
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{tables: make(map[string]*Table)}
}

// Add stores the table under its name. Re-adding a name replaces the table but keeps
// its original position.
func (s *Set) Add(t *Table) {
	if _, ok := s.tables[t.Name]; !ok {
		s.names = append(s.names, t.Name)
	}
	s.tables[t.Name] = t
}

// Get looks up a table by name.
func (s *Set) Get(name string) (*Table, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.tables[name]
	return t, ok
}

// Names returns the table names in load order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Len returns the number of tables.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}
