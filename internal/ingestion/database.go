package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rpattn/landtitles/internal/table"
)

// DatabaseOptions carries per-deployment connection settings.
type DatabaseOptions struct {
	// ODBCDriver is the ODBC driver name used for Access files.
	ODBCDriver string
}

// Dialect describes how to open a database file and enumerate its tables.
type Dialect struct {
	Name       string
	DriverName string
	Extensions []string
	// HostDriver marks dialects that depend on a driver installed on the host.
	HostDriver bool
	DSN        func(path string, opts DatabaseOptions) string
	ListTables string
	Quote      func(name string) string
}

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]Dialect)
)

// RegisterDialect makes a dialect available for its extensions.
func RegisterDialect(d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	for _, ext := range d.Extensions {
		dialects[strings.ToLower(ext)] = d
	}
}

func lookupDialect(ext string) (Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[ext]
	return d, ok
}

// driverAvailable reports whether the dialect's database/sql driver is compiled in.
func (d Dialect) driverAvailable() bool {
	return slices.Contains(sql.Drivers(), d.DriverName)
}

// DatabaseSource reads every user table of a database file with SELECT *.
type DatabaseSource struct {
	path    string
	dialect Dialect
	opts    DatabaseOptions
}

// NewDatabaseSource opens nothing until Tables is called.
func NewDatabaseSource(path string, dialect Dialect, opts DatabaseOptions) *DatabaseSource {
	return &DatabaseSource{path: path, dialect: dialect, opts: opts}
}

// Tables implements TableSource. The connection is closed on every path.
func (s *DatabaseSource) Tables(ctx context.Context) (*table.Set, error) {
	db, err := sql.Open(s.dialect.DriverName, s.dialect.DSN(s.path, s.opts))
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", s.dialect.Name, err)
	}
	defer func() { _ = db.Close() }()

	names, err := listTables(ctx, db, s.dialect.ListTables)
	if err != nil {
		return nil, fmt.Errorf("list %s tables: %w", s.dialect.Name, err)
	}

	set := table.NewSet()
	for _, name := range names {
		query := "SELECT * FROM " + s.dialect.Quote(name)
		tbl, err := readTable(ctx, db, name, query)
		if err != nil {
			return nil, err
		}
		set.Add(tbl)
	}
	return set, nil
}

func listTables(ctx context.Context, db *sql.DB, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func readTable(ctx context.Context, db *sql.DB, name, query string) (*table.Table, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", name, err)
	}

	tbl := table.New(name, columns)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan row of %s: %w", name, err)
		}
		row := make(table.Row, len(columns))
		for i, value := range values {
			row[i] = table.Normalize(value)
		}
		if err := tbl.AppendRow(row); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	return tbl, nil
}
