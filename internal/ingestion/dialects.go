package ingestion

import (
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const defaultODBCDriver = "Microsoft Access Driver (*.mdb, *.accdb)"

// AccessDialect reads Microsoft Access files through ODBC. The "odbc" driver is
// only linked into builds tagged odbc.
var AccessDialect = Dialect{
	Name:       "access",
	DriverName: "odbc",
	Extensions: []string{".mdb", ".accdb"},
	HostDriver: true,
	DSN: func(path string, opts DatabaseOptions) string {
		driver := strings.TrimSpace(opts.ODBCDriver)
		if driver == "" {
			driver = defaultODBCDriver
		}
		return fmt.Sprintf("DRIVER={%s};DBQ=%s;", driver, path)
	},
	ListTables: "SELECT Name FROM MSysObjects WHERE Type = 1 AND Flags = 0 ORDER BY Name",
	Quote: func(name string) string {
		return "[" + strings.ReplaceAll(name, "]", "") + "]"
	},
}

// SQLiteDialect reads SQLite exports with the pure Go modernc driver.
var SQLiteDialect = Dialect{
	Name:       "sqlite",
	DriverName: "sqlite",
	Extensions: []string{".sqlite", ".sqlite3", ".db"},
	DSN: func(path string, _ DatabaseOptions) string {
		return path
	},
	ListTables: "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY rowid",
	Quote: func(name string) string {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	},
}

func init() {
	RegisterDialect(AccessDialect)
	RegisterDialect(SQLiteDialect)
}
