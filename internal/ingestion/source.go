package ingestion

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/rpattn/landtitles/internal/table"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file type is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrUnsupportedEnvironment is returned when a known format cannot be read in
	// this deployment, e.g. database files needing a host ODBC driver.
	ErrUnsupportedEnvironment = errors.New("file format not supported in this environment")
)

// TableSource produces every table of one dataset, keyed by table name.
type TableSource interface {
	Tables(ctx context.Context) (*table.Set, error)
}

// Format classifies an upload by its extension.
type Format string

const (
	FormatUnknown  Format = ""
	FormatWorkbook Format = "workbook"
	FormatDatabase Format = "database"
)

// Extension returns the lower-cased extension of a file name, including the dot.
func Extension(fileName string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))
}

// DetectFormat maps a file name to its format. Database extensions are those of
// the registered dialects.
func DetectFormat(fileName string) Format {
	ext := Extension(fileName)
	if ext == ".xlsx" {
		return FormatWorkbook
	}
	if _, ok := lookupDialect(ext); ok {
		return FormatDatabase
	}
	return FormatUnknown
}
