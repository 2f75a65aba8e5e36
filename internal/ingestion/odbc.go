//go:build odbc

package ingestion

import (
	_ "github.com/alexbrainman/odbc"
)
