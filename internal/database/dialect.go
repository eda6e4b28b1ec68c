package database

import (
	"net/url"
	"path/filepath"
	"strings"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectDuckDB   Dialect = "duckdb"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) DriverName() string {
	switch d {
	case DialectDuckDB:
		return "duckdb"
	case DialectPostgres:
		return "pgx"
	default:
		return "sqlite3"
	}
}

// Target is a resolved database location.
type Target struct {
	Dialect Dialect
	// Path is the database file for file-based dialects.
	Path string
	DSN  string
}

// Resolve maps a user-supplied DSN onto a dialect and driver DSN. Plain file
// paths are SQLite unless they carry a DuckDB extension.
func Resolve(raw string, readOnly bool) Target {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Target{Dialect: DialectPostgres, DSN: trimmed}
	case strings.HasPrefix(lower, "duckdb://"):
		path := trimmed[len("duckdb://"):]
		return Target{Dialect: DialectDuckDB, Path: path, DSN: duckDBDSN(path, readOnly)}
	case strings.HasPrefix(lower, "sqlite:///"):
		path := trimmed[len("sqlite:///"):]
		return Target{Dialect: DialectSQLite, Path: path, DSN: sqliteDSN(path, readOnly)}
	case strings.HasPrefix(lower, "sqlite://"):
		path := trimmed[len("sqlite://"):]
		return Target{Dialect: DialectSQLite, Path: path, DSN: sqliteDSN(path, readOnly)}
	}

	switch strings.ToLower(filepath.Ext(trimmed)) {
	case ".duckdb", ".ddb":
		return Target{Dialect: DialectDuckDB, Path: trimmed, DSN: duckDBDSN(trimmed, readOnly)}
	}
	return Target{Dialect: DialectSQLite, Path: trimmed, DSN: sqliteDSN(trimmed, readOnly)}
}

// SQLite never creates a missing file here: a typo in the path must fail the
// open instead of producing an empty database.
func sqliteDSN(path string, readOnly bool) string {
	mode := "rw"
	if readOnly {
		mode = "ro"
	}
	values := url.Values{}
	values.Set("mode", mode)
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?" + values.Encode()
}

func duckDBDSN(path string, readOnly bool) string {
	if !readOnly {
		return path
	}
	return path + "?access_mode=read_only"
}
