package query

import (
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/database"
)

var readOnlyKeywords = map[string]struct{}{
	"SELECT":   {},
	"WITH":     {},
	"PRAGMA":   {},
	"EXPLAIN":  {},
	"VALUES":   {},
	"SHOW":     {},
	"DESCRIBE": {},
}

// dialectReadOnlyKeywords extends readOnlyKeywords with query forms only some
// engines accept: DuckDB's FROM-first SELECT, SUMMARIZE and TABLE, and
// PostgreSQL's TABLE.
var dialectReadOnlyKeywords = map[database.Dialect]map[string]struct{}{
	database.DialectDuckDB: {
		"FROM":      {},
		"SUMMARIZE": {},
		"TABLE":     {},
	},
	database.DialectPostgres: {
		"TABLE": {},
	},
}

// AllowedReadOnly reports whether keyword may lead a statement in read-only
// mode for dialect.
func AllowedReadOnly(dialect database.Dialect, keyword string) bool {
	if _, ok := readOnlyKeywords[keyword]; ok {
		return true
	}
	_, ok := dialectReadOnlyKeywords[dialect][keyword]
	return ok
}

// CheckReadOnly rejects statements whose leading keyword can modify data.
// Data-modifying CTEs are caught by the read-only connection or transaction
// the engine runs under, not here.
func CheckReadOnly(dialect database.Dialect, sqlText string) error {
	keyword := LeadingKeyword(sqlText)
	if keyword == "" {
		return fmt.Errorf("%w: empty statement", ErrReadOnly)
	}
	if !AllowedReadOnly(dialect, keyword) {
		return fmt.Errorf("%w: %s statements are not allowed", ErrReadOnly, keyword)
	}
	return nil
}

// LeadingKeyword returns the first SQL keyword, upper-cased, skipping
// whitespace, comments and opening parentheses.
func LeadingKeyword(sqlText string) string {
	rest := sqlText
	for {
		rest = strings.TrimLeft(rest, " \t\r\n(")
		switch {
		case strings.HasPrefix(rest, "--"):
			newline := strings.IndexByte(rest, '\n')
			if newline < 0 {
				return ""
			}
			rest = rest[newline+1:]
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest, "*/")
			if end < 0 {
				return ""
			}
			rest = rest[end+2:]
		default:
			end := strings.IndexFunc(rest, func(r rune) bool {
				return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_')
			})
			if end < 0 {
				end = len(rest)
			}
			return strings.ToUpper(rest[:end])
		}
	}
}
