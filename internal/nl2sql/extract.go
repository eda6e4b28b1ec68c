package nl2sql

import (
	"regexp"
	"strings"
)

var (
	fencedSQLPattern = regexp.MustCompile("(?s)```(?i:sql)[ \\t]*\\r?\\n(.*?)\\r?\\n[ \\t]*```")
	selectPattern    = regexp.MustCompile(`(?is)SELECT.*?;`)
)

// Extract pulls a SQL statement out of a model response: the first fenced
// sql block, else the first SELECT ... ; span, else the whole trimmed text.
func Extract(text string) string {
	sqlText, _ := extract(text)
	return sqlText
}

func extract(text string) (sqlText string, fallback bool) {
	if match := fencedSQLPattern.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1]), false
	}
	if match := selectPattern.FindString(text); match != "" {
		return strings.TrimSpace(match), false
	}
	return strings.TrimSpace(text), true
}
