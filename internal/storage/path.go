package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildExportPath lays out exports as <prefix>/date=YYYY-MM-DD/query-<id>.parquet.
func BuildExportPath(prefix string, exportedAt time.Time, queryID string) (string, error) {
	if err := validatePathComponent(queryID, "query id"); err != nil {
		return "", err
	}
	parts := make([]string, 0, 3)
	for _, component := range strings.Split(strings.Trim(prefix, "/"), "/") {
		if component == "" {
			continue
		}
		if err := validatePathComponent(component, "export prefix"); err != nil {
			return "", err
		}
		parts = append(parts, component)
	}

	ts := exportedAt.UTC()
	parts = append(parts,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("query-%s.parquet", queryID),
	)
	return path.Join(parts...), nil
}

// CleanKey normalises an object key and rejects keys escaping the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.TrimPrefix(key, "/"))
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return cleaned, nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
