package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

const noRows = "(no rows)"

// Text renders the result as an ASCII table for the console and for prompts.
func (r Result) Text() string {
	if len(r.Columns) == 0 || len(r.Rows) == 0 {
		return noRows
	}

	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(r.Columns)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, row := range r.Rows {
		table.Append(FormatRow(row))
	}
	table.Render()

	if r.Truncated {
		fmt.Fprintf(&buf, "(showing first %d rows)\n", len(r.Rows))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func FormatRow(row []any) []string {
	cells := make([]string, len(row))
	for i, value := range row {
		cells[i] = FormatValue(value)
	}
	return cells
}

func FormatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(typed)
	case time.Time:
		return typed.Format(time.RFC3339)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", typed), "0"), ".")
	default:
		return fmt.Sprint(typed)
	}
}
