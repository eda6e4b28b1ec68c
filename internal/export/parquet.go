package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/askdb/askdb/internal/query"
)

type parquetRow struct {
	QueryID          string `parquet:"query_id"`
	Question         string `parquet:"question"`
	SQL              string `parquet:"sql"`
	Interpretation   string `parquet:"interpretation"`
	RowIndex         int64  `parquet:"row_index"`
	PayloadJSON      string `parquet:"payload_json"`
	ExportedAtUnixMs int64  `parquet:"exported_at_unix_ms"`
}

// EncodeRecord writes one parquet row per result row. Each row carries the
// record metadata and the result row as a JSON object keyed by column.
func EncodeRecord(record Record, exportedAtUnixMs int64) ([]byte, error) {
	if len(record.Result.Rows) == 0 {
		return nil, fmt.Errorf("result has no rows to export")
	}

	keys := columnKeys(record.Result.Columns)
	rows := make([]parquetRow, 0, len(record.Result.Rows))
	for i, values := range record.Result.Rows {
		payload, err := rowPayload(keys, values)
		if err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i, err)
		}
		rows = append(rows, parquetRow{
			QueryID:          record.ID,
			Question:         record.Question,
			SQL:              record.SQL,
			Interpretation:   record.Interpretation,
			RowIndex:         int64(i),
			PayloadJSON:      string(payload),
			ExportedAtUnixMs: exportedAtUnixMs,
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetRow](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// columnKeys disambiguates repeated column names, e.g. two "Name" columns
// from a join become "Name" and "Name_2".
func columnKeys(columns []string) []string {
	keys := make([]string, len(columns))
	seen := make(map[string]int, len(columns))
	for i, column := range columns {
		seen[column]++
		if n := seen[column]; n > 1 {
			keys[i] = column + "_" + strconv.Itoa(n)
			continue
		}
		keys[i] = column
	}
	return keys
}

func rowPayload(keys []string, values []any) ([]byte, error) {
	object := make(map[string]any, len(keys))
	for i, key := range keys {
		if i >= len(values) {
			break
		}
		object[key] = payloadValue(values[i])
	}
	return json.Marshal(object)
}

// payloadValue keeps JSON-representable driver values as they are and falls
// back to the rendered text for the rest (non-finite floats, DuckDB maps
// with non-string keys and similar).
func payloadValue(value any) any {
	switch typed := value.(type) {
	case nil, bool, string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return typed
	case []byte:
		return string(typed)
	case float32:
		if math.IsInf(float64(typed), 0) || math.IsNaN(float64(typed)) {
			return query.FormatValue(float64(typed))
		}
		return typed
	case float64:
		if math.IsInf(typed, 0) || math.IsNaN(typed) {
			return query.FormatValue(typed)
		}
		return typed
	}
	if _, err := json.Marshal(value); err != nil {
		return query.FormatValue(value)
	}
	return value
}

