package sqlengine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/database"
	"github.com/askdb/askdb/internal/query"
)

type Options struct {
	Timeout  time.Duration
	ReadOnly bool
	// Dialect widens the read-only keyword set with engine-specific forms.
	Dialect database.Dialect
	// ReadOnlyTx runs statements inside a read-only transaction. Only
	// drivers that honour sql.TxOptions.ReadOnly should set it.
	ReadOnlyTx bool
}

type Engine struct {
	DB      *sql.DB
	Options Options
}

func NewEngine(db *sql.DB, opts Options) *Engine {
	return &Engine{DB: db, Options: opts}
}

func (e *Engine) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	if e.DB == nil {
		return query.Result{}, fmt.Errorf("database is required")
	}
	sqlText := stripTrailingSemicolons(request.SQL)
	if sqlText == "" {
		return query.Result{}, fmt.Errorf("sql is required")
	}
	if e.Options.ReadOnly {
		if err := query.CheckReadOnly(e.Options.Dialect, sqlText); err != nil {
			return query.Result{}, err
		}
	}

	if e.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Options.Timeout)
		defer cancel()
	}

	start := time.Now()
	var (
		rows *sql.Rows
		err  error
	)
	if e.Options.ReadOnly && e.Options.ReadOnlyTx {
		tx, txErr := e.DB.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
		if txErr != nil {
			return query.Result{}, fmt.Errorf("begin read-only transaction: %w", txErr)
		}
		defer func() { _ = tx.Rollback() }()
		rows, err = tx.QueryContext(ctx, sqlText)
	} else {
		rows, err = e.DB.QueryContext(ctx, sqlText)
	}
	if err != nil {
		return query.Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return query.Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	truncated := false
	for rows.Next() {
		if request.RowLimit > 0 && len(resultRows) >= request.RowLimit {
			truncated = true
			break
		}
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return query.Result{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return query.Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	return query.Result{
		Columns:   columns,
		Rows:      resultRows,
		Truncated: truncated,
		Duration:  time.Since(start),
	}, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
