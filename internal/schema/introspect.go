package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/database"
)

type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func Introspect(ctx context.Context, db Queryer, dialect database.Dialect) (Map, error) {
	if db == nil {
		return Map{}, fmt.Errorf("database handle is required")
	}
	switch dialect {
	case database.DialectSQLite:
		return introspectSQLite(ctx, db)
	case database.DialectDuckDB:
		return introspectInformationSchema(ctx, db, "main")
	case database.DialectPostgres:
		return introspectInformationSchema(ctx, db, "public")
	default:
		return Map{}, fmt.Errorf("unsupported dialect %q", dialect)
	}
}

func introspectSQLite(ctx context.Context, db Queryer) (Map, error) {
	names, err := queryStrings(ctx, db, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return Map{}, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		columns, err := sqliteColumns(ctx, db, name)
		if err != nil {
			return Map{}, err
		}
		tables = append(tables, Table{Name: name, Columns: columns})
	}
	return NewMap(tables), nil
}

func sqliteColumns(ctx context.Context, db Queryer, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("table info %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]Column, 0)
	for rows.Next() {
		var (
			cid          int
			name         string
			declaredType string
			notNull      int
			defaultValue sql.NullString
			pk           int
		)
		if err := rows.Scan(&cid, &name, &declaredType, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table info %q: %w", table, err)
		}
		columns = append(columns, Column{
			Name:       name,
			Type:       declaredType,
			NotNull:    notNull != 0,
			PrimaryKey: pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info %q: %w", table, err)
	}
	return columns, nil
}

func introspectInformationSchema(ctx context.Context, db Queryer, tableSchema string) (Map, error) {
	names, err := queryStrings(ctx, db, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`, tableSchema)
	if err != nil {
		return Map{}, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		columns, err := informationSchemaColumns(ctx, db, tableSchema, name)
		if err != nil {
			return Map{}, err
		}
		tables = append(tables, Table{Name: name, Columns: columns})
	}
	return NewMap(tables), nil
}

func informationSchemaColumns(ctx context.Context, db Queryer, tableSchema, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, `
SELECT column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`, tableSchema, table)
	if err != nil {
		return nil, fmt.Errorf("list columns %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]Column, 0)
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan columns %q: %w", table, err)
		}
		columns = append(columns, Column{
			Name:    name,
			Type:    dataType,
			NotNull: strings.EqualFold(nullable, "NO"),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns %q: %w", table, err)
	}
	return columns, nil
}

func queryStrings(ctx context.Context, db Queryer, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	values := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
