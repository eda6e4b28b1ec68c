package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
)

type DBConfig struct {
	DSN             string
	ReadOnly        bool
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type DB struct {
	*sql.DB
	Target Target
}

func Open(ctx context.Context, cfg DBConfig) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	target := Resolve(cfg.DSN, cfg.ReadOnly)
	if target.Path != "" {
		if _, err := os.Stat(target.Path); err != nil {
			return nil, fmt.Errorf("open %s database %q: %w", target.Dialect, target.Path, err)
		}
	}

	db, err := sql.Open(target.Dialect.DriverName(), target.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", target.Dialect, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", target.Dialect, err)
	}

	return &DB{DB: db, Target: target}, nil
}
