package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"codegraph/internal/history"

	_ "modernc.org/sqlite"
)

var _ history.Store = (*Client)(nil)

type Client struct {
	db *sql.DB
}

func New(ctx context.Context, dsn string) (*Client, error) {
	driverDSN, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}

	db, err := sql.Open("sqlite", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// Each connection to :memory: is a separate database.
	if driverDSN == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	return &Client{db: db}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		question    TEXT NOT NULL,
		intent      TEXT NOT NULL,
		result_kind TEXT NOT NULL,
		result      TEXT NOT NULL DEFAULT '{}',
		started_at  TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS attempts (
		run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		number  INTEGER NOT NULL,
		query   TEXT NOT NULL,
		status  TEXT NOT NULL,
		error   TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, number)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs (started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_result_kind ON runs (result_kind);
	`
	if _, err := c.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
