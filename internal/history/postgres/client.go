package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"codegraph/internal/history"
)

var _ history.Store = (*Client)(nil)

type Client struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Client, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{pool: pool}, nil
}

func (c *Client) Close(ctx context.Context) error {
	c.pool.Close()
	return nil
}

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS query_runs (
    id          TEXT PRIMARY KEY,
    question    TEXT NOT NULL,
    intent      TEXT NOT NULL,
    result_kind TEXT NOT NULL,
    result      JSONB NOT NULL DEFAULT '{}',
    started_at  TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS query_attempts (
    run_id  TEXT NOT NULL REFERENCES query_runs(id) ON DELETE CASCADE,
    number  INTEGER NOT NULL,
    query   TEXT NOT NULL,
    status  TEXT NOT NULL,
    error   TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, number)
);

CREATE INDEX IF NOT EXISTS idx_query_runs_started_at ON query_runs (started_at DESC);
CREATE INDEX IF NOT EXISTS idx_query_runs_result_kind ON query_runs (result_kind);
`
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
