package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"codegraph/internal/history"
)

func (c *Client) SaveRun(ctx context.Context, r history.Record) error {
	result := []byte(r.Result)
	if len(result) == 0 {
		result = []byte("{}")
	}
	err := pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
INSERT INTO query_runs (id, question, intent, result_kind, result, started_at, duration_ms)
VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)`,
			r.ID, r.Question, r.Intent, r.ResultKind, string(result),
			r.StartedAt.UTC(), r.Duration.Milliseconds(),
		); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, a := range r.Attempts {
			batch.Queue(`
INSERT INTO query_attempts (run_id, number, query, status, error)
VALUES ($1, $2, $3, $4, $5)`, r.ID, a.Number, a.Query, a.Status, a.Error)
		}
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

func (c *Client) ListRuns(ctx context.Context, limit int) ([]history.Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.pool.Query(ctx, `
SELECT r.id, r.question, r.intent, r.result_kind, r.started_at, r.duration_ms,
       (SELECT count(*) FROM query_attempts a WHERE a.run_id = r.id)
FROM query_runs r
ORDER BY r.started_at DESC, r.id
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]history.Summary, 0)
	for rows.Next() {
		var (
			s          history.Summary
			durationMS int64
		)
		if err := rows.Scan(&s.ID, &s.Question, &s.Intent, &s.ResultKind, &s.StartedAt, &durationMS, &s.AttemptCount); err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		s.Duration = time.Duration(durationMS) * time.Millisecond
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return summaries, nil
}

func (c *Client) GetRun(ctx context.Context, id string) (*history.Record, error) {
	var (
		r          history.Record
		result     string
		durationMS int64
	)
	err := c.pool.QueryRow(ctx, `
SELECT id, question, intent, result_kind, result::text, started_at, duration_ms
FROM query_runs WHERE id = $1`, id).Scan(&r.ID, &r.Question, &r.Intent, &r.ResultKind, &result, &r.StartedAt, &durationMS)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("getting run %s: %w", id, history.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run %s: %w", id, err)
	}
	r.Result = []byte(result)
	r.Duration = time.Duration(durationMS) * time.Millisecond

	rows, err := c.pool.Query(ctx, `
SELECT number, query, status, error FROM query_attempts WHERE run_id = $1 ORDER BY number`, id)
	if err != nil {
		return nil, fmt.Errorf("getting attempts for %s: %w", id, err)
	}
	defer rows.Close()

	r.Attempts = make([]history.Attempt, 0)
	for rows.Next() {
		var a history.Attempt
		if err := rows.Scan(&a.Number, &a.Query, &a.Status, &a.Error); err != nil {
			return nil, fmt.Errorf("getting attempts for %s: %w", id, err)
		}
		r.Attempts = append(r.Attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getting attempts for %s: %w", id, err)
	}
	return &r, nil
}

func (c *Client) PruneRuns(ctx context.Context, before time.Time) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM query_runs WHERE started_at < $1`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
