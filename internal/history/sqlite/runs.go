package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"codegraph/internal/history"
)

// Fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func (c *Client) SaveRun(ctx context.Context, r history.Record) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	defer tx.Rollback()

	result := string(r.Result)
	if result == "" {
		result = "{}"
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, question, intent, result_kind, result, started_at, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Question, r.Intent, r.ResultKind, result,
		r.StartedAt.UTC().Format(timeLayout), r.Duration.Milliseconds(),
	); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	for _, a := range r.Attempts {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO attempts (run_id, number, query, status, error)
VALUES (?, ?, ?, ?, ?)`,
			r.ID, a.Number, a.Query, a.Status, a.Error,
		); err != nil {
			return fmt.Errorf("saving attempt %d: %w", a.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

func (c *Client) ListRuns(ctx context.Context, limit int) ([]history.Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.QueryContext(ctx, `
SELECT r.id, r.question, r.intent, r.result_kind, r.started_at, r.duration_ms,
       (SELECT count(*) FROM attempts a WHERE a.run_id = r.id)
FROM runs r
ORDER BY r.started_at DESC, r.id
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]history.Summary, 0)
	for rows.Next() {
		var (
			s          history.Summary
			startedAt  string
			durationMS int64
		)
		if err := rows.Scan(&s.ID, &s.Question, &s.Intent, &s.ResultKind, &startedAt, &durationMS, &s.AttemptCount); err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		s.StartedAt, err = time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing started_at for %s: %w", s.ID, err)
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
		startedAt  string
		durationMS int64
	)
	err := c.db.QueryRowContext(ctx, `
SELECT id, question, intent, result_kind, result, started_at, duration_ms
FROM runs WHERE id = ?`, id).Scan(&r.ID, &r.Question, &r.Intent, &r.ResultKind, &result, &startedAt, &durationMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting run %s: %w", id, history.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run %s: %w", id, err)
	}
	r.Result = []byte(result)
	r.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at for %s: %w", id, err)
	}
	r.Duration = time.Duration(durationMS) * time.Millisecond

	rows, err := c.db.QueryContext(ctx, `
SELECT number, query, status, error FROM attempts WHERE run_id = ? ORDER BY number`, id)
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

// PruneRuns deletes runs started before the cutoff. Attempts cascade.
func (c *Client) PruneRuns(ctx context.Context, before time.Time) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`,
		before.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return affected, nil
}
