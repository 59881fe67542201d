// Package history keeps an audit trail of answered questions: the question,
// the classified intent, the result and every generated query attempt.
// It is write-mostly and never consulted when answering.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"codegraph/internal/query"
)

var ErrRunNotFound = errors.New("run not found")

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	SaveRun(ctx context.Context, r Record) error
	ListRuns(ctx context.Context, limit int) ([]Summary, error)
	GetRun(ctx context.Context, id string) (*Record, error)
	PruneRuns(ctx context.Context, before time.Time) (int64, error)
}

// Record is a persisted run. Result holds the JSON encoding of the run's
// result variant.
type Record struct {
	ID         string
	Question   string
	Intent     string
	ResultKind string
	Result     json.RawMessage
	Attempts   []Attempt
	StartedAt  time.Time
	Duration   time.Duration
}

type Attempt struct {
	Number int
	Query  string
	Status string
	Error  string
}

type Summary struct {
	ID           string
	Question     string
	Intent       string
	ResultKind   string
	AttemptCount int
	StartedAt    time.Time
	Duration     time.Duration
}

// FromRun converts a finished run into its stored form.
func FromRun(run query.QueryRun) (Record, error) {
	result, err := json.Marshal(run.Result)
	if err != nil {
		return Record{}, err
	}
	attempts := make([]Attempt, 0, len(run.Attempts))
	for _, a := range run.Attempts {
		attempts = append(attempts, Attempt{
			Number: a.Number,
			Query:  a.Query,
			Status: string(a.Status),
			Error:  a.ErrorMessage,
		})
	}
	return Record{
		ID:         run.ID,
		Question:   run.Question,
		Intent:     run.Intent.String(),
		ResultKind: string(run.Result.Kind),
		Result:     result,
		Attempts:   attempts,
		StartedAt:  run.StartedAt.UTC(),
		Duration:   run.Duration,
	}, nil
}

// Recorder persists runs handed over by the query orchestrator.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) Record(ctx context.Context, run query.QueryRun) error {
	record, err := FromRun(run)
	if err != nil {
		return err
	}
	return r.store.SaveRun(ctx, record)
}
