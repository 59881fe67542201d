package query

import (
	"encoding/json"
	"fmt"
	"time"

	"codegraph/internal/schema"
)

// Intent is the classified purpose of a question.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentLookup
	IntentExplanation
)

func (i Intent) String() string {
	switch i {
	case IntentLookup:
		return "lookup"
	case IntentExplanation:
		return "explanation"
	default:
		return "unknown"
	}
}

func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// Example is a few-shot question/Cypher pair.
type Example struct {
	Question string `json:"question"`
	Cypher   string `json:"cypher"`
}

// Task selects the instruction set used to build a generation prompt.
type Task int

const (
	TaskLookup Task = iota
	TaskSourceFetch
)

// Correction carries the immediately preceding failed attempt into the next
// generation prompt.
type Correction struct {
	Query string
	Error string
}

// Fragment is the text appended verbatim to a correction prompt.
func (c Correction) Fragment() string {
	return fmt.Sprintf("The previous query failed.\nFailed query: %s\nError: %s\nWrite a corrected query that avoids this error.", c.Query, c.Error)
}

// PromptContext is built fresh for every generation attempt.
type PromptContext struct {
	Task       Task
	Schema     *schema.Summary
	Examples   []Example
	Question   string
	Correction *Correction
}

type AttemptStatus string

const (
	AttemptSucceeded AttemptStatus = "success"
	AttemptFailed    AttemptStatus = "failed"
)

// QueryAttempt is one generate/execute cycle. Attempt logs are append-only.
type QueryAttempt struct {
	Number       int           `json:"attempt"`
	Query        string        `json:"query"`
	Status       AttemptStatus `json:"status"`
	ErrorMessage string        `json:"error,omitempty"`
}

// Row maps projected field names to values.
type Row = map[string]any

type EntityKind string

const (
	EntityClass  EntityKind = "Class"
	EntityMethod EntityKind = "Method"
)

type ExplanationRequest struct {
	EntityName string
	EntityKind EntityKind
	SourceCode string
}

func (r ExplanationRequest) HasSource() bool {
	return r.SourceCode != ""
}

type ResultKind string

const (
	ResultRows        ResultKind = "rows"
	ResultExplanation ResultKind = "explanation"
	ResultFailure     ResultKind = "failure"
)

// Result is exactly one of a row set, explanation prose or a failure sentence.
type Result struct {
	Kind ResultKind
	Rows []Row
	Text string
}

func RowsResult(rows []Row) Result {
	if rows == nil {
		rows = []Row{}
	}
	return Result{Kind: ResultRows, Rows: rows}
}

func ExplanationResult(text string) Result {
	return Result{Kind: ResultExplanation, Text: text}
}

func FailureResult(text string) Result {
	return Result{Kind: ResultFailure, Text: text}
}

func (r Result) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ResultRows:
		return json.Marshal(struct {
			Kind ResultKind `json:"kind"`
			Rows []Row      `json:"rows"`
		}{r.Kind, r.Rows})
	default:
		return json.Marshal(struct {
			Kind ResultKind `json:"kind"`
			Text string     `json:"text"`
		}{r.Kind, r.Text})
	}
}

// QueryRun is the envelope returned for every question.
type QueryRun struct {
	ID        string
	Question  string
	Intent    Intent
	Result    Result
	Attempts  []QueryAttempt
	StartedAt time.Time
	Duration  time.Duration
}

func (r QueryRun) Succeeded() bool {
	return r.Result.Kind != ResultFailure
}

func (r QueryRun) MarshalJSON() ([]byte, error) {
	attempts := r.Attempts
	if attempts == nil {
		attempts = []QueryAttempt{}
	}
	return json.Marshal(struct {
		ID         string         `json:"id"`
		Question   string         `json:"question"`
		Intent     Intent         `json:"intent"`
		Result     Result         `json:"result"`
		Attempts   []QueryAttempt `json:"attempts"`
		StartedAt  time.Time      `json:"started_at"`
		DurationMS int64          `json:"duration_ms"`
	}{r.ID, r.Question, r.Intent, r.Result, attempts, r.StartedAt, r.Duration.Milliseconds()})
}
