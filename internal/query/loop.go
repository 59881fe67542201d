package query

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"codegraph/internal/schema"
)

type loopState int

const (
	stateGenerate loopState = iota
	stateExecute
	stateSuccess
	stateExhausted
	stateAborted
)

// LoopOutcome is what one self-correction run produced. Err is nil exactly
// when Rows holds the result of a successful execution.
type LoopOutcome struct {
	Attempts []QueryAttempt
	Rows     []Row
	Err      error
}

// Loop generates and executes lookup queries, feeding each execution error
// into the next generation until a query runs or the budget is spent.
type Loop struct {
	generator QueryGenerator
	executor  Executor
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *Metrics
}

// NewLoop builds a Loop. A nil logger or tracer falls back to slog.Default and
// a no-op tracer; nil metrics are not recorded.
func NewLoop(generator QueryGenerator, executor Executor, logger *slog.Logger, tracer trace.Tracer, metrics *Metrics) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(tracerName)
	}
	return &Loop{
		generator: generator,
		executor:  executor,
		logger:    logger,
		tracer:    tracer,
		metrics:   metrics,
	}
}

// Run performs at most maxAttempts generation calls. Attempts run strictly in
// sequence and the correction fragment only ever describes the previous one.
func (l *Loop) Run(ctx context.Context, question string, summary *schema.Summary, examples []Example, maxAttempts int) LoopOutcome {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		outcome    LoopOutcome
		correction *Correction
		query      string
		attempt    = 1
		state      = stateGenerate
	)

	for {
		switch state {
		case stateGenerate:
			if err := ctx.Err(); err != nil {
				outcome.Err = err
				state = stateAborted
				continue
			}
			generated, err := l.generator.Generate(ctx, PromptContext{
				Task:       TaskLookup,
				Schema:     summary,
				Examples:   examples,
				Question:   question,
				Correction: correction,
			})
			if err != nil {
				l.logger.Log(ctx, failureLevel(err), "query generation failed", "attempt", attempt, "error", err)
				outcome.Err = err
				state = stateAborted
				continue
			}
			query = generated
			state = stateExecute

		case stateExecute:
			rows, err := l.execute(ctx, attempt, query)
			if err == nil {
				outcome.Attempts = append(outcome.Attempts, QueryAttempt{
					Number: attempt,
					Query:  query,
					Status: AttemptSucceeded,
				})
				if rows == nil {
					rows = []Row{}
				}
				outcome.Rows = rows
				state = stateSuccess
				continue
			}

			message := err.Error()
			outcome.Attempts = append(outcome.Attempts, QueryAttempt{
				Number:       attempt,
				Query:        query,
				Status:       AttemptFailed,
				ErrorMessage: message,
			})
			if attempt >= maxAttempts {
				outcome.Err = &ExhaustedRetriesError{Attempts: attempt, LastError: message}
				state = stateExhausted
				continue
			}
			correction = &Correction{Query: query, Error: message}
			attempt++
			state = stateGenerate

		case stateSuccess, stateExhausted, stateAborted:
			return outcome
		}
	}
}

func (l *Loop) execute(ctx context.Context, attempt int, query string) ([]Row, error) {
	ctx, span := l.tracer.Start(ctx, "query.attempt", trace.WithAttributes(
		attribute.Int("attempt", attempt),
		attribute.String("cypher", query),
	))
	defer span.End()

	rows, err := l.executor.Execute(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "execution failed")
		l.metrics.observeAttempt(AttemptFailed)
		l.logger.Debug("generated query failed", "attempt", attempt, "cypher", query, "error", err)
		return nil, err
	}
	l.metrics.observeAttempt(AttemptSucceeded)
	l.logger.Debug("generated query succeeded", "attempt", attempt, "rows", len(rows))
	return rows, nil
}
