package query

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"codegraph/internal/schema"
)

const DefaultMaxAttempts = 3

const tracerName = "codegraph/query"

// Recorder persists finished runs for auditing.
type Recorder interface {
	Record(ctx context.Context, run QueryRun) error
}

// Orchestrator is the entry point answering one question per RunQuery call.
// It holds no per-question state; concurrent calls share only the read-only
// schema summary and the collaborators.
type Orchestrator struct {
	summary    atomic.Pointer[schema.Summary]
	summarizer *schema.Summarizer

	model    ModelClient
	executor Executor

	classifier *Classifier
	loop       *Loop
	explainer  *Explainer

	examples    []Example
	maxAttempts int
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *Metrics
	recorder    Recorder
	now         func() time.Time
	newID       func() string
}

type Option func(*Orchestrator)

// WithMaxAttempts sets the total number of generation calls per lookup.
// Default: 3
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithExamples replaces the built-in few-shot examples.
func WithExamples(examples []Example) Option {
	return func(o *Orchestrator) {
		if len(examples) > 0 {
			o.examples = append([]Example(nil), examples...)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = metrics
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = recorder
	}
}

// WithSummarizer enables RefreshSchema.
func WithSummarizer(summarizer *schema.Summarizer) Option {
	return func(o *Orchestrator) {
		o.summarizer = summarizer
	}
}

func withClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func New(summary *schema.Summary, model ModelClient, executor Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		model:       model,
		executor:    executor,
		examples:    DefaultExamples(),
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
		tracer:      noop.NewTracerProvider().Tracer(tracerName),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.summary.Store(summary)

	generator := NewGenerator(instrument(model, "generate", o.metrics))
	o.classifier = NewClassifier(instrument(model, "classify", o.metrics))
	o.loop = NewLoop(generator, executor, o.logger, o.tracer, o.metrics)
	o.explainer = NewExplainer(generator, executor, instrument(model, "explain", o.metrics), o.logger, o.tracer)
	return o
}

// Summary returns the schema summary used for new questions.
func (o *Orchestrator) Summary() *schema.Summary {
	return o.summary.Load()
}

// RefreshSchema recomputes the summary. In-flight questions keep the summary
// they started with.
func (o *Orchestrator) RefreshSchema(ctx context.Context) error {
	if o.summarizer == nil {
		return errors.New("refreshing schema: no summarizer configured")
	}
	summary, err := o.summarizer.Summarize(ctx)
	if err != nil {
		return err
	}
	o.summary.Store(summary)
	o.logger.Info("schema summary refreshed",
		"categories", len(summary.NodeCategories()),
		"relationships", len(summary.Relationships()))
	return nil
}

// RunQuery answers one question. It never fails: every error is reported as a
// failure result inside the returned run.
func (o *Orchestrator) RunQuery(ctx context.Context, question string) (run QueryRun) {
	start := o.now()
	run = QueryRun{
		ID:        o.newID(),
		Question:  question,
		Intent:    IntentUnknown,
		StartedAt: start,
	}

	ctx, span := o.tracer.Start(ctx, "query.RunQuery", trace.WithAttributes(attribute.String("run.id", run.ID)))
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("query run panicked", "run_id", run.ID, "panic", r)
			run.Result = FailureResult(MsgInternalError)
		}
		run.Duration = o.now().Sub(start)
		o.finish(ctx, span, run)
		span.End()
	}()

	summary := o.summary.Load()

	intent, err := o.classify(ctx, question)
	if err != nil {
		run.Result = FailureResult(failureText(err))
		return run
	}
	run.Intent = intent

	switch intent {
	case IntentLookup:
		outcome := o.loop.Run(ctx, question, summary, o.examples, o.maxAttempts)
		run.Attempts = outcome.Attempts
		if outcome.Err != nil {
			run.Result = FailureResult(failureText(outcome.Err))
			o.logger.Info("lookup failed", "run_id", run.ID, "attempts", len(outcome.Attempts), "error", outcome.Err)
			return run
		}
		run.Result = RowsResult(outcome.Rows)

	case IntentExplanation:
		explanation, err := o.explainer.Explain(ctx, question, summary)
		run.Attempts = explanation.Attempts
		if err != nil {
			run.Result = FailureResult(failureText(err))
			o.logger.Info("explanation failed", "run_id", run.ID, "error", err)
			return run
		}
		run.Result = ExplanationResult(explanation.Text)

	default:
		run.Result = FailureResult(MsgCannotAnswer)
	}

	return run
}

func (o *Orchestrator) classify(ctx context.Context, question string) (Intent, error) {
	ctx, span := o.tracer.Start(ctx, "query.classify")
	defer span.End()

	intent, err := o.classifier.Classify(ctx, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		o.logger.Log(ctx, failureLevel(err), "intent classification failed", "error", err)
		return IntentUnknown, err
	}
	span.SetAttributes(attribute.String("intent", intent.String()))
	return intent, nil
}

func (o *Orchestrator) finish(ctx context.Context, span trace.Span, run QueryRun) {
	span.SetAttributes(
		attribute.String("intent", run.Intent.String()),
		attribute.String("result.kind", string(run.Result.Kind)),
		attribute.Int("attempts", len(run.Attempts)),
	)
	if run.Result.Kind == ResultFailure {
		span.SetStatus(codes.Error, run.Result.Text)
	}
	o.metrics.observeRun(run)

	o.logger.Info("question answered",
		"run_id", run.ID,
		"intent", run.Intent.String(),
		"result", string(run.Result.Kind),
		"attempts", len(run.Attempts),
		"duration", run.Duration)

	if o.recorder == nil {
		return
	}
	if err := o.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
		o.logger.Warn("recording query run failed", "run_id", run.ID, "error", err)
	}
}
