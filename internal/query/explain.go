package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"codegraph/internal/schema"
)

// Explanation is the outcome of the explanation pipeline. Attempts is filled
// whenever a fetch query was generated, including on error.
type Explanation struct {
	Text     string
	Request  ExplanationRequest
	Attempts []QueryAttempt
}

// Explainer fetches an entity's source code and asks the model to describe it.
// The fetch query is executed once; a missing entity is a data condition.
type Explainer struct {
	generator QueryGenerator
	executor  Executor
	model     ModelClient
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewExplainer builds an Explainer. A nil logger or tracer falls back to
// slog.Default and a no-op tracer.
func NewExplainer(generator QueryGenerator, executor Executor, model ModelClient, logger *slog.Logger, tracer trace.Tracer) *Explainer {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(tracerName)
	}
	return &Explainer{
		generator: generator,
		executor:  executor,
		model:     model,
		logger:    logger,
		tracer:    tracer,
	}
}

func (e *Explainer) Explain(ctx context.Context, question string, summary *schema.Summary) (Explanation, error) {
	ctx, span := e.tracer.Start(ctx, "query.explain")
	defer span.End()

	var out Explanation
	fetch, err := e.generator.Generate(ctx, PromptContext{
		Task:     TaskSourceFetch,
		Schema:   summary,
		Question: question,
	})
	if err != nil {
		span.RecordError(err)
		return out, err
	}

	rows, err := e.executor.Execute(ctx, fetch)
	if err != nil {
		out.Attempts = append(out.Attempts, QueryAttempt{Number: 1, Query: fetch, Status: AttemptFailed, ErrorMessage: err.Error()})
		span.RecordError(err)
		span.SetStatus(codes.Error, "source fetch failed")
		e.logger.Debug("source fetch failed", "cypher", fetch, "error", err)
		return out, &ExecutionError{Query: fetch, Message: err.Error()}
	}
	out.Attempts = append(out.Attempts, QueryAttempt{Number: 1, Query: fetch, Status: AttemptSucceeded})

	if len(rows) == 0 {
		return out, ErrEntityNotFound
	}
	out.Request = requestFromRow(rows[0])
	span.SetAttributes(
		attribute.String("entity.name", out.Request.EntityName),
		attribute.String("entity.kind", string(out.Request.EntityKind)),
	)
	if !out.Request.HasSource() {
		return out, ErrSourceUnavailable
	}

	prompt, err := explanationPromptFor(ctx, out.Request)
	if err != nil {
		span.RecordError(err)
		e.logger.Error("explanation prompt failed", "entity", out.Request.EntityName, "error", err)
		return out, err
	}
	text, err := e.model.Complete(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		return out, &GenerationError{Err: err}
	}
	out.Text = text
	return out, nil
}

func requestFromRow(row Row) ExplanationRequest {
	req := ExplanationRequest{
		EntityName: stringValue(lookupField(row, "name")),
		EntityKind: parseEntityKind(lookupField(row, "kind")),
	}
	if source := stringValue(lookupField(row, "source")); strings.TrimSpace(source) != "" {
		req.SourceCode = source
	}
	return req
}

// lookupField finds a column by exact name, falling back to an unaliased
// property projection such as "m.source". The fallback only applies when a
// single column carries the suffix; ambiguous rows yield nil.
func lookupField(row Row, field string) any {
	if value, ok := row[field]; ok {
		return value
	}
	var (
		found   any
		matches int
	)
	for key, value := range row {
		if strings.HasSuffix(key, "."+field) {
			found = value
			matches++
		}
	}
	if matches != 1 {
		return nil
	}
	return found
}

func parseEntityKind(value any) EntityKind {
	var labels []string
	switch v := value.(type) {
	case string:
		labels = []string{v}
	case []string:
		labels = v
	case []any:
		for _, item := range v {
			labels = append(labels, stringValue(item))
		}
	}
	for _, label := range labels {
		if strings.EqualFold(label, string(EntityClass)) {
			return EntityClass
		}
	}
	return EntityMethod
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
