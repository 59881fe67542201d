package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"codegraph/internal/logging"
)

const fetchQuery = "MATCH (m:Method {name: 'Save'}) RETURN m.name AS name, labels(m)[0] AS kind, m.source AS source"

func newTestExplainer(model ModelClient, executor Executor) *Explainer {
	return NewExplainer(NewGenerator(model), executor, model, logging.Discard(), noop.NewTracerProvider().Tracer("test"))
}

func TestExplainNotFoundSkipsModel(t *testing.T) {
	model := newScriptedModel().on("fetch", reply{text: fetchQuery})
	executor := &scriptedExecutor{replies: []execReply{{rows: []map[string]any{}}}}

	out, err := newTestExplainer(model, executor).Explain(context.Background(), "Explain Save", classMethodSummary())

	require.ErrorIs(t, err, ErrEntityNotFound)
	assert.Equal(t, MsgEntityNotFound, failureText(err))
	assert.Empty(t, model.calls("explain"))
	require.Len(t, out.Attempts, 1)
	assert.Equal(t, AttemptSucceeded, out.Attempts[0].Status)
}

func TestExplainSourceUnavailable(t *testing.T) {
	model := newScriptedModel().on("fetch", reply{text: fetchQuery})
	executor := &scriptedExecutor{replies: []execReply{{rows: []map[string]any{
		{"name": "Save", "kind": "Method", "source": "   "},
	}}}}

	out, err := newTestExplainer(model, executor).Explain(context.Background(), "Explain Save", classMethodSummary())

	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, "Save", out.Request.EntityName)
	assert.Empty(t, model.calls("explain"))
}

func TestExplainReturnsCompletionVerbatim(t *testing.T) {
	text := "  Save persists the order.\n\n- Writes to the Orders table\n"
	model := newScriptedModel().
		on("fetch", reply{text: fetchQuery}).
		on("explain", reply{text: text})
	executor := &scriptedExecutor{replies: []execReply{{rows: []map[string]any{
		{"name": "Save", "kind": []any{"Method"}, "source": "void Save() { db.Orders.Add(o); }"},
	}}}}

	out, err := newTestExplainer(model, executor).Explain(context.Background(), "Explain Save", classMethodSummary())

	require.NoError(t, err)
	assert.Equal(t, text, out.Text)
	assert.Equal(t, EntityMethod, out.Request.EntityKind)
	prompts := model.calls("explain")
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "void Save() { db.Orders.Add(o); }")
}

func TestExplainUnaliasedColumns(t *testing.T) {
	model := newScriptedModel().
		on("fetch", reply{text: "MATCH (c:Class {name: 'UserService'}) RETURN c.name, labels(c), c.source"}).
		on("explain", reply{text: "It manages users."})
	executor := &scriptedExecutor{replies: []execReply{{rows: []map[string]any{
		{"c.name": "UserService", "c.kind": "Class", "c.source": "class UserService {}"},
	}}}}

	out, err := newTestExplainer(model, executor).Explain(context.Background(), "Explain UserService", classMethodSummary())

	require.NoError(t, err)
	assert.Equal(t, EntityClass, out.Request.EntityKind)
	prompts := model.calls("explain")
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "following class does")
}

func TestExplainFetchFailureIsNotRetried(t *testing.T) {
	model := newScriptedModel().always("fetch", reply{text: fetchQuery})
	executor := &scriptedExecutor{replies: []execReply{
		{err: backendError("Invalid input 'RETRUN'")},
		{rows: []map[string]any{{"name": "Save", "source": "x"}}},
	}}

	out, err := newTestExplainer(model, executor).Explain(context.Background(), "Explain Save", classMethodSummary())

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "I couldn't retrieve the source code: Invalid input 'RETRUN'", failureText(err))
	assert.Len(t, model.calls("fetch"), 1)
	assert.Len(t, executor.queries, 1)
	require.Len(t, out.Attempts, 1)
	assert.Equal(t, AttemptFailed, out.Attempts[0].Status)
	assert.Equal(t, "Invalid input 'RETRUN'", out.Attempts[0].ErrorMessage)
}

func TestExplainModelFailure(t *testing.T) {
	model := newScriptedModel().
		on("fetch", reply{text: fetchQuery}).
		on("explain", reply{err: errors.New("503")})
	executor := &scriptedExecutor{replies: []execReply{{rows: []map[string]any{{"name": "Save", "source": "x"}}}}}

	_, err := newTestExplainer(model, executor).Explain(context.Background(), "Explain Save", classMethodSummary())

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, MsgModelUnavailable, failureText(err))
}

func TestNewExplainerDefaultsLoggerAndTracer(t *testing.T) {
	model := newScriptedModel().
		on("fetch", reply{text: fetchQuery}).
		on("explain", reply{text: "Save stores an order."})
	executor := &scriptedExecutor{replies: []execReply{{rows: []map[string]any{
		{"name": "Save", "kind": "Method", "source": "void Save() {}"},
	}}}}

	explainer := NewExplainer(NewGenerator(model), executor, model, nil, nil)
	var (
		out Explanation
		err error
	)
	require.NotPanics(t, func() {
		out, err = explainer.Explain(context.Background(), "Explain Save", classMethodSummary())
	})

	require.NoError(t, err)
	assert.Equal(t, "Save stores an order.", out.Text)
}

func TestLookupField(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want any
	}{
		{"exact column", Row{"source": "a", "m.source": "b"}, "a"},
		{"single suffix", Row{"m.source": "b", "m.name": "Save"}, "b"},
		{"ambiguous suffix", Row{"c.source": "class", "m.source": "method"}, nil},
		{"missing", Row{"m.name": "Save"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 20 {
				assert.Equal(t, tt.want, lookupField(tt.row, "source"))
			}
		})
	}
}
