package query

import (
	"context"
	"strings"
	"sync"

	"codegraph/internal/schema"
)

type reply struct {
	text string
	err  error
}

// scriptedModel answers each prompt kind from its own queue and records every
// prompt it receives.
type scriptedModel struct {
	mu       sync.Mutex
	replies  map[string][]reply
	prompts  map[string][]string
	fallback map[string]reply
}

func newScriptedModel() *scriptedModel {
	return &scriptedModel{
		replies:  make(map[string][]reply),
		prompts:  make(map[string][]string),
		fallback: make(map[string]reply),
	}
}

func (m *scriptedModel) on(kind string, replies ...reply) *scriptedModel {
	m.replies[kind] = append(m.replies[kind], replies...)
	return m
}

func (m *scriptedModel) always(kind string, r reply) *scriptedModel {
	m.fallback[kind] = r
	return m
}

func (m *scriptedModel) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kind := promptKind(prompt)
	m.prompts[kind] = append(m.prompts[kind], prompt)
	if queue := m.replies[kind]; len(queue) > 0 {
		m.replies[kind] = queue[1:]
		return queue[0].text, queue[0].err
	}
	r := m.fallback[kind]
	return r.text, r.err
}

func (m *scriptedModel) calls(kind string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts[kind]...)
}

func promptKind(prompt string) string {
	switch {
	case strings.HasPrefix(prompt, "Classify a question"):
		return "classify"
	case strings.Contains(prompt, "retrieves the source code"):
		return "fetch"
	case strings.HasPrefix(prompt, "You are a senior software engineer"):
		return "explain"
	default:
		return "lookup"
	}
}

type execReply struct {
	rows []map[string]any
	err  error
}

// scriptedExecutor returns queued replies in order and records each query.
type scriptedExecutor struct {
	mu      sync.Mutex
	replies []execReply
	queries []string
}

func (e *scriptedExecutor) Execute(_ context.Context, cypher string) ([]map[string]any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queries = append(e.queries, cypher)
	if len(e.replies) == 0 {
		return nil, nil
	}
	r := e.replies[0]
	e.replies = e.replies[1:]
	return r.rows, r.err
}

type backendError string

func (e backendError) Error() string { return string(e) }

func classMethodSummary() *schema.Summary {
	return schema.NewSummary(
		[]string{"Class", "Method"},
		[]schema.Pattern{{From: "Class", Type: "HAS_METHOD", To: "Method"}},
		map[string][]string{"Class": {"name", "source"}, "Method": {"name", "source"}},
	)
}
