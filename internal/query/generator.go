package query

import (
	"context"
	"strings"
	"unicode"
)

// ModelClient is the narrow language-model capability consumed by the core.
// Authentication, hosting and request shaping live behind it.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Executor runs a Cypher query and returns its rows in order. Errors carry the
// backend's human-readable diagnostic.
type Executor interface {
	Execute(ctx context.Context, cypher string) ([]map[string]any, error)
}

// QueryGenerator produces a candidate query for one prompt context.
type QueryGenerator interface {
	Generate(ctx context.Context, pc PromptContext) (string, error)
}

type Generator struct {
	model ModelClient
}

func NewGenerator(model ModelClient) *Generator {
	return &Generator{model: model}
}

func (g *Generator) Generate(ctx context.Context, pc PromptContext) (string, error) {
	prompt, err := AssemblePrompt(ctx, pc)
	if err != nil {
		return "", err
	}
	completion, err := g.model.Complete(ctx, prompt)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	return CleanQuery(completion), nil
}

// CleanQuery strips surrounding whitespace and markdown code fences from a
// completion. It does not check syntax.
func CleanQuery(completion string) string {
	q := strings.TrimSpace(completion)
	if strings.HasPrefix(q, "```") {
		q = strings.TrimPrefix(q, "```")
		if nl := strings.IndexByte(q, '\n'); nl >= 0 && isFenceTag(q[:nl]) {
			q = q[nl+1:]
		}
	}
	q = strings.TrimSpace(q)
	q = strings.TrimSuffix(q, "```")
	return strings.TrimSpace(q)
}

func isFenceTag(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) > 20 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}
