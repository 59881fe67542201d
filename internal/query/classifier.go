package query

import (
	"context"
	"strings"
)

const (
	labelLookup      = "cypher_lookup"
	labelExplanation = "method_explanation"
)

// Classifier labels a question with one model call and no retry.
type Classifier struct {
	model ModelClient
}

func NewClassifier(model ModelClient) *Classifier {
	return &Classifier{model: model}
}

func (c *Classifier) Classify(ctx context.Context, question string) (Intent, error) {
	prompt, err := classificationPrompt(ctx, question)
	if err != nil {
		return IntentUnknown, err
	}
	completion, err := c.model.Complete(ctx, prompt)
	if err != nil {
		return IntentUnknown, &ClassificationError{Err: err}
	}
	return ParseIntent(completion), nil
}

// ParseIntent maps a classifier completion to an intent. Only an exact label
// match after trimming and case folding is recognised.
func ParseIntent(completion string) Intent {
	switch strings.ToLower(strings.TrimSpace(completion)) {
	case labelLookup:
		return IntentLookup
	case labelExplanation:
		return IntentExplanation
	default:
		return IntentUnknown
	}
}
