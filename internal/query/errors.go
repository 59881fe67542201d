package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrEntityNotFound    = errors.New("entity not found")
	ErrSourceUnavailable = errors.New("source code unavailable")

	// ErrPromptRender marks a prompt template that failed to render. It is a
	// programming error, never a model outage.
	ErrPromptRender = errors.New("rendering prompt")
)

const (
	MsgCannotAnswer      = "Sorry, I can only answer questions about the structure of the codebase or explain what a class or method does."
	MsgModelUnavailable  = "The language model is unavailable right now. Please try again later."
	MsgEntityNotFound    = "I could not find that class or method in the codebase."
	MsgSourceUnavailable = "I found that entity, but its source code is not available to explain."
	MsgCancelled         = "The request was cancelled before an answer was produced."
	MsgInternalError     = "Something went wrong while answering the question."
)

const maxMessageLength = 300

// ClassificationError reports a model failure while classifying intent.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classifying question: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// GenerationError reports a model failure while producing a query or an
// explanation.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ExecutionError is a failed execution of a generated query.
type ExecutionError struct {
	Query   string
	Message string
}

func (e *ExecutionError) Error() string {
	return e.Message
}

// ExhaustedRetriesError ends a self-correction loop that never produced an
// executable query.
type ExhaustedRetriesError struct {
	Attempts  int
	LastError string
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("no executable query after %d attempts: %s", e.Attempts, e.LastError)
}

// failureText maps an internal error to the short sentence shown to users.
func failureText(err error) string {
	var (
		classification *ClassificationError
		generation     *GenerationError
		exhausted      *ExhaustedRetriesError
		execution      *ExecutionError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return MsgCancelled
	case errors.Is(err, ErrPromptRender):
		return MsgInternalError
	case errors.As(err, &classification), errors.As(err, &generation):
		return MsgModelUnavailable
	case errors.As(err, &exhausted):
		return fmt.Sprintf("I couldn't produce a working query after %d attempts. Last error: %s",
			exhausted.Attempts, truncate(exhausted.LastError))
	case errors.Is(err, ErrEntityNotFound):
		return MsgEntityNotFound
	case errors.Is(err, ErrSourceUnavailable):
		return MsgSourceUnavailable
	case errors.As(err, &execution):
		return fmt.Sprintf("I couldn't retrieve the source code: %s", truncate(execution.Message))
	default:
		return MsgInternalError
	}
}

func truncate(message string) string {
	runes := []rune(message)
	if len(runes) <= maxMessageLength {
		return message
	}
	return string(runes[:maxMessageLength]) + "..."
}

// failureLevel is the log level for a failed step: prompt rendering bugs are
// errors, everything else is an expected runtime condition.
func failureLevel(err error) slog.Level {
	if errors.Is(err, ErrPromptRender) {
		return slog.LevelError
	}
	return slog.LevelWarn
}
