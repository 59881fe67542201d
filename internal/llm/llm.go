// Package llm adapts hosted chat models to the single-prompt completion
// capability used by the query pipeline.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/ollama/ollama/api"

	"codegraph/internal/config"
)

const defaultTimeout = 2 * time.Minute

// NewChatModel builds the chat model for the configured provider.
func NewChatModel(ctx context.Context, cfg config.ModelConfig) (model.BaseChatModel, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	temperature := cfg.Temperature

	switch cfg.Provider {
	case config.ProviderOllama, "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   cfg.Name,
			Timeout: timeout,
			Options: &api.Options{Temperature: temperature},
		})
	case config.ProviderOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Name,
			Timeout:     timeout,
			Temperature: &temperature,
		})
	case config.ProviderArk:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Name,
			Timeout:     &timeout,
			Temperature: &temperature,
		})
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
	}
}

// TransportError reports that the model could not be reached or refused the
// request.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s model: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

var ErrEmptyCompletion = errors.New("model returned no content")

// ChatCompleter sends each prompt as a single user message.
type ChatCompleter struct {
	model    model.BaseChatModel
	provider string
}

func NewChatCompleter(chat model.BaseChatModel, provider string) *ChatCompleter {
	return &ChatCompleter{model: chat, provider: provider}
}

func (c *ChatCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", &TransportError{Provider: c.provider, Err: err}
	}
	if msg == nil {
		return "", &TransportError{Provider: c.provider, Err: ErrEmptyCompletion}
	}
	return msg.Content, nil
}
