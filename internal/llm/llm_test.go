package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/config"
)

type fakeChatModel struct {
	reply    *schema.Message
	err      error
	messages []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.messages = input
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestChatCompleterSendsSingleUserMessage(t *testing.T) {
	chat := &fakeChatModel{reply: schema.AssistantMessage("MATCH (n) RETURN n", nil)}
	completer := NewChatCompleter(chat, config.ProviderOllama)

	got, err := completer.Complete(context.Background(), "Question: list nodes")

	require.NoError(t, err)
	assert.Equal(t, "MATCH (n) RETURN n", got)
	require.Len(t, chat.messages, 1)
	assert.Equal(t, schema.User, chat.messages[0].Role)
	assert.Equal(t, "Question: list nodes", chat.messages[0].Content)
}

func TestChatCompleterWrapsErrors(t *testing.T) {
	cause := errors.New("connection refused")
	completer := NewChatCompleter(&fakeChatModel{err: cause}, config.ProviderOpenAI)

	_, err := completer.Complete(context.Background(), "hi")

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, config.ProviderOpenAI, transportErr.Provider)
	assert.ErrorIs(t, err, cause)
}

func TestChatCompleterNilMessage(t *testing.T) {
	_, err := NewChatCompleter(&fakeChatModel{}, config.ProviderArk).Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestNewChatModelUnsupportedProvider(t *testing.T) {
	_, err := NewChatModel(context.Background(), config.ModelConfig{Provider: "mystery", Name: "x"})
	require.Error(t, err)
}

func TestNewChatModelOllama(t *testing.T) {
	chat, err := NewChatModel(context.Background(), config.ModelConfig{Provider: config.ProviderOllama, Name: "devstral:24b"})
	require.NoError(t, err)
	assert.NotNil(t, chat)
}
