package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/config"
)

// Completer runs one chat completion against a named model.
type Completer interface {
	Complete(ctx context.Context, model, system, user string) (string, error)
}

// CompleterFactory builds a Completer from explicit credentials. It
// returns an error wrapping ErrUnconfigured when credentials are missing.
type CompleterFactory func(creds config.Credentials) (Completer, error)

// OpenAICompleter talks to any OpenAI-compatible chat endpoint.
type OpenAICompleter struct {
	client openai.Client
}

// NewOpenAICompleter is the default CompleterFactory. It points openai-go
// at the summary base URL (DeepSeek unless overridden).
func NewOpenAICompleter(creds config.Credentials) (Completer, error) {
	if !creds.HasSummary() {
		return nil, fmt.Errorf("DEEPSEEK_API_KEY not set: %w", ErrUnconfigured)
	}
	baseURL := strings.TrimSpace(creds.SummaryBaseURL)
	if baseURL == "" {
		baseURL = config.DefaultSummaryBaseURL
	}

	client := openai.NewClient(
		option.WithAPIKey(creds.SummaryAPIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(1),
		option.WithRequestTimeout(90*time.Second),
	)
	return &OpenAICompleter{client: client}, nil
}

// Complete returns the trimmed content of the first choice.
func (c *OpenAICompleter) Complete(ctx context.Context, model, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       openai.ChatModel(model),
		Temperature: openai.Float(Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
