// Package summary turns a transcript window into the canonical
// keyword + summary text, trying a list of chat models and falling back
// to a locally derived summary when none answers.
package summary

import (
	"context"
	"log/slog"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/config"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/keywords"
)

// Result is a generated summary and the label of the model that wrote it.
type Result struct {
	Text  string
	Model string
}

// Generator produces summaries. It never fails: every error path ends in
// the local fallback.
type Generator struct {
	factory CompleterFactory
	model   string
	logger  *slog.Logger
}

// NewGenerator creates a generator. model is the configured primary model;
// factory defaults to NewOpenAICompleter.
func NewGenerator(factory CompleterFactory, model string, logger *slog.Logger) *Generator {
	if factory == nil {
		factory = NewOpenAICompleter
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{factory: factory, model: model, logger: logger}
}

// Generate summarizes window. The returned text is always non-empty and in
// canonical form.
func (g *Generator) Generate(ctx context.Context, creds config.Credentials, window string) Result {
	var lastErr error

	completer, err := g.factory(creds)
	if err != nil {
		g.logger.Info("summary backend unavailable, using local fallback", "error", err)
		lastErr = err
	} else {
		user := UserPrompt(window)
		for _, model := range Candidates(g.model) {
			text, err := completer.Complete(ctx, model, SystemPrompt, user)
			if err != nil {
				lastErr = err
				if ctx.Err() != nil || IsFatal(err) {
					g.logger.Warn("summary model failed, giving up on remote models",
						"model", model, "error", err)
					break
				}
				g.logger.Warn("summary model failed, trying next",
					"model", model, "model_not_found", IsModelNotFound(err), "error", err)
				continue
			}
			if text == "" {
				continue
			}
			return Result{Text: keywords.NormalizeSummary(text, window), Model: model}
		}
	}

	label := ModelLocalFallback
	if lastErr != nil {
		label = ModelProviderFallback
	}
	return Result{Text: keywords.NormalizeSummary("", window), Model: label}
}
