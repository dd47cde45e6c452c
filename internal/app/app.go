// Package app wires configuration, stores and provider chains into a
// memory.Service shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/complexity"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/config"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/conversation"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/embedding"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/markdown"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/memory"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/metrics"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/search"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/storage"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/summary"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/tokens"
)

// App owns the long-lived dependencies of a process.
type App struct {
	Config        *config.Config
	Conversations *conversation.Store
	Vectors       *storage.QdrantStorage
	Metrics       *metrics.Metrics
	Service       *memory.Service
}

// New opens the conversation database and Qdrant, ensures the collections
// exist and builds the service.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conversations, err := conversation.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open conversation store: %w", err)
	}

	vectors, err := storage.NewQdrantStorage(cfg.QdrantHost, cfg.QdrantPort, cfg.Embedding.LocalDimension)
	if err != nil {
		conversations.Close()
		return nil, fmt.Errorf("connect to Qdrant: %w", err)
	}
	if err := vectors.EnsureCollections(ctx); err != nil {
		vectors.Close()
		conversations.Close()
		return nil, fmt.Errorf("ensure collections: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	a := &App{
		Config:        cfg,
		Conversations: conversations,
		Vectors:       vectors,
		Metrics:       m,
	}
	a.Service = NewService(cfg, conversations, vectors, vectors, m, logger)
	return a, nil
}

// NewService builds a memory.Service over the given stores using the
// OpenAI-compatible backends named by cfg.
func NewService(
	cfg *config.Config,
	conversations memory.ConversationStore,
	summaries memory.SummaryStore,
	chunks memory.ChunkStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) *memory.Service {
	tok := tokens.Default()

	chain := embedding.NewChain(
		embedding.NewOpenAIFactory(embedding.Models{
			Hosted: cfg.Embedding.HostedModel,
			Local:  cfg.Embedding.LocalModel,
		}),
		embedding.WithLogger(logger),
		embedding.WithObserver(m),
	)

	return memory.NewService(memory.Deps{
		Conversations: conversations,
		Summaries:     summaries,
		Chunks:        chunks,
		Summarizer:    summary.NewGenerator(summary.NewOpenAICompleter, cfg.Summary.Model, logger),
		Embedder:      chain,
		Searcher: search.NewEngine(chain,
			search.FloorsFromConfig(cfg.Search), cfg.Search.DefaultLimit, logger),
		Classifier: complexity.NewClassifier(complexity.Thresholds{
			MinMessages:      cfg.Summary.MinMessages,
			MinTokens:        cfg.Summary.MinTokens,
			ComplexMinTokens: cfg.Summary.ComplexMinTokens,
		}),
		Tokenizer:       tok,
		Chunker:         markdown.NewChunker(tok, markdown.DefaultMaxTokens, markdown.DefaultOverlapTokens),
		Credentials:     cfg.Credentials,
		DefaultProvider: embedding.ParseTier(cfg.Embedding.DefaultProvider),
		MaxInputTokens:  cfg.Summary.MaxInputTokens,
		Metrics:         m,
		Logger:          logger,
	})
}

// Close releases the stores.
func (a *App) Close() error {
	vecErr := a.Vectors.Close()
	dbErr := a.Conversations.Close()
	if vecErr != nil {
		return vecErr
	}
	return dbErr
}
