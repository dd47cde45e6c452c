package memory

import (
	"context"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/config"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/conversation"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/embedding"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/search"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/storage"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/summary"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/transcript"
)

// ConversationStore reads conversations and their messages.
type ConversationStore interface {
	Get(ctx context.Context, id string) (*conversation.Conversation, error)
	Messages(ctx context.Context, conversationID string) ([]transcript.Turn, error)
}

// SummaryStore persists summaries.
type SummaryStore interface {
	UpsertSummary(ctx context.Context, rec *storage.SummaryRecord) error
	GetSummary(ctx context.Context, conversationID string) (*storage.SummaryRecord, error)
	ListSummaries(ctx context.Context, userID, workspaceID string, withVectors bool) ([]*storage.SummaryRecord, error)
	DeleteSummary(ctx context.Context, conversationID string) error
}

// ChunkStore persists file chunks.
type ChunkStore interface {
	UpsertChunks(ctx context.Context, chunks []*storage.ChunkRecord) error
	ListChunks(ctx context.Context, userID string, fileIDs []string) ([]*storage.ChunkRecord, error)
	FileOwnedByOther(ctx context.Context, userID, fileID string) (bool, error)
	DeleteStaleChunks(ctx context.Context, userID, fileID string, keep []string) error
}

// Summarizer turns a transcript window into summary text.
type Summarizer interface {
	Generate(ctx context.Context, creds config.Credentials, window string) summary.Result
}

// Embedder is the provider chain.
type Embedder interface {
	Embed(ctx context.Context, creds config.Credentials, text string, preferred embedding.Tier) (embedding.Embedding, error)
	EmbedBatch(ctx context.Context, creds config.Credentials, texts []string, preferred embedding.Tier) (embedding.BatchResult, error)
}

// Searcher ranks a corpus against a query.
type Searcher interface {
	Search(ctx context.Context, creds config.Credentials, query string, corpus []search.Row, preferred embedding.Tier, limit int) (search.Response, error)
}

// Recorder receives service-level counters. *metrics.Metrics implements it.
type Recorder interface {
	SummaryGenerated(model string)
	SummarySkipped()
	SearchCompleted(corpus, provider string, results int)
}

type nopRecorder struct{}

func (nopRecorder) SummaryGenerated(string)              {}
func (nopRecorder) SummarySkipped()                      {}
func (nopRecorder) SearchCompleted(string, string, int) {}
