package memory

import (
	"time"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/complexity"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/keywords"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/storage"
)

// Gate outcome reported for skipped conversations.
const (
	SkipReasonShortOrSimple = "short_or_simple"
	SkipMessage             = "对话较短或较简单，未纳入总结。"

	// EmbeddingWarning is returned when a summary was stored without a vector.
	EmbeddingWarning = "总结已生成，但向量索引构建失败，本次不影响总结保存。"
)

// Summary is the read view of a stored summary. Keywords and Body are
// parsed from Text.
type Summary struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	WorkspaceID    string    `json:"workspace_id,omitempty"`
	Status         string    `json:"status"`
	Model          string    `json:"model"`
	Text           string    `json:"text"`
	Keywords       []string  `json:"keywords"`
	Body           string    `json:"summary"`
	EmbeddingTier  string    `json:"embedding_tier"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func summaryView(rec *storage.SummaryRecord) Summary {
	kws, body := keywords.Parse(rec.Text)
	tier := "lexical"
	switch {
	case len(rec.OpenAIEmbedding) > 0:
		tier = "openai"
	case len(rec.LocalEmbedding) > 0:
		tier = "local"
	}
	return Summary{
		ID:             rec.ID,
		ConversationID: rec.ConversationID,
		WorkspaceID:    rec.WorkspaceID,
		Status:         rec.Status,
		Model:          rec.Model,
		Text:           rec.Text,
		Keywords:       kws,
		Body:           body,
		EmbeddingTier:  tier,
		UpdatedAt:      rec.UpdatedAt,
	}
}

// GenerateResult is the outcome of GenerateSummary. Exactly one of Skipped
// or Summary is set.
type GenerateResult struct {
	Skipped bool             `json:"skipped"`
	Reason  string           `json:"reason,omitempty"`
	Message string           `json:"message,omitempty"`
	Summary *Summary         `json:"summary,omitempty"`
	Warning string           `json:"warning,omitempty"`
	Rule    complexity.Rule  `json:"rule,omitempty"`
	Stats   complexity.Stats `json:"stats"`
}

// MemoryQuery selects summaries similar to Query.
type MemoryQuery struct {
	Query       string
	WorkspaceID string
	Provider    string
	Limit       int
}

// MemoryMatch is a scored summary.
type MemoryMatch struct {
	Summary Summary `json:"summary"`
	Score   float64 `json:"similarity"`
}

// MemoryResults holds ranked summaries and the provider that scored them.
type MemoryResults struct {
	Results  []MemoryMatch `json:"results"`
	Provider string        `json:"provider"`
}

// ChunkQuery selects chunks of FileIDs similar to Query.
type ChunkQuery struct {
	Query    string
	FileIDs  []string
	Provider string
	Limit    int
}

// Chunk is the read view of a stored file chunk.
type Chunk struct {
	ID         string `json:"id"`
	FileID     string `json:"file_id"`
	Index      int    `json:"index"`
	HeaderPath string `json:"header_path,omitempty"`
	Content    string `json:"content"`
	Tokens     int    `json:"tokens"`
}

// ChunkMatch is a scored chunk.
type ChunkMatch struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"similarity"`
}

// ChunkResults holds ranked chunks and the provider that scored them.
type ChunkResults struct {
	Results  []ChunkMatch `json:"results"`
	Provider string       `json:"provider"`
}

// Suggestion is a stored summary whose keywords appear in live input.
type Suggestion struct {
	Summary         Summary  `json:"summary"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// Document is a file to ingest.
type Document struct {
	FileID  string
	Name    string
	Content string
}

// IngestResult reports what IngestDocument stored.
type IngestResult struct {
	FileID      string `json:"file_id"`
	Chunks      int    `json:"chunks"`
	Embedded    int    `json:"embedded"`
	TotalTokens int    `json:"total_tokens"`
	Provider    string `json:"provider"`
}
