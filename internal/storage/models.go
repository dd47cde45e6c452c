package storage

import "time"

// Summary status values.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// SummaryRecord is the stored memory of one conversation. Either embedding
// may be nil; Text is always present.
type SummaryRecord struct {
	ID              string // UUIDv5 of ConversationID
	ConversationID  string
	UserID          string
	WorkspaceID     string
	Status          string
	Model           string
	Text            string
	OpenAIEmbedding []float32
	LocalEmbedding  []float32
	UpdatedAt       time.Time
}

// ChunkRecord is one embeddable slice of an ingested file. At most one of
// the embeddings is set.
type ChunkRecord struct {
	ID              string // UUID
	FileID          string
	UserID          string
	Index           int
	HeaderPath      string
	Content         string
	TokenCount      int
	OpenAIEmbedding []float32
	LocalEmbedding  []float32
}

// Collection names.
const (
	SummaryCollection = "chat_summaries"
	ChunkCollection   = "file_chunks"
)

// Named vectors, one per embedding tier.
const (
	VectorOpenAI = "openai"
	VectorLocal  = "local"
)

// OpenAIDimension is the size of the hosted tier's vectors.
const OpenAIDimension = 1536
