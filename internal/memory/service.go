// Package memory orchestrates conversation summarization, memory retrieval
// and document ingestion on top of the stores and provider chains.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/complexity"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/config"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/conversation"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/embedding"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/keywords"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/markdown"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/search"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/storage"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/tokens"
)

// DefaultSuggestions caps SuggestMemories when max is not positive.
const DefaultSuggestions = 5

// Deps wires a Service. Conversations, Summaries, Summarizer, Embedder and
// Searcher are required; the rest have defaults.
type Deps struct {
	Conversations ConversationStore
	Summaries     SummaryStore
	Chunks        ChunkStore
	Summarizer    Summarizer
	Embedder      Embedder
	Searcher      Searcher

	Classifier *complexity.Classifier
	Tokenizer  tokens.Tokenizer
	Chunker    *markdown.Chunker

	Credentials     config.Credentials
	DefaultProvider embedding.Tier
	MaxInputTokens  int

	Metrics Recorder
	Logger  *slog.Logger
	Now     func() time.Time
}

// Service implements the memory operations exposed over MCP and the CLI.
type Service struct {
	conversations ConversationStore
	summaries     SummaryStore
	chunks        ChunkStore
	summarizer    Summarizer
	embedder      Embedder
	searcher      Searcher
	classifier    *complexity.Classifier
	tok           tokens.Tokenizer
	chunker       *markdown.Chunker
	creds         config.Credentials
	provider      embedding.Tier
	maxInput      int
	metrics       Recorder
	logger        *slog.Logger
	now           func() time.Time
}

// NewService creates a Service from deps, filling defaults.
func NewService(d Deps) *Service {
	s := &Service{
		conversations: d.Conversations,
		summaries:     d.Summaries,
		chunks:        d.Chunks,
		summarizer:    d.Summarizer,
		embedder:      d.Embedder,
		searcher:      d.Searcher,
		classifier:    d.Classifier,
		tok:           d.Tokenizer,
		chunker:       d.Chunker,
		creds:         d.Credentials,
		provider:      d.DefaultProvider,
		maxInput:      d.MaxInputTokens,
		metrics:       d.Metrics,
		logger:        d.Logger,
		now:           d.Now,
	}
	if s.classifier == nil {
		s.classifier = complexity.NewClassifier(complexity.DefaultThresholds())
	}
	if s.tok == nil {
		s.tok = tokens.Default()
	}
	if s.chunker == nil {
		s.chunker = markdown.NewChunker(s.tok, markdown.DefaultMaxTokens, markdown.DefaultOverlapTokens)
	}
	if s.provider == "" {
		s.provider = embedding.TierOpenAI
	}
	if s.maxInput <= 0 {
		s.maxInput = tokens.DefaultMaxInputTokens
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Credentials returns the credentials the service calls providers with.
func (s *Service) Credentials() config.Credentials {
	return s.creds
}

// GenerateSummary summarizes a finished conversation and stores the result.
// Short or simple conversations are skipped without touching the store.
// Provider failures never fail the call: the summary falls back to a local
// rendition and is stored without a vector when no embedding tier works.
func (s *Service) GenerateSummary(ctx context.Context, callerID, conversationID string) (*GenerateResult, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, fmt.Errorf("%w: conversation id is required", ErrInvalidInput)
	}

	conv, err := s.owned(ctx, callerID, conversationID)
	if err != nil {
		return nil, err
	}

	turns, err := s.conversations.Messages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if len(turns) == 0 {
		return nil, ErrNoMessages
	}

	stats := complexity.ComputeStats(s.tok, turns)
	rule := s.classifier.Decide(stats)
	if rule == complexity.RuleNone {
		s.logger.Info("Conversation skipped",
			"conversation_id", conversationID,
			"messages", stats.MessageCount,
			"tokens", stats.TotalTokens,
		)
		s.metrics.SummarySkipped()
		return &GenerateResult{
			Skipped: true,
			Reason:  SkipReasonShortOrSimple,
			Message: SkipMessage,
			Stats:   stats,
		}, nil
	}

	window := tokens.Select(s.tok, turns, s.maxInput)
	generated := s.summarizer.Generate(ctx, s.creds, window)

	rec := &storage.SummaryRecord{
		ID:             storage.SummaryPointID(conversationID),
		ConversationID: conversationID,
		UserID:         conv.UserID,
		WorkspaceID:    conv.WorkspaceID,
		Status:         storage.StatusCompleted,
		Model:          generated.Model,
		Text:           generated.Text,
		UpdatedAt:      s.now().UTC(),
	}

	result := &GenerateResult{Rule: rule, Stats: stats}

	emb, err := s.embedder.Embed(ctx, s.creds, generated.Text, s.provider)
	if err != nil {
		return nil, fmt.Errorf("embed summary: %w", err)
	}
	switch emb.Tier {
	case embedding.TierOpenAI:
		rec.OpenAIEmbedding = emb.Vector
	case embedding.TierLocal:
		rec.LocalEmbedding = emb.Vector
	default:
		s.logger.Warn("Summary stored without embedding", "conversation_id", conversationID)
		result.Warning = EmbeddingWarning
	}

	if err := s.summaries.UpsertSummary(ctx, rec); err != nil {
		return nil, fmt.Errorf("store summary: %w", err)
	}
	s.metrics.SummaryGenerated(generated.Model)
	s.logger.Info("Summary stored",
		"conversation_id", conversationID,
		"model", generated.Model,
		"rule", string(rule),
		"embedding", string(emb.Tier),
	)

	view := summaryView(rec)
	result.Summary = &view
	return result, nil
}

// RetrieveMemories ranks the caller's summaries against q.Query.
func (s *Service) RetrieveMemories(ctx context.Context, callerID string, q MemoryQuery) (*MemoryResults, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, ErrEmptyQuery
	}
	preferred := s.preferred(q.Provider)

	records, err := s.summaries.ListSummaries(ctx, callerID, q.WorkspaceID, true)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}

	byID := make(map[string]*storage.SummaryRecord, len(records))
	corpus := make([]search.Row, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.Text) == "" {
			continue
		}
		byID[rec.ID] = rec
		corpus = append(corpus, search.Row{
			ID:     rec.ID,
			Text:   rec.Text,
			OpenAI: rec.OpenAIEmbedding,
			Local:  rec.LocalEmbedding,
		})
	}

	resp, err := s.searcher.Search(ctx, s.creds, q.Query, corpus, preferred, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("search summaries: %w", err)
	}

	out := &MemoryResults{Provider: string(resp.Provider), Results: []MemoryMatch{}}
	for _, r := range resp.Results {
		out.Results = append(out.Results, MemoryMatch{Summary: summaryView(byID[r.Row.ID]), Score: r.Score})
	}
	s.metrics.SearchCompleted("memories", out.Provider, len(out.Results))
	return out, nil
}

// RetrieveChunks ranks chunks of the given files against q.Query.
func (s *Service) RetrieveChunks(ctx context.Context, callerID string, q ChunkQuery) (*ChunkResults, error) {
	preferred := s.preferred(q.Provider)
	out := &ChunkResults{Provider: string(preferred), Results: []ChunkMatch{}}
	if strings.TrimSpace(q.Query) == "" || len(q.FileIDs) == 0 {
		return out, nil
	}

	records, err := s.chunks.ListChunks(ctx, callerID, q.FileIDs)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	byID := make(map[string]*storage.ChunkRecord, len(records))
	corpus := make([]search.Row, 0, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
		corpus = append(corpus, search.Row{
			ID:     rec.ID,
			Text:   rec.Content,
			OpenAI: rec.OpenAIEmbedding,
			Local:  rec.LocalEmbedding,
		})
	}

	resp, err := s.searcher.Search(ctx, s.creds, q.Query, corpus, preferred, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	out.Provider = string(resp.Provider)
	for _, r := range resp.Results {
		out.Results = append(out.Results, ChunkMatch{Chunk: chunkView(byID[r.Row.ID]), Score: r.Score})
	}
	s.metrics.SearchCompleted("chunks", out.Provider, len(out.Results))
	return out, nil
}

// SuggestMemories returns the caller's summaries whose structured keywords
// occur in input, most keyword hits first.
func (s *Service) SuggestMemories(ctx context.Context, callerID, input string, maxResults int) ([]Suggestion, error) {
	if maxResults <= 0 {
		maxResults = DefaultSuggestions
	}
	if strings.TrimSpace(input) == "" {
		return []Suggestion{}, nil
	}

	records, err := s.summaries.ListSummaries(ctx, callerID, "", false)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}

	out := []Suggestion{}
	for _, rec := range records {
		view := summaryView(rec)
		hits := keywords.Match(input, view.Keywords, len(view.Keywords))
		if len(hits) == 0 {
			continue
		}
		out = append(out, Suggestion{Summary: view, MatchedKeywords: hits})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].MatchedKeywords) != len(out[j].MatchedKeywords) {
			return len(out[i].MatchedKeywords) > len(out[j].MatchedKeywords)
		}
		return hitRunes(out[i].MatchedKeywords) > hitRunes(out[j].MatchedKeywords)
	})
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

// IngestDocument splits doc into chunks, embeds them in bulk and replaces
// any chunks the caller previously stored for the same file. A file whose
// chunks belong to another user is rejected with ErrForbidden. Chunks whose
// embedding failed are stored without a vector.
func (s *Service) IngestDocument(ctx context.Context, callerID string, doc Document, provider string) (*IngestResult, error) {
	if strings.TrimSpace(doc.FileID) == "" {
		return nil, fmt.Errorf("%w: file id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidInput)
	}

	taken, err := s.chunks.FileOwnedByOther(ctx, callerID, doc.FileID)
	if err != nil {
		return nil, fmt.Errorf("check file owner: %w", err)
	}
	if taken {
		return nil, ErrForbidden
	}

	chunks, err := s.chunker.Split(doc.Name, []byte(doc.Content))
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document has no content", ErrInvalidInput)
	}
	s.logger.Debug("Chunked document", "file_id", doc.FileID, "chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	batch, err := s.embedder.EmbedBatch(ctx, s.creds, texts, s.preferred(provider))
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}

	result := &IngestResult{FileID: doc.FileID, Chunks: len(chunks), Provider: string(batch.Tier)}
	records := make([]*storage.ChunkRecord, len(chunks))
	for i, chunk := range chunks {
		rec := &storage.ChunkRecord{
			ID:         uuid.New().String(),
			FileID:     doc.FileID,
			UserID:     callerID,
			Index:      chunk.Index,
			HeaderPath: chunk.HeaderPath,
			Content:    chunk.RawContent,
			TokenCount: chunk.Tokens,
		}
		var vec []float32
		if i < len(batch.Vectors) {
			vec = batch.Vectors[i]
		}
		if len(vec) > 0 {
			result.Embedded++
			switch batch.Tier {
			case embedding.TierOpenAI:
				rec.OpenAIEmbedding = vec
			case embedding.TierLocal:
				rec.LocalEmbedding = vec
			}
		}
		result.TotalTokens += chunk.Tokens
		records[i] = rec
	}

	// New chunks land before old ones go, so a failed store leaves the
	// previous version intact.
	if err := s.chunks.UpsertChunks(ctx, records); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}
	keep := make([]string, len(records))
	for i, rec := range records {
		keep[i] = rec.ID
	}
	if err := s.chunks.DeleteStaleChunks(ctx, callerID, doc.FileID, keep); err != nil {
		return nil, fmt.Errorf("clear previous chunks: %w", err)
	}

	s.logger.Info("Ingested document",
		"file_id", doc.FileID,
		"chunks", result.Chunks,
		"embedded", result.Embedded,
		"provider", result.Provider,
	)
	return result, nil
}

// ListSummaries returns the caller's summaries, newest first.
func (s *Service) ListSummaries(ctx context.Context, callerID, workspaceID string) ([]Summary, error) {
	records, err := s.summaries.ListSummaries(ctx, callerID, workspaceID, false)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	out := make([]Summary, 0, len(records))
	for _, rec := range records {
		out = append(out, summaryView(rec))
	}
	return out, nil
}

// DeleteSummary removes the summary of a conversation the caller owns.
func (s *Service) DeleteSummary(ctx context.Context, callerID, conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return fmt.Errorf("%w: conversation id is required", ErrInvalidInput)
	}
	rec, err := s.summaries.GetSummary(ctx, conversationID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get summary: %w", err)
	}
	if rec.UserID != callerID {
		return ErrForbidden
	}
	if err := s.summaries.DeleteSummary(ctx, conversationID); err != nil {
		return fmt.Errorf("delete summary: %w", err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, callerID, conversationID string) (*conversation.Conversation, error) {
	conv, err := s.conversations.Get(ctx, conversationID)
	if errors.Is(err, conversation.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv.UserID != callerID {
		return nil, ErrForbidden
	}
	return conv, nil
}

func (s *Service) preferred(provider string) embedding.Tier {
	if strings.TrimSpace(provider) == "" {
		return s.provider
	}
	return embedding.ParseTier(provider)
}

func chunkView(rec *storage.ChunkRecord) Chunk {
	return Chunk{
		ID:         rec.ID,
		FileID:     rec.FileID,
		Index:      rec.Index,
		HeaderPath: rec.HeaderPath,
		Content:    rec.Content,
		Tokens:     rec.TokenCount,
	}
}

func hitRunes(hits []string) int {
	n := 0
	for _, h := range hits {
		n += len([]rune(h))
	}
	return n
}
