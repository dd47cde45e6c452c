// Package mcp exposes the chat memory service as MCP tools.
package mcp

import "github.com/mike-a-ellis/chat-memory-mcp/internal/memory"

// GenerateSummaryInput defines the input parameters for the generate_summary tool.
type GenerateSummaryInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"the finished conversation to summarize"`
}

// GenerateSummaryOutput reports either the stored summary or why the
// conversation was skipped.
type GenerateSummaryOutput struct {
	Result memory.GenerateResult `json:"result"`
}

// RetrieveMemoriesInput defines the input parameters for the retrieve_memories tool.
type RetrieveMemoriesInput struct {
	Query       string `json:"query" jsonschema:"text to find related past conversations for"`
	WorkspaceID string `json:"workspace_id,omitempty" jsonschema:"restrict results to one workspace"`
	// Provider is the preferred embedding tier: openai, local or lexical.
	Provider string `json:"provider,omitempty" jsonschema:"preferred embedding tier: openai, local or lexical"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of summaries to return"`
}

// RetrieveMemoriesOutput contains ranked summaries.
type RetrieveMemoriesOutput struct {
	Results  []memory.MemoryMatch `json:"results"`
	Provider string               `json:"provider"`
	Message  string               `json:"message,omitempty"`
}

// RetrieveChunksInput defines the input parameters for the retrieve_chunks tool.
type RetrieveChunksInput struct {
	Query    string   `json:"query" jsonschema:"text to find related document passages for"`
	FileIDs  []string `json:"file_ids" jsonschema:"ingested files to search"`
	Provider string   `json:"provider,omitempty" jsonschema:"preferred embedding tier: openai, local or lexical"`
	Limit    int      `json:"limit,omitempty" jsonschema:"maximum number of chunks to return"`
}

// RetrieveChunksOutput contains ranked chunks.
type RetrieveChunksOutput struct {
	Results  []memory.ChunkMatch `json:"results"`
	Provider string              `json:"provider"`
	Message  string              `json:"message,omitempty"`
}

// SuggestMemoriesInput defines the input parameters for the suggest_memories tool.
type SuggestMemoriesInput struct {
	Input      string `json:"input" jsonschema:"the message being typed"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of suggestions"`
}

// SuggestMemoriesOutput lists summaries whose keywords appear in the input.
type SuggestMemoriesOutput struct {
	Suggestions []memory.Suggestion `json:"suggestions"`
}

// IngestDocumentInput defines the input parameters for the ingest_document tool.
type IngestDocumentInput struct {
	FileID  string `json:"file_id" jsonschema:"stable identifier of the file; re-ingesting replaces its chunks"`
	Name    string `json:"name,omitempty" jsonschema:"file name; .md files are split by heading"`
	Content string `json:"content" jsonschema:"full text of the file"`
	// Provider is the preferred embedding tier: openai, local or lexical.
	Provider string `json:"provider,omitempty" jsonschema:"preferred embedding tier: openai, local or lexical"`
}

// IngestDocumentOutput reports what was stored.
type IngestDocumentOutput struct {
	Result memory.IngestResult `json:"result"`
}

// ListSummariesInput defines the input parameters for the list_summaries tool.
type ListSummariesInput struct {
	WorkspaceID string `json:"workspace_id,omitempty" jsonschema:"restrict the list to one workspace"`
}

// ListSummariesOutput contains the caller's summaries, newest first.
type ListSummariesOutput struct {
	Summaries []memory.Summary `json:"summaries"`
	Count     int              `json:"count"`
}

// DeleteSummaryInput defines the input parameters for the delete_summary tool.
type DeleteSummaryInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"conversation whose summary is removed"`
}

// DeleteSummaryOutput confirms the deletion.
type DeleteSummaryOutput struct {
	Deleted bool `json:"deleted"`
}
