package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/memory"
)

// MemoryService is the subset of *memory.Service the tools call.
type MemoryService interface {
	GenerateSummary(ctx context.Context, callerID, conversationID string) (*memory.GenerateResult, error)
	RetrieveMemories(ctx context.Context, callerID string, q memory.MemoryQuery) (*memory.MemoryResults, error)
	RetrieveChunks(ctx context.Context, callerID string, q memory.ChunkQuery) (*memory.ChunkResults, error)
	SuggestMemories(ctx context.Context, callerID, input string, maxResults int) ([]memory.Suggestion, error)
	IngestDocument(ctx context.Context, callerID string, doc memory.Document, provider string) (*memory.IngestResult, error)
	ListSummaries(ctx context.Context, callerID, workspaceID string) ([]memory.Summary, error)
	DeleteSummary(ctx context.Context, callerID, conversationID string) error
}

// ToolObserver records tool latency. *metrics.Metrics implements it.
type ToolObserver interface {
	ObserveTool(tool string, d time.Duration, err error)
}

const noResultsMessage = "No related memories found."

// observed wraps a handler with latency recording and error-code mapping.
func observed[In, Out any](name string, obs ToolObserver, h mcp.ToolHandlerFor[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		start := time.Now()
		res, out, err := h(ctx, req, in)
		if obs != nil {
			obs.ObserveTool(name, time.Since(start), err)
		}
		return res, out, toolError(err)
	}
}

func makeGenerateSummaryHandler(svc MemoryService, callerID string) mcp.ToolHandlerFor[GenerateSummaryInput, GenerateSummaryOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GenerateSummaryInput) (
		*mcp.CallToolResult, GenerateSummaryOutput, error,
	) {
		res, err := svc.GenerateSummary(ctx, callerID, input.ConversationID)
		if err != nil {
			return nil, GenerateSummaryOutput{}, err
		}
		return nil, GenerateSummaryOutput{Result: *res}, nil
	}
}

func makeRetrieveMemoriesHandler(svc MemoryService, callerID string) mcp.ToolHandlerFor[RetrieveMemoriesInput, RetrieveMemoriesOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RetrieveMemoriesInput) (
		*mcp.CallToolResult, RetrieveMemoriesOutput, error,
	) {
		res, err := svc.RetrieveMemories(ctx, callerID, memory.MemoryQuery{
			Query:       input.Query,
			WorkspaceID: input.WorkspaceID,
			Provider:    input.Provider,
			Limit:       input.Limit,
		})
		if err != nil {
			return nil, RetrieveMemoriesOutput{}, err
		}

		out := RetrieveMemoriesOutput{Results: res.Results, Provider: res.Provider}
		if len(out.Results) == 0 {
			out.Results = []memory.MemoryMatch{}
			out.Message = noResultsMessage
		}
		return nil, out, nil
	}
}

func makeRetrieveChunksHandler(svc MemoryService, callerID string) mcp.ToolHandlerFor[RetrieveChunksInput, RetrieveChunksOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RetrieveChunksInput) (
		*mcp.CallToolResult, RetrieveChunksOutput, error,
	) {
		res, err := svc.RetrieveChunks(ctx, callerID, memory.ChunkQuery{
			Query:    input.Query,
			FileIDs:  input.FileIDs,
			Provider: input.Provider,
			Limit:    input.Limit,
		})
		if err != nil {
			return nil, RetrieveChunksOutput{}, err
		}

		out := RetrieveChunksOutput{Results: res.Results, Provider: res.Provider}
		if len(out.Results) == 0 {
			out.Results = []memory.ChunkMatch{}
			out.Message = "No matching passages found."
		}
		return nil, out, nil
	}
}

func makeSuggestMemoriesHandler(svc MemoryService, callerID string) mcp.ToolHandlerFor[SuggestMemoriesInput, SuggestMemoriesOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SuggestMemoriesInput) (
		*mcp.CallToolResult, SuggestMemoriesOutput, error,
	) {
		suggestions, err := svc.SuggestMemories(ctx, callerID, input.Input, input.MaxResults)
		if err != nil {
			return nil, SuggestMemoriesOutput{}, err
		}
		if suggestions == nil {
			suggestions = []memory.Suggestion{}
		}
		return nil, SuggestMemoriesOutput{Suggestions: suggestions}, nil
	}
}

func makeIngestDocumentHandler(svc MemoryService, callerID string) mcp.ToolHandlerFor[IngestDocumentInput, IngestDocumentOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestDocumentInput) (
		*mcp.CallToolResult, IngestDocumentOutput, error,
	) {
		res, err := svc.IngestDocument(ctx, callerID, memory.Document{
			FileID:  input.FileID,
			Name:    input.Name,
			Content: input.Content,
		}, input.Provider)
		if err != nil {
			return nil, IngestDocumentOutput{}, err
		}
		return nil, IngestDocumentOutput{Result: *res}, nil
	}
}

func makeListSummariesHandler(svc MemoryService, callerID string) mcp.ToolHandlerFor[ListSummariesInput, ListSummariesOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListSummariesInput) (
		*mcp.CallToolResult, ListSummariesOutput, error,
	) {
		summaries, err := svc.ListSummaries(ctx, callerID, input.WorkspaceID)
		if err != nil {
			return nil, ListSummariesOutput{}, err
		}
		if summaries == nil {
			summaries = []memory.Summary{}
		}
		return nil, ListSummariesOutput{Summaries: summaries, Count: len(summaries)}, nil
	}
}

func makeDeleteSummaryHandler(svc MemoryService, callerID string) mcp.ToolHandlerFor[DeleteSummaryInput, DeleteSummaryOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeleteSummaryInput) (
		*mcp.CallToolResult, DeleteSummaryOutput, error,
	) {
		if err := svc.DeleteSummary(ctx, callerID, input.ConversationID); err != nil {
			return nil, DeleteSummaryOutput{}, err
		}
		return nil, DeleteSummaryOutput{Deleted: true}, nil
	}
}
