package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultCallerID identifies the single local user when none is configured.
const DefaultCallerID = "local"

// Server wraps the MCP server with dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies.
type Config struct {
	Service MemoryService
	// CallerID is the identity every tool call acts as.
	CallerID string
	// Metrics is optional.
	Metrics ToolObserver
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	callerID := cfg.CallerID
	if callerID == "" {
		callerID = DefaultCallerID
	}
	svc, obs := cfg.Service, cfg.Metrics

	impl := &mcp.Implementation{
		Name:    "chat-memory-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_summary",
		Description: "Summarize a finished conversation into long-term memory. Short or simple conversations are skipped.",
	}, observed("generate_summary", obs, makeGenerateSummaryHandler(svc, callerID)))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "retrieve_memories",
		Description: "Find summaries of past conversations related to a query, ranked by similarity.",
	}, observed("retrieve_memories", obs, makeRetrieveMemoriesHandler(svc, callerID)))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "retrieve_chunks",
		Description: "Find passages of ingested files related to a query.",
	}, observed("retrieve_chunks", obs, makeRetrieveChunksHandler(svc, callerID)))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "suggest_memories",
		Description: "Suggest stored summaries whose keywords appear in the message being typed.",
	}, observed("suggest_memories", obs, makeSuggestMemoriesHandler(svc, callerID)))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Split a file into chunks, embed them and store them for retrieve_chunks.",
	}, observed("ingest_document", obs, makeIngestDocumentHandler(svc, callerID)))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_summaries",
		Description: "List stored conversation summaries, newest first.",
	}, observed("list_summaries", obs, makeListSummariesHandler(svc, callerID)))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_summary",
		Description: "Delete the stored summary of a conversation.",
	}, observed("delete_summary", obs, makeDeleteSummaryHandler(svc, callerID)))

	return &Server{server: server}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
