package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultMaxBodyBytes bounds a single MCP request. ingest_document carries
// whole files, so the limit is generous.
const DefaultMaxBodyBytes = 8 << 20

// HTTPHandlerOptions configures the streamable HTTP endpoint.
type HTTPHandlerOptions struct {
	// Stateless disables session management.
	Stateless bool
	// MaxBodyBytes caps request bodies; zero uses DefaultMaxBodyBytes and a
	// negative value disables the cap.
	MaxBodyBytes int64
}

// NewHTTPHandler serves server over the streamable HTTP transport, for
// mounting at "/mcp".
func NewHTTPHandler(server *Server, opts *HTTPHandlerOptions) http.Handler {
	if opts == nil {
		opts = &HTTPHandlerOptions{}
	}

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server.MCPServer()
	}, &mcp.StreamableHTTPOptions{Stateless: opts.Stateless})

	limit := opts.MaxBodyBytes
	if limit == 0 {
		limit = DefaultMaxBodyBytes
	}
	if limit < 0 {
		return handler
	}
	return http.MaxBytesHandler(handler, limit)
}
