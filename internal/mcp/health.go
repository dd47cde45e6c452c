package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const healthTimeout = 3 * time.Second

// Dependency states reported by /health.
const (
	stateConnected    = "connected"
	stateDisconnected = "disconnected"
	stateDisabled     = "disabled"
)

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Qdrant    string `json:"qdrant"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// HealthChecker is implemented by *storage.QdrantStorage and
// *conversation.Store. Both report an error, not a panic, when called on a
// nil pointer, so a typed nil reads as disconnected.
type HealthChecker interface {
	Health(ctx context.Context) error
}

func dependencyState(ctx context.Context, c HealthChecker) string {
	switch {
	case c == nil:
		return stateDisabled
	case c.Health(ctx) != nil:
		return stateDisconnected
	default:
		return stateConnected
	}
}

// NewHealthHandler reports the reachability of the vector store and the
// conversation database. Either may be a nil interface, reported as
// disabled. Any configured dependency that fails its check makes the
// service unhealthy (503).
func NewHealthHandler(vectors, db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := HealthResponse{
			Status:    "healthy",
			Qdrant:    dependencyState(ctx, vectors),
			Database:  dependencyState(ctx, db),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		code := http.StatusOK
		if resp.Qdrant == stateDisconnected || resp.Database == stateDisconnected {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(resp)
	}
}
