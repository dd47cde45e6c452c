// Package main provides memoryctl, a CLI for importing conversations and
// exercising the memory service from a terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/app"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/config"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "memoryctl",
		Short: "Chat memory maintenance tool",
		Long: `CLI for the chat memory service.

Environment variables:
  MEMORY_DB_PATH     SQLite conversation database (default: data/memory.db)
  QDRANT_HOST        Qdrant hostname (default: localhost)
  QDRANT_PORT        Qdrant gRPC port (default: 6334)
  LOCAL_USER_ID      Owner of imported conversations (default: local-user)
  OPENAI_API_KEY     Hosted embeddings (optional)
  LOCAL_EMBEDDING_BASE_URL  Self-hosted embeddings (optional)
  DEEPSEEK_API_KEY   Summary model (optional)`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newImportCmd(),
		newSummarizeCmd(),
		newSearchCmd(),
		newChunksCmd(),
		newIngestCmd(),
		newListCmd(),
		newSuggestCmd(),
		newKeywordsCmd(),
		newStatusCmd(),
		newResetCmd(),
	)
	return root
}

// withApp runs fn against a fully wired application.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	a, err := app.New(ctx, config.Load(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
