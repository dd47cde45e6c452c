package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/app"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/config"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/conversation"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/keywords"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/memory"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/storage"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a conversation transcript from JSON",
		Long: `Reads a transcript of the form

  {"id": "...", "workspace_id": "...", "name": "...",
   "messages": [{"role": "user", "content": "..."}, ...]}

and stores it in the conversation database. An existing conversation with
the same id receives the messages appended.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			t, err := readTranscript(f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			cfg := config.Load()
			store, err := conversation.Open(ctx, cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			id, err := importTranscript(ctx, store, cfg.UserID, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d messages into %s\n", len(t.Messages), id)
			return nil
		},
	}
}

func newSummarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize CONVERSATION_ID",
		Short: "Summarize a conversation into long-term memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Service.GenerateSummary(ctx, a.Config.UserID, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func newSearchCmd() *cobra.Command {
	var q memory.MemoryQuery
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Retrieve summaries related to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Query = strings.Join(args, " ")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Service.RetrieveMemories(ctx, a.Config.UserID, q)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&q.WorkspaceID, "workspace", "", "restrict to one workspace")
	cmd.Flags().StringVar(&q.Provider, "provider", "", "preferred embedding tier: openai, local or lexical")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum number of results")
	return cmd
}

func newChunksCmd() *cobra.Command {
	var q memory.ChunkQuery
	cmd := &cobra.Command{
		Use:   "chunks QUERY",
		Short: "Retrieve passages of ingested files related to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Query = strings.Join(args, " ")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Service.RetrieveChunks(ctx, a.Config.UserID, q)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringSliceVar(&q.FileIDs, "file", nil, "file id to search (repeatable)")
	cmd.Flags().StringVar(&q.Provider, "provider", "", "preferred embedding tier: openai, local or lexical")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum number of results")
	return cmd
}

func newIngestCmd() *cobra.Command {
	var fileID, provider string
	cmd := &cobra.Command{
		Use:   "ingest PATH",
		Short: "Chunk, embed and store a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc := memory.Document{
				FileID:  fileID,
				Name:    filepath.Base(args[0]),
				Content: string(content),
			}
			if doc.FileID == "" {
				doc.FileID = doc.Name
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Service.IngestDocument(ctx, a.Config.UserID, doc, provider)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&fileID, "file-id", "", "file id (default: base name of PATH)")
	cmd.Flags().StringVar(&provider, "provider", "", "preferred embedding tier: openai, local or lexical")
	return cmd
}

func newListCmd() *cobra.Command {
	var workspaceID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored summaries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				summaries, err := a.Service.ListSummaries(ctx, a.Config.UserID, workspaceID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summaries)
			})
		},
	}
	cmd.Flags().StringVar(&workspaceID, "workspace", "", "restrict to one workspace")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	var maxResults int
	cmd := &cobra.Command{
		Use:   "suggest INPUT",
		Short: "Show summaries whose keywords occur in INPUT",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				suggestions, err := a.Service.SuggestMemories(ctx, a.Config.UserID, strings.Join(args, " "), maxResults)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), suggestions)
			})
		},
	}
	cmd.Flags().IntVar(&maxResults, "max", memory.DefaultSuggestions, "maximum number of suggestions")
	return cmd
}

func newKeywordsCmd() *cobra.Command {
	var maxCount int
	cmd := &cobra.Command{
		Use:   "keywords TEXT",
		Short: "Print the keywords extracted from TEXT",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return printJSON(cmd.OutOrStdout(), map[string][]string{
				"structured": keywords.ExtractStructured(text, maxCount),
				"frequency":  keywords.Extract(text, maxCount),
			})
		},
	}
	cmd.Flags().IntVar(&maxCount, "max", keywords.CanonicalCount, "maximum number of keywords")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stored counts, vector settings and available providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				convs, err := a.Conversations.List(ctx, a.Config.UserID, "")
				if err != nil {
					return err
				}
				summaries, err := a.Vectors.GetCollectionInfo(ctx, storage.SummaryCollection)
				if err != nil {
					return err
				}
				chunks, err := a.Vectors.GetCollectionInfo(ctx, storage.ChunkCollection)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), statusReport{
					UserID:         a.Config.UserID,
					Conversations:  len(convs),
					Summaries:      summaries.PointsCount,
					Chunks:         chunks.PointsCount,
					LocalDimension: a.Vectors.LocalDimension(),
					Search:         a.Config.Search,
					Providers:      providersOf(a.Service.Credentials()),
				})
			})
		},
	}
}

type statusReport struct {
	UserID         string              `json:"user_id"`
	Conversations  int                 `json:"conversations"`
	Summaries      uint64              `json:"summaries"`
	Chunks         uint64              `json:"chunks"`
	LocalDimension int                 `json:"local_dimension"`
	Search         config.SearchConfig `json:"search"`
	Providers      providerStatus      `json:"providers"`
}

// providerStatus says which backend tiers have credentials. Secrets are
// never printed.
type providerStatus struct {
	OpenAIEmbedding bool `json:"openai_embedding"`
	LocalEmbedding  bool `json:"local_embedding"`
	Summary         bool `json:"summary"`
}

func providersOf(c config.Credentials) providerStatus {
	return providerStatus{
		OpenAIEmbedding: c.HasHostedEmbedding(),
		LocalEmbedding:  c.HasLocalEmbedding(),
		Summary:         c.HasSummary(),
	}
}

func newResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every stored summary and chunk",
		Long: `Drops and recreates the summary and chunk collections in Qdrant.
Conversations in the SQLite database are kept, so summaries can be
regenerated with "memoryctl summarize".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset without --yes")
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Vectors.ClearCollections(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Collections cleared")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
