package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/conversation"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/transcript"
)

// transcriptFile is the import format.
type transcriptFile struct {
	ID          string            `json:"id"`
	WorkspaceID string            `json:"workspace_id"`
	Name        string            `json:"name"`
	Messages    []transcript.Turn `json:"messages"`
}

func readTranscript(r io.Reader) (*transcriptFile, error) {
	var t transcriptFile
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	kept := t.Messages[:0]
	for _, m := range t.Messages {
		m.Role = strings.ToLower(strings.TrimSpace(m.Role))
		if m.Role == "" || strings.TrimSpace(m.Content) == "" {
			continue
		}
		kept = append(kept, m)
	}
	t.Messages = kept
	if len(t.Messages) == 0 {
		return nil, errors.New("transcript has no messages")
	}
	return &t, nil
}

// importTranscript creates the conversation unless it already exists and
// appends the messages. It returns the conversation ID.
func importTranscript(ctx context.Context, store *conversation.Store, userID string, t *transcriptFile) (string, error) {
	id := t.ID
	existing, err := store.Get(ctx, id)
	switch {
	case id != "" && err == nil:
		if existing.UserID != userID {
			return "", fmt.Errorf("conversation %s belongs to another user", id)
		}
	case id == "" || errors.Is(err, conversation.ErrNotFound):
		c := &conversation.Conversation{ID: id, UserID: userID, WorkspaceID: t.WorkspaceID, Name: t.Name}
		if err := store.Create(ctx, c); err != nil {
			return "", err
		}
		id = c.ID
	default:
		return "", err
	}

	if err := store.Append(ctx, id, t.Messages...); err != nil {
		return "", err
	}
	return id, nil
}
