// Package conversation persists conversations and their ordered messages
// in SQLite.
package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/transcript"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const busyTimeoutMillis = 5000

var (
	// ErrNotFound is returned when a conversation does not exist.
	ErrNotFound = errors.New("conversation not found")
	// ErrUnavailable is returned by Health on a store that was never opened.
	ErrUnavailable = errors.New("conversation database unavailable")
)

// Conversation is the metadata of one chat.
type Conversation struct {
	ID          string
	UserID      string
	WorkspaceID string
	Name        string
	CreatedAt   time.Time
}

// Store reads and writes conversations.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path with WAL mode, a
// busy timeout and a single connection, and migrates the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMillis),
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Health pings the database.
func (s *Store) Health(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrUnavailable
	}
	return s.db.PingContext(ctx)
}

// Create inserts a conversation. An empty ID is replaced with a new UUID.
func (s *Store) Create(ctx context.Context, c *Conversation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, workspace_id, name, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.WorkspaceID, c.Name, c.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: create conversation: %w", err)
	}
	return nil
}

// Get returns a conversation by ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Conversation, error) {
	var (
		c       Conversation
		created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, workspace_id, name, created_at
		FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.WorkspaceID, &c.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get conversation: %w", err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &c, nil
}

// List returns a user's conversations, newest first, optionally limited to
// one workspace.
func (s *Store) List(ctx context.Context, userID, workspaceID string) ([]*Conversation, error) {
	query := `SELECT id, user_id, workspace_id, name, created_at FROM conversations WHERE user_id = ?`
	args := []any{userID}
	if workspaceID != "" {
		query += ` AND workspace_id = ?`
		args = append(args, workspaceID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Conversation
	for rows.Next() {
		var (
			c       Conversation
			created string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.WorkspaceID, &c.Name, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scan conversation: %w", err)
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Append adds turns to the end of a conversation in one transaction.
func (s *Store) Append(ctx context.Context, conversationID string, turns ...transcript.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?`, conversationID,
	).Scan(&next); err != nil {
		return fmt.Errorf("sqlite: next seq: %w", err)
	}

	for i, turn := range turns {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (conversation_id, seq, role, content) VALUES (?, ?, ?, ?)`,
			conversationID, next+i, turn.Role, turn.Content,
		); err != nil {
			return fmt.Errorf("sqlite: append message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Messages returns a conversation's turns in order.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]transcript.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content FROM messages
		WHERE conversation_id = ?
		ORDER BY seq ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var turns []transcript.Turn
	for rows.Next() {
		var t transcript.Turn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, fmt.Errorf("sqlite: scan message: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Delete removes a conversation and its messages.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
