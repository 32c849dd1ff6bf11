// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/askai/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrConversationNotFound is returned when a conversation id has no row.
	ErrConversationNotFound = errors.New("conversation not found")
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    model TEXT,
    created_at INTEGER NOT NULL,  -- Unix nanoseconds
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at);

CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    seq INTEGER NOT NULL,         -- Per-conversation insertion order
    FOREIGN KEY(conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);
`

// DefaultMaxContextMessages caps how much history is replayed per request.
const DefaultMaxContextMessages = 40

// =============================================================================
// TYPES
// =============================================================================

// Conversation is one persisted chat session.
type Conversation struct {
	ID           string
	Title        string
	Model        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// StoredMessage is one persisted chat message.
type StoredMessage struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
}

// =============================================================================
// STORE
// =============================================================================

// Store is a SQLite-backed chat history store.
type Store struct {
	db         *sql.DB
	maxContext int
}

// Open opens (creating if needed) the database at path.
// maxContextMessages caps RecentMessages; zero uses the default.
func Open(path string, maxContextMessages int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure database: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if maxContextMessages <= 0 {
		maxContextMessages = DefaultMaxContextMessages
	}
	return &Store{db: db, maxContext: maxContextMessages}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// CreateConversation starts a new conversation and returns it.
func (s *Store) CreateConversation(ctx context.Context, title, model string) (*Conversation, error) {
	if title == "" {
		title = "New conversation"
	}
	now := time.Now()
	conv := &Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, model, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		conv.ID, conv.Title, conv.Model, now.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// GetConversation loads one conversation by id.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.title, c.model, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		FROM conversations c WHERE c.id = ?`, id)

	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	return conv, err
}

// ListConversations returns all conversations, most recently updated first.
func (s *Store) ListConversations(ctx context.Context) ([]*Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.model, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		FROM conversations c ORDER BY c.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var convs []*Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// DeleteConversation removes a conversation and its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	return nil
}

// scanner matches sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanConversation(row scanner) (*Conversation, error) {
	var conv Conversation
	var created, updated int64
	if err := row.Scan(&conv.ID, &conv.Title, &conv.Model, &created, &updated, &conv.MessageCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}
	conv.CreatedAt = time.Unix(0, created)
	conv.UpdatedAt = time.Unix(0, updated)
	return &conv, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// AppendMessage appends one message to a conversation. The first user
// message also becomes the conversation title when the title is still the
// placeholder.
func (s *Store) AppendMessage(ctx context.Context, conversationID, role, content string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?`,
		conversationID).Scan(&seq); err != nil {
		return fmt.Errorf("failed to allocate message sequence: %w", err)
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, created_at, seq) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), conversationID, role, content, now.UnixNano(), seq); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		now.UnixNano(), conversationID); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	if role == "user" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE conversations SET title = ? WHERE id = ? AND title = 'New conversation'`,
			titleFrom(content), conversationID); err != nil {
			return fmt.Errorf("failed to update title: %w", err)
		}
	}

	return tx.Commit()
}

// RecentMessages returns the newest messages of a conversation in
// chronological order, capped at the configured context window.
func (s *Store) RecentMessages(ctx context.Context, conversationID string) ([]StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, created_at FROM (
			SELECT id, conversation_id, role, content, created_at, seq
			FROM messages WHERE conversation_id = ?
			ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, conversationID, s.maxContext)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	var messages []StoredMessage
	for rows.Next() {
		var msg StoredMessage
		var created int64
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.CreatedAt = time.Unix(0, created)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// titleFrom derives a conversation title from a message, single line and
// truncated.
func titleFrom(content string) string {
	line := util.FirstLine(content)
	if line == "" {
		return "New conversation"
	}
	return util.TruncateRunes(line, 50)
}
