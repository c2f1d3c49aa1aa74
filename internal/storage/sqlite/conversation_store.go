package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quillstone/recall/internal/storage"
	"github.com/quillstone/recall/pkg/types"
)

// ConversationStore implements storage.ConversationStore using SQLite.
type ConversationStore struct {
	db *sql.DB
}

// NewConversationStore creates a SQLite conversation store.
func NewConversationStore(d *DB) *ConversationStore {
	return &ConversationStore{db: d.db}
}

// AppendMessage records one message in a conversation. A zero timestamp is
// replaced with the current time.
func (s *ConversationStore) AppendMessage(ctx context.Context, conversationID string, msg types.ConversationMessage) error {
	if conversationID == "" {
		return fmt.Errorf("%w: conversation ID is required", storage.ErrInvalidInput)
	}
	if !types.IsValidRole(msg.Role) {
		return fmt.Errorf("%w: unknown role %q", storage.ErrInvalidInput, msg.Role)
	}
	if msg.Content == "" {
		return fmt.Errorf("%w: message content is required", storage.ErrInvalidInput)
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), conversationID, string(msg.Role), msg.Content, msg.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	return nil
}

// ListMessages returns up to limit of the most recent messages for the
// conversation, ordered oldest first.
func (s *ConversationStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]types.ConversationMessage, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("%w: conversation ID is required", storage.ErrInvalidInput)
	}
	if limit <= 0 {
		return []types.ConversationMessage{}, nil
	}

	// Fetch newest first so LIMIT keeps the tail of the conversation, then
	// reverse into chronological order.
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, timestamp FROM messages
		 WHERE conversation_id = ? AND deleted_at IS NULL
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ?`,
		conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []types.ConversationMessage{}
	for rows.Next() {
		var (
			role, content string
			timestamp     time.Time
		)
		if err := rows.Scan(&role, &content, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, types.ConversationMessage{
			Role:      types.Role(role),
			Content:   content,
			Timestamp: timestamp,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
