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

// InteractionLog implements storage.InteractionLog using SQLite.
type InteractionLog struct {
	db *sql.DB
}

// NewInteractionLog creates a SQLite interaction log.
func NewInteractionLog(d *DB) *InteractionLog {
	return &InteractionLog{db: d.db}
}

// Record appends one interaction to the user's log. A zero timestamp is
// replaced with the current time.
func (l *InteractionLog) Record(ctx context.Context, userID string, interaction types.Interaction) error {
	if userID == "" {
		return fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}
	if !types.IsValidAction(interaction.Action) {
		return fmt.Errorf("%w: unknown action %q", storage.ErrInvalidInput, interaction.Action)
	}
	if !types.IsValidEntityKind(interaction.EntityKind) {
		return fmt.Errorf("%w: unknown entity kind %q", storage.ErrInvalidInput, interaction.EntityKind)
	}
	if interaction.EntityID == "" {
		return fmt.Errorf("%w: entity ID is required", storage.ErrInvalidInput)
	}

	if interaction.Timestamp.IsZero() {
		interaction.Timestamp = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO interactions (id, user_id, action, entity_kind, entity_id, display_name, timestamp, context)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		userID,
		string(interaction.Action),
		string(interaction.EntityKind),
		interaction.EntityID,
		interaction.DisplayName,
		interaction.Timestamp.UTC(),
		interaction.Context,
	)
	if err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}

	return nil
}

// RecentActions returns up to limit interactions for the user, newest first.
func (l *InteractionLog) RecentActions(ctx context.Context, userID string, limit int) ([]types.Interaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}
	if limit <= 0 {
		return []types.Interaction{}, nil
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT action, entity_kind, entity_id, display_name, timestamp, context
		 FROM interactions
		 WHERE user_id = ? AND deleted_at IS NULL
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	interactions := []types.Interaction{}
	for rows.Next() {
		var (
			action, kind, entityID, displayName string
			timestamp                           time.Time
			context                             sql.NullString
		)
		if err := rows.Scan(&action, &kind, &entityID, &displayName, &timestamp, &context); err != nil {
			return nil, fmt.Errorf("failed to scan interaction row: %w", err)
		}
		interactions = append(interactions, types.Interaction{
			Action:      types.Action(action),
			EntityKind:  types.EntityKind(kind),
			EntityID:    entityID,
			DisplayName: displayName,
			Timestamp:   timestamp,
			Context:     context.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interaction rows: %w", err)
	}

	return interactions, nil
}
