package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/quillstone/recall/internal/storage"
	"github.com/quillstone/recall/pkg/types"
)

// EntityStore implements storage.EntityStore using SQLite.
type EntityStore struct {
	db *sql.DB
}

// NewEntityStore creates a SQLite entity store.
func NewEntityStore(d *DB) *EntityStore {
	return &EntityStore{db: d.db}
}

// SaveEntity creates or updates an entity (upsert semantics). The entity's
// name and anchor time are denormalized into their own columns for querying.
func (s *EntityStore) SaveEntity(ctx context.Context, userID string, entity types.Entity) error {
	if userID == "" {
		return fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}
	if entity == nil {
		return fmt.Errorf("%w: entity is required", storage.ErrInvalidInput)
	}
	if entity.EntityID() == "" {
		return fmt.Errorf("%w: entity ID is required", storage.ErrInvalidInput)
	}

	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	query := `
		INSERT INTO entities (user_id, kind, id, name, payload, anchor_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, kind, id) DO UPDATE SET
			name = excluded.name,
			payload = excluded.payload,
			anchor_at = excluded.anchor_at,
			updated_at = CURRENT_TIMESTAMP,
			deleted_at = NULL
	`

	_, err = s.db.ExecContext(ctx, query,
		userID,
		string(entity.Kind()),
		entity.EntityID(),
		entityName(entity),
		string(payload),
		nullableTime(entityAnchor(entity)),
	)
	if err != nil {
		return fmt.Errorf("failed to save entity: %w", err)
	}

	return nil
}

// DeleteEntity soft-deletes an entity. Soft-deleted entities are excluded
// from every read in this package.
func (s *EntityStore) DeleteEntity(ctx context.Context, userID string, kind types.EntityKind, id string) error {
	if userID == "" || id == "" {
		return fmt.Errorf("%w: user ID and entity ID are required", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE entities SET deleted_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND kind = ? AND id = ? AND deleted_at IS NULL`,
		userID, string(kind), id)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// Link records a directed relationship from an entity to another entity with
// the given strength. Re-linking the same pair updates the strength.
func (s *EntityStore) Link(ctx context.Context, userID, entityID string, related types.Entity, strength float64) error {
	if userID == "" || entityID == "" {
		return fmt.Errorf("%w: user ID and entity ID are required", storage.ErrInvalidInput)
	}
	if related == nil {
		return fmt.Errorf("%w: related entity is required", storage.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entity_links (user_id, entity_id, related_kind, related_id, strength)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, entity_id, related_kind, related_id) DO UPDATE SET
			strength = excluded.strength`,
		userID, entityID, string(related.Kind()), related.EntityID(), strength)
	if err != nil {
		return fmt.Errorf("failed to link entities: %w", err)
	}

	return nil
}

// FindByNames returns entities of the given kind whose name matches any of
// the names, case-insensitively, exact matches before substring matches.
func (s *EntityStore) FindByNames(ctx context.Context, userID string, names []string, kind types.EntityKind, limit int) ([]types.Entity, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}
	if !types.IsValidEntityKind(kind) {
		return nil, fmt.Errorf("%w: unknown entity kind %q", storage.ErrInvalidInput, kind)
	}
	if len(names) == 0 || limit <= 0 {
		return []types.Entity{}, nil
	}

	lowered := make([]any, 0, len(names))
	for _, name := range names {
		n := strings.ToLower(strings.TrimSpace(name))
		if n != "" {
			lowered = append(lowered, n)
		}
	}
	if len(lowered) == 0 {
		return []types.Entity{}, nil
	}

	exactExpr := strings.TrimSuffix(strings.Repeat("LOWER(name) = ? OR ", len(lowered)), " OR ")
	substrExpr := strings.TrimSuffix(strings.Repeat("instr(LOWER(name), ?) > 0 OR ", len(lowered)), " OR ")

	// The exact-match expression is repeated in ORDER BY so exact matches
	// sort ahead of substring matches, hence its args appear twice.
	query := fmt.Sprintf(`
		SELECT kind, payload FROM entities
		WHERE user_id = ? AND kind = ? AND deleted_at IS NULL
		  AND ((%s) OR (%s))
		ORDER BY CASE WHEN %s THEN 0 ELSE 1 END, name, id
		LIMIT ?`, exactExpr, substrExpr, exactExpr)

	args := []any{userID, string(kind)}
	args = append(args, lowered...)
	args = append(args, lowered...)
	args = append(args, lowered...)
	args = append(args, limit)

	return s.queryEntities(ctx, query, args...)
}

// FindUpcoming returns entities of the given kind whose anchor time falls
// within [now, now+window), soonest first.
func (s *EntityStore) FindUpcoming(ctx context.Context, userID string, kind types.EntityKind, window time.Duration, limit int) ([]types.Entity, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}
	if !types.IsValidEntityKind(kind) {
		return nil, fmt.Errorf("%w: unknown entity kind %q", storage.ErrInvalidInput, kind)
	}
	if window <= 0 || limit <= 0 {
		return []types.Entity{}, nil
	}

	now := time.Now().UTC()
	return s.queryEntities(ctx, `
		SELECT kind, payload FROM entities
		WHERE user_id = ? AND kind = ? AND deleted_at IS NULL
		  AND anchor_at IS NOT NULL AND anchor_at >= ? AND anchor_at < ?
		ORDER BY anchor_at, id
		LIMIT ?`,
		userID, string(kind), now, now.Add(window), limit)
}

// FindRelated returns entities linked to the given entity, strongest link
// first.
func (s *EntityStore) FindRelated(ctx context.Context, userID string, entityID string, limit int) ([]types.Entity, error) {
	if userID == "" || entityID == "" {
		return nil, fmt.Errorf("%w: user ID and entity ID are required", storage.ErrInvalidInput)
	}
	if limit <= 0 {
		return []types.Entity{}, nil
	}

	return s.queryEntities(ctx, `
		SELECT e.kind, e.payload
		FROM entity_links l
		JOIN entities e
		  ON e.user_id = l.user_id AND e.kind = l.related_kind AND e.id = l.related_id
		WHERE l.user_id = ? AND l.entity_id = ? AND e.deleted_at IS NULL
		ORDER BY l.strength DESC, e.id
		LIMIT ?`,
		userID, entityID, limit)
}

func (s *EntityStore) queryEntities(ctx context.Context, query string, args ...any) ([]types.Entity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	entities := []types.Entity{}
	for rows.Next() {
		var kind, payload string
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan entity row: %w", err)
		}

		entity, err := types.DecodeEntity(types.EntityKind(kind), []byte(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to hydrate entity: %w", err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entity rows: %w", err)
	}

	return entities, nil
}

// entityName returns the value for the denormalized name column.
func entityName(entity types.Entity) string {
	switch e := entity.(type) {
	case types.Person:
		return e.Name
	case types.Place:
		return e.Name
	case types.Event:
		return e.Title
	case types.Task:
		return e.Title
	case types.Deadline:
		return e.Title
	case types.Routine:
		return e.Name
	case types.OpenLoop:
		return e.Description
	case types.Project:
		return e.Name
	case types.Note:
		return e.Title
	case types.Opportunity:
		return e.Title
	default:
		return entity.EntityID()
	}
}

// entityAnchor returns the time-based lookup anchor: event start, task due,
// deadline due, opportunity close-by. Other kinds have no anchor.
func entityAnchor(entity types.Entity) *time.Time {
	switch e := entity.(type) {
	case types.Event:
		t := e.StartsAt.UTC()
		return &t
	case types.Task:
		if e.DueAt == nil {
			return nil
		}
		t := e.DueAt.UTC()
		return &t
	case types.Deadline:
		t := e.DueAt.UTC()
		return &t
	case types.Opportunity:
		if e.CloseBy == nil {
			return nil
		}
		t := e.CloseBy.UTC()
		return &t
	default:
		return nil
	}
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
