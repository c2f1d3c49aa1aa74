package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/sethvargo/go-retry"

	"github.com/quillstone/recall/internal/storage"
	"github.com/quillstone/recall/pkg/types"
)

// Ensure *Searcher implements storage.SemanticSearcher at compile time.
var _ storage.SemanticSearcher = (*Searcher)(nil)

// Searcher implements storage.SemanticSearcher against a pgvector index.
// Queries are embedded through the injected Embedder and matched with cosine
// distance; transient failures are retried with fibonacci backoff before the
// error reaches the caller.
type Searcher struct {
	db        *sql.DB
	embedder  storage.Embedder
	dimension int
}

// Open connects to PostgreSQL, verifies the connection, and creates the
// schema with the given embedding dimension. A dimension <= 0 falls back to
// DefaultDimension.
func Open(dsn string, dimension int) (*sql.DB, error) {
	if dimension <= 0 {
		dimension = DefaultDimension
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(Schema(dimension)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// NewSearcher creates a semantic searcher over the given database, expecting
// DefaultDimension-length embeddings.
func NewSearcher(db *sql.DB, embedder storage.Embedder) (*Searcher, error) {
	return NewSearcherWithDimension(db, embedder, DefaultDimension)
}

// NewSearcherWithDimension creates a semantic searcher that expects
// embeddings of the given length. The dimension must match the one the
// schema was created with.
func NewSearcherWithDimension(db *sql.DB, embedder storage.Embedder, dimension int) (*Searcher, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: database is required", storage.ErrInvalidInput)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", storage.ErrInvalidInput)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be positive", storage.ErrInvalidInput)
	}
	return &Searcher{db: db, embedder: embedder, dimension: dimension}, nil
}

// IndexEntity embeds the snippet and upserts the entity into the semantic
// index. The snippet should be the text a match will be explained with.
func (s *Searcher) IndexEntity(ctx context.Context, userID string, entity types.Entity, snippet string) error {
	if userID == "" {
		return fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}
	if entity == nil || entity.EntityID() == "" {
		return fmt.Errorf("%w: entity with ID is required", storage.ErrInvalidInput)
	}
	if snippet == "" {
		return fmt.Errorf("%w: snippet is required", storage.ErrInvalidInput)
	}

	embedding, err := s.embedder.Embed(ctx, snippet)
	if err != nil {
		return fmt.Errorf("failed to embed snippet: %w", err)
	}
	if len(embedding) != s.dimension {
		return fmt.Errorf("%w: embedding dimension %d, want %d",
			storage.ErrInvalidInput, len(embedding), s.dimension)
	}

	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entity_index (user_id, kind, id, snippet, payload, embedding, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, kind, id) DO UPDATE SET
			snippet = EXCLUDED.snippet,
			payload = EXCLUDED.payload,
			embedding = EXCLUDED.embedding,
			updated_at = CURRENT_TIMESTAMP,
			deleted_at = NULL`,
		userID, string(entity.Kind()), entity.EntityID(), snippet, payload, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to index entity: %w", err)
	}

	return nil
}

// RemoveEntity soft-deletes an entity from the semantic index.
func (s *Searcher) RemoveEntity(ctx context.Context, userID string, kind types.EntityKind, id string) error {
	if userID == "" || id == "" {
		return fmt.Errorf("%w: user ID and entity ID are required", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE entity_index SET deleted_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND kind = $2 AND id = $3 AND deleted_at IS NULL`,
		userID, string(kind), id)
	if err != nil {
		return fmt.Errorf("failed to remove entity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check remove result: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// Search embeds the query and returns matches with cosine similarity >=
// minSimilarity, best first.
func (s *Searcher) Search(ctx context.Context, userID string, query string, kinds []types.EntityKind, limit int, minSimilarity float64) ([]types.SemanticMatch, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}
	if query == "" || limit <= 0 {
		return []types.SemanticMatch{}, nil
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	vec := pgvector.NewVector(embedding)

	var kindFilter any
	if len(kinds) > 0 {
		names := make([]string, len(kinds))
		for i, kind := range kinds {
			names[i] = string(kind)
		}
		kindFilter = pq.Array(names)
	}

	// Cosine similarity = 1 - cosine distance.
	const querySQL = `
		SELECT kind, id, snippet, payload, 1 - (embedding <=> $1) AS similarity
		FROM entity_index
		WHERE user_id = $2 AND deleted_at IS NULL
		  AND ($3::text[] IS NULL OR kind = ANY($3))
		  AND 1 - (embedding <=> $1) >= $4
		ORDER BY embedding <=> $1
		LIMIT $5
	`

	var matches []types.SemanticMatch
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(100*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		found, err := s.queryMatches(ctx, querySQL, vec, userID, kindFilter, minSimilarity, limit)
		if err != nil {
			return retry.RetryableError(err)
		}
		matches = found
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	return matches, nil
}

func (s *Searcher) queryMatches(ctx context.Context, querySQL string, args ...any) ([]types.SemanticMatch, error) {
	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := []types.SemanticMatch{}
	for rows.Next() {
		var (
			kind, id, snippet string
			payload           []byte
			similarity        float64
		)
		if err := rows.Scan(&kind, &id, &snippet, &payload, &similarity); err != nil {
			return nil, err
		}

		match := types.SemanticMatch{
			EntityKind: types.EntityKind(kind),
			EntityID:   id,
			Score:      similarity,
			Snippet:    snippet,
		}
		if entity, err := types.DecodeEntity(match.EntityKind, payload); err == nil {
			match.Entity = entity
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return matches, nil
}
