// Package postgres implements semantic search over a pgvector index.
package postgres

import "fmt"

// DefaultDimension is the embedding vector length the schema defaults to.
// It matches nomic-embed-text, the default Ollama embedding model.
const DefaultDimension = 768

// Schema returns the DDL for the semantic index table with the given
// embedding dimension. The dimension is fixed per table; switching models
// with a different vector length means recreating the table.
func Schema(dimension int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS entity_index (
    user_id    TEXT NOT NULL,
    kind       TEXT NOT NULL,
    id         TEXT NOT NULL,
    snippet    TEXT NOT NULL,
    payload    JSONB NOT NULL,
    embedding  vector(%d) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP,
    PRIMARY KEY (user_id, kind, id)
);

-- Approximate nearest-neighbour index for cosine distance. ivfflat needs a
-- populated table to build useful lists; on an empty table queries fall back
-- to a sequential scan, which is fine at small scale.
CREATE INDEX IF NOT EXISTS idx_entity_index_cosine
    ON entity_index USING ivfflat (embedding vector_cosine_ops)
    WITH (lists = 100);
`, dimension)
}
