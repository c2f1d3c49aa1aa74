// Package storage defines the collaborator interfaces the retrieval engine
// consumes.
//
// The engine is a pure read-and-rank pipeline; everything it reads comes
// through these small, focused interfaces so backends can be implemented and
// swapped independently. Every implementation must exclude soft-deleted
// records from all reads.
package storage

import (
	"context"
	"time"

	"github.com/quillstone/recall/pkg/types"
)

// EntityStore answers name and time based entity queries for one user's data.
type EntityStore interface {
	// FindByNames returns entities of the given kind whose name matches any
	// of the names, case-insensitively. Exact matches are returned before
	// substring matches. At most limit entities are returned.
	FindByNames(ctx context.Context, userID string, names []string, kind types.EntityKind, limit int) ([]types.Entity, error)

	// FindUpcoming returns entities of the given kind whose anchor time
	// (event start, task due, deadline due) falls within [now, now+window),
	// ordered soonest first. At most limit entities are returned.
	FindUpcoming(ctx context.Context, userID string, kind types.EntityKind, window time.Duration, limit int) ([]types.Entity, error)

	// FindRelated returns entities linked to the given entity, strongest
	// link first. At most limit entities are returned. Returns an empty
	// slice (not an error) when the entity has no links.
	FindRelated(ctx context.Context, userID string, entityID string, limit int) ([]types.Entity, error)
}

// SemanticSearcher performs embedding-similarity search over the user's
// indexed entities. The engine treats this collaborator as optional: any
// error it returns degrades to an empty result set at the orchestrator.
type SemanticSearcher interface {
	// Search returns matches for the free-text query with similarity >=
	// minSimilarity, best first. kinds restricts the result to the given
	// entity kinds; empty means all kinds.
	Search(ctx context.Context, userID string, query string, kinds []types.EntityKind, limit int, minSimilarity float64) ([]types.SemanticMatch, error)
}

// ConversationStore reads conversation history.
type ConversationStore interface {
	// ListMessages returns up to limit of the most recent messages for the
	// conversation, ordered oldest first.
	ListMessages(ctx context.Context, conversationID string, limit int) ([]types.ConversationMessage, error)
}

// InteractionLog reads the user's recent action history.
type InteractionLog interface {
	// RecentActions returns up to limit interactions, newest first.
	RecentActions(ctx context.Context, userID string, limit int) ([]types.Interaction, error)
}

// Embedder turns text into an embedding vector. Semantic search backends
// take one so the embedding model stays external to this module.
type Embedder interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
}
