package types

import "time"

// RetrievalItem is a single raw hit from one retrieval channel.
// Two items with the same (Kind, EntityID) identity describe the same
// real-world record observed through different channels and must be merged,
// never duplicated.
type RetrievalItem struct {
	// Entity is the domain entity payload.
	Entity Entity `json:"entity"`

	// EntityKind is the variant tag, kept explicit so identity survives
	// serialization of the opaque payload.
	EntityKind EntityKind `json:"entity_kind"`

	// EntityID is the stable identifier within the kind.
	EntityID string `json:"entity_id"`

	// Relevance is the raw channel-assigned relevance (0.0 to 1.0),
	// before source and intent weighting.
	Relevance float64 `json:"relevance"`

	// Source is the retrieval channel that produced this hit.
	Source Source `json:"source"`

	// Reason optionally explains why the channel surfaced this item.
	Reason string `json:"reason,omitempty"`
}

// Identity returns the dedup key for this item.
func (r RetrievalItem) Identity() string {
	return string(r.EntityKind) + ":" + r.EntityID
}

// RankedItem is the merged, scored form of one identity across all
// contributing channels.
type RankedItem struct {
	// Entity is the domain entity payload.
	Entity Entity `json:"entity"`

	// EntityKind is the variant tag.
	EntityKind EntityKind `json:"entity_kind"`

	// EntityID is the stable identifier within the kind.
	EntityID string `json:"entity_id"`

	// Relevance is the final score: always the maximum scored relevance
	// across contributing sources, never an average or sum.
	Relevance float64 `json:"relevance"`

	// Sources is the union of contributing channels in first-appearance order.
	Sources []Source `json:"sources"`

	// Reasons is the union of non-empty channel reasons, first-appearance
	// order, no duplicates.
	Reasons []string `json:"reasons,omitempty"`

	// DisplayName is the entity's primary human label.
	DisplayName string `json:"display_name"`

	// Summary is a one-line digest of the entity's decision-relevant fields.
	Summary string `json:"summary"`
}

// SemanticMatch is a raw hit from the semantic search backend.
type SemanticMatch struct {
	// EntityKind is the matched entity's variant tag.
	EntityKind EntityKind `json:"entity_kind"`

	// EntityID is the matched entity's identifier.
	EntityID string `json:"entity_id"`

	// Score is the similarity score (0.0 to 1.0).
	Score float64 `json:"score"`

	// Snippet is the indexed text fragment that matched.
	Snippet string `json:"snippet,omitempty"`

	// Entity is the full entity payload when the backend can hydrate it.
	Entity Entity `json:"entity,omitempty"`
}

// ConversationMessage is one message of read-only conversation history.
type ConversationMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Interaction records a prior user action against an entity.
type Interaction struct {
	// Action is what the user did.
	Action Action `json:"action"`

	// EntityKind and EntityID identify the entity acted upon.
	EntityKind EntityKind `json:"entity_kind"`
	EntityID   string     `json:"entity_id"`

	// DisplayName is the entity's label at the time of the action.
	DisplayName string `json:"display_name"`

	// Timestamp is when the action happened.
	Timestamp time.Time `json:"timestamp"`

	// Context optionally records where or why the action happened.
	Context string `json:"context,omitempty"`
}

// RetrievalStats describes one Retrieve call for diagnostics.
type RetrievalStats struct {
	// BySource counts merged items per retrieval channel.
	BySource map[Source]int `json:"by_source"`

	// Duration is the wall-clock time of the whole fan-out.
	Duration time.Duration `json:"duration"`
}

// ContextPackage is the orchestrator's output: raw per-kind retrieval items
// plus the surrounding conversational material. It is constructed fresh per
// call, never mutated after return, and never persisted.
type ContextPackage struct {
	// UserID identifies whose data was retrieved.
	UserID string `json:"user_id"`

	// Items holds merged raw retrieval items grouped by entity kind.
	// Ordering within a kind is not significant.
	Items map[EntityKind][]RetrievalItem `json:"items"`

	// Messages is recent conversation history, oldest first.
	Messages []ConversationMessage `json:"messages,omitempty"`

	// SemanticMatches are the raw semantic search hits.
	SemanticMatches []SemanticMatch `json:"semantic_matches,omitempty"`

	// Interactions is recent interaction history, newest first.
	Interactions []Interaction `json:"interactions,omitempty"`

	// Stats describes the retrieval run.
	Stats RetrievalStats `json:"stats"`
}

// AllItems flattens the per-kind collections in a fixed kind order so that
// downstream ranking is deterministic for identical packages.
func (p *ContextPackage) AllItems() []RetrievalItem {
	items := make([]RetrievalItem, 0)
	for _, kind := range ValidEntityKinds {
		items = append(items, p.Items[kind]...)
	}
	return items
}

// RankedContext is the final ranked output consumed by the response layer.
type RankedContext struct {
	// Items is sorted by descending relevance.
	Items []RankedItem `json:"items"`

	// Summary is the assembled, token-budgeted context digest.
	Summary string `json:"summary"`

	// EstimatedTokens is the estimated token count of Summary.
	EstimatedTokens int `json:"estimated_tokens"`
}
