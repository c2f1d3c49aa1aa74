package engine

import "github.com/quillstone/recall/pkg/types"

// Default and maximum values for RetrieveOptions.
const (
	defaultMaxItemsPerKind = 10
	defaultMaxMessages     = 10
	defaultMaxInteractions = 10
	defaultMinSimilarity   = 0.5

	maxItemsPerKindCap = 50
	maxMessagesCap     = 50
	maxInteractionsCap = 50

	// upcomingWindowDays is the look-ahead window for time-based retrieval.
	upcomingWindowDays = 7
)

// RetrieveOptions configures one Retrieve call. The zero value is usable:
// Normalize applies all defaults.
type RetrieveOptions struct {
	// SkipSemanticSearch disables the semantic search strategy for this
	// call. Semantic search is on by default when a searcher is configured.
	SkipSemanticSearch bool

	// MaxItemsPerKind caps merged items per entity kind (default: 10, max: 50).
	MaxItemsPerKind int

	// MaxMessages caps retrieved conversation messages (default: 10, max: 50).
	MaxMessages int

	// MaxInteractions caps retrieved interaction records (default: 10, max: 50).
	MaxInteractions int

	// MinSimilarity is the semantic search similarity floor (default: 0.5).
	MinSimilarity float64

	// FocusKinds restricts retrieval to the given entity kinds.
	// Empty means all kinds.
	FocusKinds []types.EntityKind

	// IncludeRelated also retrieves entities linked to resolved mentions.
	IncludeRelated bool

	// ConversationID selects the conversation to read history from.
	// Empty skips the conversation strategy.
	ConversationID string
}

// Normalize applies defaults and caps.
func (o *RetrieveOptions) Normalize() {
	if o.MaxItemsPerKind < 1 {
		o.MaxItemsPerKind = defaultMaxItemsPerKind
	}
	if o.MaxItemsPerKind > maxItemsPerKindCap {
		o.MaxItemsPerKind = maxItemsPerKindCap
	}

	if o.MaxMessages < 1 {
		o.MaxMessages = defaultMaxMessages
	}
	if o.MaxMessages > maxMessagesCap {
		o.MaxMessages = maxMessagesCap
	}

	if o.MaxInteractions < 1 {
		o.MaxInteractions = defaultMaxInteractions
	}
	if o.MaxInteractions > maxInteractionsCap {
		o.MaxInteractions = maxInteractionsCap
	}

	if o.MinSimilarity <= 0 {
		o.MinSimilarity = defaultMinSimilarity
	}
	if o.MinSimilarity > 1 {
		o.MinSimilarity = 1
	}
}

// wantsKind reports whether the given kind passes the FocusKinds filter.
func (o *RetrieveOptions) wantsKind(kind types.EntityKind) bool {
	if len(o.FocusKinds) == 0 {
		return true
	}
	for _, focus := range o.FocusKinds {
		if focus == kind {
			return true
		}
	}
	return false
}
