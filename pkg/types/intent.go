package types

// MentionKindReference is the generic mention kind produced by the upstream
// classifier when it cannot name a concrete entity kind. It matches any
// entity kind for mention-boost purposes.
const MentionKindReference = "reference"

// EntityMention is an entity reference the classifier extracted from the
// user's message.
type EntityMention struct {
	// Kind is the mentioned entity kind as a free string. It is usually one
	// of the EntityKind constants but may be MentionKindReference.
	Kind string `json:"kind"`

	// Text is the surface form the user typed.
	Text string `json:"text"`

	// NeedsResolution indicates the mention should be resolved against the
	// entity store by name.
	NeedsResolution bool `json:"needs_resolution"`
}

// Assumption is an inference the classifier made while interpreting the turn.
type Assumption struct {
	// Statement is the assumed fact in plain language.
	Statement string `json:"statement"`

	// Confidence is the classifier's confidence in the assumption (0.0 to 1.0).
	Confidence float64 `json:"confidence"`
}

// Intent is the upstream classifier's structured interpretation of the user's
// message. It is produced before retrieval and is immutable input to this
// engine.
type Intent struct {
	// Category is the coarse classification of the turn.
	Category IntentCategory `json:"category"`

	// Summary is a free-text restatement of what the user wants.
	Summary string `json:"summary"`

	// Confidence is the classifier's confidence in the category (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Entities are the entity mentions extracted from the message.
	Entities []EntityMention `json:"entities,omitempty"`

	// Assumptions are inferences the classifier made.
	Assumptions []Assumption `json:"assumptions,omitempty"`
}

// MentionsKind reports whether the intent contains a mention whose kind
// matches the given entity kind, or the generic reference kind.
func (i Intent) MentionsKind(kind EntityKind) bool {
	for _, mention := range i.Entities {
		if mention.Kind == string(kind) || mention.Kind == MentionKindReference {
			return true
		}
	}
	return false
}
