// Package types defines the core data structures for the Recall context
// engine. These types represent classified intents, domain entities, retrieval
// items, and the assembled context package handed to the response layer.
package types

// EntityKind identifies which domain entity variant an item carries.
type EntityKind string

// Entity kind constants - the ten variants the engine understands.
const (
	KindPerson      EntityKind = "person"
	KindPlace       EntityKind = "place"
	KindEvent       EntityKind = "event"
	KindTask        EntityKind = "task"
	KindDeadline    EntityKind = "deadline"
	KindRoutine     EntityKind = "routine"
	KindOpenLoop    EntityKind = "open_loop"
	KindProject     EntityKind = "project"
	KindNote        EntityKind = "note"
	KindOpportunity EntityKind = "opportunity"
)

// ValidEntityKinds is a slice of all valid entity kinds for validation.
var ValidEntityKinds = []EntityKind{
	KindPerson,
	KindPlace,
	KindEvent,
	KindTask,
	KindDeadline,
	KindRoutine,
	KindOpenLoop,
	KindProject,
	KindNote,
	KindOpportunity,
}

// IsValidEntityKind checks if the given entity kind is valid.
func IsValidEntityKind(kind EntityKind) bool {
	for _, validKind := range ValidEntityKinds {
		if validKind == kind {
			return true
		}
	}
	return false
}

// IntentCategory classifies what the user is trying to do this turn.
type IntentCategory string

// Intent category constants
const (
	IntentSchedule    IntentCategory = "schedule"
	IntentTask        IntentCategory = "task"
	IntentCommunicate IntentCategory = "communicate"
	IntentQuery       IntentCategory = "query"
	IntentRemind      IntentCategory = "remind"
	IntentSearch      IntentCategory = "search"
	IntentSummarize   IntentCategory = "summarize"
	IntentUnknown     IntentCategory = "unknown"
)

// ValidIntentCategories is a slice of all valid intent categories for validation.
var ValidIntentCategories = []IntentCategory{
	IntentSchedule,
	IntentTask,
	IntentCommunicate,
	IntentQuery,
	IntentRemind,
	IntentSearch,
	IntentSummarize,
	IntentUnknown,
}

// IsValidIntentCategory checks if the given intent category is valid.
func IsValidIntentCategory(category IntentCategory) bool {
	for _, validCategory := range ValidIntentCategories {
		if validCategory == category {
			return true
		}
	}
	return false
}

// Source identifies the retrieval channel that produced a context item.
// The channel encodes trust/precision, not recency; weight tables live in
// the engine's WeightProfile.
type Source string

// Source constants, strongest channel first.
const (
	// SourceResolvedEntity is a direct name-resolution hit from an
	// intent-extracted entity mention.
	SourceResolvedEntity Source = "resolved_entity"

	// SourceSemanticSearch is an embedding-similarity hit.
	SourceSemanticSearch Source = "semantic_search"

	// SourceTextSearch is a keyword/full-text hit.
	SourceTextSearch Source = "text_search"

	// SourceConversation is an item referenced in recent conversation.
	SourceConversation Source = "conversation"

	// SourceRelatedEntity is a one-hop link from a resolved entity.
	SourceRelatedEntity Source = "related_entity"

	// SourceRecentInteraction is an item the user recently acted on.
	SourceRecentInteraction Source = "recent_interaction"

	// SourceTimeBased is an item surfaced purely by temporal proximity.
	SourceTimeBased Source = "time_based"
)

// ValidSources is a slice of all valid sources for validation.
var ValidSources = []Source{
	SourceResolvedEntity,
	SourceSemanticSearch,
	SourceTextSearch,
	SourceConversation,
	SourceRelatedEntity,
	SourceRecentInteraction,
	SourceTimeBased,
}

// IsValidSource checks if the given source is valid.
func IsValidSource(source Source) bool {
	for _, validSource := range ValidSources {
		if validSource == source {
			return true
		}
	}
	return false
}

// Role identifies the author of a conversation message.
type Role string

// Conversation role constants
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ValidRoles is a slice of all valid roles for validation.
var ValidRoles = []Role{RoleUser, RoleAssistant, RoleSystem}

// IsValidRole checks if the given role is valid.
func IsValidRole(role Role) bool {
	for _, validRole := range ValidRoles {
		if validRole == role {
			return true
		}
	}
	return false
}

// Action classifies a prior user interaction with an entity.
type Action string

// Interaction action constants
const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
	ActionQueried Action = "queried"
	ActionViewed  Action = "viewed"
)

// ValidActions is a slice of all valid actions for validation.
var ValidActions = []Action{
	ActionCreated,
	ActionUpdated,
	ActionDeleted,
	ActionQueried,
	ActionViewed,
}

// IsValidAction checks if the given action is valid.
func IsValidAction(action Action) bool {
	for _, validAction := range ValidActions {
		if validAction == action {
			return true
		}
	}
	return false
}
