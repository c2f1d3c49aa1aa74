// Package engine implements the context retrieval and relevance ranking
// pipeline: concurrent fan-out to the collaborator stores, merge and dedup of
// their results, multi-factor relevance scoring, and assembly of a
// token-budgeted context summary.
package engine

import (
	"fmt"

	"github.com/quillstone/recall/pkg/types"
)

// WeightProfile holds the weight tables the scorer multiplies together.
// Profiles are immutable once constructed; to change weights at runtime,
// build a new Scorer from a new profile and swap it.
type WeightProfile struct {
	// SourceWeights maps each retrieval channel to its trust weight.
	SourceWeights map[types.Source]float64 `yaml:"source_weights"`

	// IntentKindWeights maps an intent category to per-entity-kind
	// multipliers. Unmapped categories and kinds are neutral (1.0).
	IntentKindWeights map[types.IntentCategory]map[types.EntityKind]float64 `yaml:"intent_kind_weights"`

	// MentionBoost is applied when the intent explicitly mentions the
	// entity's kind (or the generic reference kind).
	MentionBoost float64 `yaml:"mention_boost"`
}

// DefaultWeightProfile returns the standard weight tables.
// Source weights encode channel trust/precision, not recency.
func DefaultWeightProfile() WeightProfile {
	return WeightProfile{
		SourceWeights: map[types.Source]float64{
			types.SourceResolvedEntity:    1.0,
			types.SourceSemanticSearch:    0.8,
			types.SourceTextSearch:        0.7,
			types.SourceConversation:      0.6,
			types.SourceRelatedEntity:     0.5,
			types.SourceRecentInteraction: 0.4,
			types.SourceTimeBased:         0.3,
		},
		IntentKindWeights: map[types.IntentCategory]map[types.EntityKind]float64{
			types.IntentSchedule: {
				types.KindEvent: 1.2,
				types.KindPlace: 1.1,
			},
			types.IntentTask: {
				types.KindTask:     1.3,
				types.KindDeadline: 1.2,
				types.KindProject:  1.1,
			},
			types.IntentRemind: {
				types.KindDeadline: 1.3,
				types.KindTask:     1.2,
			},
			types.IntentCommunicate: {
				types.KindPerson: 1.3,
			},
			types.IntentSummarize: {
				types.KindNote:    1.2,
				types.KindProject: 1.1,
			},
		},
		MentionBoost: 1.2,
	}
}

// Validate checks that the profile's weights are usable.
func (p WeightProfile) Validate() error {
	for source, weight := range p.SourceWeights {
		if !types.IsValidSource(source) {
			return fmt.Errorf("unknown source %q", source)
		}
		if weight < 0 || weight > 1 {
			return fmt.Errorf("source weight for %q out of range: %v", source, weight)
		}
	}
	for category, kinds := range p.IntentKindWeights {
		if !types.IsValidIntentCategory(category) {
			return fmt.Errorf("unknown intent category %q", category)
		}
		for kind, weight := range kinds {
			if !types.IsValidEntityKind(kind) {
				return fmt.Errorf("unknown entity kind %q under category %q", kind, category)
			}
			if weight < 0 {
				return fmt.Errorf("intent weight for %s/%s is negative: %v", category, kind, weight)
			}
		}
	}
	if p.MentionBoost < 1 {
		return fmt.Errorf("mention boost must be >= 1, got %v", p.MentionBoost)
	}
	return nil
}

// Scorer computes final relevance scores from raw channel relevance.
// It is pure and deterministic given its inputs.
type Scorer struct {
	profile WeightProfile
}

// NewScorer creates a scorer from the given weight profile.
func NewScorer(profile WeightProfile) *Scorer {
	return &Scorer{profile: profile}
}

// Score computes the final relevance for one retrieval hit:
//
//	raw × sourceWeight × intentKindWeight × mentionBoost
//
// clamped to [0, 1]. Sources missing from the profile and unmapped
// category/kind pairs are neutral.
func (s *Scorer) Score(raw float64, source types.Source, kind types.EntityKind, intent types.Intent) float64 {
	if raw < 0 {
		raw = 0
	}

	score := raw * s.sourceWeight(source) * s.intentKindWeight(intent.Category, kind)

	if intent.MentionsKind(kind) {
		score *= s.profile.MentionBoost
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func (s *Scorer) sourceWeight(source types.Source) float64 {
	if weight, ok := s.profile.SourceWeights[source]; ok {
		return weight
	}
	return 1.0
}

func (s *Scorer) intentKindWeight(category types.IntentCategory, kind types.EntityKind) float64 {
	kinds, ok := s.profile.IntentKindWeights[category]
	if !ok {
		return 1.0
	}
	if weight, ok := kinds[kind]; ok {
		return weight
	}
	return 1.0
}
