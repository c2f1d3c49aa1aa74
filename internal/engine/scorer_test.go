package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstone/recall/pkg/types"
)

func TestScorer_ScoreBounds(t *testing.T) {
	scorer := NewScorer(DefaultWeightProfile())

	raws := []float64{-0.5, 0, 0.1, 0.5, 0.9, 1.0, 1.5}
	intents := []types.Intent{
		{Category: types.IntentQuery},
		{Category: types.IntentTask},
		{Category: types.IntentSchedule, Entities: []types.EntityMention{{Kind: "event", Text: "standup"}}},
		{Category: types.IntentUnknown, Entities: []types.EntityMention{{Kind: types.MentionKindReference, Text: "it"}}},
	}

	for _, raw := range raws {
		for _, source := range types.ValidSources {
			for _, kind := range types.ValidEntityKinds {
				for _, intent := range intents {
					score := scorer.Score(raw, source, kind, intent)
					assert.GreaterOrEqual(t, score, 0.0, "raw=%v source=%s kind=%s", raw, source, kind)
					assert.LessOrEqual(t, score, 1.0, "raw=%v source=%s kind=%s", raw, source, kind)
				}
			}
		}
	}
}

func TestScorer_SourceWeightsApplied(t *testing.T) {
	scorer := NewScorer(DefaultWeightProfile())
	intent := types.Intent{Category: types.IntentQuery}

	resolved := scorer.Score(0.5, types.SourceResolvedEntity, types.KindNote, intent)
	semantic := scorer.Score(0.5, types.SourceSemanticSearch, types.KindNote, intent)
	timeBased := scorer.Score(0.5, types.SourceTimeBased, types.KindNote, intent)

	assert.InDelta(t, 0.5, resolved, 1e-9)
	assert.InDelta(t, 0.4, semantic, 1e-9)
	assert.InDelta(t, 0.15, timeBased, 1e-9)
}

func TestScorer_MentionBoostExactFactor(t *testing.T) {
	scorer := NewScorer(DefaultWeightProfile())

	// Low raw value keeps both scores well under the clamp.
	raw := 0.5
	source := types.SourceTimeBased
	plain := types.Intent{Category: types.IntentQuery}
	mentioned := types.Intent{
		Category: types.IntentQuery,
		Entities: []types.EntityMention{{Kind: "note", Text: "grocery list"}},
	}

	base := scorer.Score(raw, source, types.KindNote, plain)
	boosted := scorer.Score(raw, source, types.KindNote, mentioned)

	assert.InDelta(t, base*1.2, boosted, 1e-9)
}

func TestScorer_GenericReferenceMentionBoostsAnyKind(t *testing.T) {
	scorer := NewScorer(DefaultWeightProfile())
	intent := types.Intent{
		Category: types.IntentQuery,
		Entities: []types.EntityMention{{Kind: types.MentionKindReference, Text: "that"}},
	}

	base := scorer.Score(0.5, types.SourceTimeBased, types.KindRoutine, types.Intent{Category: types.IntentQuery})
	boosted := scorer.Score(0.5, types.SourceTimeBased, types.KindRoutine, intent)

	assert.InDelta(t, base*1.2, boosted, 1e-9)
}

func TestScorer_IntentKindWeight(t *testing.T) {
	scorer := NewScorer(DefaultWeightProfile())

	taskIntent := types.Intent{Category: types.IntentTask}

	// task intent weights task entities at 1.3, notes are neutral.
	taskScore := scorer.Score(0.5, types.SourceSemanticSearch, types.KindTask, taskIntent)
	noteScore := scorer.Score(0.5, types.SourceSemanticSearch, types.KindNote, taskIntent)

	assert.InDelta(t, 0.5*0.8*1.3, taskScore, 1e-9)
	assert.InDelta(t, 0.5*0.8, noteScore, 1e-9)
}

func TestScorer_UnmappedCategoryIsNeutral(t *testing.T) {
	scorer := NewScorer(DefaultWeightProfile())

	searchScore := scorer.Score(0.5, types.SourceTextSearch, types.KindTask, types.Intent{Category: types.IntentSearch})
	assert.InDelta(t, 0.5*0.7, searchScore, 1e-9)
}

func TestScorer_Deterministic(t *testing.T) {
	scorer := NewScorer(DefaultWeightProfile())
	intent := types.Intent{
		Category: types.IntentSchedule,
		Entities: []types.EntityMention{{Kind: "event", Text: "review"}},
	}

	first := scorer.Score(0.7, types.SourceSemanticSearch, types.KindEvent, intent)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, scorer.Score(0.7, types.SourceSemanticSearch, types.KindEvent, intent))
	}
}

func TestWeightProfile_Validate(t *testing.T) {
	require.NoError(t, DefaultWeightProfile().Validate())

	bad := DefaultWeightProfile()
	bad.SourceWeights["cache"] = 0.5
	assert.Error(t, bad.Validate())

	bad = DefaultWeightProfile()
	bad.SourceWeights[types.SourceTimeBased] = 1.5
	assert.Error(t, bad.Validate())

	bad = DefaultWeightProfile()
	bad.IntentKindWeights[types.IntentTask]["meeting"] = 1.1
	assert.Error(t, bad.Validate())

	bad = DefaultWeightProfile()
	bad.MentionBoost = 0.9
	assert.Error(t, bad.Validate())
}
