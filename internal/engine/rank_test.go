package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstone/recall/pkg/types"
)

func newTestRanker() *Ranker {
	return NewRanker(NewScorer(DefaultWeightProfile()))
}

func TestMergeAndRank_EmptyInput(t *testing.T) {
	ranked := newTestRanker().MergeAndRank(nil, types.Intent{Category: types.IntentQuery})

	require.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestMergeAndRank_DedupByIdentity(t *testing.T) {
	event := types.Event{ID: "ev1", Title: "Board meeting", StartsAt: time.Now()}
	items := []types.RetrievalItem{
		{Entity: event, EntityKind: types.KindEvent, EntityID: "ev1", Relevance: 0.9, Source: types.SourceResolvedEntity, Reason: "mentioned"},
		{Entity: event, EntityKind: types.KindEvent, EntityID: "ev1", Relevance: 0.5, Source: types.SourceTimeBased, Reason: "upcoming"},
		{Entity: event, EntityKind: types.KindEvent, EntityID: "ev1", Relevance: 0.7, Source: types.SourceSemanticSearch, Reason: "mentioned"},
	}

	ranked := newTestRanker().MergeAndRank(items, types.Intent{Category: types.IntentQuery})

	require.Len(t, ranked, 1)
	assert.Equal(t, []types.Source{types.SourceResolvedEntity, types.SourceTimeBased, types.SourceSemanticSearch}, ranked[0].Sources)
	// Duplicate reasons collapse, first-appearance order.
	assert.Equal(t, []string{"mentioned", "upcoming"}, ranked[0].Reasons)
}

func TestMergeAndRank_RelevanceIsMaxNotAverage(t *testing.T) {
	task := types.Task{ID: "t1", Title: "File expense report"}
	items := []types.RetrievalItem{
		{Entity: task, EntityKind: types.KindTask, EntityID: "t1", Relevance: 0.9, Source: types.SourceResolvedEntity},
		{Entity: task, EntityKind: types.KindTask, EntityID: "t1", Relevance: 0.1, Source: types.SourceTimeBased},
		{Entity: task, EntityKind: types.KindTask, EntityID: "t1", Relevance: 0.2, Source: types.SourceRecentInteraction},
	}

	intent := types.Intent{Category: types.IntentQuery}
	scorer := NewScorer(DefaultWeightProfile())
	ranked := newTestRanker().MergeAndRank(items, intent)

	require.Len(t, ranked, 1)
	for _, item := range items {
		individual := scorer.Score(item.Relevance, item.Source, item.EntityKind, intent)
		assert.GreaterOrEqual(t, ranked[0].Relevance, individual)
	}
	// Exactly the strongest contribution, not diluted by the weak hits.
	assert.InDelta(t, scorer.Score(0.9, types.SourceResolvedEntity, types.KindTask, intent), ranked[0].Relevance, 1e-9)
}

func TestMergeAndRank_SortedDescendingStable(t *testing.T) {
	items := []types.RetrievalItem{
		{Entity: types.Note{ID: "n1", Title: "A"}, EntityKind: types.KindNote, EntityID: "n1", Relevance: 0.4, Source: types.SourceSemanticSearch},
		{Entity: types.Note{ID: "n2", Title: "B"}, EntityKind: types.KindNote, EntityID: "n2", Relevance: 0.9, Source: types.SourceSemanticSearch},
		{Entity: types.Note{ID: "n3", Title: "C"}, EntityKind: types.KindNote, EntityID: "n3", Relevance: 0.4, Source: types.SourceSemanticSearch},
	}
	intent := types.Intent{Category: types.IntentQuery}
	ranker := newTestRanker()

	first := ranker.MergeAndRank(items, intent)
	second := ranker.MergeAndRank(items, intent)

	require.Len(t, first, 3)
	assert.Equal(t, "n2", first[0].EntityID)
	// Tied items keep insertion order.
	assert.Equal(t, "n1", first[1].EntityID)
	assert.Equal(t, "n3", first[2].EntityID)
	// Re-running on the same input yields identical ordering.
	assert.Equal(t, first, second)
}

func TestMergeAndRank_ScenarioScheduleEvent(t *testing.T) {
	// One event observed through direct resolution and a time-based sweep:
	// a single ranked item whose relevance is the resolved channel's score
	// under the schedule intent's event weighting, clamped to 1.0.
	event := types.Event{ID: "ev1", Title: "Quarterly review", StartsAt: time.Now().Add(24 * time.Hour)}
	items := []types.RetrievalItem{
		{Entity: event, EntityKind: types.KindEvent, EntityID: "ev1", Relevance: 0.9, Source: types.SourceResolvedEntity},
		{Entity: event, EntityKind: types.KindEvent, EntityID: "ev1", Relevance: 0.5, Source: types.SourceTimeBased},
	}
	intent := types.Intent{
		Category: types.IntentSchedule,
		Entities: []types.EntityMention{{Kind: "event", Text: "quarterly review"}},
	}

	ranked := newTestRanker().MergeAndRank(items, intent)

	require.Len(t, ranked, 1)
	assert.ElementsMatch(t, []types.Source{types.SourceResolvedEntity, types.SourceTimeBased}, ranked[0].Sources)
	// 0.9 x 1.0 (source) x 1.2 (schedule/event) x 1.2 (mention) = 1.296, clamped.
	assert.InDelta(t, 1.0, ranked[0].Relevance, 1e-9)
	assert.Equal(t, "Quarterly review", ranked[0].DisplayName)
	assert.Contains(t, ranked[0].Summary, "Quarterly review")
}

func TestMergeAndRank_NilEntityFallsBackToID(t *testing.T) {
	items := []types.RetrievalItem{
		{EntityKind: types.KindPerson, EntityID: "p1", Relevance: 0.8, Source: types.SourceRecentInteraction},
	}

	ranked := newTestRanker().MergeAndRank(items, types.Intent{Category: types.IntentQuery})

	require.Len(t, ranked, 1)
	assert.Equal(t, "p1", ranked[0].DisplayName)
}
