package types_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quillstone/recall/pkg/types"
)

func TestIsValidEntityKind_AllValidKinds(t *testing.T) {
	for _, kind := range types.ValidEntityKinds {
		t.Run("valid_"+string(kind), func(t *testing.T) {
			assert.True(t, types.IsValidEntityKind(kind))
		})
	}
}

func TestIsValidEntityKind_InvalidKinds(t *testing.T) {
	invalid := []types.EntityKind{
		"",
		"PERSON",
		"Person",
		"meeting",
		" person",
		"person ",
		"per",
	}

	for _, kind := range invalid {
		t.Run("invalid_"+string(kind), func(t *testing.T) {
			assert.False(t, types.IsValidEntityKind(kind))
		})
	}
}

func TestIsValidIntentCategory(t *testing.T) {
	for _, category := range types.ValidIntentCategories {
		assert.True(t, types.IsValidIntentCategory(category))
	}
	assert.False(t, types.IsValidIntentCategory("plan"))
	assert.False(t, types.IsValidIntentCategory(""))
}

func TestIsValidSource(t *testing.T) {
	for _, source := range types.ValidSources {
		assert.True(t, types.IsValidSource(source))
	}
	assert.False(t, types.IsValidSource("cache"))
	assert.False(t, types.IsValidSource(""))
}

func TestEntityVariants_KindAndID(t *testing.T) {
	now := time.Now()
	entities := []types.Entity{
		types.Person{ID: "p1", Name: "Ada"},
		types.Place{ID: "pl1", Name: "Office"},
		types.Event{ID: "ev1", Title: "Standup", StartsAt: now},
		types.Task{ID: "t1", Title: "Ship release"},
		types.Deadline{ID: "d1", Title: "Tax filing", DueAt: now},
		types.Routine{ID: "r1", Name: "Morning review"},
		types.OpenLoop{ID: "ol1", Description: "Waiting on quote", OpenedAt: now},
		types.Project{ID: "pr1", Name: "Apollo"},
		types.Note{ID: "n1", Title: "Ideas", CreatedAt: now},
		types.Opportunity{ID: "op1", Title: "Acme renewal"},
	}

	wantKinds := types.ValidEntityKinds
	assert.Len(t, entities, len(wantKinds))

	seen := make(map[types.EntityKind]bool)
	for _, entity := range entities {
		assert.True(t, types.IsValidEntityKind(entity.Kind()))
		assert.NotEmpty(t, entity.EntityID())
		seen[entity.Kind()] = true
	}
	// One distinct kind per variant.
	assert.Len(t, seen, len(wantKinds))
}

func TestIntent_MentionsKind(t *testing.T) {
	intent := types.Intent{
		Category: types.IntentSchedule,
		Entities: []types.EntityMention{
			{Kind: "event", Text: "standup"},
		},
	}

	assert.True(t, intent.MentionsKind(types.KindEvent))
	assert.False(t, intent.MentionsKind(types.KindPerson))
}

func TestIntent_MentionsKind_GenericReference(t *testing.T) {
	intent := types.Intent{
		Entities: []types.EntityMention{
			{Kind: types.MentionKindReference, Text: "that thing"},
		},
	}

	// A generic reference mention matches every kind.
	for _, kind := range types.ValidEntityKinds {
		assert.True(t, intent.MentionsKind(kind))
	}
}

func TestRetrievalItem_Identity(t *testing.T) {
	item := types.RetrievalItem{EntityKind: types.KindTask, EntityID: "t1"}
	assert.Equal(t, "task:t1", item.Identity())
}

func TestContextPackage_AllItems_FixedKindOrder(t *testing.T) {
	pkg := &types.ContextPackage{
		Items: map[types.EntityKind][]types.RetrievalItem{
			types.KindNote:   {{EntityKind: types.KindNote, EntityID: "n1"}},
			types.KindPerson: {{EntityKind: types.KindPerson, EntityID: "p1"}},
			types.KindEvent: {
				{EntityKind: types.KindEvent, EntityID: "e1"},
				{EntityKind: types.KindEvent, EntityID: "e2"},
			},
		},
	}

	first := pkg.AllItems()
	second := pkg.AllItems()

	assert.Equal(t, first, second)
	assert.Len(t, first, 4)
	// person precedes event precedes note in the canonical kind order
	assert.Equal(t, "p1", first[0].EntityID)
	assert.Equal(t, "e1", first[1].EntityID)
	assert.Equal(t, "e2", first[2].EntityID)
	assert.Equal(t, "n1", first[3].EntityID)
}
