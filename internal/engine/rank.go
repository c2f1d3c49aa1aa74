package engine

import (
	"sort"

	"github.com/quillstone/recall/pkg/types"
)

// Ranker merges raw retrieval items by identity and orders them by final
// scored relevance.
type Ranker struct {
	scorer *Scorer
}

// NewRanker creates a ranker backed by the given scorer.
func NewRanker(scorer *Scorer) *Ranker {
	return &Ranker{scorer: scorer}
}

// mergeGroup accumulates the members of one identity during merging.
type mergeGroup struct {
	entity     types.Entity
	kind       types.EntityKind
	entityID   string
	sources    []types.Source
	seenSource map[types.Source]bool
	reasons    []string
	seenReason map[string]bool
	relevance  float64
}

// MergeAndRank groups items by (kind, entityID) identity, merges each group,
// and returns one RankedItem per identity sorted by descending relevance.
//
// Merged relevance is the maximum scored relevance across the group's
// members, never an average: a strong single-source hit must not be diluted
// by weak noisy hits. Sources and non-empty reasons are unioned in
// first-appearance order. The sort is stable, so identical inputs always
// produce identical output ordering. An empty input yields an empty,
// non-nil slice.
func (r *Ranker) MergeAndRank(items []types.RetrievalItem, intent types.Intent) []types.RankedItem {
	groups := make(map[string]*mergeGroup)
	order := make([]string, 0, len(items))

	for _, item := range items {
		key := item.Identity()
		group, ok := groups[key]
		if !ok {
			group = &mergeGroup{
				kind:       item.EntityKind,
				entityID:   item.EntityID,
				seenSource: make(map[types.Source]bool),
				seenReason: make(map[string]bool),
			}
			groups[key] = group
			order = append(order, key)
		}

		if group.entity == nil {
			group.entity = item.Entity
		}

		if !group.seenSource[item.Source] {
			group.seenSource[item.Source] = true
			group.sources = append(group.sources, item.Source)
		}

		if item.Reason != "" && !group.seenReason[item.Reason] {
			group.seenReason[item.Reason] = true
			group.reasons = append(group.reasons, item.Reason)
		}

		scored := r.scorer.Score(item.Relevance, item.Source, item.EntityKind, intent)
		if scored > group.relevance {
			group.relevance = scored
			if item.Entity != nil {
				group.entity = item.Entity
			}
		}
	}

	ranked := make([]types.RankedItem, 0, len(order))
	for _, key := range order {
		group := groups[key]
		ranked = append(ranked, types.RankedItem{
			Entity:      group.entity,
			EntityKind:  group.kind,
			EntityID:    group.entityID,
			Relevance:   group.relevance,
			Sources:     group.sources,
			Reasons:     group.reasons,
			DisplayName: displayNameOrID(group.entity, group.entityID),
			Summary:     summaryOrID(group.entity, group.entityID),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Relevance > ranked[j].Relevance
	})

	return ranked
}

func displayNameOrID(entity types.Entity, entityID string) string {
	if entity == nil {
		return entityID
	}
	return DisplayName(entity)
}

func summaryOrID(entity types.Entity, entityID string) string {
	if entity == nil {
		return entityID
	}
	return Summarize(entity)
}
