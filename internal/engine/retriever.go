package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/quillstone/recall/internal/storage"
	"github.com/quillstone/recall/pkg/log"
	"github.com/quillstone/recall/pkg/tokens"
	"github.com/quillstone/recall/pkg/types"
)

// Raw relevance assigned by each producing strategy, before scoring.
const (
	exactMatchRelevance     = 0.9
	substringMatchRelevance = 0.75
	relatedEntityRelevance  = 0.5
	timeBasedRelevance      = 0.6

	// relatedLimit caps one-hop expansion per resolved entity.
	relatedLimit = 5
)

// Stores bundles the collaborator interfaces the retriever reads from.
// Semantic is optional; all others are required.
type Stores struct {
	Entities      storage.EntityStore
	Semantic      storage.SemanticSearcher
	Conversations storage.ConversationStore
	Interactions  storage.InteractionLog
}

// Config holds retriever construction settings. Zero values select defaults.
type Config struct {
	// Weights is the scoring weight profile. Zero value selects
	// DefaultWeightProfile.
	Weights WeightProfile

	// Estimator is the token estimator for summary budgeting.
	// Nil selects the 4-chars-per-token heuristic.
	Estimator tokens.Estimator

	// MaxSummaryTokens is the budget for RankContext's summary
	// (default: 2000).
	MaxSummaryTokens int
}

// Retriever is the retrieval orchestrator. One Retrieve call fans out to the
// five retrieval strategies concurrently, merges and dedups their
// entity-bearing results, and returns a fresh ContextPackage. Ranking is a
// separate call (RankContext) so callers can re-rank a cached package against
// a different intent without re-querying.
type Retriever struct {
	stores  Stores
	builder *SummaryBuilder

	maxSummaryTokens int

	mu     sync.RWMutex
	ranker *Ranker
}

// NewRetriever creates a retrieval orchestrator. The entity, conversation,
// and interaction stores are required; the semantic searcher may be nil, in
// which case the semantic strategy always yields an empty result.
func NewRetriever(stores Stores, cfg Config) (*Retriever, error) {
	if stores.Entities == nil {
		return nil, fmt.Errorf("entity store is required")
	}
	if stores.Conversations == nil {
		return nil, fmt.Errorf("conversation store is required")
	}
	if stores.Interactions == nil {
		return nil, fmt.Errorf("interaction log is required")
	}

	weights := cfg.Weights
	if weights.SourceWeights == nil {
		weights = DefaultWeightProfile()
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weight profile: %w", err)
	}

	maxTokens := cfg.MaxSummaryTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxSummaryTokens
	}

	return &Retriever{
		stores:           stores,
		builder:          NewSummaryBuilder(cfg.Estimator),
		maxSummaryTokens: maxTokens,
		ranker:           NewRanker(NewScorer(weights)),
	}, nil
}

// SetWeightProfile swaps the scoring weight profile. In-flight calls keep
// the profile they started with.
func (r *Retriever) SetWeightProfile(profile WeightProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("invalid weight profile: %w", err)
	}

	r.mu.Lock()
	r.ranker = NewRanker(NewScorer(profile))
	r.mu.Unlock()
	return nil
}

func (r *Retriever) currentRanker() *Ranker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ranker
}

// Retrieve runs the five retrieval strategies concurrently and returns the
// merged context package.
//
// The semantic strategy degrades gracefully: its errors are absorbed into an
// empty result with a logged warning. Any other strategy error cancels the
// remaining strategies and aborts the call; no partial package is returned.
// The caller's ctx deadline bounds the whole fan-out.
func (r *Retriever) Retrieve(ctx context.Context, userID string, intent types.Intent, opts RetrieveOptions) (*types.ContextPackage, error) {
	if userID == "" {
		return nil, &RetrievalError{UserID: userID, Category: intent.Category, Err: storage.ErrInvalidInput}
	}
	opts.Normalize()

	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		resolved []types.RetrievalItem
		timed    []types.RetrievalItem
		matches  []types.SemanticMatch
		messages []types.ConversationMessage
		actions  []types.Interaction

		resolveErr, timeErr, convErr, actErr error
	)

	var wg sync.WaitGroup
	wg.Add(5)

	go func() {
		defer wg.Done()
		resolved, resolveErr = r.resolveMentions(runCtx, userID, intent, &opts)
		if resolveErr != nil {
			cancel()
		}
	}()

	go func() {
		defer wg.Done()
		matches = r.semanticSearch(runCtx, userID, intent, &opts)
	}()

	go func() {
		defer wg.Done()
		timed, timeErr = r.timeBased(runCtx, userID, intent, &opts)
		if timeErr != nil {
			cancel()
		}
	}()

	go func() {
		defer wg.Done()
		if opts.ConversationID == "" {
			return
		}
		messages, convErr = r.stores.Conversations.ListMessages(runCtx, opts.ConversationID, opts.MaxMessages)
		if convErr != nil {
			convErr = fmt.Errorf("list messages for conversation %s: %w", opts.ConversationID, convErr)
			cancel()
		}
	}()

	go func() {
		defer wg.Done()
		actions, actErr = r.stores.Interactions.RecentActions(runCtx, userID, opts.MaxInteractions)
		if actErr != nil {
			actErr = fmt.Errorf("recent actions: %w", actErr)
			cancel()
		}
	}()

	wg.Wait()

	// The caller's deadline takes precedence over individual task errors:
	// a task failing with "context deadline exceeded" is a timeout, not a
	// store fault.
	if err := ctx.Err(); err != nil {
		return nil, &RetrievalError{UserID: userID, Category: intent.Category, Err: err}
	}

	// Cancel-on-first-error makes the remaining tasks fail with
	// context.Canceled; report the error that triggered the cancellation,
	// not one of its victims.
	var taskErr error
	for _, err := range []error{resolveErr, timeErr, convErr, actErr} {
		if err == nil {
			continue
		}
		if taskErr == nil {
			taskErr = err
		}
		if !errors.Is(err, context.Canceled) {
			taskErr = err
			break
		}
	}
	if taskErr != nil {
		return nil, &RetrievalError{UserID: userID, Category: intent.Category, Err: taskErr}
	}

	items := mergeByIdentity(resolved, matches, timed, &opts)

	stats := types.RetrievalStats{
		BySource: make(map[types.Source]int),
		Duration: time.Since(start),
	}
	for _, kindItems := range items {
		for _, item := range kindItems {
			stats.BySource[item.Source]++
		}
	}
	if len(messages) > 0 {
		stats.BySource[types.SourceConversation] = len(messages)
	}
	if len(actions) > 0 {
		stats.BySource[types.SourceRecentInteraction] = len(actions)
	}

	return &types.ContextPackage{
		UserID:          userID,
		Items:           items,
		Messages:        messages,
		SemanticMatches: matches,
		Interactions:    actions,
		Stats:           stats,
	}, nil
}

// RankContext merges, scores, and sorts the package's raw items against the
// intent and assembles the token-budgeted summary.
func (r *Retriever) RankContext(pkg *types.ContextPackage, intent types.Intent) *types.RankedContext {
	items := r.currentRanker().MergeAndRank(pkg.AllItems(), intent)
	summary, estimated := r.builder.BuildSummary(items, pkg.Messages, pkg.Interactions, r.maxSummaryTokens)

	return &types.RankedContext{
		Items:           items,
		Summary:         summary,
		EstimatedTokens: estimated,
	}
}

// resolveMentions resolves the intent's extracted entity mentions against
// the entity store by exact/substring name match. Exact matches get a higher
// raw relevance than substring matches. When IncludeRelated is set, each
// resolved entity is expanded one hop through its links.
func (r *Retriever) resolveMentions(ctx context.Context, userID string, intent types.Intent, opts *RetrieveOptions) ([]types.RetrievalItem, error) {
	var items []types.RetrievalItem

	for _, mention := range intent.Entities {
		text := strings.TrimSpace(mention.Text)
		if !mention.NeedsResolution || text == "" {
			continue
		}

		for _, kind := range mentionKinds(mention) {
			if !opts.wantsKind(kind) {
				continue
			}

			entities, err := r.stores.Entities.FindByNames(ctx, userID, []string{text}, kind, opts.MaxItemsPerKind)
			if err != nil {
				return nil, fmt.Errorf("resolve mention %q: %w", text, err)
			}

			for _, entity := range entities {
				raw := substringMatchRelevance
				if strings.EqualFold(DisplayName(entity), text) {
					raw = exactMatchRelevance
				}

				items = append(items, types.RetrievalItem{
					Entity:     entity,
					EntityKind: entity.Kind(),
					EntityID:   entity.EntityID(),
					Relevance:  raw,
					Source:     types.SourceResolvedEntity,
					Reason:     "mentioned as " + quote(text),
				})

				if !opts.IncludeRelated {
					continue
				}

				related, err := r.stores.Entities.FindRelated(ctx, userID, entity.EntityID(), relatedLimit)
				if err != nil {
					return nil, fmt.Errorf("expand related for %s: %w", entity.EntityID(), err)
				}
				for _, rel := range related {
					items = append(items, types.RetrievalItem{
						Entity:     rel,
						EntityKind: rel.Kind(),
						EntityID:   rel.EntityID(),
						Relevance:  relatedEntityRelevance,
						Source:     types.SourceRelatedEntity,
						Reason:     "linked to " + DisplayName(entity),
					})
				}
			}
		}
	}

	return items, nil
}

// semanticSearch runs the optional semantic strategy. All errors are
// absorbed: logged at warn level and degraded to an empty result, so a
// failing or unavailable semantic backend never fails the Retrieve call.
func (r *Retriever) semanticSearch(ctx context.Context, userID string, intent types.Intent, opts *RetrieveOptions) []types.SemanticMatch {
	if opts.SkipSemanticSearch || r.stores.Semantic == nil {
		return nil
	}

	query := strings.TrimSpace(intent.Summary)
	if query == "" {
		return nil
	}

	matches, err := r.stores.Semantic.Search(ctx, userID, query, opts.FocusKinds, opts.MaxItemsPerKind, opts.MinSimilarity)
	if err != nil {
		log.FromCtx(ctx).Warn().
			Err(err).
			Str("user_id", userID).
			Str("intent", string(intent.Category)).
			Msg("semantic search failed, continuing without semantic matches")
		return nil
	}

	return matches
}

// timeBased surfaces temporally proximate entities: upcoming events for
// schedule intents, due tasks and deadlines for task/remind intents.
func (r *Retriever) timeBased(ctx context.Context, userID string, intent types.Intent, opts *RetrieveOptions) ([]types.RetrievalItem, error) {
	window := upcomingWindowDays * 24 * time.Hour

	var kinds []types.EntityKind
	switch intent.Category {
	case types.IntentSchedule:
		kinds = []types.EntityKind{types.KindEvent}
	case types.IntentTask, types.IntentRemind:
		kinds = []types.EntityKind{types.KindTask, types.KindDeadline}
	default:
		return nil, nil
	}

	var items []types.RetrievalItem
	for _, kind := range kinds {
		if !opts.wantsKind(kind) {
			continue
		}

		entities, err := r.stores.Entities.FindUpcoming(ctx, userID, kind, window, opts.MaxItemsPerKind)
		if err != nil {
			return nil, fmt.Errorf("find upcoming %s: %w", kind, err)
		}

		for _, entity := range entities {
			items = append(items, types.RetrievalItem{
				Entity:     entity,
				EntityKind: entity.Kind(),
				EntityID:   entity.EntityID(),
				Relevance:  timeBasedRelevance,
				Source:     types.SourceTimeBased,
				Reason:     timeBasedReason(entity),
			})
		}
	}

	return items, nil
}

// timeBasedReason describes why a time-based hit surfaced.
func timeBasedReason(entity types.Entity) string {
	anchor := anchorTime(entity)
	if anchor.IsZero() {
		return "upcoming"
	}
	if entity.Kind() == types.KindEvent {
		return "starts " + anchor.Format(dateFormat)
	}
	return "due " + anchor.Format(dateFormat)
}

// mentionKinds returns the entity kinds a mention should be resolved
// against: its own kind when concrete, every kind for generic references.
func mentionKinds(mention types.EntityMention) []types.EntityKind {
	kind := types.EntityKind(mention.Kind)
	if types.IsValidEntityKind(kind) {
		return []types.EntityKind{kind}
	}
	return types.ValidEntityKinds
}

// mergeByIdentity combines the entity-bearing strategy outputs into per-kind
// collections, deduplicating by identity. For each identity the instance with
// the highest raw relevance wins; final scored relevance is computed later
// during ranking. Each kind is capped at MaxItemsPerKind, keeping the
// highest-raw items.
func mergeByIdentity(resolved []types.RetrievalItem, matches []types.SemanticMatch, timed []types.RetrievalItem, opts *RetrieveOptions) map[types.EntityKind][]types.RetrievalItem {
	best := make(map[string]int)
	var merged []types.RetrievalItem

	add := func(item types.RetrievalItem) {
		if !opts.wantsKind(item.EntityKind) {
			return
		}
		key := item.Identity()
		if idx, ok := best[key]; ok {
			if item.Relevance > merged[idx].Relevance {
				merged[idx] = item
			}
			return
		}
		best[key] = len(merged)
		merged = append(merged, item)
	}

	for _, item := range resolved {
		add(item)
	}
	for _, match := range matches {
		// A match whose payload failed to decode still carries enough
		// identity to rank; ranking falls back to the entity ID for display.
		if match.EntityID == "" || !types.IsValidEntityKind(match.EntityKind) {
			continue
		}
		reason := "semantic match"
		if match.Snippet != "" {
			reason = "matched: " + truncate(match.Snippet, 60)
		}
		add(types.RetrievalItem{
			Entity:     match.Entity,
			EntityKind: match.EntityKind,
			EntityID:   match.EntityID,
			Relevance:  match.Score,
			Source:     types.SourceSemanticSearch,
			Reason:     reason,
		})
	}
	for _, item := range timed {
		add(item)
	}

	byKind := make(map[types.EntityKind][]types.RetrievalItem)
	for _, item := range merged {
		byKind[item.EntityKind] = append(byKind[item.EntityKind], item)
	}

	for kind, kindItems := range byKind {
		if len(kindItems) <= opts.MaxItemsPerKind {
			continue
		}
		sortByRawRelevance(kindItems)
		byKind[kind] = kindItems[:opts.MaxItemsPerKind]
	}

	return byKind
}

func sortByRawRelevance(items []types.RetrievalItem) {
	// Insertion sort keeps the pass stable; per-kind slices are small.
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Relevance > items[j-1].Relevance; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

func quote(s string) string {
	return `"` + s + `"`
}
