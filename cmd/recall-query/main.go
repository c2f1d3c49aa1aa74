// recall-query retrieves and ranks context for one intent from the command
// line. It is the demo surface for the engine: point it at a data directory,
// describe the intent, and it prints the ranked items and the assembled
// context summary.
//
// Usage:
//
//	recall-query -user alice -category schedule -text "when do I meet Sarah?" \
//	    -mentions "person:Sarah Chen"
//	recall-query -user alice -seed   # load demo data first
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/quillstone/recall/internal/config"
	"github.com/quillstone/recall/internal/embedding"
	"github.com/quillstone/recall/internal/engine"
	"github.com/quillstone/recall/internal/semantic"
	"github.com/quillstone/recall/internal/storage"
	"github.com/quillstone/recall/internal/storage/postgres"
	"github.com/quillstone/recall/internal/storage/sqlite"
	"github.com/quillstone/recall/pkg/log"
	"github.com/quillstone/recall/pkg/tokens"
	"github.com/quillstone/recall/pkg/types"
)

func main() {
	var (
		userID       = flag.String("user", "", "user whose context to retrieve (required)")
		category     = flag.String("category", "query", "intent category")
		text         = flag.String("text", "", "free-text intent summary")
		mentions     = flag.String("mentions", "", "comma-separated kind:text entity mentions")
		conversation = flag.String("conversation", "", "conversation ID for history retrieval")
		seed         = flag.Bool("seed", false, "load demo data before querying")
		timeout      = flag.Duration("timeout", 5*time.Second, "retrieval deadline")
	)
	flag.Parse()

	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := log.Setup(context.Background(), cfg.LogLevel, true)
	logger := log.FromCtx(ctx)

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(ctx, cfg, *userID, *category, *text, *mentions, *conversation, *seed, *timeout); err != nil {
		logger.Fatal().Err(err).Msg("recall-query failed")
	}
}

func run(ctx context.Context, cfg *config.Config, userID, category, text, mentions, conversation string, seed bool, timeout time.Duration) error {
	logger := log.FromCtx(ctx)

	db, err := sqlite.Open(filepath.Join(cfg.DataPath, "recall.db"))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	entities := sqlite.NewEntityStore(db)
	conversations := sqlite.NewConversationStore(db)
	interactions := sqlite.NewInteractionLog(db)

	if seed {
		if err := seedDemoData(ctx, userID, entities, conversations, interactions); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		logger.Info().Str("user_id", userID).Msg("demo data loaded")
	}

	retriever, err := buildRetriever(ctx, cfg, entities, conversations, interactions)
	if err != nil {
		return err
	}

	intent, err := buildIntent(category, text, mentions)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pkg, err := retriever.Retrieve(runCtx, userID, intent, engine.RetrieveOptions{
		ConversationID: conversation,
	})
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}

	ranked := retriever.RankContext(pkg, intent)
	printResult(pkg, ranked)
	return nil
}

func buildRetriever(ctx context.Context, cfg *config.Config, entities storage.EntityStore, conversations storage.ConversationStore, interactions storage.InteractionLog) (*engine.Retriever, error) {
	logger := log.FromCtx(ctx)

	var estimator tokens.Estimator = tokens.Heuristic{}
	if cfg.TokenEstimator == "tiktoken" {
		tk, err := tokens.NewTiktoken()
		if err != nil {
			return nil, fmt.Errorf("load tiktoken encoding: %w", err)
		}
		estimator = tk
	}

	weights := engine.DefaultWeightProfile()
	if cfg.WeightProfilePath != "" {
		loaded, err := config.LoadWeightProfile(cfg.WeightProfilePath)
		if err != nil {
			return nil, err
		}
		weights = loaded
	}

	stores := engine.Stores{
		Entities:      entities,
		Conversations: conversations,
		Interactions:  interactions,
	}
	stores.Semantic = openSemantic(ctx, cfg)

	retriever, err := engine.NewRetriever(stores, engine.Config{
		Weights:          weights,
		Estimator:        estimator,
		MaxSummaryTokens: cfg.MaxSummaryTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("build retriever: %w", err)
	}

	if cfg.WatchWeightProfile && cfg.WeightProfilePath != "" {
		watcher := config.NewWeightWatcher(cfg.WeightProfilePath, func(profile engine.WeightProfile) {
			if err := retriever.SetWeightProfile(profile); err != nil {
				logger.Warn().Err(err).Msg("rejected weight profile update")
			}
		})
		if err := watcher.Start(ctx); err != nil {
			return nil, fmt.Errorf("watch weight profile: %w", err)
		}
	}

	return retriever, nil
}

// openSemantic wires the pgvector backend behind the circuit-breaker guard
// when a DSN is configured. Without a DSN semantic search stays disabled and
// the engine degrades gracefully. Connection failures also disable it: a
// missing index is never a reason to fail the whole query path.
func openSemantic(ctx context.Context, cfg *config.Config) storage.SemanticSearcher {
	if cfg.SemanticDSN == "" {
		return nil
	}
	logger := log.FromCtx(ctx)

	db, err := postgres.Open(cfg.SemanticDSN, cfg.EmbedDim)
	if err != nil {
		logger.Warn().Err(err).Msg("semantic index unavailable; continuing without semantic search")
		return nil
	}

	embedder := embedding.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbedModel)
	searcher, err := postgres.NewSearcherWithDimension(db, embedder, cfg.EmbedDim)
	if err != nil {
		logger.Warn().Err(err).Msg("semantic searcher misconfigured; continuing without semantic search")
		return nil
	}

	return semantic.NewGuard(searcher, semantic.GuardConfig{
		QueriesPerSecond: cfg.SemanticRateLimit,
	})
}

func buildIntent(category, text, mentions string) (types.Intent, error) {
	cat := types.IntentCategory(category)
	if !types.IsValidIntentCategory(cat) {
		return types.Intent{}, fmt.Errorf("unknown intent category %q", category)
	}

	intent := types.Intent{
		Category:   cat,
		Summary:    text,
		Confidence: 1.0,
	}

	if mentions == "" {
		return intent, nil
	}
	for _, raw := range strings.Split(mentions, ",") {
		kind, name, ok := strings.Cut(strings.TrimSpace(raw), ":")
		if !ok || kind == "" || name == "" {
			return types.Intent{}, fmt.Errorf("malformed mention %q, want kind:text", raw)
		}
		intent.Entities = append(intent.Entities, types.EntityMention{
			Kind:            kind,
			Text:            name,
			NeedsResolution: true,
		})
	}
	return intent, nil
}

func printResult(pkg *types.ContextPackage, ranked *types.RankedContext) {
	fmt.Printf("Retrieved %d item(s) in %s\n", len(ranked.Items), pkg.Stats.Duration.Round(time.Millisecond))
	for source, count := range pkg.Stats.BySource {
		fmt.Printf("  %-20s %d\n", source, count)
	}
	fmt.Println()

	for i, item := range ranked.Items {
		fmt.Printf("%2d. [%.2f] %s (%s)\n", i+1, item.Relevance, item.DisplayName, item.EntityKind)
		fmt.Printf("    %s\n", item.Summary)
		if len(item.Reasons) > 0 {
			fmt.Printf("    via %s\n", strings.Join(item.Reasons, "; "))
		}
	}

	fmt.Printf("\n--- summary (~%d tokens) ---\n%s\n", ranked.EstimatedTokens, ranked.Summary)
}

// seedDemoData loads a small, self-consistent data set: a project with a
// linked owner and task, an upcoming event and deadline, some conversation,
// and a little interaction history.
func seedDemoData(ctx context.Context, userID string, entities *sqlite.EntityStore, conversations *sqlite.ConversationStore, interactions *sqlite.InteractionLog) error {
	now := time.Now().UTC()
	due := now.Add(72 * time.Hour)

	sarah := types.Person{ID: "person-sarah", Name: "Sarah Chen", Title: "VP Engineering", Company: "Acme"}
	launch := types.Project{ID: "project-launch", Name: "Q3 Launch", Status: "active", Description: "ship the fall release"}
	draft := types.Task{ID: "task-draft", Title: "Draft launch announcement", Status: "open", Priority: "high", DueAt: &due, Project: "Q3 Launch"}
	review := types.Event{ID: "event-review", Title: "Launch review with Sarah", StartsAt: now.Add(48 * time.Hour), Location: "Room 4"}
	freeze := types.Deadline{ID: "deadline-freeze", Title: "Code freeze", DueAt: now.Add(96 * time.Hour), Severity: "hard"}

	for _, e := range []types.Entity{sarah, launch, draft, review, freeze} {
		if err := entities.SaveEntity(ctx, userID, e); err != nil {
			return err
		}
	}

	links := []struct {
		from     string
		to       types.Entity
		strength float64
	}{
		{"project-launch", sarah, 0.9},
		{"project-launch", draft, 0.8},
		{"project-launch", freeze, 0.7},
		{"person-sarah", review, 0.6},
	}
	for _, l := range links {
		if err := entities.Link(ctx, userID, l.from, l.to, l.strength); err != nil {
			return err
		}
	}

	messages := []types.ConversationMessage{
		{Role: types.RoleUser, Content: "What's left before the Q3 launch?", Timestamp: now.Add(-10 * time.Minute)},
		{Role: types.RoleAssistant, Content: "The announcement draft and the code freeze are still open.", Timestamp: now.Add(-9 * time.Minute)},
		{Role: types.RoleUser, Content: "Remind me to check with Sarah after the review.", Timestamp: now.Add(-8 * time.Minute)},
	}
	for _, m := range messages {
		if err := conversations.AppendMessage(ctx, "demo", m); err != nil {
			return err
		}
	}

	history := []types.Interaction{
		{Action: types.ActionUpdated, EntityKind: types.KindTask, EntityID: "task-draft", DisplayName: "Draft launch announcement", Timestamp: now.Add(-2 * time.Hour)},
		{Action: types.ActionViewed, EntityKind: types.KindProject, EntityID: "project-launch", DisplayName: "Q3 Launch", Timestamp: now.Add(-1 * time.Hour)},
	}
	for _, h := range history {
		if err := interactions.Record(ctx, userID, h); err != nil {
			return err
		}
	}

	return nil
}
