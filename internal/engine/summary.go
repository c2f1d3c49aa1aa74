package engine

import (
	"strings"

	"github.com/quillstone/recall/pkg/tokens"
	"github.com/quillstone/recall/pkg/types"
)

const (
	// DefaultMaxSummaryTokens is the default token budget for BuildSummary.
	DefaultMaxSummaryTokens = 2000

	// highRelevanceThreshold gates items into the "Relevant Context" section.
	highRelevanceThreshold = 0.6

	// Section caps.
	maxSummaryItems        = 10
	maxSummaryMessages     = 5
	maxSummaryInteractions = 5

	// messageTruncateLen is the hard cap on rendered message content.
	messageTruncateLen = 100
)

// SummaryBuilder assembles a token-budgeted textual context digest from
// ranked items, recent conversation, and recent interactions.
type SummaryBuilder struct {
	estimator tokens.Estimator
}

// NewSummaryBuilder creates a summary builder. A nil estimator defaults to
// the 4-characters-per-token heuristic.
func NewSummaryBuilder(estimator tokens.Estimator) *SummaryBuilder {
	if estimator == nil {
		estimator = tokens.Heuristic{}
	}
	return &SummaryBuilder{estimator: estimator}
}

// BuildSummary greedily appends sections in a fixed order - relevant context,
// recent conversation, recent activity - as long as the estimated token count
// of the assembled text stays within maxTokens. A section that would blow the
// budget is skipped along with everything after it; there is no mid-section
// truncation. Sections with no qualifying content are omitted entirely.
// Returns the summary text and its estimated token count.
func (b *SummaryBuilder) BuildSummary(items []types.RankedItem, history []types.ConversationMessage, interactions []types.Interaction, maxTokens int) (string, int) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxSummaryTokens
	}

	sections := []string{
		b.relevantContextSection(items),
		b.conversationSection(history),
		b.activitySection(interactions),
	}

	var assembled string
	for _, section := range sections {
		if section == "" {
			continue
		}

		candidate := section
		if assembled != "" {
			candidate = assembled + "\n\n" + section
		}

		if b.estimator.Estimate(candidate) > maxTokens {
			break
		}
		assembled = candidate
	}

	return assembled, b.estimator.Estimate(assembled)
}

// relevantContextSection renders the top high-relevance items as a bulleted
// "kind: summary" list.
func (b *SummaryBuilder) relevantContextSection(items []types.RankedItem) string {
	var lines []string
	for _, item := range items {
		if item.Relevance < highRelevanceThreshold {
			continue
		}
		lines = append(lines, "- "+string(item.EntityKind)+": "+item.Summary)
		if len(lines) == maxSummaryItems {
			break
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "Relevant Context:\n" + strings.Join(lines, "\n")
}

// conversationSection renders the last few messages, content hard-truncated.
func (b *SummaryBuilder) conversationSection(history []types.ConversationMessage) string {
	if len(history) == 0 {
		return ""
	}

	start := len(history) - maxSummaryMessages
	if start < 0 {
		start = 0
	}

	var lines []string
	for _, msg := range history[start:] {
		lines = append(lines, string(msg.Role)+": "+truncate(msg.Content, messageTruncateLen))
	}
	return "Recent Conversation:\n" + strings.Join(lines, "\n")
}

// activitySection renders the first few recent interactions.
func (b *SummaryBuilder) activitySection(interactions []types.Interaction) string {
	if len(interactions) == 0 {
		return ""
	}

	count := len(interactions)
	if count > maxSummaryInteractions {
		count = maxSummaryInteractions
	}

	var lines []string
	for _, act := range interactions[:count] {
		lines = append(lines, "- "+string(act.Action)+" "+string(act.EntityKind)+": "+act.DisplayName)
	}
	return "Recent Activity:\n" + strings.Join(lines, "\n")
}
