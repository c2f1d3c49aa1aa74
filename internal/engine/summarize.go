package engine

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/quillstone/recall/pkg/types"
)

// dateFormat is the compact format used in entity summaries.
const dateFormat = "Jan 2, 2006"

// DisplayName returns the entity's primary human label, falling back to a
// literal placeholder when the label is absent.
func DisplayName(entity types.Entity) string {
	switch e := entity.(type) {
	case types.Person:
		return orPlaceholder(e.Name, "Unnamed Person")
	case types.Place:
		return orPlaceholder(e.Name, "Unnamed Place")
	case types.Event:
		return orPlaceholder(e.Title, "Untitled Event")
	case types.Task:
		return orPlaceholder(e.Title, "Untitled Task")
	case types.Deadline:
		return orPlaceholder(e.Title, "Untitled Deadline")
	case types.Routine:
		return orPlaceholder(e.Name, "Unnamed Routine")
	case types.OpenLoop:
		return orPlaceholder(firstLine(e.Description), "Open Loop")
	case types.Project:
		return orPlaceholder(e.Name, "Unnamed Project")
	case types.Note:
		return orPlaceholder(e.Title, "Untitled Note")
	case types.Opportunity:
		return orPlaceholder(e.Title, "Untitled Opportunity")
	default:
		return "Unknown"
	}
}

// Summarize returns a one-line digest of the entity's decision-relevant
// fields, dispatched by concrete variant.
func Summarize(entity types.Entity) string {
	switch e := entity.(type) {
	case types.Person:
		parts := []string{DisplayName(e)}
		if e.Title != "" && e.Company != "" {
			parts = append(parts, e.Title+" at "+e.Company)
		} else if e.Title != "" {
			parts = append(parts, e.Title)
		} else if e.Company != "" {
			parts = append(parts, e.Company)
		}
		if e.Email != "" {
			parts = append(parts, e.Email)
		}
		return strings.Join(parts, ", ")

	case types.Place:
		parts := []string{DisplayName(e)}
		if e.Address != "" {
			parts = append(parts, e.Address)
		}
		if e.Category != "" {
			parts = append(parts, e.Category)
		}
		return strings.Join(parts, ", ")

	case types.Event:
		parts := []string{DisplayName(e)}
		if !e.StartsAt.IsZero() {
			parts = append(parts, e.StartsAt.Format(dateFormat))
		}
		if e.Location != "" {
			parts = append(parts, "at "+e.Location)
		}
		return strings.Join(parts, ", ")

	case types.Task:
		parts := []string{DisplayName(e)}
		if e.Status != "" {
			parts = append(parts, e.Status)
		}
		if e.DueAt != nil {
			parts = append(parts, "due "+e.DueAt.Format(dateFormat))
		}
		return strings.Join(parts, ", ")

	case types.Deadline:
		parts := []string{DisplayName(e)}
		if !e.DueAt.IsZero() {
			parts = append(parts, "due "+e.DueAt.Format(dateFormat))
		}
		if e.Severity != "" {
			parts = append(parts, e.Severity+" severity")
		}
		return strings.Join(parts, ", ")

	case types.Routine:
		parts := []string{DisplayName(e)}
		if e.Cadence != "" {
			parts = append(parts, e.Cadence)
		}
		if e.TimeOfDay != "" {
			parts = append(parts, e.TimeOfDay)
		}
		return strings.Join(parts, ", ")

	case types.OpenLoop:
		parts := []string{DisplayName(e)}
		if e.WaitingOn != "" {
			parts = append(parts, "waiting on "+e.WaitingOn)
		}
		if !e.OpenedAt.IsZero() {
			parts = append(parts, "open since "+e.OpenedAt.Format(dateFormat))
		}
		return strings.Join(parts, ", ")

	case types.Project:
		parts := []string{DisplayName(e)}
		if e.Status != "" {
			parts = append(parts, e.Status)
		}
		return strings.Join(parts, ", ")

	case types.Note:
		summary := DisplayName(e)
		if snippet := firstLine(e.Body); snippet != "" {
			summary += ": " + truncate(snippet, 80)
		}
		return summary

	case types.Opportunity:
		parts := []string{DisplayName(e)}
		if e.Stage != "" {
			parts = append(parts, e.Stage)
		}
		if e.Value > 0 {
			parts = append(parts, fmt.Sprintf("$%.0f", e.Value))
		}
		if e.CloseBy != nil {
			parts = append(parts, "close by "+e.CloseBy.Format(dateFormat))
		}
		return strings.Join(parts, ", ")

	default:
		return "Unknown entity"
	}
}

func orPlaceholder(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}

// truncate caps text at maxLen characters (runes, not bytes), so multibyte
// content is never cut mid-rune.
func truncate(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	return string([]rune(text)[:maxLen]) + "..."
}

// anchorTime returns the temporal anchor a time-based retrieval keys on,
// or the zero time when the variant has none.
func anchorTime(entity types.Entity) time.Time {
	switch e := entity.(type) {
	case types.Event:
		return e.StartsAt
	case types.Task:
		if e.DueAt != nil {
			return *e.DueAt
		}
	case types.Deadline:
		return e.DueAt
	case types.Opportunity:
		if e.CloseBy != nil {
			return *e.CloseBy
		}
	}
	return time.Time{}
}
