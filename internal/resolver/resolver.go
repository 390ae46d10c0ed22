// Package resolver turns a user-supplied id fragment into exactly one index
// entry.
package resolver

import (
	"fmt"
	"strings"

	"github.com/tkforge/tk/internal/index"
	"github.com/tkforge/tk/internal/ticket"
)

// Resolve resolves raw to a single index entry.
//
// In CI mode only an exact, case-insensitive full-id match succeeds; anything
// else is NotFound, so automation stays deterministic. In interactive mode
// resolution tries, in order: exact full-id match, unique case-insensitive
// id-prefix match, unique case-insensitive title-substring match. More than
// one candidate at any tried level is AmbiguousError listing all candidates.
func Resolve(idx *index.Index, raw string, isCI bool) (index.Entry, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return index.Entry{}, &NotFoundError{Query: raw}
	}

	if entry, pos := idx.Find(query); pos >= 0 {
		return entry, nil
	}
	if isCI {
		return index.Entry{}, &NotFoundError{Query: query}
	}

	prefix := ticket.NormalizeID(query)
	var prefixMatches []index.Entry
	for _, e := range idx.Tickets {
		if strings.HasPrefix(ticket.NormalizeID(e.ID), prefix) {
			prefixMatches = append(prefixMatches, e)
		}
	}
	switch len(prefixMatches) {
	case 1:
		return prefixMatches[0], nil
	default:
		if len(prefixMatches) > 1 {
			return index.Entry{}, &AmbiguousError{Query: query, Matches: prefixMatches}
		}
	}

	needle := strings.ToLower(query)
	var titleMatches []index.Entry
	for _, e := range idx.Tickets {
		if strings.Contains(strings.ToLower(e.Title), needle) {
			titleMatches = append(titleMatches, e)
		}
	}
	switch len(titleMatches) {
	case 0:
		return index.Entry{}, &NotFoundError{Query: query}
	case 1:
		return titleMatches[0], nil
	default:
		return index.Entry{}, &AmbiguousError{Query: query, Matches: titleMatches}
	}
}

// NotFoundError indicates no entry matched the query.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no ticket found matching '%s'", e.Query)
}

// AmbiguousError indicates multiple entries matched the query.
type AmbiguousError struct {
	Query   string
	Matches []index.Entry
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous id '%s' matches %d tickets", e.Query, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly message for ambiguous queries.
// Lists all matching tickets (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	msg := fmt.Sprintf("Error: ambiguous id '%s' matches %d tickets:\n", err.Query, len(err.Matches))

	displayCount := len(err.Matches)
	if displayCount > 10 {
		displayCount = 10
	}
	for i := 0; i < displayCount; i++ {
		m := err.Matches[i]
		msg += fmt.Sprintf("  %s  %s\n", m.DisplayID, m.Title)
	}
	if len(err.Matches) > 10 {
		msg += fmt.Sprintf("  ...and %d more\n", len(err.Matches)-10)
	}

	msg += "\nUse a longer prefix or the full id to uniquely identify the ticket."
	return msg
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
