package patch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tkforge/tk/internal/index"
	"github.com/tkforge/tk/internal/ticket"
	"github.com/tkforge/tk/internal/workflow"
)

// ConflictingLabelModesError reports a patch that uses more than one label
// mode at once.
type ConflictingLabelModesError struct {
	Modes []string
}

func (e *ConflictingLabelModesError) Error() string {
	return fmt.Sprintf("conflicting label modes: %s are mutually exclusive", strings.Join(e.Modes, ", "))
}

// InvalidActorRefError reports a malformed assignee/reviewer value in a patch.
type InvalidActorRefError struct {
	Field string
	Value string
}

func (e *InvalidActorRefError) Error() string {
	return fmt.Sprintf("%s: invalid actor ref %q (expected human:<slug> or agent:<slug>)", e.Field, e.Value)
}

// NotFoundError reports that the patch target id is absent from the index.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ticket %s not found in index", e.ID)
}

// IsNotFound reports whether err is a patch-target NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// TicketText applies a change to raw ticket text and returns the new text.
// Pure: no I/O, no clock. A state change is validated against the workflow
// machine before acceptance. Unknown frontmatter keys and the Markdown body
// pass through byte-identical.
func TicketText(raw string, ch *Change) (string, error) {
	if err := ch.Validate(); err != nil {
		return "", err
	}
	doc, err := ticket.Parse(raw, "", "")
	if err != nil {
		return "", err
	}
	if err := applyToDocument(doc, ch); err != nil {
		return "", err
	}
	return ticket.Render(doc)
}

// IndexText applies the same change to the raw index text: the entry is
// located by case-insensitive id, edited field-for-field like the ticket,
// re-sorted with the index comparator, and generated_at is restamped.
func IndexText(raw []byte, id string, ch *Change, now time.Time) ([]byte, error) {
	if err := ch.Validate(); err != nil {
		return nil, err
	}
	idx, err := index.Decode(raw)
	if err != nil {
		return nil, err
	}
	entry, pos := idx.Find(id)
	if pos < 0 {
		return nil, &NotFoundError{ID: ticket.NormalizeID(id)}
	}
	if err := applyToEntry(&entry, ch); err != nil {
		return nil, err
	}
	idx.Tickets[pos] = entry
	index.Sort(idx.Tickets)
	idx.GeneratedAt = now.UTC().Format(time.RFC3339)
	return index.Encode(idx)
}

func applyToDocument(doc *ticket.Document, ch *Change) error {
	if ch.State != nil {
		if err := workflow.ValidateTransition(doc.State, *ch.State); err != nil {
			return err
		}
		doc.State = *ch.State
	}
	if ch.Priority != nil {
		doc.Priority = *ch.Priority
	}
	if ch.Title != nil {
		doc.Title = strings.TrimSpace(*ch.Title)
	}
	doc.Labels = ch.applyLabels(doc.Labels)
	doc.Assignee = ch.Assignee.apply(doc.Assignee)
	doc.Reviewer = ch.Reviewer.apply(doc.Reviewer)
	return nil
}

func applyToEntry(entry *index.Entry, ch *Change) error {
	if ch.State != nil {
		if err := workflow.ValidateTransition(entry.State, *ch.State); err != nil {
			return err
		}
		entry.State = *ch.State
	}
	if ch.Priority != nil {
		entry.Priority = *ch.Priority
	}
	if ch.Title != nil {
		entry.Title = strings.TrimSpace(*ch.Title)
	}
	entry.Labels = ch.applyLabels(entry.Labels)
	entry.Assignee = ch.Assignee.apply(entry.Assignee)
	entry.Reviewer = ch.Reviewer.apply(entry.Reviewer)
	return nil
}
