// Package index derives the canonical tickets index from a set of parsed
// ticket documents. The index is a pure, disposable projection: ticket files
// are authoritative on any conflict, and every rebuild from the same
// documents produces the same bytes apart from generated_at.
package index

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/tkforge/tk/internal/ticket"
)

// FormatVersion is the index schema version this engine writes and accepts.
const FormatVersion = 1

// FileName is the index file name at the repository root.
const FileName = "index.json"

// Entry is the index projection of one ticket document.
type Entry struct {
	ID        string          `json:"id"`
	ShortID   string          `json:"short_id"`
	DisplayID string          `json:"display_id"`
	Title     string          `json:"title"`
	State     ticket.State    `json:"state"`
	Priority  ticket.Priority `json:"priority"`
	Labels    []string        `json:"labels"`
	Path      string          `json:"path"`
	Assignee  string          `json:"assignee,omitempty"`
	Reviewer  string          `json:"reviewer,omitempty"`
	Created   string          `json:"created,omitempty"`
}

// Index is the derived summary of all ticket documents.
type Index struct {
	FormatVersion int     `json:"format_version"`
	GeneratedAt   string  `json:"generated_at"`
	Workflow      string  `json:"workflow"`
	Tickets       []Entry `json:"tickets"`
}

// EntryFor projects a document into its index entry. path is the ticket
// file's repository-relative path.
func EntryFor(doc *ticket.Document, path string) Entry {
	labels := doc.Labels
	if labels == nil {
		labels = []string{}
	}
	return Entry{
		ID:        doc.ID,
		ShortID:   ticket.ShortID(doc.ID),
		DisplayID: ticket.DisplayID(doc.ID),
		Title:     doc.Title,
		State:     doc.State,
		Priority:  doc.Priority,
		Labels:    labels,
		Path:      path,
		Assignee:  doc.Assignee,
		Reviewer:  doc.Reviewer,
		Created:   doc.Created,
	}
}

// Less is the canonical entry ordering: state rank, then priority rank, then
// id lexicographic. Every sorted view of the index uses this comparator so
// file-based and patch-based edits converge on identical ordering.
func Less(a, b Entry) bool {
	if ra, rb := ticket.StateRank(a.State), ticket.StateRank(b.State); ra != rb {
		return ra < rb
	}
	if ra, rb := ticket.PriorityRank(a.Priority), ticket.PriorityRank(b.Priority); ra != rb {
		return ra < rb
	}
	return a.ID < b.ID
}

// Sort orders entries with the canonical comparator.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool { return Less(entries[i], entries[j]) })
}

// Generate builds the canonical index from parsed files. Files that failed to
// parse must be filtered out by the caller first; Generate panics on nil
// documents rather than silently skipping them.
func Generate(files []File, workflowTag string, now time.Time) *Index {
	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		if f.Doc == nil {
			panic(fmt.Sprintf("index: Generate called with unparsed file %s", f.Filename))
		}
		entries = append(entries, EntryFor(f.Doc, f.Path))
	}
	Sort(entries)
	return &Index{
		FormatVersion: FormatVersion,
		GeneratedAt:   now.UTC().Format(time.RFC3339),
		Workflow:      workflowTag,
		Tickets:       entries,
	}
}

// Encode renders the index in its wire form: pretty-printed JSON with 2-space
// indent and a trailing newline.
func Encode(idx *Index) ([]byte, error) {
	if idx.Tickets == nil {
		idx.Tickets = []Entry{}
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding index: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a persisted index.
func Decode(raw []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}
	return &idx, nil
}

// IsStale reports whether a persisted index no longer matches the computed
// one. generated_at is ignored; format_version, workflow and the full entries
// array are compared structurally. A missing or unreadable persisted index is
// always stale.
func IsStale(persisted []byte, computed *Index) bool {
	if len(persisted) == 0 {
		return true
	}
	prev, err := Decode(persisted)
	if err != nil {
		return true
	}
	if prev.FormatVersion != computed.FormatVersion || prev.Workflow != computed.Workflow {
		return true
	}
	if len(prev.Tickets) != len(computed.Tickets) {
		return true
	}
	for i := range prev.Tickets {
		if !entriesEqual(prev.Tickets[i], computed.Tickets[i]) {
			return true
		}
	}
	return false
}

func entriesEqual(a, b Entry) bool {
	if a.ID != b.ID || a.ShortID != b.ShortID || a.DisplayID != b.DisplayID ||
		a.Title != b.Title || a.State != b.State || a.Priority != b.Priority ||
		a.Path != b.Path || a.Assignee != b.Assignee || a.Reviewer != b.Reviewer ||
		a.Created != b.Created {
		return false
	}
	if len(a.Labels) != len(b.Labels) {
		return false
	}
	for i := range a.Labels {
		if a.Labels[i] != b.Labels[i] {
			return false
		}
	}
	return true
}

// Find returns the entry with the given id (case-insensitive) and its
// position, or -1 if absent.
func (idx *Index) Find(id string) (Entry, int) {
	want := ticket.NormalizeID(id)
	for i, e := range idx.Tickets {
		if ticket.NormalizeID(e.ID) == want {
			return e, i
		}
	}
	return Entry{}, -1
}
