package filter

import (
	"time"

	"github.com/tkforge/tk/internal/index"
	"github.com/tkforge/tk/internal/ticket"
)

// Criteria defines filtering criteria for index entries.
// All filters are ANDed together - an entry must match ALL criteria to pass.
type Criteria struct {
	State    string    // exact workflow state, empty = no filter
	Priority string    // exact priority, empty = no filter
	Label    string    // entry must carry this label, empty = no filter
	Assignee string    // exact actor ref, empty = no filter
	Since    time.Time // created at or after, zero = no filter
	Until    time.Time // created before, zero = no filter
}

// Matches returns true if the entry matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(e index.Entry) bool {
	if c.State != "" && e.State != ticket.State(c.State) {
		return false
	}
	if c.Priority != "" && e.Priority != ticket.Priority(c.Priority) {
		return false
	}
	if c.Label != "" && !hasLabel(e.Labels, c.Label) {
		return false
	}
	if c.Assignee != "" && e.Assignee != c.Assignee {
		return false
	}

	// Time filtering works on the optional created timestamp. Entries
	// without one never match an active time filter.
	if !c.Since.IsZero() || !c.Until.IsZero() {
		created, err := time.Parse(time.RFC3339, e.Created)
		if err != nil {
			return false
		}
		if !c.Since.IsZero() && created.Before(c.Since) {
			return false
		}
		if !c.Until.IsZero() && !created.Before(c.Until) {
			return false
		}
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.State != "" || c.Priority != "" || c.Label != "" ||
		c.Assignee != "" || !c.Since.IsZero() || !c.Until.IsZero()
}

// Apply returns the entries matching the criteria, preserving order.
func (c *Criteria) Apply(entries []index.Entry) []index.Entry {
	if !c.HasFilters() {
		return entries
	}
	out := make([]index.Entry, 0, len(entries))
	for _, e := range entries {
		if c.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}
