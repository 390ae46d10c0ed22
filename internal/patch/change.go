// Package patch applies typed ticket deltas to raw ticket text and raw index
// text. Both paths reuse the frontmatter codec and the index comparator, so a
// direct file edit and a patch-based index edit always converge on identical
// field values and ordering.
package patch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tkforge/tk/internal/ticket"
)

// Change is a typed ticket delta (the TicketChangePatch wire object).
//
// At most one of the label modes may be used: replace, add/remove, or clear.
// Assignee and Reviewer are tri-state: absent leaves the field untouched,
// null clears it, a string sets it.
type Change struct {
	State    *ticket.State
	Priority *ticket.Priority
	Title    *string

	LabelsReplace []string
	LabelsAdd     []string
	LabelsRemove  []string
	ClearLabels   bool

	Assignee ActorPatch
	Reviewer ActorPatch
}

// ActorPatch distinguishes "absent" from "null" from "value" for the
// assignee/reviewer fields.
type ActorPatch struct {
	Present bool
	Value   *string
}

// Set returns an ActorPatch that sets the field.
func Set(value string) ActorPatch {
	return ActorPatch{Present: true, Value: &value}
}

// Clear returns an ActorPatch that deletes the field.
func Clear() ActorPatch {
	return ActorPatch{Present: true}
}

type changeWire struct {
	State         *string         `json:"state"`
	Priority      *string         `json:"priority"`
	Title         *string         `json:"title"`
	LabelsAdd     []string        `json:"labels_add"`
	LabelsRemove  []string        `json:"labels_remove"`
	LabelsReplace []string        `json:"labels_replace"`
	ClearLabels   bool            `json:"clear_labels"`
	Assignee      json.RawMessage `json:"assignee"`
	Reviewer      json.RawMessage `json:"reviewer"`
}

// UnmarshalJSON decodes the external TicketChangePatch request body,
// preserving the absent/null/value distinction for actor fields.
func (c *Change) UnmarshalJSON(data []byte) error {
	var w changeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Change{
		LabelsAdd:     w.LabelsAdd,
		LabelsRemove:  w.LabelsRemove,
		LabelsReplace: w.LabelsReplace,
		ClearLabels:   w.ClearLabels,
	}
	if w.State != nil {
		s := ticket.State(*w.State)
		c.State = &s
	}
	if w.Priority != nil {
		p := ticket.Priority(*w.Priority)
		c.Priority = &p
	}
	c.Title = w.Title

	var err error
	if c.Assignee, err = decodeActorPatch(w.Assignee); err != nil {
		return fmt.Errorf("assignee: %w", err)
	}
	if c.Reviewer, err = decodeActorPatch(w.Reviewer); err != nil {
		return fmt.Errorf("reviewer: %w", err)
	}
	return nil
}

func decodeActorPatch(raw json.RawMessage) (ActorPatch, error) {
	if len(raw) == 0 {
		return ActorPatch{}, nil
	}
	if string(raw) == "null" {
		return Clear(), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ActorPatch{}, errors.New("must be a string or null")
	}
	return Set(s), nil
}

// IsEmpty reports whether the change touches nothing.
func (c *Change) IsEmpty() bool {
	return c.State == nil && c.Priority == nil && c.Title == nil &&
		c.LabelsReplace == nil && len(c.LabelsAdd) == 0 && len(c.LabelsRemove) == 0 &&
		!c.ClearLabels && !c.Assignee.Present && !c.Reviewer.Present
}

// labelModes names the label-patch modes in use.
func (c *Change) labelModes() []string {
	var modes []string
	if c.LabelsReplace != nil {
		modes = append(modes, "labels_replace")
	}
	if len(c.LabelsAdd) > 0 || len(c.LabelsRemove) > 0 {
		modes = append(modes, "labels_add/labels_remove")
	}
	if c.ClearLabels {
		modes = append(modes, "clear_labels")
	}
	return modes
}

// Validate checks the change in isolation (not against a document): label
// modes must be mutually exclusive, enum values and actor refs must be valid,
// a title must be non-empty.
func (c *Change) Validate() error {
	if modes := c.labelModes(); len(modes) > 1 {
		return &ConflictingLabelModesError{Modes: modes}
	}
	if c.State != nil && !ticket.IsValidState(string(*c.State)) {
		return fmt.Errorf("invalid state %q", string(*c.State))
	}
	if c.Priority != nil && !ticket.IsValidPriority(string(*c.Priority)) {
		return fmt.Errorf("invalid priority %q", string(*c.Priority))
	}
	if c.Title != nil && strings.TrimSpace(*c.Title) == "" {
		return errors.New("title must be a non-empty string")
	}
	if err := c.Assignee.validate("assignee"); err != nil {
		return err
	}
	return c.Reviewer.validate("reviewer")
}

func (p ActorPatch) validate(field string) error {
	if !p.Present || p.Value == nil {
		return nil
	}
	if err := ticket.ValidateActorRef(strings.ToLower(*p.Value)); err != nil {
		return &InvalidActorRefError{Field: field, Value: *p.Value}
	}
	return nil
}

// apply returns the new value for an actor field: the current value when
// untouched, "" when cleared, the lowercased ref when set. Values must be
// validated beforehand.
func (p ActorPatch) apply(current string) string {
	if !p.Present {
		return current
	}
	if p.Value == nil {
		return ""
	}
	return strings.ToLower(*p.Value)
}

// applyLabels computes the new label set. In add/remove mode, removals apply
// before additions: a value present in both lists ends up present. This
// ordering is a pinned contract, not incidental.
func (c *Change) applyLabels(current []string) []string {
	switch {
	case c.ClearLabels:
		return []string{}
	case c.LabelsReplace != nil:
		return ticket.NormalizeLabels(c.LabelsReplace)
	case len(c.LabelsAdd) > 0 || len(c.LabelsRemove) > 0:
		remove := make(map[string]bool, len(c.LabelsRemove))
		for _, l := range ticket.NormalizeLabels(c.LabelsRemove) {
			remove[l] = true
		}
		out := make([]string, 0, len(current)+len(c.LabelsAdd))
		for _, l := range current {
			if !remove[l] {
				out = append(out, l)
			}
		}
		return ticket.NormalizeLabels(append(out, c.LabelsAdd...))
	default:
		return current
	}
}
