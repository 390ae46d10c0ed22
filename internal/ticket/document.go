package ticket

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// State is the workflow state of a ticket.
type State string

const (
	StateBacklog    State = "backlog"
	StateReady      State = "ready"
	StateInProgress State = "in_progress"
	StateBlocked    State = "blocked"
	StateDone       State = "done"
)

// States lists all workflow states in progression order.
// This order doubles as the state rank used by the index sort.
var States = []State{StateBacklog, StateReady, StateInProgress, StateBlocked, StateDone}

// Priority is the ticket priority, p0 (highest) through p3 (lowest).
type Priority string

const (
	PriorityP0 Priority = "p0"
	PriorityP1 Priority = "p1"
	PriorityP2 Priority = "p2"
	PriorityP3 Priority = "p3"
)

// Priorities lists all priorities from highest to lowest.
var Priorities = []Priority{PriorityP0, PriorityP1, PriorityP2, PriorityP3}

// QAStatus is the QA sub-status tracked inside the in_progress workflow state.
type QAStatus string

const (
	// QAUnset is the zero value: no QA status recorded yet.
	QAUnset       QAStatus = ""
	QAPendingImpl QAStatus = "pending_impl"
	QAReadyForQA  QAStatus = "ready_for_qa"
	QAFailed      QAStatus = "qa_failed"
	QAPassed      QAStatus = "qa_passed"
)

// QAStatuses lists all explicit QA statuses (excluding unset).
var QAStatuses = []QAStatus{QAPendingImpl, QAReadyForQA, QAFailed, QAPassed}

// IsValidState reports whether s is one of the workflow states.
func IsValidState(s string) bool {
	for _, v := range States {
		if string(v) == s {
			return true
		}
	}
	return false
}

// IsValidPriority reports whether p is one of p0..p3.
func IsValidPriority(p string) bool {
	for _, v := range Priorities {
		if string(v) == p {
			return true
		}
	}
	return false
}

// IsValidQAStatus reports whether s is one of the explicit QA statuses.
func IsValidQAStatus(s string) bool {
	for _, v := range QAStatuses {
		if string(v) == s {
			return true
		}
	}
	return false
}

// StateRank returns the sort rank of a workflow state (progression order).
// Unknown states rank last.
func StateRank(s State) int {
	for i, v := range States {
		if v == s {
			return i
		}
	}
	return len(States)
}

// PriorityRank returns the sort rank of a priority (p0 first).
// Unknown priorities rank last.
func PriorityRank(p Priority) int {
	for i, v := range Priorities {
		if v == p {
			return i
		}
	}
	return len(Priorities)
}

// IDLength is the exact length of a ticket id (a Crockford-base32 ULID).
const IDLength = 26

// ShortIDLength is the prefix length used for short ids.
const ShortIDLength = 8

// DisplayIDPrefix is prepended to short ids for human-facing output.
const DisplayIDPrefix = "TK-"

// crockfordAlphabet is the Crockford base32 alphabet (excludes I, L, O, U).
const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NormalizeID upper-cases a ticket id. IDs are accepted case-insensitively
// but stored uppercase.
func NormalizeID(id string) string {
	return strings.ToUpper(id)
}

// ValidateID checks that id is a 26-character Crockford-base32 ULID.
// The check is case-insensitive; callers should store NormalizeID(id).
func ValidateID(id string) error {
	if len(id) != IDLength {
		return fmt.Errorf("id must be %d characters, got %d", IDLength, len(id))
	}
	for _, r := range NormalizeID(id) {
		if !strings.ContainsRune(crockfordAlphabet, r) {
			return fmt.Errorf("id contains invalid character %q (Crockford base32 excludes I, L, O, U)", r)
		}
	}
	return nil
}

// ShortID returns the first 8 characters of a full id.
func ShortID(id string) string {
	if len(id) < ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}

// DisplayID returns the human-facing form of an id, e.g. "TK-01ARZ3ND".
func DisplayID(id string) string {
	return DisplayIDPrefix + ShortID(id)
}

// actorRefPattern matches actor references: "human:<slug>" or "agent:<slug>"
// where slug is lowercase alphanumeric with internal hyphens.
var actorRefPattern = regexp.MustCompile(`^(human|agent):[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidateActorRef checks an assignee/reviewer reference against the
// (human|agent):<slug> format.
func ValidateActorRef(ref string) error {
	if !actorRefPattern.MatchString(ref) {
		return fmt.Errorf("invalid actor ref %q (expected human:<slug> or agent:<slug>)", ref)
	}
	return nil
}

// QAInfo is the optional x_ticket.qa sub-object.
type QAInfo struct {
	Required     bool
	Status       QAStatus
	StatusReason string
	Environment  string

	// Extra holds qa keys the engine does not model, preserved on rewrite.
	Extra []ExtraField
}

// Document is one parsed and validated ticket: YAML frontmatter plus an
// opaque Markdown body.
//
// Unknown top-level frontmatter keys (and x_ticket keys other than qa) are
// preserved verbatim as yaml nodes so a rewrite never drops or reorders
// fields the engine does not understand.
type Document struct {
	ID       string
	Title    string
	State    State
	Priority Priority
	Labels   []string

	// Created and Updated are optional ISO-8601 timestamps, kept as the
	// original strings for byte-stable rewrites.
	Created string
	Updated string

	// Assignee and Reviewer are optional actor refs.
	Assignee string
	Reviewer string

	QA *QAInfo

	// Extra holds unknown top-level keys in original document order.
	Extra []ExtraField
	// XTicketExtra holds x_ticket keys other than qa, in original order.
	XTicketExtra []ExtraField

	// Body is the Markdown text after the closing fence, byte-verbatim.
	Body string
}

// ExtraField is a preserved frontmatter key the engine does not model.
type ExtraField struct {
	Key  string
	Node *yaml.Node
}

// NormalizeLabels trims, lowercases and deduplicates labels, preserving
// first-occurrence order. Empty values are dropped.
func NormalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// HasLabel reports whether the document carries the given (normalized) label.
func (d *Document) HasLabel(label string) bool {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, l := range d.Labels {
		if l == label {
			return true
		}
	}
	return false
}
