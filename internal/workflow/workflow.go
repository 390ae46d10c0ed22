// Package workflow enforces the ticket workflow and QA-status state machines.
//
// Two independent machines: the workflow machine over ticket states
// (backlog → ready → in_progress → done, with blocked as a detour from any
// non-terminal state), and the QA sub-status machine, which is only
// meaningful while the workflow state is in_progress.
package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tkforge/tk/internal/ticket"
)

// Tag identifies the workflow the machines implement; it is stamped into the
// index so future workflow revisions can be told apart.
const Tag = "simple-v1"

// transitions is the workflow adjacency list. done has no outgoing edges.
var transitions = map[ticket.State][]ticket.State{
	ticket.StateBacklog:    {ticket.StateReady, ticket.StateBlocked},
	ticket.StateReady:      {ticket.StateInProgress, ticket.StateBlocked},
	ticket.StateInProgress: {ticket.StateDone, ticket.StateBlocked},
	ticket.StateBlocked:    {ticket.StateReady, ticket.StateInProgress, ticket.StateBlocked},
	ticket.StateDone:       {},
}

// qaPredecessors maps each QA target status to the statuses it may be
// reached from.
var qaPredecessors = map[ticket.QAStatus][]ticket.QAStatus{
	ticket.QAReadyForQA:  {ticket.QAUnset, ticket.QAPendingImpl, ticket.QAFailed},
	ticket.QAFailed:      {ticket.QAReadyForQA},
	ticket.QAPassed:      {ticket.QAReadyForQA},
	ticket.QAPendingImpl: {ticket.QAReadyForQA, ticket.QAFailed, ticket.QAPassed},
}

// TransitionError reports a workflow edge that does not exist. Allowed lists
// the legal targets from the current state; for done it is empty.
type TransitionError struct {
	From    ticket.State
	To      ticket.State
	Allowed []ticket.State
}

func (e *TransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("cannot move %s ticket to %s: %s is terminal", e.From, e.To, e.From)
	}
	return fmt.Sprintf("cannot move %s ticket to %s (allowed: %s)", e.From, e.To, joinStates(e.Allowed))
}

// QATransitionError reports an illegal QA status change.
type QATransitionError struct {
	From    ticket.QAStatus
	To      ticket.QAStatus
	Reason  string
	Allowed []ticket.QAStatus
}

func (e *QATransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot set qa status %s: %s", display(e.To), e.Reason)
	}
	return fmt.Sprintf("cannot set qa status %s from %s (allowed from: %s)", display(e.To), display(e.From), joinQA(e.Allowed))
}

// IsInvalidTransition reports whether err is a workflow or QA transition error.
func IsInvalidTransition(err error) bool {
	var te *TransitionError
	var qe *QATransitionError
	return errors.As(err, &te) || errors.As(err, &qe)
}

// AllowedTargets returns the legal targets from a workflow state, in
// progression order. The returned slice is a copy.
func AllowedTargets(from ticket.State) []ticket.State {
	targets := transitions[from]
	out := make([]ticket.State, len(targets))
	copy(out, targets)
	return out
}

// ValidateTransition checks a workflow edge. An unlisted edge returns a
// TransitionError carrying the allowed-target set for the current state.
func ValidateTransition(from, to ticket.State) error {
	for _, target := range transitions[from] {
		if target == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to, Allowed: AllowedTargets(from)}
}

// QACompanion is the companion data a QA transition may require:
// ready_for_qa and qa_passed need Environment, qa_failed needs Reason.
type QACompanion struct {
	Environment string
	Reason      string
}

// ValidateQATransition checks a QA status change. QA transitions are only
// legal while the workflow state is in_progress; that check runs first and
// rejects outright, independent of QA-state legality.
func ValidateQATransition(state ticket.State, from, to ticket.QAStatus, companion QACompanion) error {
	if state != ticket.StateInProgress {
		return &QATransitionError{
			From:   from,
			To:     to,
			Reason: fmt.Sprintf("ticket is %s, QA status only changes while in_progress", state),
		}
	}

	preds, ok := qaPredecessors[to]
	if !ok {
		return &QATransitionError{From: from, To: to, Reason: fmt.Sprintf("unknown qa status %q", to)}
	}
	legal := false
	for _, p := range preds {
		if p == from {
			legal = true
			break
		}
	}
	if !legal {
		return &QATransitionError{From: from, To: to, Allowed: preds}
	}

	switch to {
	case ticket.QAReadyForQA, ticket.QAPassed:
		if companion.Environment == "" {
			return &QATransitionError{From: from, To: to, Reason: "environment is required"}
		}
	case ticket.QAFailed:
		if companion.Reason == "" {
			return &QATransitionError{From: from, To: to, Reason: "reason is required"}
		}
	}
	return nil
}

func display(s ticket.QAStatus) string {
	if s == ticket.QAUnset {
		return "(unset)"
	}
	return string(s)
}

func joinStates(states []ticket.State) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func joinQA(statuses []ticket.QAStatus) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = display(s)
	}
	return strings.Join(parts, ", ")
}
