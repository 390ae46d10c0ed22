package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkforge/tk/internal/ticket"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    ticket.State
		to      ticket.State
		wantErr bool
	}{
		{name: "backlog to ready", from: ticket.StateBacklog, to: ticket.StateReady},
		{name: "backlog to blocked", from: ticket.StateBacklog, to: ticket.StateBlocked},
		{name: "ready to in_progress", from: ticket.StateReady, to: ticket.StateInProgress},
		{name: "in_progress to done", from: ticket.StateInProgress, to: ticket.StateDone},
		{name: "blocked resumes to ready", from: ticket.StateBlocked, to: ticket.StateReady},
		{name: "blocked resumes to in_progress", from: ticket.StateBlocked, to: ticket.StateInProgress},
		{name: "blocked to blocked", from: ticket.StateBlocked, to: ticket.StateBlocked},

		{name: "backlog cannot skip to in_progress", from: ticket.StateBacklog, to: ticket.StateInProgress, wantErr: true},
		{name: "backlog cannot skip to done", from: ticket.StateBacklog, to: ticket.StateDone, wantErr: true},
		{name: "ready cannot regress to backlog", from: ticket.StateReady, to: ticket.StateBacklog, wantErr: true},
		{name: "in_progress cannot regress to ready", from: ticket.StateInProgress, to: ticket.StateReady, wantErr: true},
		{name: "blocked cannot jump to done", from: ticket.StateBlocked, to: ticket.StateDone, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsInvalidTransition(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTransition_DoneIsTerminal(t *testing.T) {
	// No edge leaves done, and the error's allowed set is empty rather than
	// merely omitting the requested target.
	for _, to := range ticket.States {
		err := ValidateTransition(ticket.StateDone, to)
		require.Error(t, err, "done -> %s", to)

		transErr, ok := err.(*TransitionError)
		require.True(t, ok)
		assert.Empty(t, transErr.Allowed)
		assert.Contains(t, transErr.Error(), "terminal")
	}
}

func TestAllowedTargets(t *testing.T) {
	assert.Equal(t, []ticket.State{ticket.StateReady, ticket.StateBlocked}, AllowedTargets(ticket.StateBacklog))
	assert.Empty(t, AllowedTargets(ticket.StateDone))

	// Mutating the returned slice must not corrupt the machine.
	targets := AllowedTargets(ticket.StateBacklog)
	targets[0] = ticket.StateDone
	assert.Equal(t, []ticket.State{ticket.StateReady, ticket.StateBlocked}, AllowedTargets(ticket.StateBacklog))
}

func TestValidateQATransition(t *testing.T) {
	env := QACompanion{Environment: "staging"}
	reason := QACompanion{Reason: "checkout test fails"}

	tests := []struct {
		name      string
		state     ticket.State
		from      ticket.QAStatus
		to        ticket.QAStatus
		companion QACompanion
		wantErr   bool
	}{
		{name: "unset to ready_for_qa", state: ticket.StateInProgress, from: ticket.QAUnset, to: ticket.QAReadyForQA, companion: env},
		{name: "pending_impl to ready_for_qa", state: ticket.StateInProgress, from: ticket.QAPendingImpl, to: ticket.QAReadyForQA, companion: env},
		{name: "ready_for_qa to qa_failed", state: ticket.StateInProgress, from: ticket.QAReadyForQA, to: ticket.QAFailed, companion: reason},
		{name: "ready_for_qa to qa_passed", state: ticket.StateInProgress, from: ticket.QAReadyForQA, to: ticket.QAPassed, companion: env},
		{name: "qa_failed back to ready_for_qa", state: ticket.StateInProgress, from: ticket.QAFailed, to: ticket.QAReadyForQA, companion: env},
		{name: "qa_failed to pending_impl", state: ticket.StateInProgress, from: ticket.QAFailed, to: ticket.QAPendingImpl},

		{name: "unset cannot jump to qa_passed", state: ticket.StateInProgress, from: ticket.QAUnset, to: ticket.QAPassed, companion: env, wantErr: true},
		{name: "unset cannot jump to qa_failed", state: ticket.StateInProgress, from: ticket.QAUnset, to: ticket.QAFailed, companion: reason, wantErr: true},
		{name: "qa_passed cannot fail afterwards", state: ticket.StateInProgress, from: ticket.QAPassed, to: ticket.QAFailed, companion: reason, wantErr: true},

		{name: "ready_for_qa needs environment", state: ticket.StateInProgress, from: ticket.QAUnset, to: ticket.QAReadyForQA, wantErr: true},
		{name: "qa_passed needs environment", state: ticket.StateInProgress, from: ticket.QAReadyForQA, to: ticket.QAPassed, wantErr: true},
		{name: "qa_failed needs reason", state: ticket.StateInProgress, from: ticket.QAReadyForQA, to: ticket.QAFailed, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQATransition(tt.state, tt.from, tt.to, tt.companion)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsInvalidTransition(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateQATransition_RequiresInProgress(t *testing.T) {
	// The workflow-state gate runs first: even a QA-legal move is rejected
	// outright when the ticket is not in_progress.
	for _, state := range []ticket.State{ticket.StateBacklog, ticket.StateReady, ticket.StateBlocked, ticket.StateDone} {
		err := ValidateQATransition(state, ticket.QAUnset, ticket.QAReadyForQA, QACompanion{Environment: "staging"})
		require.Error(t, err, "state %s", state)

		qaErr, ok := err.(*QATransitionError)
		require.True(t, ok)
		assert.Contains(t, qaErr.Reason, "in_progress")
	}
}
