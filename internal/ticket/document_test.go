package ticket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "valid uppercase", id: "01ARZ3NDEKTSV4RRFFQ69G5FAV", wantErr: false},
		{name: "valid lowercase", id: "01arz3ndektsv4rrffq69g5fav", wantErr: false},
		{name: "too short", id: "01ARZ3NDEKTSV4RRFFQ69G5FA", wantErr: true},
		{name: "too long", id: "01ARZ3NDEKTSV4RRFFQ69G5FAVX", wantErr: true},
		{name: "excluded letter L", id: "01ARZ3NDEKTSV4RRFFQ69G5FAL", wantErr: true},
		{name: "excluded letter O", id: "O1ARZ3NDEKTSV4RRFFQ69G5FAV", wantErr: true},
		{name: "empty", id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewID(t *testing.T) {
	id := NewID()
	require.NoError(t, ValidateID(id))
	assert.Equal(t, NormalizeID(id), id, "generated ids are uppercase")

	// ULIDs generated in sequence must be distinct.
	assert.NotEqual(t, id, NewID())
}

func TestShortAndDisplayID(t *testing.T) {
	assert.Equal(t, "01ARZ3ND", ShortID("01ARZ3NDEKTSV4RRFFQ69G5FAV"))
	assert.Equal(t, "TK-01ARZ3ND", DisplayID("01ARZ3NDEKTSV4RRFFQ69G5FAV"))
	assert.Equal(t, "01AR", ShortID("01AR"), "short inputs pass through")
}

func TestNormalizeLabels(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   []string
	}{
		{name: "trims and lowercases", labels: []string{"  Auth ", "BACKEND"}, want: []string{"auth", "backend"}},
		{name: "dedup keeps first occurrence order", labels: []string{"b", "a", "B", "a"}, want: []string{"b", "a"}},
		{name: "drops empties", labels: []string{"", "  ", "x"}, want: []string{"x"}},
		{name: "nil in empty out", labels: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLabels(tt.labels))
		})
	}
}

func TestValidateActorRef(t *testing.T) {
	valid := []string{"human:sam", "agent:claude-backend", "human:a1", "agent:x"}
	for _, ref := range valid {
		assert.NoError(t, ValidateActorRef(ref), ref)
	}

	invalid := []string{
		"sam",             // no kind
		"bot:sam",         // unknown kind
		"human:Sam",       // uppercase slug
		"human:",          // empty slug
		"human:-sam",      // leading hyphen
		"human:sam-",      // trailing hyphen
		"human:sa--m",     // double hyphen
		"human:sam agent", // whitespace
	}
	for _, ref := range invalid {
		assert.Error(t, ValidateActorRef(ref), ref)
	}
}

func TestStateAndPriorityRanks(t *testing.T) {
	// The index sort depends on these being total over the enums.
	assert.Less(t, StateRank(StateBacklog), StateRank(StateReady))
	assert.Less(t, StateRank(StateReady), StateRank(StateInProgress))
	assert.Less(t, StateRank(StateInProgress), StateRank(StateBlocked))
	assert.Less(t, StateRank(StateBlocked), StateRank(StateDone))
	assert.Equal(t, len(States), StateRank(State("bogus")))

	assert.Less(t, PriorityRank(PriorityP0), PriorityRank(PriorityP1))
	assert.Less(t, PriorityRank(PriorityP2), PriorityRank(PriorityP3))
	assert.Equal(t, len(Priorities), PriorityRank(Priority("p9")))
}
