package resolver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkforge/tk/internal/index"
	"github.com/tkforge/tk/internal/ticket"
)

func testIndex() *index.Index {
	return &index.Index{
		FormatVersion: index.FormatVersion,
		Workflow:      "simple-v1",
		Tickets: []index.Entry{
			{ID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", DisplayID: "TK-01ARZ3ND", Title: "Fix login flow"},
			{ID: "01ARZ3PXYZTSV4RRFFQ69G5FB0", DisplayID: "TK-01ARZ3PX", Title: "Login audit trail"},
			{ID: "01BX5ZZKBKACTAV9WEVGEMMVRZ", DisplayID: "TK-01BX5ZZK", Title: "Rotate API keys"},
		},
	}
}

func TestResolve_ExactMatch(t *testing.T) {
	for _, isCI := range []bool{false, true} {
		entry, err := Resolve(testIndex(), "01BX5ZZKBKACTAV9WEVGEMMVRZ", isCI)
		require.NoError(t, err)
		assert.Equal(t, "01BX5ZZKBKACTAV9WEVGEMMVRZ", entry.ID)

		// Exact matching is case-insensitive in both modes.
		entry, err = Resolve(testIndex(), "01bx5zzkbkactav9wevgemmvrz", isCI)
		require.NoError(t, err)
		assert.Equal(t, "01BX5ZZKBKACTAV9WEVGEMMVRZ", entry.ID)
	}
}

func TestResolve_PrefixMatch(t *testing.T) {
	entry, err := Resolve(testIndex(), "01bx", false)
	require.NoError(t, err)
	assert.Equal(t, "01BX5ZZKBKACTAV9WEVGEMMVRZ", entry.ID)
}

func TestResolve_AmbiguousPrefix(t *testing.T) {
	_, err := Resolve(testIndex(), "01ARZ3", false)
	require.Error(t, err)
	require.True(t, IsAmbiguousError(err))

	ambErr := err.(*AmbiguousError)
	assert.Len(t, ambErr.Matches, 2)
}

func TestResolve_TitleSubstring(t *testing.T) {
	entry, err := Resolve(testIndex(), "rotate", false)
	require.NoError(t, err)
	assert.Equal(t, "01BX5ZZKBKACTAV9WEVGEMMVRZ", entry.ID)
}

func TestResolve_AmbiguousTitle(t *testing.T) {
	_, err := Resolve(testIndex(), "login", false)
	require.Error(t, err)
	assert.True(t, IsAmbiguousError(err))
}

func TestResolve_NotFound(t *testing.T) {
	for _, query := range []string{"zzzz", "", "   "} {
		_, err := Resolve(testIndex(), query, false)
		require.Error(t, err, "query %q", query)
		assert.True(t, IsNotFoundError(err))
	}
}

func TestResolve_CIModeIsExactOnly(t *testing.T) {
	// Prefix and title matching are disabled under CI so scripts cannot
	// silently resolve to a different ticket as the repository grows.
	for _, query := range []string{"01bx", "rotate", "login"} {
		_, err := Resolve(testIndex(), query, true)
		require.Error(t, err, "query %q", query)
		assert.True(t, IsNotFoundError(err))
	}
}

func TestFormatAmbiguousError(t *testing.T) {
	var matches []index.Entry
	for i := 0; i < 12; i++ {
		id := ticket.NewID()
		matches = append(matches, index.Entry{ID: id, DisplayID: ticket.DisplayID(id), Title: "Same title"})
	}
	msg := FormatAmbiguousError(&AmbiguousError{Query: "same", Matches: matches})

	assert.Contains(t, msg, "matches 12 tickets")
	assert.Contains(t, msg, "...and 2 more")
	// Only the first 10 are listed.
	assert.Equal(t, 10, strings.Count(msg, "Same title"))
}
