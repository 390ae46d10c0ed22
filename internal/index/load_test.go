package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkforge/tk/internal/ticket"
)

func source(id, title string) SourceFile {
	raw := fmt.Sprintf("---\nid: %s\ntitle: %s\nstate: backlog\npriority: p2\nlabels: []\n---\n", id, title)
	return SourceFile{Filename: id + ".md", Path: "tickets/" + id + ".md", Raw: raw}
}

func TestParseAll_ResultsInFilenameOrder(t *testing.T) {
	// Sources arrive unsorted and are parsed concurrently; results still come
	// back in filename order.
	sources := []SourceFile{
		source("01BX5ZZKBKACTAV9WEVGEMMVRZ", "Third"),
		source("01ARZ3NDEKTSV4RRFFQ69G5FAV", "First"),
		source("01BX5ZZKBKACTAV9WEVGEMMVS0", "Fourth"),
		source("01ARZ3NDEKTSV4RRFFQ69G5FB0", "Second"),
	}

	files := ParseAll(sources)
	require.Len(t, files, 4)

	var names []string
	for _, f := range files {
		names = append(names, f.Filename)
		require.NoError(t, f.Err)
	}
	assert.Equal(t, []string{
		"01ARZ3NDEKTSV4RRFFQ69G5FAV.md",
		"01ARZ3NDEKTSV4RRFFQ69G5FB0.md",
		"01BX5ZZKBKACTAV9WEVGEMMVRZ.md",
		"01BX5ZZKBKACTAV9WEVGEMMVS0.md",
	}, names)
}

func TestParseAll_ValidatesIDAgainstFilenameStem(t *testing.T) {
	src := source("01ARZ3NDEKTSV4RRFFQ69G5FAV", "Misfiled")
	src.Filename = "01BX5ZZKBKACTAV9WEVGEMMVRZ.md"

	files := ParseAll([]SourceFile{src})
	require.Len(t, files, 1)
	require.Error(t, files[0].Err)
	assert.True(t, ticket.IsSchemaError(files[0].Err))
	assert.Nil(t, files[0].Doc)
}

func TestParseAll_MixedResults(t *testing.T) {
	good := source("01ARZ3NDEKTSV4RRFFQ69G5FAV", "Good")
	bad := SourceFile{
		Filename: "01BX5ZZKBKACTAV9WEVGEMMVRZ.md",
		Path:     "tickets/01BX5ZZKBKACTAV9WEVGEMMVRZ.md",
		Raw:      "no frontmatter here",
	}

	files := ParseAll([]SourceFile{bad, good})

	assert.Len(t, Valid(files), 1)
	assert.Len(t, Errors(files), 1)
	assert.Equal(t, "Good", Valid(files)[0].Doc.Title)
	assert.True(t, ticket.IsStructuralError(Errors(files)[0]))
}

func TestParseAll_Empty(t *testing.T) {
	assert.Empty(t, ParseAll(nil))
	assert.Empty(t, Valid(nil))
	assert.Empty(t, Errors(nil))
}
