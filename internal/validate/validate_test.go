package validate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkforge/tk/internal/index"
	"github.com/tkforge/tk/internal/policy"
	"github.com/tkforge/tk/internal/ticket"
)

func file(t *testing.T, id, state, extra string) index.File {
	t.Helper()
	raw := fmt.Sprintf("---\nid: %s\ntitle: T\nstate: %s\npriority: p2\nlabels: []\n%s---\n", id, state, extra)
	doc, err := ticket.Parse(raw, id+".md", id)
	require.NoError(t, err)
	return index.File{Filename: id + ".md", Path: "tickets/" + id + ".md", Doc: doc}
}

func brokenFile(id string) index.File {
	raw := "---\nid: bogus\ntitle: \"\"\nstate: backlog\npriority: p2\nlabels: []\n---\n"
	doc, err := ticket.Parse(raw, id+".md", id)
	return index.File{Filename: id + ".md", Doc: doc, Err: err}
}

func freshIndex(t *testing.T, files []index.File) []byte {
	t.Helper()
	raw, err := index.Encode(index.Generate(index.Valid(files), "simple-v1", time.Now()))
	require.NoError(t, err)
	return raw
}

func mustProfile(t *testing.T, tier string) policy.Profile {
	t.Helper()
	p, err := policy.Lookup(tier)
	require.NoError(t, err)
	return p
}

func TestRepository_CleanTree(t *testing.T) {
	files := []index.File{file(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", "backlog", "created: 2026-01-01T00:00:00Z\n")}
	report := Repository(files, freshIndex(t, files), "simple-v1", mustProfile(t, "strict"))

	assert.Empty(t, report.Findings)
	assert.False(t, report.Failed())
	assert.Zero(t, report.Warnings())
}

func TestRepository_IntegrityFailsInEveryTier(t *testing.T) {
	files := []index.File{brokenFile("01ARZ3NDEKTSV4RRFFQ69G5FAV")}

	for _, tier := range policy.TierNames() {
		report := Repository(files, freshIndex(t, files), "simple-v1", mustProfile(t, tier))
		assert.True(t, report.Failed(), "tier %s", tier)
	}
}

func TestRepository_SchemaIssuesOneFindingEach(t *testing.T) {
	// The broken file has two schema defects (bad id, empty title) plus the
	// filename mismatch; each becomes its own finding.
	files := []index.File{brokenFile("01ARZ3NDEKTSV4RRFFQ69G5FAV")}
	report := Repository(files, freshIndex(t, files), "simple-v1", mustProfile(t, "integrity"))

	require.GreaterOrEqual(t, len(report.Findings), 2)
	for _, f := range report.Findings {
		assert.Equal(t, CategoryIntegrity, f.Category)
		assert.Equal(t, policy.LevelFail, f.Level)
		assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV.md", f.File)
	}
}

func TestRepository_StaleIndex(t *testing.T) {
	files := []index.File{file(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", "backlog", "created: 2026-01-01T00:00:00Z\n")}
	stale := freshIndex(t, nil) // empty index vs one ticket on disk

	tests := []struct {
		tier      string
		wantFail  bool
		wantWarn  int
		wantFinds int
	}{
		{tier: "integrity", wantFinds: 0}, // quality off: stale not even reported
		{tier: "warn", wantWarn: 1, wantFinds: 1},
		{tier: "quality", wantFail: true, wantFinds: 1},
	}

	for _, tt := range tests {
		t.Run(tt.tier, func(t *testing.T) {
			report := Repository(files, stale, "simple-v1", mustProfile(t, tt.tier))
			assert.Len(t, report.Findings, tt.wantFinds)
			assert.Equal(t, tt.wantFail, report.Failed())
			assert.Equal(t, tt.wantWarn, report.Warnings())
		})
	}
}

func TestRepository_MissingCreatedIsQuality(t *testing.T) {
	files := []index.File{file(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", "backlog", "")}
	report := Repository(files, freshIndex(t, files), "simple-v1", mustProfile(t, "quality"))

	require.Len(t, report.Findings, 1)
	assert.Equal(t, CategoryQuality, report.Findings[0].Category)
	assert.Contains(t, report.Findings[0].Message, "created")
}

func TestRepository_StrictChecks(t *testing.T) {
	files := []index.File{
		file(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", "in_progress", "created: 2026-01-01T00:00:00Z\n"),
		file(t, "01BX5ZZKBKACTAV9WEVGEMMVRZ", "done", "created: 2026-01-01T00:00:00Z\n"),
	}
	fresh := freshIndex(t, files)

	t.Run("off below opt-in", func(t *testing.T) {
		report := Repository(files, fresh, "simple-v1", mustProfile(t, "quality"))
		assert.Empty(t, report.Findings)
	})

	t.Run("warn at opt-in", func(t *testing.T) {
		report := Repository(files, fresh, "simple-v1", mustProfile(t, "opt-in"))
		require.Len(t, report.Findings, 2)
		assert.False(t, report.Failed())
		assert.Equal(t, 2, report.Warnings())
	})

	t.Run("fail at strict", func(t *testing.T) {
		report := Repository(files, fresh, "simple-v1", mustProfile(t, "strict"))
		require.Len(t, report.Findings, 2)
		assert.True(t, report.Failed())

		messages := []string{report.Findings[0].Message, report.Findings[1].Message}
		assert.Contains(t, messages[0]+messages[1], "assignee")
		assert.Contains(t, messages[0]+messages[1], "reviewer")
	})

	t.Run("satisfied actors pass", func(t *testing.T) {
		staffed := []index.File{
			file(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", "in_progress", "created: 2026-01-01T00:00:00Z\nassignee: human:sam\n"),
			file(t, "01BX5ZZKBKACTAV9WEVGEMMVRZ", "done", "created: 2026-01-01T00:00:00Z\nreviewer: human:ana\n"),
		}
		report := Repository(staffed, freshIndex(t, staffed), "simple-v1", mustProfile(t, "strict"))
		assert.Empty(t, report.Findings)
	})
}
