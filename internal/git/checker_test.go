package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a git repository in a temp dir and chdirs into it.
func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })

	run(t, "git", "init")
	run(t, "git", "config", "user.email", "test@example.com")
	run(t, "git", "config", "user.name", "Test")
	return dir
}

func run(t *testing.T, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "%s %v: %s", name, args, out)
}

func TestIsGitRepository(t *testing.T) {
	initRepo(t)

	isRepo, err := NewChecker().IsGitRepository()
	require.NoError(t, err)
	assert.True(t, isRepo)
}

func TestValidateGitContext_AtRoot(t *testing.T) {
	initRepo(t)
	assert.NoError(t, NewChecker().ValidateGitContext())
}

func TestValidateGitContext_InSubdirectory(t *testing.T) {
	dir := initRepo(t)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.Chdir(sub))

	err := NewChecker().ValidateGitContext()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Git repository root")
}

func TestIsWorkspaceClean(t *testing.T) {
	initRepo(t)
	checker := NewChecker()

	clean, err := checker.IsWorkspaceClean()
	require.NoError(t, err)
	assert.True(t, clean)

	require.NoError(t, os.WriteFile("untracked.txt", []byte("x"), 0644))
	clean, err = checker.IsWorkspaceClean()
	require.NoError(t, err)
	assert.False(t, clean)

	dirty, err := checker.GetDirtyFiles()
	require.NoError(t, err)
	assert.Contains(t, dirty, "untracked.txt")
}

func TestCommit(t *testing.T) {
	initRepo(t)
	checker := NewChecker()

	require.NoError(t, os.WriteFile("a.md", []byte("ticket"), 0644))
	require.NoError(t, os.WriteFile("index.json", []byte("{}\n"), 0644))

	subject := CommitSubject("move", "TK-01ARZ3ND", "to in_progress")
	require.NoError(t, checker.Commit([]string{"a.md", "index.json"}, subject))

	clean, err := checker.IsWorkspaceClean()
	require.NoError(t, err)
	assert.True(t, clean, "both files land in the one commit")

	out, err := exec.Command("git", "log", "-1", "--pretty=%s").Output()
	require.NoError(t, err)
	assert.Equal(t, "tk: move TK-01ARZ3ND to in_progress\n", string(out))
}

func TestEnsureClean(t *testing.T) {
	initRepo(t)
	checker := NewChecker()

	require.NoError(t, checker.EnsureClean())

	// Unrelated in-flight work blocks the auto-commit path, and the error
	// names the offending files.
	require.NoError(t, os.WriteFile("wip.txt", []byte("draft"), 0644))
	err := checker.EnsureClean()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uncommitted changes")
	assert.Contains(t, err.Error(), "wip.txt")

	run(t, "git", "add", "wip.txt")
	run(t, "git", "commit", "-m", "wip")
	assert.NoError(t, checker.EnsureClean())
}

func TestCommit_Validation(t *testing.T) {
	checker := NewChecker()
	assert.Error(t, checker.Commit(nil, "subject"))
	assert.Error(t, checker.Commit([]string{"a"}, "  "))
}

func TestCommitSubject(t *testing.T) {
	assert.Equal(t, "tk: new TK-01ARZ3ND \"Fix login\"", CommitSubject("new", "TK-01ARZ3ND", "\"Fix login\""))
	assert.Equal(t, "tk: set TK-01ARZ3ND", CommitSubject("set", "TK-01ARZ3ND", ""))
}
