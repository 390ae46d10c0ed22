package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// EnsureClean guards the auto-commit path: a mutation that will be committed
// is refused while the workspace already carries unrelated changes, so the
// generated commit never picks up work the user has in flight.
func (c *Checker) EnsureClean() error {
	clean, err := c.IsWorkspaceClean()
	if err != nil {
		return err
	}
	if clean {
		return nil
	}
	dirty, err := c.GetDirtyFiles()
	if err != nil {
		return err
	}
	return fmt.Errorf("workspace has uncommitted changes\n\n%s\n\nCommit or stash them first, or rerun without --commit", dirty)
}

// Commit stages exactly the given paths and commits them with the given
// subject. This is the auto-commit wrapper for mutating tk commands: the
// ticket file and the index always land in one commit so readers never see
// them out of sync.
func (c *Checker) Commit(paths []string, subject string) error {
	if len(paths) == 0 {
		return fmt.Errorf("nothing to commit")
	}
	if strings.TrimSpace(subject) == "" {
		return fmt.Errorf("commit subject cannot be empty")
	}

	addArgs := append([]string{"add", "--"}, paths...)
	if output, err := exec.Command("git", addArgs...).CombinedOutput(); err != nil {
		return fmt.Errorf("failed to stage files: %s: %w", strings.TrimSpace(string(output)), err)
	}

	commitArgs := append([]string{"commit", "-m", subject, "--"}, paths...)
	if output, err := exec.Command("git", commitArgs...).CombinedOutput(); err != nil {
		return fmt.Errorf("failed to commit: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// CommitSubject builds the conventional subject line for a ticket mutation,
// e.g. "tk: move TK-01ARZ3ND to in_progress".
func CommitSubject(action, displayID, detail string) string {
	subject := fmt.Sprintf("tk: %s %s", action, displayID)
	if detail != "" {
		subject += " " + detail
	}
	return subject
}
