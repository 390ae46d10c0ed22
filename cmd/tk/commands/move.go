package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tkforge/tk/internal/git"
	"github.com/tkforge/tk/internal/patch"
	"github.com/tkforge/tk/internal/printer"
	"github.com/tkforge/tk/internal/ticket"
	"github.com/tkforge/tk/internal/workflow"
)

var (
	moveTouch  bool
	moveCommit bool
)

var moveCmd = &cobra.Command{
	Use:   "move <id> <state>",
	Short: "Move a ticket to another workflow state",
	Long: `Moves a ticket along the workflow:

  backlog → ready → in_progress → done

Any non-terminal state can detour to blocked; blocked resumes to ready or
in_progress. done is terminal.`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

func init() {
	moveCmd.Flags().BoolVar(&moveTouch, "touch", false, "Stamp the updated timestamp")
	moveCmd.Flags().BoolVar(&moveCommit, "commit", false, "Commit the ticket and index together")
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	target := strings.TrimSpace(args[1])
	if !ticket.IsValidState(target) {
		return printer.Error(
			fmt.Sprintf("Error: invalid state %q", target),
			"State must be one of backlog, ready, in_progress, blocked, done.",
			nil,
		)
	}

	entry, err := ws.resolveEntry(args[0])
	if err != nil {
		return err
	}

	state := ticket.State(target)
	ch := &patch.Change{State: &state}

	subject := git.CommitSubject("move", entry.DisplayID, "to "+target)
	if err := applyChange(ws, entry, ch, moveTouch, moveCommit, subject); err != nil {
		return err
	}

	printer.Success("Moved %s: %s → %s\n", entry.DisplayID, entry.State, target)
	if state == ticket.StateDone {
		printer.Info("  done is terminal; %s can no longer change state\n", entry.DisplayID)
	} else {
		next := workflow.AllowedTargets(state)
		parts := make([]string, len(next))
		for i, s := range next {
			parts[i] = string(s)
		}
		printer.Info("  next: %s\n", strings.Join(parts, ", "))
	}
	return nil
}
