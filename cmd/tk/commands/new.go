package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tkforge/tk/internal/git"
	"github.com/tkforge/tk/internal/index"
	"github.com/tkforge/tk/internal/printer"
	"github.com/tkforge/tk/internal/ticket"
)

var (
	newPriority string
	newLabels   []string
	newAssignee string
	newCommit   bool
)

var newCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a new ticket",
	Long: `Creates a new ticket file in the backlog state with a freshly generated id,
then rebuilds the index so the ticket shows up in 'tk list' immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func init() {
	newCmd.Flags().StringVarP(&newPriority, "priority", "p", string(ticket.PriorityP2), "Priority (p0..p3)")
	newCmd.Flags().StringArrayVarP(&newLabels, "label", "l", nil, "Label to attach (repeatable)")
	newCmd.Flags().StringVarP(&newAssignee, "assignee", "a", "", "Assignee actor ref (human:<slug> or agent:<slug>)")
	newCmd.Flags().BoolVar(&newCommit, "commit", false, "Commit the new ticket and index together")
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(args[0])
	if title == "" {
		return printer.Error(
			"Error: empty title",
			"A ticket needs a non-empty title.",
			nil,
		)
	}

	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	if !ticket.IsValidPriority(newPriority) {
		return printer.Error(
			fmt.Sprintf("Error: invalid priority %q", newPriority),
			"Priority must be one of p0, p1, p2, p3.",
			nil,
		)
	}

	assignee := strings.ToLower(strings.TrimSpace(newAssignee))
	if assignee != "" {
		if err := ticket.ValidateActorRef(assignee); err != nil {
			return printer.Error(
				"Error: invalid assignee",
				err.Error(),
				[]string{"Use the form human:<slug> or agent:<slug>, e.g. human:sam"},
			)
		}
	}

	doCommit := newCommit || ws.cfg.AutoCommit
	if doCommit {
		if err := ws.checker.EnsureClean(); err != nil {
			return printer.Error("Error: cannot auto-commit", err.Error(), nil)
		}
	}

	doc := &ticket.Document{
		ID:       ticket.NewID(),
		Title:    title,
		State:    ticket.StateBacklog,
		Priority: ticket.Priority(newPriority),
		Labels:   ticket.NormalizeLabels(newLabels),
		Created:  time.Now().UTC().Format(time.RFC3339),
		Assignee: assignee,
	}

	text, err := ticket.Render(doc)
	if err != nil {
		return printer.Error("Error: failed to render ticket", err.Error(), nil)
	}

	path := filepath.Join(ws.cfg.Dir, doc.ID+".md")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return printer.Error(
			"Error: failed to write ticket",
			err.Error(),
			nil,
		)
	}

	idx, err := ws.computeIndex()
	if err != nil {
		return err
	}
	if err := writeIndex(idx); err != nil {
		return printer.Error("Error: failed to write index", err.Error(), nil)
	}

	if doCommit {
		subject := git.CommitSubject("new", ticket.DisplayID(doc.ID), fmt.Sprintf("%q", title))
		if err := ws.checker.Commit([]string{path, index.FileName}, subject); err != nil {
			return printer.Error("Error: commit failed", err.Error(), nil)
		}
	}

	printer.Success("Created %s (%s)\n", ticket.DisplayID(doc.ID), path)
	return nil
}
