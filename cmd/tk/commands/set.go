package commands

import (
	"github.com/spf13/cobra"

	"github.com/tkforge/tk/internal/git"
	"github.com/tkforge/tk/internal/patch"
	"github.com/tkforge/tk/internal/printer"
	"github.com/tkforge/tk/internal/ticket"
)

var (
	setState         string
	setPriority      string
	setTitle         string
	setLabels        []string
	setLabelAdd      []string
	setLabelRemove   []string
	setClearLabels   bool
	setAssignee      string
	setClearAssignee bool
	setReviewer      string
	setClearReviewer bool
	setTouch         bool
	setCommit        bool
)

var setCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Edit ticket fields",
	Long: `Applies a typed change to one ticket and mirrors it into the index.

Label flags are mutually exclusive across modes: --labels replaces the whole
set, --label-add/--label-remove edit it, --clear-labels empties it. When a
label appears in both --label-add and --label-remove it ends up present.`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

func init() {
	setCmd.Flags().StringVarP(&setState, "state", "s", "", "New workflow state")
	setCmd.Flags().StringVarP(&setPriority, "priority", "p", "", "New priority (p0..p3)")
	setCmd.Flags().StringVarP(&setTitle, "title", "t", "", "New title")
	setCmd.Flags().StringArrayVar(&setLabels, "labels", nil, "Replace the label set (repeatable)")
	setCmd.Flags().StringArrayVar(&setLabelAdd, "label-add", nil, "Add a label (repeatable)")
	setCmd.Flags().StringArrayVar(&setLabelRemove, "label-remove", nil, "Remove a label (repeatable)")
	setCmd.Flags().BoolVar(&setClearLabels, "clear-labels", false, "Remove all labels")
	setCmd.Flags().StringVarP(&setAssignee, "assignee", "a", "", "Set the assignee actor ref")
	setCmd.Flags().BoolVar(&setClearAssignee, "clear-assignee", false, "Clear the assignee")
	setCmd.Flags().StringVarP(&setReviewer, "reviewer", "r", "", "Set the reviewer actor ref")
	setCmd.Flags().BoolVar(&setClearReviewer, "clear-reviewer", false, "Clear the reviewer")
	setCmd.Flags().BoolVar(&setTouch, "touch", false, "Stamp the updated timestamp")
	setCmd.Flags().BoolVar(&setCommit, "commit", false, "Commit the ticket and index together")
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	if setAssignee != "" && setClearAssignee {
		return printer.Error("Error: conflicting flags", "--assignee and --clear-assignee are mutually exclusive.", nil)
	}
	if setReviewer != "" && setClearReviewer {
		return printer.Error("Error: conflicting flags", "--reviewer and --clear-reviewer are mutually exclusive.", nil)
	}

	ch := &patch.Change{
		LabelsAdd:    setLabelAdd,
		LabelsRemove: setLabelRemove,
		ClearLabels:  setClearLabels,
	}
	if setState != "" {
		s := ticket.State(setState)
		ch.State = &s
	}
	if setPriority != "" {
		p := ticket.Priority(setPriority)
		ch.Priority = &p
	}
	if setTitle != "" {
		ch.Title = &setTitle
	}
	// Changed distinguishes an explicit empty replacement from no replacement.
	if cmd.Flags().Changed("labels") {
		ch.LabelsReplace = setLabels
		if ch.LabelsReplace == nil {
			ch.LabelsReplace = []string{}
		}
	}
	switch {
	case setClearAssignee:
		ch.Assignee = patch.Clear()
	case setAssignee != "":
		ch.Assignee = patch.Set(setAssignee)
	}
	switch {
	case setClearReviewer:
		ch.Reviewer = patch.Clear()
	case setReviewer != "":
		ch.Reviewer = patch.Set(setReviewer)
	}

	if ch.IsEmpty() && !setTouch {
		return printer.Error(
			"Error: nothing to change",
			"No field flags were given.",
			[]string{"Run 'tk set --help' to see the available field flags"},
		)
	}

	entry, err := ws.resolveEntry(args[0])
	if err != nil {
		return err
	}

	subject := git.CommitSubject("set", entry.DisplayID, "")
	if err := applyChange(ws, entry, ch, setTouch, setCommit, subject); err != nil {
		return err
	}

	printer.Success("Updated %s\n", entry.DisplayID)
	return nil
}
