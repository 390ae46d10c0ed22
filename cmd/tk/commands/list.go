package commands

import (
	"encoding/json"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tkforge/tk/internal/filter"
	"github.com/tkforge/tk/internal/index"
	"github.com/tkforge/tk/internal/printer"
	"github.com/tkforge/tk/internal/timespec"
)

var (
	listState    string
	listPriority string
	listLabel    string
	listAssignee string
	listSince    string
	listUntil    string
	listJSON     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickets",
	Long: `Lists tickets in canonical index order: state, then priority, then id.

The listing is computed from the ticket files, so it is always current; a
warning is printed when the persisted index.json has drifted.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listState, "state", "s", "", "Filter by workflow state")
	listCmd.Flags().StringVarP(&listPriority, "priority", "p", "", "Filter by priority")
	listCmd.Flags().StringVarP(&listLabel, "label", "l", "", "Filter by label")
	listCmd.Flags().StringVarP(&listAssignee, "assignee", "a", "", "Filter by assignee actor ref")
	listCmd.Flags().StringVar(&listSince, "since", "", "Created at or after (duration like '24h' or RFC3339)")
	listCmd.Flags().StringVar(&listUntil, "until", "", "Created before (duration like '24h' or RFC3339)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output entries as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	since, until, err := timespec.ParseRange(listSince, listUntil)
	if err != nil {
		return printer.Error("Error: invalid time filter", err.Error(), nil)
	}

	computed, err := ws.computeIndex()
	if err != nil {
		return err
	}

	persisted, err := loadIndexBytes()
	if err != nil {
		return printer.Error("Error: failed to read index", err.Error(), nil)
	}
	if index.IsStale(persisted, computed) {
		printer.Warning("%s is stale; run 'tk rebuild'\n", index.FileName)
	}

	criteria := filter.Criteria{
		State:    listState,
		Priority: listPriority,
		Label:    listLabel,
		Assignee: listAssignee,
		Since:    since,
		Until:    until,
	}
	entries := criteria.Apply(computed.Tickets)

	if listJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return printer.Error("Error: failed to encode entries", err.Error(), nil)
		}
		printer.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		if criteria.HasFilters() {
			printer.Info("No tickets match the given filters.\n")
		} else {
			printer.Info("No tickets yet. Create one with 'tk new \"<title>\"'\n")
		}
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "State", "Pri", "Title", "Labels", "Assignee"})
	table.SetBorder(false)
	table.SetColumnSeparator("  ")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, e := range entries {
		table.Append([]string{
			e.DisplayID,
			string(e.State),
			string(e.Priority),
			e.Title,
			sortedLabels(e.Labels),
			e.Assignee,
		})
	}
	table.Render()

	printer.Printf("\n%d ticket(s)\n", len(entries))
	return nil
}
