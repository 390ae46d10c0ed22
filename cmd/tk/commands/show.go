package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tkforge/tk/internal/printer"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a ticket file",
	Long: `Prints the raw ticket file for the resolved id.

Interactively, the id may be a unique id prefix or a unique title fragment.
Under CI only the exact full id resolves.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	entry, err := ws.resolveEntry(args[0])
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(entry.Path)
	if err != nil {
		return printer.Error(
			"Error: failed to read ticket",
			err.Error(),
			[]string{"Run 'tk rebuild' if the index references a deleted file"},
		)
	}

	printer.Info("%s  %s\n\n", entry.DisplayID, entry.Path)
	printer.Printf("%s", string(raw))
	return nil
}
