package commands

import (
	"github.com/spf13/cobra"

	"github.com/tkforge/tk/internal/index"
	"github.com/tkforge/tk/internal/printer"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from the ticket files",
	Long: `Regenerates index.json from the ticket files.

The index is a disposable projection: the rebuild is deterministic, and two
rebuilds over the same files differ only in generated_at. If any ticket file
fails to parse, the rebuild fails with the full defect list and the persisted
index is left untouched.`,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	idx, err := ws.computeIndex()
	if err != nil {
		return err
	}
	if err := writeIndex(idx); err != nil {
		return printer.Error("Error: failed to write index", err.Error(), nil)
	}

	printer.Success("Rebuilt %s (%d tickets)\n", index.FileName, len(idx.Tickets))
	return nil
}
