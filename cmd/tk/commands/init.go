package commands

import (
	"github.com/spf13/cobra"

	"github.com/tkforge/tk/internal/config"
	"github.com/tkforge/tk/internal/git"
	"github.com/tkforge/tk/internal/index"
	"github.com/tkforge/tk/internal/printer"
	"github.com/tkforge/tk/internal/scaffold"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize ticket tracking in the current Git repository",
	Long: `Creates the tk project structure at the Git repository root:

  tk.yml       repository configuration
  tickets/     ticket directory
  index.json   empty derived index

Must be run from the root of a Git repository.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Replace an existing tk.yml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	checker := git.NewChecker()
	if err := checker.ValidateGitContext(); err != nil {
		return printer.Error(
			"Error: invalid Git context",
			err.Error(),
			nil,
		)
	}

	if err := scaffold.Initialize(forceInit); err != nil {
		return printer.Error(
			"Error: initialization failed",
			err.Error(),
			nil,
		)
	}

	printer.Success("Created %s\n", config.FileName)
	printer.Success("Created %s/\n", config.DefaultDir)
	printer.Success("Created %s\n", index.FileName)
	printer.Info("\nCreate your first ticket with 'tk new \"<title>\"'\n")
	return nil
}
