package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tkforge/tk/internal/policy"
	"github.com/tkforge/tk/internal/printer"
	"github.com/tkforge/tk/internal/validate"
)

var validateTier string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the whole ticket repository",
	Long: `Validates every ticket file and the persisted index under a policy tier.

Tier precedence: --tier, then the TK_POLICY_TIER environment variable, then
policy_tier in tk.yml, then the integrity default. Integrity defects (parse
failures) fail in every tier; quality and strict categories escalate with
the tier.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateTier, "tier", "", "Policy tier (integrity, warn, quality, opt-in, strict, hard)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	profile, err := policy.Resolve(validateTier, os.Getenv, ws.cfg.PolicyTier)
	if err != nil {
		return printer.Error(
			"Error: invalid policy tier",
			err.Error(),
			nil,
		)
	}

	files, err := ws.parseAll()
	if err != nil {
		return printer.Error("Error: failed to read tickets", err.Error(), nil)
	}
	persisted, err := loadIndexBytes()
	if err != nil {
		return printer.Error("Error: failed to read index", err.Error(), nil)
	}

	report := validate.Repository(files, persisted, ws.cfg.Workflow, profile)

	for _, f := range report.Findings {
		printer.Finding(string(f.Level), f.File, f.Message)
	}

	if report.Failed() {
		return printer.Error(
			fmt.Sprintf("Error: validation failed (tier: %s)", report.Tier),
			fmt.Sprintf("%d finding(s), see above.", len(report.Findings)),
			nil,
		)
	}
	if n := report.Warnings(); n > 0 {
		printer.Warning("%d warning(s) (tier: %s)\n", n, report.Tier)
		return nil
	}
	printer.Success("All checks passed (tier: %s)\n", report.Tier)
	return nil
}
