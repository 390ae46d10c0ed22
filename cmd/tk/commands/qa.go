package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tkforge/tk/internal/git"
	"github.com/tkforge/tk/internal/index"
	"github.com/tkforge/tk/internal/printer"
	"github.com/tkforge/tk/internal/ticket"
	"github.com/tkforge/tk/internal/workflow"
)

var (
	qaEnv    string
	qaReason string
	qaCommit bool
)

var qaCmd = &cobra.Command{
	Use:   "qa <id> <status>",
	Short: "Change a ticket's QA status",
	Long: `Changes the QA sub-status of an in_progress ticket.

Statuses: pending_impl, ready_for_qa, qa_failed, qa_passed.
ready_for_qa and qa_passed require --env; qa_failed requires --reason.`,
	Args: cobra.ExactArgs(2),
	RunE: runQA,
}

func init() {
	qaCmd.Flags().StringVar(&qaEnv, "env", "", "Environment the QA round runs against")
	qaCmd.Flags().StringVar(&qaReason, "reason", "", "Reason for a QA failure")
	qaCmd.Flags().BoolVar(&qaCommit, "commit", false, "Commit the ticket file")
	rootCmd.AddCommand(qaCmd)
}

func runQA(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	target := strings.TrimSpace(args[1])
	if !ticket.IsValidQAStatus(target) {
		return printer.Error(
			fmt.Sprintf("Error: invalid qa status %q", target),
			"Status must be one of pending_impl, ready_for_qa, qa_failed, qa_passed.",
			nil,
		)
	}

	entry, err := ws.resolveEntry(args[0])
	if err != nil {
		return err
	}

	doCommit := qaCommit || ws.cfg.AutoCommit
	if doCommit {
		if err := ws.checker.EnsureClean(); err != nil {
			return printer.Error("Error: cannot auto-commit", err.Error(), nil)
		}
	}

	raw, err := os.ReadFile(entry.Path)
	if err != nil {
		return printer.Error("Error: failed to read ticket", err.Error(), nil)
	}
	stem := strings.TrimSuffix(filepath.Base(entry.Path), ".md")
	doc, err := ticket.Parse(string(raw), filepath.Base(entry.Path), stem)
	if err != nil {
		return printer.Error("Error: ticket failed to parse", err.Error(), nil)
	}

	from := ticket.QAUnset
	if doc.QA != nil {
		from = doc.QA.Status
	}

	to := ticket.QAStatus(target)
	companion := workflow.QACompanion{Environment: qaEnv, Reason: qaReason}
	if err := workflow.ValidateQATransition(doc.State, from, to, companion); err != nil {
		return printer.Error(
			"Error: invalid QA transition",
			err.Error(),
			nil,
		)
	}

	if doc.QA == nil {
		doc.QA = &ticket.QAInfo{}
	}
	doc.QA.Status = to
	switch to {
	case ticket.QAReadyForQA, ticket.QAPassed:
		doc.QA.Environment = qaEnv
		doc.QA.StatusReason = ""
	case ticket.QAFailed:
		doc.QA.StatusReason = qaReason
	default:
		doc.QA.StatusReason = ""
	}

	text, err := ticket.Render(doc)
	if err != nil {
		return printer.Error("Error: failed to render ticket", err.Error(), nil)
	}
	if err := os.WriteFile(entry.Path, []byte(text), 0644); err != nil {
		return printer.Error("Error: failed to write ticket", err.Error(), nil)
	}

	if doCommit {
		subject := git.CommitSubject("qa", entry.DisplayID, target)
		if err := ws.checker.Commit([]string{entry.Path, index.FileName}, subject); err != nil {
			return printer.Error("Error: commit failed", err.Error(), nil)
		}
	}

	printer.Success("QA status of %s: %s\n", entry.DisplayID, target)
	return nil
}
