package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tkforge/tk/internal/config"
	"github.com/tkforge/tk/internal/git"
	"github.com/tkforge/tk/internal/index"
	"github.com/tkforge/tk/internal/printer"
	"github.com/tkforge/tk/internal/resolver"
)

// workspace is the loaded project context every command after init needs:
// the validated configuration plus the git checker for auto-commits.
type workspace struct {
	cfg     *config.TkConfig
	checker *git.Checker
}

// openWorkspace validates the git context and loads tk.yml. Commands call
// this first so every failure mode has one consistent message.
func openWorkspace() (*workspace, error) {
	checker := git.NewChecker()
	if err := checker.ValidateGitContext(); err != nil {
		return nil, printer.Error(
			"Error: invalid Git context",
			err.Error(),
			nil,
		)
	}

	cfg, err := config.Load(config.FileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, printer.Error(
				"Error: not a tk project",
				fmt.Sprintf("%s not found in the current directory.", config.FileName),
				[]string{"Run 'tk init' to set up ticket tracking in this repository"},
			)
		}
		return nil, printer.Error(
			"Error: invalid configuration",
			err.Error(),
			[]string{fmt.Sprintf("Fix %s and try again", config.FileName)},
		)
	}

	return &workspace{cfg: cfg, checker: checker}, nil
}

// readSources reads every .md file in the ticket directory. Paths recorded in
// the index are repository-relative with forward slashes.
func (ws *workspace) readSources() ([]index.SourceFile, error) {
	entries, err := os.ReadDir(ws.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read ticket directory %s: %w", ws.cfg.Dir, err)
	}

	var sources []index.SourceFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(ws.cfg.Dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		sources = append(sources, index.SourceFile{
			Filename: entry.Name(),
			Path:     filepath.ToSlash(path),
			Raw:      string(raw),
		})
	}
	return sources, nil
}

// parseAll reads and parses every ticket file.
func (ws *workspace) parseAll() ([]index.File, error) {
	sources, err := ws.readSources()
	if err != nil {
		return nil, err
	}
	return index.ParseAll(sources), nil
}

// computeIndex derives the index from the current ticket files. Files that
// fail to parse make the whole computation fail with the full defect list.
func (ws *workspace) computeIndex() (*index.Index, error) {
	files, err := ws.parseAll()
	if err != nil {
		return nil, err
	}
	if errs := index.Errors(files); len(errs) > 0 {
		return nil, parseFailure(errs)
	}
	return index.Generate(files, ws.cfg.Workflow, time.Now()), nil
}

// parseFailure bundles every parse defect into one error, so a run over a
// broken repository reports everything at once.
func parseFailure(errs []error) error {
	lines := make([]string, 0, len(errs))
	for _, err := range errs {
		lines = append(lines, "  "+err.Error())
	}
	return printer.Error(
		fmt.Sprintf("Error: %d ticket file(s) failed to parse", len(errs)),
		strings.Join(lines, "\n"),
		[]string{"Fix the files above and re-run the command"},
	)
}

// loadIndexBytes reads the persisted index. Missing file returns nil bytes
// and no error; callers treat that as stale.
func loadIndexBytes() ([]byte, error) {
	raw, err := os.ReadFile(index.FileName)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", index.FileName, err)
	}
	return raw, nil
}

// writeIndexBytes persists the encoded index at the repository root.
func writeIndexBytes(data []byte) error {
	if err := os.WriteFile(index.FileName, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", index.FileName, err)
	}
	return nil
}

// writeIndex encodes and persists the index.
func writeIndex(idx *index.Index) error {
	data, err := index.Encode(idx)
	if err != nil {
		return err
	}
	return writeIndexBytes(data)
}

// isCI reports whether tk runs under CI. CI resolution is exact-match only.
func isCI() bool {
	return os.Getenv("CI") != ""
}

// resolveEntry resolves a user-supplied id fragment against the current
// index. The persisted index is used when present so resolution matches what
// 'tk list' showed; a missing index falls back to an in-memory rebuild.
func (ws *workspace) resolveEntry(query string) (index.Entry, error) {
	var idx *index.Index
	raw, err := loadIndexBytes()
	if err != nil {
		return index.Entry{}, err
	}
	if raw != nil {
		idx, err = index.Decode(raw)
		if err != nil {
			printer.Warning("%s is unreadable, rebuilding in memory\n", index.FileName)
			idx = nil
		}
	}
	if idx == nil {
		idx, err = ws.computeIndex()
		if err != nil {
			return index.Entry{}, err
		}
	}

	entry, err := resolver.Resolve(idx, query, isCI())
	if err != nil {
		if ambErr, ok := err.(*resolver.AmbiguousError); ok {
			return index.Entry{}, printer.Error(
				fmt.Sprintf("Error: ambiguous id '%s'", query),
				resolver.FormatAmbiguousError(ambErr),
				nil,
			)
		}
		suggestions := []string{"Run 'tk list' to see all tickets"}
		if isCI() {
			suggestions = []string{"CI mode requires the exact full id (prefix and title matching are disabled)"}
		}
		return index.Entry{}, printer.Error(
			fmt.Sprintf("Error: no ticket found matching '%s'", query),
			"The id, id prefix, or title fragment did not resolve to a ticket.",
			suggestions,
		)
	}
	return entry, nil
}

// sortedLabels renders a label slice for table output.
func sortedLabels(labels []string) string {
	out := make([]string, len(labels))
	copy(out, labels)
	sort.Strings(out)
	return strings.Join(out, ",")
}
