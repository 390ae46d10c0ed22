package commands

import (
	"os"
	"time"

	"github.com/tkforge/tk/internal/index"
	"github.com/tkforge/tk/internal/patch"
	"github.com/tkforge/tk/internal/printer"
	"github.com/tkforge/tk/internal/ticket"
	"github.com/tkforge/tk/internal/workflow"
)

// applyChange runs one ticket mutation end to end: patch the ticket text,
// patch the index the same way, write both, optionally commit both in one
// commit. The ticket file is authoritative; the index is patched from the
// persisted bytes when possible and rebuilt otherwise.
func applyChange(ws *workspace, entry index.Entry, ch *patch.Change, touch bool, commit bool, subject string) error {
	doCommit := commit || ws.cfg.AutoCommit
	if doCommit {
		if err := ws.checker.EnsureClean(); err != nil {
			return printer.Error("Error: cannot auto-commit", err.Error(), nil)
		}
	}

	raw, err := os.ReadFile(entry.Path)
	if err != nil {
		return printer.Error("Error: failed to read ticket", err.Error(), nil)
	}

	newText, err := patch.TicketText(string(raw), ch)
	if err != nil {
		if workflow.IsInvalidTransition(err) {
			return printer.Error(
				"Error: invalid transition",
				err.Error(),
				[]string{"Run 'tk show " + entry.DisplayID + "' to see the current state"},
			)
		}
		return printer.Error("Error: patch rejected", err.Error(), nil)
	}

	if touch {
		newText, err = stampUpdated(newText, time.Now())
		if err != nil {
			return printer.Error("Error: failed to stamp updated", err.Error(), nil)
		}
	}

	if err := os.WriteFile(entry.Path, []byte(newText), 0644); err != nil {
		return printer.Error("Error: failed to write ticket", err.Error(), nil)
	}

	if err := updateIndex(ws, entry.ID, ch); err != nil {
		return err
	}

	if doCommit {
		if err := ws.checker.Commit([]string{entry.Path, index.FileName}, subject); err != nil {
			return printer.Error("Error: commit failed", err.Error(), nil)
		}
	}
	return nil
}

// stampUpdated sets the updated timestamp on already-patched ticket text.
func stampUpdated(text string, now time.Time) (string, error) {
	doc, err := ticket.Parse(text, "", "")
	if err != nil {
		return "", err
	}
	doc.Updated = now.UTC().Format(time.RFC3339)
	return ticket.Render(doc)
}

// updateIndex applies the change to the persisted index, falling back to a
// full rebuild when the index is missing or unreadable.
func updateIndex(ws *workspace, id string, ch *patch.Change) error {
	raw, err := loadIndexBytes()
	if err != nil {
		return printer.Error("Error: failed to read index", err.Error(), nil)
	}
	if raw != nil {
		patched, err := patch.IndexText(raw, id, ch, time.Now())
		if err == nil {
			if werr := writeIndexBytes(patched); werr != nil {
				return printer.Error("Error: failed to write index", werr.Error(), nil)
			}
			return nil
		}
		if !patch.IsNotFound(err) {
			return printer.Error("Error: failed to patch index", err.Error(), nil)
		}
		// The ticket is missing from the persisted index; fall through to a
		// rebuild from the (already updated) files.
	}

	idx, err := ws.computeIndex()
	if err != nil {
		return err
	}
	if err := writeIndex(idx); err != nil {
		return printer.Error("Error: failed to write index", err.Error(), nil)
	}
	return nil
}
