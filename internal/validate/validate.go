// Package validate is the whole-repository validation entry point. It
// collects every per-file and cross-file defect before reporting, so a
// single run surfaces the complete defect list.
package validate

import (
	"errors"
	"time"

	"github.com/tkforge/tk/internal/index"
	"github.com/tkforge/tk/internal/policy"
	"github.com/tkforge/tk/internal/ticket"
)

// Categories group findings by the policy knob that enforces them.
const (
	CategoryIntegrity = "integrity"
	CategoryQuality   = "quality"
	CategoryStrict    = "strict"
)

// Finding is one defect, already resolved to its enforcement level.
type Finding struct {
	File     string
	Category string
	Level    policy.Level
	Message  string
}

// Report is the aggregated outcome of one validation run.
type Report struct {
	Tier     string
	Findings []Finding
}

// Failed reports whether any finding is at fail level.
func (r *Report) Failed() bool {
	for _, f := range r.Findings {
		if f.Level == policy.LevelFail {
			return true
		}
	}
	return false
}

// Warnings counts warn-level findings.
func (r *Report) Warnings() int {
	n := 0
	for _, f := range r.Findings {
		if f.Level == policy.LevelWarn {
			n++
		}
	}
	return n
}

// Repository validates parsed files and the persisted index under the given
// tier profile.
//
// Integrity findings are structural/schema parse defects; quality findings
// are a stale index and missing created timestamps; strict findings are
// in_progress tickets without an assignee and done tickets without a
// reviewer. Categories at level off are skipped entirely.
func Repository(files []index.File, persistedIndex []byte, workflowTag string, profile policy.Profile) *Report {
	report := &Report{Tier: profile.Name}
	add := func(file, category string, level policy.Level, message string) {
		if level == policy.LevelOff {
			return
		}
		report.Findings = append(report.Findings, Finding{File: file, Category: category, Level: level, Message: message})
	}

	for _, f := range files {
		if f.Err == nil {
			continue
		}
		var schemaErr *ticket.SchemaError
		if errors.As(f.Err, &schemaErr) {
			for _, issue := range schemaErr.Issues {
				add(f.Filename, CategoryIntegrity, profile.Integrity, issue.String())
			}
			continue
		}
		var structErr *ticket.StructuralError
		if errors.As(f.Err, &structErr) {
			add(f.Filename, CategoryIntegrity, profile.Integrity, structErr.Message)
			continue
		}
		add(f.Filename, CategoryIntegrity, profile.Integrity, f.Err.Error())
	}

	valid := index.Valid(files)

	if profile.Quality != policy.LevelOff {
		computed := index.Generate(valid, workflowTag, time.Now())
		if index.IsStale(persistedIndex, computed) {
			add(index.FileName, CategoryQuality, profile.Quality, "index is stale; run 'tk rebuild'")
		}
		for _, f := range valid {
			if f.Doc.Created == "" {
				add(f.Filename, CategoryQuality, profile.Quality, "missing created timestamp")
			}
		}
	}

	if profile.Strict != policy.LevelOff {
		for _, f := range valid {
			if f.Doc.State == ticket.StateInProgress && f.Doc.Assignee == "" {
				add(f.Filename, CategoryStrict, profile.Strict, "in_progress ticket has no assignee")
			}
			if f.Doc.State == ticket.StateDone && f.Doc.Reviewer == "" {
				add(f.Filename, CategoryStrict, profile.Strict, "done ticket has no reviewer")
			}
		}
	}

	return report
}
