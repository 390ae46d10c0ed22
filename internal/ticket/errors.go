package ticket

import (
	"errors"
	"fmt"
	"strings"
)

// Machine-readable error codes. Every parse defect carries exactly one of
// these so callers can branch without string matching.
const (
	// Structural codes (fatal: parsing of the document stops).
	CodeMissingOpenFence  = "missing_open_fence"
	CodeMissingCloseFence = "missing_close_fence"
	CodeTabInFrontmatter  = "tab_in_frontmatter"
	CodeYAMLParse         = "yaml_parse"

	// Schema codes (aggregated: all defects in one document are reported together).
	CodeNotAMapping     = "not_a_mapping"
	CodeMissingKey      = "missing_key"
	CodeEmptyValue      = "empty_value"
	CodeWrongType       = "wrong_type"
	CodeInvalidEnum     = "invalid_enum"
	CodeInvalidID       = "invalid_id"
	CodeIDMismatch      = "id_mismatch"
	CodeInvalidLabels   = "invalid_labels"
	CodeInvalidActorRef = "invalid_actor_ref"
	CodeInvalidTime     = "invalid_timestamp"
	CodeInvalidQA       = "invalid_qa"
)

// Issue is a single schema defect within one document.
type Issue struct {
	Code    string
	Field   string
	Message string
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// StructuralError is a fatal defect in the document's framing. Exactly one
// cause is reported and no further checks run.
type StructuralError struct {
	File    string
	Code    string
	Message string
}

func (e *StructuralError) Error() string {
	if e.File == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// SchemaError aggregates every schema defect found in one document.
type SchemaError struct {
	File   string
	Issues []Issue
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	prefix := ""
	if e.File != "" {
		prefix = e.File + ": "
	}
	return fmt.Sprintf("%s%d validation error(s): %s", prefix, len(e.Issues), strings.Join(parts, "; "))
}

// IsStructuralError reports whether err is a StructuralError.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// IsSchemaError reports whether err is a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
