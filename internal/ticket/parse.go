package ticket

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// bom is the UTF-8 byte order mark, tolerated before the opening fence.
const bom = "\uFEFF"

// Parse parses one ticket document: YAML frontmatter between `---` fences,
// then an opaque Markdown body.
//
// Structural defects (missing fences, tabs in the YAML block, YAML that does
// not parse) are fatal: the first one found is returned as a StructuralError
// and no further checks run. Once the YAML parses, every schema defect in the
// document is collected and returned together as one SchemaError.
//
// filename is used only for error attribution. If expectedID is non-empty, a
// parsed id that differs from it (case-insensitively) is a schema defect.
func Parse(raw, filename, expectedID string) (*Document, error) {
	content := strings.TrimPrefix(raw, bom)

	nl := strings.IndexByte(content, '\n')
	if nl < 0 || trimCR(content[:nl]) != fence {
		return nil, &StructuralError{
			File:    filename,
			Code:    CodeMissingOpenFence,
			Message: "document must begin with a `---` frontmatter fence",
		}
	}

	block, body, ok := splitFrontmatter(content[nl+1:])
	if !ok {
		return nil, &StructuralError{
			File:    filename,
			Code:    CodeMissingCloseFence,
			Message: "frontmatter is missing its closing `---` fence",
		}
	}

	if strings.ContainsRune(block, '\t') {
		return nil, &StructuralError{
			File:    filename,
			Code:    CodeTabInFrontmatter,
			Message: "frontmatter must not contain tab characters",
		}
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(block), &root); err != nil {
		return nil, &StructuralError{
			File:    filename,
			Code:    CodeYAMLParse,
			Message: fmt.Sprintf("frontmatter is not valid YAML: %v", err),
		}
	}

	doc := &Document{Body: body}
	issues := decodeMapping(&root, doc, expectedID)
	if len(issues) > 0 {
		return nil, &SchemaError{File: filename, Issues: issues}
	}
	return doc, nil
}

// splitFrontmatter scans the text after the opening fence for the closing
// fence line. Returns the YAML block (newline-terminated lines) and the body
// bytes after the closing fence, verbatim.
func splitFrontmatter(rest string) (block, body string, ok bool) {
	offset := 0
	for {
		lineEnd := strings.IndexByte(rest[offset:], '\n')
		var line string
		last := lineEnd < 0
		if last {
			line = rest[offset:]
		} else {
			line = rest[offset : offset+lineEnd]
		}

		if trimCR(line) == fence {
			block = rest[:offset]
			if last {
				return block, "", true
			}
			return block, rest[offset+lineEnd+1:], true
		}
		if last {
			return "", "", false
		}
		offset += lineEnd + 1
	}
}

func trimCR(s string) string {
	return strings.TrimSuffix(s, "\r")
}

// requiredKeys are the frontmatter keys every ticket must carry.
var requiredKeys = []string{"id", "title", "state", "priority", "labels"}

func decodeMapping(root *yaml.Node, doc *Document, expectedID string) []Issue {
	var issues []Issue
	add := func(code, field, format string, args ...any) {
		issues = append(issues, Issue{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	var mapping *yaml.Node
	if len(root.Content) > 0 {
		mapping = root.Content[0]
	}
	if mapping != nil && mapping.Kind != yaml.MappingNode {
		add(CodeNotAMapping, "", "frontmatter must be a YAML mapping")
		return issues
	}

	seen := make(map[string]bool)
	if mapping != nil {
		for i := 0; i+1 < len(mapping.Content); i += 2 {
			key := mapping.Content[i].Value
			val := mapping.Content[i+1]
			seen[key] = true

			switch key {
			case "id":
				id, ok := scalarValue(val)
				if !ok || id == "" {
					add(CodeEmptyValue, "id", "id must be a non-empty string")
					continue
				}
				if err := ValidateID(id); err != nil {
					add(CodeInvalidID, "id", "%v", err)
					continue
				}
				doc.ID = NormalizeID(id)
				if expectedID != "" && doc.ID != NormalizeID(expectedID) {
					add(CodeIDMismatch, "id", "id %s does not match filename stem %s", doc.ID, expectedID)
				}

			case "title":
				title, ok := scalarValue(val)
				title = strings.TrimSpace(title)
				if !ok || title == "" {
					add(CodeEmptyValue, "title", "title must be a non-empty string")
					continue
				}
				doc.Title = title

			case "state":
				s, ok := scalarValue(val)
				if !ok || !IsValidState(s) {
					add(CodeInvalidEnum, "state", "invalid state %q (valid: %s)", val.Value, joinStates())
					continue
				}
				doc.State = State(s)

			case "priority":
				p, ok := scalarValue(val)
				if !ok || !IsValidPriority(p) {
					add(CodeInvalidEnum, "priority", "invalid priority %q (valid: p0, p1, p2, p3)", val.Value)
					continue
				}
				doc.Priority = Priority(p)

			case "labels":
				labels, ok := stringSequence(val)
				if !ok {
					add(CodeInvalidLabels, "labels", "labels must be an array of strings")
					continue
				}
				doc.Labels = NormalizeLabels(labels)

			case "created":
				if ts, issue := decodeTimestamp(val, "created"); issue != nil {
					issues = append(issues, *issue)
				} else {
					doc.Created = ts
				}

			case "updated":
				if ts, issue := decodeTimestamp(val, "updated"); issue != nil {
					issues = append(issues, *issue)
				} else {
					doc.Updated = ts
				}

			case "assignee":
				if ref, issue := decodeActorRef(val, "assignee"); issue != nil {
					issues = append(issues, *issue)
				} else {
					doc.Assignee = ref
				}

			case "reviewer":
				if ref, issue := decodeActorRef(val, "reviewer"); issue != nil {
					issues = append(issues, *issue)
				} else {
					doc.Reviewer = ref
				}

			case "x_ticket":
				issues = append(issues, decodeXTicket(val, doc)...)

			default:
				doc.Extra = append(doc.Extra, ExtraField{Key: key, Node: val})
			}
		}
	}

	for _, key := range requiredKeys {
		if !seen[key] {
			add(CodeMissingKey, key, "required key %q is missing", key)
		}
	}

	// QA cross-field rules need the outer state, so they run after the
	// whole mapping has been decoded.
	if doc.QA != nil {
		issues = append(issues, validateQACrossFields(doc)...)
	}

	return issues
}

func decodeXTicket(node *yaml.Node, doc *Document) []Issue {
	if node.Kind != yaml.MappingNode {
		return []Issue{{Code: CodeWrongType, Field: "x_ticket", Message: "x_ticket must be a mapping"}}
	}
	var issues []Issue
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		if key != "qa" {
			doc.XTicketExtra = append(doc.XTicketExtra, ExtraField{Key: key, Node: val})
			continue
		}
		qa, qaIssues := decodeQA(val)
		issues = append(issues, qaIssues...)
		if len(qaIssues) == 0 {
			doc.QA = qa
		}
	}
	return issues
}

func decodeQA(node *yaml.Node) (*QAInfo, []Issue) {
	if node.Kind != yaml.MappingNode {
		return nil, []Issue{{Code: CodeInvalidQA, Field: "x_ticket.qa", Message: "qa must be a mapping"}}
	}
	qa := &QAInfo{}
	var issues []Issue
	add := func(field, format string, args ...any) {
		issues = append(issues, Issue{Code: CodeInvalidQA, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		switch key {
		case "required":
			if val.Kind != yaml.ScalarNode || val.Tag != "!!bool" {
				add("x_ticket.qa.required", "required must be a boolean")
				continue
			}
			qa.Required = val.Value == "true"
		case "status":
			s, ok := scalarValue(val)
			if !ok || !IsValidQAStatus(s) {
				add("x_ticket.qa.status", "invalid qa status %q (valid: pending_impl, ready_for_qa, qa_failed, qa_passed)", val.Value)
				continue
			}
			qa.Status = QAStatus(s)
		case "status_reason":
			s, _ := scalarValue(val)
			qa.StatusReason = s
		case "environment":
			s, _ := scalarValue(val)
			qa.Environment = s
		default:
			qa.Extra = append(qa.Extra, ExtraField{Key: key, Node: val})
		}
	}
	return qa, issues
}

// validateQACrossFields enforces the rules that only apply when qa.required
// is true.
func validateQACrossFields(doc *Document) []Issue {
	qa := doc.QA
	if !qa.Required {
		return nil
	}
	var issues []Issue
	add := func(field, msg string) {
		issues = append(issues, Issue{Code: CodeInvalidQA, Field: field, Message: msg})
	}

	if qa.Status == QAUnset {
		add("x_ticket.qa.status", "status is required when qa.required is true")
		return issues
	}
	if qa.Status == QAFailed && qa.StatusReason == "" {
		add("x_ticket.qa.status_reason", "status_reason is required when status is qa_failed")
	}
	if (qa.Status == QAReadyForQA || qa.Status == QAPassed) && qa.Environment == "" {
		add("x_ticket.qa.environment", "environment is required when status is "+string(qa.Status))
	}
	if doc.State == StateDone && qa.Status != QAPassed {
		add("x_ticket.qa.status", "a done ticket with required QA must have status qa_passed")
	}
	return issues
}

func decodeTimestamp(node *yaml.Node, field string) (string, *Issue) {
	s, ok := scalarValue(node)
	if !ok || s == "" {
		return "", &Issue{Code: CodeInvalidTime, Field: field, Message: field + " must be an ISO-8601 timestamp"}
	}
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		return "", &Issue{Code: CodeInvalidTime, Field: field, Message: fmt.Sprintf("%s is not a valid ISO-8601 timestamp: %q", field, s)}
	}
	return s, nil
}

func decodeActorRef(node *yaml.Node, field string) (string, *Issue) {
	s, ok := scalarValue(node)
	if !ok {
		return "", &Issue{Code: CodeInvalidActorRef, Field: field, Message: field + " must be a string"}
	}
	if err := ValidateActorRef(s); err != nil {
		return "", &Issue{Code: CodeInvalidActorRef, Field: field, Message: err.Error()}
	}
	return s, nil
}

// scalarValue returns the string value of a scalar node. Null nodes and
// collections report false.
func scalarValue(node *yaml.Node) (string, bool) {
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return "", false
	}
	return node.Value, true
}

func stringSequence(node *yaml.Node) ([]string, bool) {
	if node.Kind != yaml.SequenceNode {
		return nil, false
	}
	out := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		s, ok := scalarValue(item)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func joinStates() string {
	parts := make([]string, len(States))
	for i, s := range States {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
