package ticket

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Render re-serializes a document: frontmatter with a stable key order, then
// the body verbatim. Known keys come first in canonical order; unknown keys
// follow, sorted alphabetically. A parse/render round trip with no field
// mutated reproduces the input, so unrelated fields never reorder and diffs
// stay minimal. The one normalization: the closing fence is always
// newline-terminated, so a file that ended mid-line gains a final newline on
// its first rewrite and is stable from then on.
func Render(doc *Document) (string, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}

	appendPair(mapping, "id", plainScalar(doc.ID))
	appendPair(mapping, "title", strScalar(doc.Title))
	appendPair(mapping, "state", plainScalar(string(doc.State)))
	appendPair(mapping, "priority", plainScalar(string(doc.Priority)))
	appendPair(mapping, "labels", labelsNode(doc.Labels))
	if doc.Created != "" {
		appendPair(mapping, "created", plainScalar(doc.Created))
	}
	if doc.Updated != "" {
		appendPair(mapping, "updated", plainScalar(doc.Updated))
	}
	if doc.Assignee != "" {
		appendPair(mapping, "assignee", plainScalar(doc.Assignee))
	}
	if doc.Reviewer != "" {
		appendPair(mapping, "reviewer", plainScalar(doc.Reviewer))
	}
	if doc.QA != nil || len(doc.XTicketExtra) > 0 {
		appendPair(mapping, "x_ticket", xTicketNode(doc))
	}
	for _, f := range sortedExtras(doc.Extra) {
		appendPair(mapping, f.Key, f.Node)
	}

	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapping); err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	buf.WriteString(fence + "\n")
	buf.WriteString(doc.Body)
	return buf.String(), nil
}

func xTicketNode(doc *Document) *yaml.Node {
	x := &yaml.Node{Kind: yaml.MappingNode}
	if qa := doc.QA; qa != nil {
		m := &yaml.Node{Kind: yaml.MappingNode}
		appendPair(m, "required", boolScalar(qa.Required))
		if qa.Status != QAUnset {
			appendPair(m, "status", plainScalar(string(qa.Status)))
		}
		if qa.StatusReason != "" {
			appendPair(m, "status_reason", strScalar(qa.StatusReason))
		}
		if qa.Environment != "" {
			appendPair(m, "environment", strScalar(qa.Environment))
		}
		for _, f := range sortedExtras(qa.Extra) {
			appendPair(m, f.Key, f.Node)
		}
		appendPair(x, "qa", m)
	}
	for _, f := range sortedExtras(doc.XTicketExtra) {
		appendPair(x, f.Key, f.Node)
	}
	return x
}

func labelsNode(labels []string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, l := range labels {
		seq.Content = append(seq.Content, strScalar(l))
	}
	return seq
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, plainScalar(key), value)
}

// plainScalar is for values whose plain rendering cannot resolve to another
// YAML type (ids, enums, timestamps, actor refs).
func plainScalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

// strScalar is for free text; the !!str tag makes the encoder quote values
// that would otherwise parse as a different type.
func strScalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func boolScalar(v bool) *yaml.Node {
	value := "false"
	if v {
		value = "true"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: value}
}

func sortedExtras(extras []ExtraField) []ExtraField {
	if len(extras) < 2 {
		return extras
	}
	out := make([]ExtraField, len(extras))
	copy(out, extras)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
