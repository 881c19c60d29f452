// Package types provides type definitions for structured data used throughout the preflight system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "slices"

// EditorKind identifies the editor a content field is edited with.
type EditorKind string

// Known editor kinds. Only these are ever extracted for testing.
const (
	EditorPlainText     EditorKind = "plaintext"
	EditorMultilineText EditorKind = "multilinetext"
	EditorRichText      EditorKind = "richtext"
	EditorNested        EditorKind = "nested"
	EditorGrid          EditorKind = "grid"
)

// AllEditorKinds lists every testable editor kind in display order.
var AllEditorKinds = []EditorKind{
	EditorPlainText,
	EditorMultilineText,
	EditorRichText,
	EditorNested,
	EditorGrid,
}

// IsKnown reports whether k is one of the testable editor kinds.
func (k EditorKind) IsKnown() bool {
	return slices.Contains(AllEditorKinds, k)
}

// IsComposite reports whether values of this kind contain nested sub-fields.
func (k EditorKind) IsComposite() bool {
	return k == EditorNested || k == EditorGrid
}

// EditorKindsCSV returns all known editor kinds as a comma separated list.
func EditorKindsCSV() string {
	parts := make([]string, len(AllEditorKinds))
	for i, k := range AllEditorKinds {
		parts[i] = string(k)
	}
	return JoinCSV(parts)
}

// ParseEditorKinds decodes a csv value into editor kinds, dropping unknown entries.
func ParseEditorKinds(csv string) []EditorKind {
	var kinds []EditorKind
	for _, part := range SplitCSV(csv) {
		k := EditorKind(part)
		if k.IsKnown() && !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// GridViewKind maps a grid editor view to the matching editor kind.
// Views that carry no testable text return false.
func GridViewKind(view string) (EditorKind, bool) {
	switch view {
	case "rte":
		return EditorRichText, true
	case "textstring":
		return EditorPlainText, true
	case "textarea":
		return EditorMultilineText, true
	default:
		return "", false
	}
}
