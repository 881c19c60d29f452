// Package content models the CMS documents, content types, languages and
// grid editors that preflight reads, and provides a YAML backed site
// definition implementing every lookup the checker needs.
package content

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonathan/preflight/internal/types"
)

// ErrDocumentNotFound is returned when a document id does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// PropertyValue is one culture's value of a property. An empty culture is
// the invariant value shared by all cultures.
type PropertyValue struct {
	Culture   string `json:"culture,omitempty" yaml:"culture"`
	Published any    `json:"published,omitempty" yaml:"published"`
	Edited    any    `json:"edited,omitempty" yaml:"edited"`
}

// Property is one field of a document.
type Property struct {
	Alias  string           `json:"alias" yaml:"alias"`
	Name   string           `json:"name" yaml:"name"`
	Editor types.EditorKind `json:"editor" yaml:"editor"`
	Values []PropertyValue  `json:"values" yaml:"values"`
}

// Document is a CMS content item. Properties are in tab order, then field order.
type Document struct {
	ID          int        `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	ContentType string     `json:"contentType" yaml:"contentType"`
	Properties  []Property `json:"properties" yaml:"properties"`
}

// Cultures returns the distinct cultures that carry values on the document,
// in order of first appearance. Invariant-only documents return nil.
func (d *Document) Cultures() []string {
	seen := make(map[string]bool)
	var cultures []string
	for _, p := range d.Properties {
		for _, v := range p.Values {
			if v.Culture != "" && !seen[v.Culture] {
				seen[v.Culture] = true
				cultures = append(cultures, v.Culture)
			}
		}
	}
	return cultures
}

// Editors returns the distinct editor kinds used by the document's properties.
func (d *Document) Editors() []types.EditorKind {
	seen := make(map[types.EditorKind]bool)
	var kinds []types.EditorKind
	for _, p := range d.Properties {
		if !seen[p.Editor] {
			seen[p.Editor] = true
			kinds = append(kinds, p.Editor)
		}
	}
	return kinds
}

// Value resolves the property's value for culture. The exact culture wins
// over the invariant value; the published representation wins over the
// edited one. A property with nothing to show returns "".
func (p *Property) Value(culture string) (string, error) {
	var match *PropertyValue
	for i := range p.Values {
		v := &p.Values[i]
		if v.Culture == culture {
			match = v
			break
		}
		if v.Culture == "" && match == nil {
			match = v
		}
	}
	if match == nil {
		return "", nil
	}

	if s, err := Stringify(match.Published); err != nil || s != "" {
		return s, err
	}
	return Stringify(match.Edited)
}

// Stringify renders a raw property value as the string the checker tests.
// Structured values (nested items, grid layouts) are rendered as JSON.
func Stringify(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.RawMessage:
		return string(val), nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		data, err := json.Marshal(normalizeYAML(val))
		if err != nil {
			return "", fmt.Errorf("failed to render property value: %w", err)
		}
		return string(data), nil
	}
}

// normalizeYAML converts map[any]any trees produced by some YAML decoders
// into JSON encodable map[string]any trees.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}

// PropertyType is a field declaration on a content type.
type PropertyType struct {
	Alias  string           `json:"alias" yaml:"alias"`
	Name   string           `json:"name" yaml:"name"`
	Editor types.EditorKind `json:"editor" yaml:"editor"`
}

// ContentType declares the fields of a document or nested item type.
type ContentType struct {
	Alias      string         `json:"alias" yaml:"alias"`
	Name       string         `json:"name" yaml:"name"`
	Properties []PropertyType `json:"properties" yaml:"properties"`
}

// TestableProperties returns the property types whose editor is testable.
func (c *ContentType) TestableProperties() []PropertyType {
	var out []PropertyType
	for _, p := range c.Properties {
		if p.Editor.IsKnown() {
			out = append(out, p)
		}
	}
	return out
}

// Property returns the property type with alias.
func (c *ContentType) Property(alias string) (PropertyType, bool) {
	for _, p := range c.Properties {
		if p.Alias == alias {
			return p, true
		}
	}
	return PropertyType{}, false
}

// GridEditor is the configuration of one grid cell editor.
type GridEditor struct {
	Alias string `json:"alias" yaml:"alias"`
	Name  string `json:"name" yaml:"name"`
	View  string `json:"view" yaml:"view"`
}

// Kind maps the editor's view to an editor kind; false when the view holds no text.
func (g GridEditor) Kind() (types.EditorKind, bool) {
	return types.GridViewKind(g.View)
}

// Language is a configured culture with an optional fallback culture.
type Language struct {
	Culture  string `json:"culture" yaml:"culture"`
	Name     string `json:"name" yaml:"name"`
	Default  bool   `json:"default,omitempty" yaml:"default"`
	Fallback string `json:"fallback,omitempty" yaml:"fallback"`
}
