package extract

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jonathan/preflight/internal/content"
	"github.com/jonathan/preflight/internal/types"
)

// gridValue yields one field per text cell of a grid layout. Cells are
// labelled "{label} ({row name} - {editor name})". Rows may appear at any
// depth of the layout.
func (p *pass) gridValue(label, value string, yield func(types.TestableField) bool) (bool, error) {
	var root any
	if err := json.Unmarshal([]byte(value), &root); err != nil {
		return true, &MalformedValueError{Label: label, Editor: types.EditorGrid, Cause: err}
	}
	if _, ok := root.(map[string]any); !ok {
		return true, &MalformedValueError{
			Label:  label,
			Editor: types.EditorGrid,
			Cause:  fmt.Errorf("grid value is not an object"),
		}
	}

	for _, row := range collectRows(root, nil) {
		rowName, _ := row["name"].(string)
		for _, control := range collectControls(row, nil) {
			field, ok := p.gridCell(label, rowName, control)
			if !ok {
				continue
			}
			if !yield(field) {
				return false, nil
			}
		}
	}
	return true, nil
}

func (p *pass) gridCell(label, rowName string, control map[string]any) (types.TestableField, bool) {
	editor, _ := control["editor"].(map[string]any)
	alias, _ := editor["alias"].(string)

	cfg, ok := p.grid.GridEditor(alias)
	if !ok {
		p.logger.Debug("skipping grid cell with unknown editor",
			zap.String("label", label),
			zap.String("editor", alias))
		return types.TestableField{}, false
	}
	kind, ok := cfg.Kind()
	if !ok {
		return types.TestableField{}, false
	}

	value, err := content.Stringify(control["value"])
	if err != nil {
		p.logger.Warn("unreadable grid cell value",
			zap.String("label", label),
			zap.String("editor", alias),
			zap.Error(err))
		value = ""
	}

	return types.TestableField{
		Name:         cfg.Name,
		Label:        fmt.Sprintf("%s (%s - %s)", label, rowName, cfg.Name),
		Value:        value,
		Editor:       kind,
		ParentEditor: types.EditorGrid,
	}, true
}

// collectRows returns every row object found under a "rows" key, in
// document order. Map keys are visited in sorted order so the result is
// deterministic.
func collectRows(node any, rows []map[string]any) []map[string]any {
	switch v := node.(type) {
	case map[string]any:
		for _, key := range sortedKeys(v) {
			child := v[key]
			if key == "rows" {
				if list, ok := child.([]any); ok {
					for _, item := range list {
						if row, ok := item.(map[string]any); ok {
							rows = append(rows, row)
							rows = collectRows(row, rows)
						}
					}
					continue
				}
			}
			rows = collectRows(child, rows)
		}
	case []any:
		for _, item := range v {
			rows = collectRows(item, rows)
		}
	}
	return rows
}

// collectControls returns the cell objects (objects with an "editor" key)
// inside one row, without descending into nested rows.
func collectControls(node any, controls []map[string]any) []map[string]any {
	switch v := node.(type) {
	case map[string]any:
		if _, ok := v["editor"].(map[string]any); ok {
			return append(controls, v)
		}
		for _, key := range sortedKeys(v) {
			if key == "rows" {
				continue
			}
			controls = collectControls(v[key], controls)
		}
	case []any:
		for _, item := range v {
			controls = collectControls(item, controls)
		}
	}
	return controls
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
