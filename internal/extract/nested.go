package extract

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/preflight/internal/content"
	"github.com/jonathan/preflight/internal/types"
)

// Keys that carry the item type of a nested item. The first present wins.
var nestedTypeKeys = []string{"ncContentTypeAlias", "alias"}

// nested yields the sub-fields of a nested item list. Each item is labelled
// "{label} (Item {n} - {field name})" with n counted from 1.
func (p *pass) nested(label, value string, yield func(types.TestableField) bool) (bool, error) {
	var items []map[string]any
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		return true, &MalformedValueError{Label: label, Editor: types.EditorNested, Cause: err}
	}

	for i, item := range items {
		index := i + 1
		typeAlias := nestedTypeAlias(item)
		ct, err := p.contentType(typeAlias)
		if err != nil {
			p.logger.Warn("skipping nested item with unknown type",
				zap.String("label", label),
				zap.Int("item", index),
				zap.String("type", typeAlias),
				zap.Error(err))
			continue
		}

		for _, prop := range ct.TestableProperties() {
			itemLabel := fmt.Sprintf("%s (Item %d - %s)", label, index, prop.Name)
			sub, err := content.Stringify(item[prop.Alias])
			if err != nil {
				p.logger.Warn("skipping unreadable nested value",
					zap.String("label", itemLabel),
					zap.Error(err))
				continue
			}
			if sub == "" || !prop.Editor.IsComposite() {
				field := types.TestableField{
					Name:         prop.Name,
					Label:        itemLabel,
					Value:        sub,
					Editor:       prop.Editor,
					ParentEditor: types.EditorNested,
				}
				if !yield(field) {
					return false, nil
				}
				continue
			}
			if !p.field(prop.Name, itemLabel, sub, prop.Editor, types.EditorNested, yield) {
				return false, nil
			}
		}
	}
	return true, nil
}

func nestedTypeAlias(item map[string]any) string {
	for _, key := range nestedTypeKeys {
		if s, ok := item[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func (p *pass) contentType(alias string) (*content.ContentType, error) {
	if alias == "" {
		return nil, fmt.Errorf("nested item has no type alias")
	}
	if ct, ok := p.typeCache[alias]; ok {
		return ct, nil
	}
	ct, err := p.types.ContentType(p.ctx, alias)
	if err != nil {
		return nil, err
	}
	p.typeCache[alias] = ct
	return ct, nil
}
