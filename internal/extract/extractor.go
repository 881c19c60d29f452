// Package extract walks content documents and yields the string values
// that check plugins test, descending into nested item lists and grid
// layouts.
package extract

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/jonathan/preflight/internal/content"
	"github.com/jonathan/preflight/internal/logging"
	"github.com/jonathan/preflight/internal/types"
)

// ContentTypeSource resolves the content types of nested items.
type ContentTypeSource interface {
	ContentType(ctx context.Context, alias string) (*content.ContentType, error)
}

// GridEditorRegistry resolves grid cell editors to their display name and kind.
type GridEditorRegistry interface {
	GridEditor(alias string) (content.GridEditor, bool)
}

// Extractor turns documents into TestableField sequences.
type Extractor struct {
	types  ContentTypeSource
	grid   GridEditorRegistry
	logger *zap.Logger
}

// New creates an Extractor.
func New(contentTypes ContentTypeSource, grid GridEditorRegistry, logger *zap.Logger) *Extractor {
	return &Extractor{
		types:  contentTypes,
		grid:   grid,
		logger: logging.OrNop(logger),
	}
}

// pass holds per-extraction state. Content type lookups are cached for the
// duration of one pass only.
type pass struct {
	*Extractor
	ctx       context.Context
	typeCache map[string]*content.ContentType
}

func (e *Extractor) newPass(ctx context.Context) *pass {
	return &pass{Extractor: e, ctx: ctx, typeCache: make(map[string]*content.ContentType)}
}

// Extract yields every testable field of doc for culture in document order.
// Fields without a value yield a zero-value marker. Composite values that
// cannot be parsed are logged and contribute nothing. The sequence is
// single-pass: it reads the document's current state when iterated.
func (e *Extractor) Extract(ctx context.Context, doc *content.Document, culture string) iter.Seq[types.TestableField] {
	return func(yield func(types.TestableField) bool) {
		p := e.newPass(ctx)
		for i := range doc.Properties {
			prop := &doc.Properties[i]
			if !prop.Editor.IsKnown() {
				continue
			}
			if ctx.Err() != nil {
				return
			}

			value, err := prop.Value(culture)
			if err != nil {
				e.logger.Error("failed to resolve property value",
					zap.Int("doc_id", doc.ID),
					zap.String("label", prop.Name),
					zap.String("culture", culture),
					zap.Error(err))
				continue
			}

			if !p.field(prop.Name, prop.Name, value, prop.Editor, "", yield) {
				return
			}
		}
	}
}

// ExtractValue yields the testable fields of a single raw value, expanding
// composite editors. It backs partial re-checks, where the caller supplies
// the current value of each changed field.
func (e *Extractor) ExtractValue(ctx context.Context, name, value string, editor types.EditorKind) iter.Seq[types.TestableField] {
	return func(yield func(types.TestableField) bool) {
		e.newPass(ctx).field(name, name, value, editor, "", yield)
	}
}

// field yields one field, or the sub-fields of a composite value. It
// returns false when the consumer stopped iterating.
func (p *pass) field(name, label, value string, editor, parent types.EditorKind, yield func(types.TestableField) bool) bool {
	if value == "" || !editor.IsComposite() {
		return yield(types.TestableField{
			Name:         name,
			Label:        label,
			Value:        value,
			Editor:       editor,
			ParentEditor: parent,
		})
	}

	var err error
	cont := true
	switch editor {
	case types.EditorNested:
		cont, err = p.nested(label, value, yield)
	case types.EditorGrid:
		cont, err = p.gridValue(label, value, yield)
	}
	if err != nil {
		p.logger.Error("skipping malformed composite value",
			zap.String("label", label),
			zap.String("editor", string(editor)),
			zap.Error(err))
	}
	return cont
}
