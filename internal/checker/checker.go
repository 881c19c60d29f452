// Package checker orchestrates check runs: it resolves settings, extracts
// the testable fields of a document, runs the plugins against each field
// and streams the results to a ResultSink.
package checker

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/preflight/internal/content"
	"github.com/jonathan/preflight/internal/logging"
	"github.com/jonathan/preflight/internal/settings"
	"github.com/jonathan/preflight/internal/types"
)

// ContentSource loads documents by id.
type ContentSource interface {
	Document(ctx context.Context, id int) (*content.Document, error)
}

// SettingsResolver resolves the settings of a culture.
type SettingsResolver interface {
	Resolve(ctx context.Context, culture string, allowFallback bool) (*types.SettingsSet, error)
	NormalizeCulture(culture string) string
}

// FieldExtractor yields the testable fields of documents and raw values.
type FieldExtractor interface {
	Extract(ctx context.Context, doc *content.Document, culture string) iter.Seq[types.TestableField]
	ExtractValue(ctx context.Context, name, value string, editor types.EditorKind) iter.Seq[types.TestableField]
}

// PartialField is the current value of one changed field, identified by
// its top-level label.
type PartialField struct {
	Label  string           `json:"label" validate:"required"`
	Value  string           `json:"value"`
	Editor types.EditorKind `json:"editor" validate:"required"`
}

// Config holds the collaborators of a Checker.
type Config struct {
	Content   ContentSource
	Settings  SettingsResolver
	Extractor FieldExtractor
	Plugins   PluginSource
	// Parallelism bounds how many fields are checked at once. Values
	// below 2 check fields one at a time.
	Parallelism int
	// AllowFallback lets runs use a fallback culture's settings.
	AllowFallback bool
	Logger        *zap.Logger
	// NewRunID overrides run id generation.
	NewRunID func() string
}

// Checker runs full and partial checks.
type Checker struct {
	content       ContentSource
	settings      SettingsResolver
	extractor     FieldExtractor
	runner        *Runner
	parallelism   int
	allowFallback bool
	newRunID      func() string
	logger        *zap.Logger
}

// New creates a Checker.
func New(cfg Config) *Checker {
	logger := logging.OrNop(cfg.Logger)
	newRunID := cfg.NewRunID
	if newRunID == nil {
		newRunID = func() string { return uuid.NewString() }
	}
	return &Checker{
		content:       cfg.Content,
		settings:      cfg.Settings,
		extractor:     cfg.Extractor,
		runner:        NewRunner(cfg.Plugins, logger),
		parallelism:   max(cfg.Parallelism, 1),
		allowFallback: cfg.AllowFallback,
		newRunID:      newRunID,
		logger:        logger,
	}
}

// Runner returns the field runner used by the checker.
func (c *Checker) Runner() *Runner {
	return c.runner
}

// run is the state of one check run.
type run struct {
	id       string
	docID    int
	culture  string
	mode     string
	fromSave bool
	started  time.Time
	sink     ResultSink
	logger   *zap.Logger

	mu        sync.Mutex
	anyFailed bool
	fields    []indexedResult
}

type indexedResult struct {
	index  int
	result types.FieldResult
}

func (c *Checker) newRun(docID int, culture, mode string, fromSave bool, sink ResultSink) *run {
	if sink == nil {
		sink = Discard
	}
	id := c.newRunID()
	return &run{
		id:       id,
		docID:    docID,
		culture:  culture,
		mode:     mode,
		fromSave: fromSave,
		started:  time.Now(),
		sink:     sink,
		logger: c.logger.With(
			zap.String("run_id", id),
			zap.Int("doc_id", docID),
			zap.String("culture", culture)),
	}
}

func (r *run) emit(event types.Event) {
	event.RunID = r.id
	event.DocID = r.docID
	event.Culture = r.culture
	if err := r.sink.Emit(event); err != nil {
		r.logger.Debug("result sink rejected event",
			zap.String("kind", string(event.Kind)),
			zap.Error(err))
	}
}

// complete emits the single completion event of the run.
func (r *run) complete(failed bool, message string) {
	r.emit(types.Event{Kind: types.EventComplete, Failed: failed, Message: message})
	runsTotal.WithLabelValues(r.mode, outcomeLabel(failed)).Inc()
	runDuration.WithLabelValues(r.mode).Observe(time.Since(r.started).Seconds())
}

// CheckDocument checks every testable field of document id for culture.
// Each field produces one fieldResult or remove event as soon as it is
// known, followed by exactly one complete event.
//
// When no settings exist for the culture, or every test is disabled, the
// run ends immediately with ConfigMissing. Errors are returned only for
// failures outside the run's control, such as a missing document; the
// complete event is still emitted.
func (c *Checker) CheckDocument(ctx context.Context, id int, culture string, fromSave bool, sink ResultSink) (RunResult, error) {
	culture = c.settings.NormalizeCulture(culture)
	r := c.newRun(id, culture, "full", fromSave, sink)

	set, missing, err := c.prepare(ctx, r)
	if missing != nil || err != nil {
		return missing, err
	}

	doc, err := c.content.Document(ctx, id)
	if err != nil {
		r.complete(true, fmt.Sprintf("Could not load document %d", id))
		return nil, fmt.Errorf("failed to load document %d: %w", id, err)
	}

	if allowed := set.CSV(types.SettingDocumentTypesToTest); len(allowed) > 0 && !slices.Contains(allowed, doc.ContentType) {
		r.logger.Debug("content type is not tested", zap.String("content_type", doc.ContentType))
		r.complete(false, "")
		return Completed{RunID: r.id, Fields: []types.FieldResult{}}, nil
	}

	return c.execute(ctx, r, set, c.extractor.Extract(ctx, doc, culture)), nil
}

// CheckPartial checks only the given fields of document docID, trusting
// the caller's values. Composite values are expanded like in a full run.
// Partial runs are never save runs.
func (c *Checker) CheckPartial(ctx context.Context, docID int, culture string, fields []PartialField, sink ResultSink) (RunResult, error) {
	culture = c.settings.NormalizeCulture(culture)
	r := c.newRun(docID, culture, "partial", false, sink)

	set, missing, err := c.prepare(ctx, r)
	if missing != nil || err != nil {
		return missing, err
	}

	seq := func(yield func(types.TestableField) bool) {
		for _, f := range fields {
			for field := range c.extractor.ExtractValue(ctx, f.Label, f.Value, f.Editor) {
				if !yield(field) {
					return
				}
			}
		}
	}
	return c.execute(ctx, r, set, seq), nil
}

// prepare resolves the run's settings. When the run cannot proceed it
// emits the completion event and returns either ConfigMissing or an error.
func (c *Checker) prepare(ctx context.Context, r *run) (*types.SettingsSet, RunResult, error) {
	set, err := c.settings.Resolve(ctx, r.culture, c.allowFallback)
	switch {
	case errors.Is(err, settings.ErrNotFound):
		message := err.Error()
		if set != nil && set.Message != "" {
			message = set.Message
		}
		r.complete(true, message)
		return nil, ConfigMissing{RunID: r.id, Reason: message}, nil
	case err != nil:
		r.complete(true, "Could not load settings")
		return nil, nil, fmt.Errorf("failed to resolve settings for %s: %w", r.culture, err)
	case !set.HasSettings():
		message := set.Message
		if message == "" {
			message = fmt.Sprintf("No settings exist for %s", r.culture)
		}
		r.complete(true, message)
		return nil, ConfigMissing{RunID: r.id, Reason: message}, nil
	case set.Bool(types.SettingDisableAllTests):
		r.complete(true, DisabledMessage)
		return nil, ConfigMissing{RunID: r.id, Reason: DisabledMessage}, nil
	}
	return set, nil, nil
}

// execute drains fields through the runner and emits one event per field.
// Field checks may run concurrently; emission is serialized and the
// complete event follows every field event.
func (c *Checker) execute(ctx context.Context, r *run, set *types.SettingsSet, fields iter.Seq[types.TestableField]) Completed {
	g := new(errgroup.Group)
	g.SetLimit(c.parallelism)

	index := 0
	for field := range fields {
		i := index
		index++
		if c.parallelism == 1 {
			c.handle(ctx, r, set, i, field)
			continue
		}
		g.Go(func() error {
			c.handle(ctx, r, set, i, field)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(r.fields, func(a, b indexedResult) int { return a.index - b.index })
	results := make([]types.FieldResult, len(r.fields))
	for i, f := range r.fields {
		results[i] = f.result
	}

	r.complete(r.anyFailed, "")
	r.logger.Debug("check run complete",
		zap.String("mode", r.mode),
		zap.Int("fields", index),
		zap.Bool("failed", r.anyFailed))
	return Completed{RunID: r.id, AnyFailed: r.anyFailed, Fields: results}
}

func (c *Checker) handle(ctx context.Context, r *run, set *types.SettingsSet, index int, field types.TestableField) {
	if field.IsEmpty() {
		fieldsChecked.WithLabelValues("removed").Inc()
		r.mu.Lock()
		defer r.mu.Unlock()
		r.emit(types.Event{Kind: types.EventRemove, Name: field.Name, Label: field.Label})
		return
	}

	result := c.runner.Run(ctx, r.docID, field, set, r.fromSave)
	result.Culture = r.culture
	fieldsChecked.WithLabelValues(outcomeLabel(result.Failed)).Inc()

	r.mu.Lock()
	defer r.mu.Unlock()
	if result.Failed {
		r.anyFailed = true
	}
	r.fields = append(r.fields, indexedResult{index: index, result: result})
	r.emit(types.Event{
		Kind:   types.EventFieldResult,
		Name:   result.Name,
		Label:  result.Label,
		Result: &result,
	})
}
