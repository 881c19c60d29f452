package checker

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/jonathan/preflight/internal/logging"
	"github.com/jonathan/preflight/internal/plugins"
	"github.com/jonathan/preflight/internal/types"
)

// PluginSource lists check plugins in the order they run.
type PluginSource interface {
	All() []plugins.Plugin
}

// Runner runs the applicable plugins against one field.
type Runner struct {
	plugins PluginSource
	logger  *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(source PluginSource, logger *zap.Logger) *Runner {
	return &Runner{plugins: source, logger: logging.OrNop(logger)}
}

// Run tests field against every enabled plugin and aggregates the
// outcomes. Fields without a value, or whose editor kind is not testable
// in set, get an empty result. Plugins that fail contribute nothing.
func (r *Runner) Run(ctx context.Context, docID int, field types.TestableField, set *types.SettingsSet, fromSave bool) types.FieldResult {
	result := types.FieldResult{
		Name:    field.Name,
		Label:   field.Label,
		Culture: set.Culture,
		Plugins: []types.CheckOutcome{},
	}
	if field.IsEmpty() || !Testable(field, set) {
		return result
	}

	for _, p := range r.plugins.All() {
		if ctx.Err() != nil {
			break
		}
		tab := set.ForTab(p.Name())
		if !applies(p, tab, field, fromSave) {
			continue
		}

		outcome, err := r.invoke(ctx, p, docID, field, set)
		if err != nil {
			r.logger.Warn("check plugin failed",
				zap.String("plugin", p.ID()),
				zap.String("label", field.Label),
				zap.Int("doc_id", docID),
				zap.String("culture", set.Culture),
				zap.Error(err))
			pluginOutcomes.WithLabelValues(p.ID(), "error").Inc()
			continue
		}
		if outcome == nil {
			continue
		}

		o := *outcome
		if o.Plugin == "" {
			o.Plugin = p.ID()
		}
		if o.Name == "" {
			o.Name = p.Name()
		}
		o.SortOrder = p.SortOrder()
		o.Normalize()
		pluginOutcomes.WithLabelValues(p.ID(), outcomeLabel(o.Failed)).Inc()
		result.Plugins = append(result.Plugins, o)
	}

	slices.SortStableFunc(result.Plugins, func(a, b types.CheckOutcome) int {
		return a.SortOrder - b.SortOrder
	})
	Aggregate(&result)
	return result
}

// Testable reports whether the field's editor kind, and its parent kind
// when it came from a composite field, are in the testable properties.
func Testable(field types.TestableField, set *types.SettingsSet) bool {
	kinds := types.ParseEditorKinds(set.Value(types.SettingPropertiesToTest))
	if !slices.Contains(kinds, field.Editor) {
		return false
	}
	return field.ParentEditor == "" || slices.Contains(kinds, field.ParentEditor)
}

// applies decides whether p runs for field. A plugin restricted to some
// editor kinds matches on the parent kind for fields extracted from a
// composite, otherwise on the field's own kind.
func applies(p plugins.Plugin, tab []types.Setting, field types.TestableField, fromSave bool) bool {
	if !p.IsEnabled(tab) {
		return false
	}
	if p.IsSaveOnly(tab) && !fromSave {
		return false
	}
	restricted := p.RestrictedKinds(tab)
	if len(restricted) == 0 {
		return true
	}
	kind := field.Editor
	if field.ParentEditor != "" {
		kind = field.ParentEditor
	}
	return slices.Contains(restricted, kind)
}

func (r *Runner) invoke(ctx context.Context, p plugins.Plugin, docID int, field types.TestableField, set *types.SettingsSet) (outcome *types.CheckOutcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = nil
			err = &PluginError{Plugin: p.ID(), Label: field.Label, Cause: fmt.Errorf("panic: %v", rec)}
		}
	}()

	outcome, err = p.Check(ctx, docID, field.Value, set)
	if err != nil {
		return nil, &PluginError{Plugin: p.ID(), Label: field.Label, Cause: err}
	}
	return outcome, nil
}

// Aggregate recomputes the field level totals from the outcomes.
func Aggregate(result *types.FieldResult) {
	result.Failed = false
	result.FailedCount = 0
	result.TotalTests = 0
	for _, o := range result.Plugins {
		if o.Failed {
			result.Failed = true
			result.FailedCount += o.FailedCount
		}
		result.TotalTests += o.TotalTests
	}
}
