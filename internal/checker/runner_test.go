package checker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/preflight/internal/plugins"
	"github.com/jonathan/preflight/internal/types"
)

type pluginList []plugins.Plugin

func (l pluginList) All() []plugins.Plugin { return l }

func settingsSet(pairs ...string) *types.SettingsSet {
	set := &types.SettingsSet{Culture: "en-US"}
	for i := 0; i+1 < len(pairs); i += 2 {
		set.Settings = append(set.Settings, types.Setting{Alias: pairs[i], Value: pairs[i+1]})
	}
	return set
}

func TestTestable(t *testing.T) {
	set := settingsSet(types.SettingPropertiesToTest, "plaintext,nested")

	tests := []struct {
		name  string
		field types.TestableField
		want  bool
	}{
		{"own kind tested", types.TestableField{Editor: types.EditorPlainText}, true},
		{"own kind not tested", types.TestableField{Editor: types.EditorRichText}, false},
		{"parent tested", types.TestableField{Editor: types.EditorPlainText, ParentEditor: types.EditorNested}, true},
		{"parent not tested", types.TestableField{Editor: types.EditorPlainText, ParentEditor: types.EditorGrid}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Testable(tt.field, set))
		})
	}
}

func TestRunner_RestrictedKinds(t *testing.T) {
	rich := newFake("rich", 1, false, "richtext,nested", passing)
	runner := NewRunner(pluginList{rich}, nil)
	set := settingsSet(types.SettingPropertiesToTest, types.EditorKindsCSV())

	tests := []struct {
		name  string
		field types.TestableField
		want  int
	}{
		{"matching kind", types.TestableField{Label: "Body", Value: "x", Editor: types.EditorRichText}, 1},
		{"other kind", types.TestableField{Label: "Title", Value: "x", Editor: types.EditorPlainText}, 0},
		{"matching parent", types.TestableField{Label: "Items", Value: "x", Editor: types.EditorPlainText, ParentEditor: types.EditorNested}, 1},
		{"other parent", types.TestableField{Label: "Grid", Value: "x", Editor: types.EditorRichText, ParentEditor: types.EditorGrid}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runner.Run(context.Background(), 1, tt.field, set, false)
			assert.Len(t, result.Plugins, tt.want)
		})
	}
}

func TestRunner_DisabledPlugin(t *testing.T) {
	p := newFake("spelling", 1, false, "", alwaysFails)
	runner := NewRunner(pluginList{p}, nil)
	set := settingsSet(types.SettingPropertiesToTest, "plaintext")
	set.Settings = append(set.Settings, types.Setting{Alias: "spellingEnabled", Tab: "spelling", Value: "0"})

	result := runner.Run(context.Background(), 1, types.TestableField{Label: "Title", Value: "x", Editor: types.EditorPlainText}, set, true)
	assert.Empty(t, result.Plugins)
	assert.False(t, result.Failed)
	assert.Equal(t, 0, p.Calls())
}

func TestRunner_EmptyField(t *testing.T) {
	p := newFake("any", 1, false, "", alwaysFails)
	runner := NewRunner(pluginList{p}, nil)

	result := runner.Run(context.Background(), 1, types.TestableField{Label: "Title", Editor: types.EditorPlainText},
		settingsSet(types.SettingPropertiesToTest, "plaintext"), true)
	assert.NotNil(t, result.Plugins)
	assert.Empty(t, result.Plugins)
	assert.Equal(t, 0, p.Calls())
}

func TestRunner_NormalizesOutcomes(t *testing.T) {
	p := newFake("strict", 1, false, "", alwaysFails)
	runner := NewRunner(pluginList{p}, nil)

	result := runner.Run(context.Background(), 1, types.TestableField{Label: "Title", Value: "x", Editor: types.EditorPlainText},
		settingsSet(types.SettingPropertiesToTest, "plaintext"), false)
	require.Len(t, result.Plugins, 1)
	outcome := result.Plugins[0]
	assert.Equal(t, "strict", outcome.Plugin)
	assert.Equal(t, "strict", outcome.Name)
	assert.True(t, outcome.Failed)
	assert.Equal(t, 1, outcome.FailedCount)
	assert.True(t, result.Failed)
}

func TestRunner_PassingOutcomeWithFailureCount(t *testing.T) {
	lenient := newFake("lenient", 1, false, "", func(string) (*types.CheckOutcome, error) {
		return &types.CheckOutcome{FailedCount: 2, TotalTests: 2}, nil
	})
	runner := NewRunner(pluginList{lenient}, nil)

	result := runner.Run(context.Background(), 1, types.TestableField{Label: "Title", Value: "x", Editor: types.EditorPlainText},
		settingsSet(types.SettingPropertiesToTest, "plaintext"), false)
	require.Len(t, result.Plugins, 1)
	assert.False(t, result.Plugins[0].Failed)
	assert.Equal(t, 0, result.Plugins[0].FailedCount)
	assert.False(t, result.Failed)
	assert.Equal(t, 0, result.FailedCount)
	assert.Equal(t, 2, result.TotalTests)
}

func TestRunner_CancelledContext(t *testing.T) {
	p := newFake("any", 1, false, "", passing)
	runner := NewRunner(pluginList{p}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := runner.Run(ctx, 1, types.TestableField{Label: "Title", Value: "x", Editor: types.EditorPlainText},
		settingsSet(types.SettingPropertiesToTest, "plaintext"), false)
	assert.Empty(t, result.Plugins)
	assert.Equal(t, 0, p.Calls())
}

func TestRunner_PluginError(t *testing.T) {
	cause := errors.New("dictionary unavailable")
	p := newFake("spelling", 1, false, "", func(string) (*types.CheckOutcome, error) { return nil, cause })
	runner := NewRunner(pluginList{p}, nil)

	_, err := runner.invoke(context.Background(), p, 1, types.TestableField{Label: "Title"}, settingsSet())
	var pluginErr *PluginError
	require.ErrorAs(t, err, &pluginErr)
	assert.Equal(t, "spelling", pluginErr.Plugin)
	assert.ErrorIs(t, err, cause)
}

func TestAggregate(t *testing.T) {
	result := types.FieldResult{Plugins: []types.CheckOutcome{
		{Failed: true, FailedCount: 2, TotalTests: 3},
		{TotalTests: 1},
		{Failed: true, FailedCount: 1, TotalTests: 1},
	}}
	Aggregate(&result)
	assert.True(t, result.Failed)
	assert.Equal(t, 3, result.FailedCount)
	assert.Equal(t, 5, result.TotalTests)

	passed := types.FieldResult{Failed: true, Plugins: []types.CheckOutcome{{TotalTests: 4}, {FailedCount: 2, TotalTests: 2}}}
	Aggregate(&passed)
	assert.False(t, passed.Failed)
	assert.Equal(t, 0, passed.FailedCount)
	assert.Equal(t, 6, passed.TotalTests)
}
