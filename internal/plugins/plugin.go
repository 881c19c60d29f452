// Package plugins defines the check plugin contract and the reference
// checks: readability, banned words, image alt text and broken links.
package plugins

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/preflight/internal/types"
)

// Plugin is one independently configurable check. Settings passed as tab
// are the entries of the plugin's own settings tab; Check receives the
// full resolved set. A nil outcome means the plugin had nothing to report.
type Plugin interface {
	ID() string
	Name() string
	Description() string
	SortOrder() int
	DeclaredSettings() []types.Setting
	IsEnabled(tab []types.Setting) bool
	IsSaveOnly(tab []types.Setting) bool
	RestrictedKinds(tab []types.Setting) []types.EditorKind
	Check(ctx context.Context, docID int, value string, set *types.SettingsSet) (*types.CheckOutcome, error)
}

// Setting alias suffixes shared by every plugin.
const (
	SuffixEnabled          = "Enabled"
	SuffixOnSaveOnly       = "OnSaveOnly"
	SuffixPropertiesToTest = "PropertiesToTest"
)

// Base implements the settings conventions of the reference plugins:
// "<id>Enabled", "<id>OnSaveOnly" and "<id>PropertiesToTest".
type Base struct {
	id          string
	name        string
	description string
	sortOrder   int
	defaults    []types.Setting
}

// NewBase describes a plugin. extra holds the plugin specific settings;
// the convention settings are prepended with the given defaults.
func NewBase(id, name, description string, sortOrder int, saveOnly bool, kinds string, extra ...types.Setting) Base {
	defaults := []types.Setting{
		{Alias: id + SuffixEnabled, Label: "Enabled", Value: "1", View: "boolean"},
		{Alias: id + SuffixOnSaveOnly, Label: "Run on save only", Value: types.FormatBool(saveOnly), View: "boolean"},
		{Alias: id + SuffixPropertiesToTest, Label: "Properties to test", Value: kinds, View: "multiplecheckbox"},
	}
	return Base{
		id:          id,
		name:        name,
		description: description,
		sortOrder:   sortOrder,
		defaults:    append(defaults, extra...),
	}
}

func (b Base) ID() string          { return b.id }
func (b Base) Name() string        { return b.name }
func (b Base) Description() string { return b.description }
func (b Base) SortOrder() int      { return b.sortOrder }

// DeclaredSettings returns a copy of the plugin's default settings.
func (b Base) DeclaredSettings() []types.Setting {
	return slices.Clone(b.defaults)
}

func (b Base) IsEnabled(tab []types.Setting) bool {
	return types.ParseBool(b.tabValue(tab, SuffixEnabled))
}

func (b Base) IsSaveOnly(tab []types.Setting) bool {
	return types.ParseBool(b.tabValue(tab, SuffixOnSaveOnly))
}

// RestrictedKinds returns nil when the plugin tests every kind.
func (b Base) RestrictedKinds(tab []types.Setting) []types.EditorKind {
	return types.ParseEditorKinds(b.tabValue(tab, SuffixPropertiesToTest))
}

func (b Base) tabValue(tab []types.Setting, suffix string) string {
	alias := b.id + suffix
	return types.SettingValue(tab, alias, types.SettingValue(b.defaults, alias, ""))
}

// value reads one of the plugin's settings from the full set, falling
// back to the declared default.
func (b Base) value(set *types.SettingsSet, alias string) string {
	if s, ok := set.Find(alias); ok {
		return s.Value
	}
	return types.SettingValue(b.defaults, alias, "")
}

func (b Base) intValue(set *types.SettingsSet, alias string) int {
	var v int
	if _, err := fmt.Sscanf(b.value(set, alias), "%d", &v); err != nil {
		return types.SettingInt(b.defaults, alias, 0)
	}
	return v
}

func (b Base) outcome(failedCount, totalTests int, result any) *types.CheckOutcome {
	o := &types.CheckOutcome{
		Plugin:      b.id,
		Name:        b.name,
		Failed:      failedCount > 0,
		FailedCount: failedCount,
		SortOrder:   b.sortOrder,
		TotalTests:  totalTests,
		Result:      result,
	}
	o.Normalize()
	return o
}

// Registry is an ordered set of plugins. Registration order is the order
// plugins run in.
type Registry struct {
	plugins []Plugin
	byID    map[string]Plugin
}

// NewRegistry creates a registry holding plugins in order.
func NewRegistry(plugins ...Plugin) (*Registry, error) {
	r := &Registry{byID: make(map[string]Plugin, len(plugins))}
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends p. IDs must be unique and non-empty.
func (r *Registry) Register(p Plugin) error {
	if p == nil || p.ID() == "" {
		return fmt.Errorf("plugin must have an id")
	}
	if _, exists := r.byID[p.ID()]; exists {
		return fmt.Errorf("plugin %q already registered", p.ID())
	}
	r.byID[p.ID()] = p
	r.plugins = append(r.plugins, p)
	return nil
}

// All returns the plugins in registration order.
func (r *Registry) All() []Plugin {
	return slices.Clone(r.plugins)
}

// Lookup returns the plugin with id.
func (r *Registry) Lookup(id string) (Plugin, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Declarations returns one settings tab per plugin, named after the plugin.
func (r *Registry) Declarations() []types.PluginDeclaration {
	decls := make([]types.PluginDeclaration, 0, len(r.plugins))
	for _, p := range r.plugins {
		decls = append(decls, types.PluginDeclaration{
			Tab:      types.Tab{Name: p.Name(), Description: p.Description()},
			Settings: p.DeclaredSettings(),
		})
	}
	return decls
}

// Options configures the default plugin set.
type Options struct {
	HTTPClient  *http.Client
	LinkTimeout time.Duration
	Logger      *zap.Logger
}

// Default returns the reference plugins in their display order.
func Default(opts Options) *Registry {
	r, err := NewRegistry(
		NewReadability(),
		NewBannedWords(),
		NewAltText(),
		NewLinks(opts.HTTPClient, opts.LinkTimeout, opts.Logger),
	)
	if err != nil {
		panic(err)
	}
	return r
}
