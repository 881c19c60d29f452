package settings

import (
	"slices"
	"strings"

	"github.com/jonathan/preflight/internal/types"
)

// Setting views understood by the backoffice.
const (
	ViewBool        = "boolean"
	ViewText        = "textstring"
	ViewNumber      = "number"
	ViewMultiSelect = "multiplecheckbox"
)

// GeneralDeclaration returns the General tab and the defaults of the
// settings that are not owned by a check plugin.
func GeneralDeclaration() types.PluginDeclaration {
	return types.PluginDeclaration{
		Tab: types.Tab{
			Name:        types.GeneralTab,
			Description: "Settings that apply to every check",
		},
		Settings: []types.Setting{
			{
				Alias:       types.SettingDisableAllTests,
				Label:       "Disable all tests",
				Value:       "0",
				View:        ViewBool,
				Description: "Turns preflight off for this culture",
			},
			{
				Alias:       types.SettingRunOnSave,
				Label:       "Run on save",
				Value:       "1",
				View:        ViewBool,
				Description: "Check content when a document is saved",
			},
			{
				Alias:       types.SettingCancelSaveOnFail,
				Label:       "Cancel save on fail",
				Value:       "1",
				View:        ViewBool,
				Description: "Block the save when a check fails",
			},
			{
				Alias:       types.SettingPropertiesToTest,
				Label:       "Properties to test",
				Value:       types.EditorKindsCSV(),
				View:        ViewMultiSelect,
				Description: "Editor kinds that are checked",
			},
			{
				Alias:       types.SettingDocumentTypesToTest,
				Label:       "Document types to test",
				Value:       "",
				View:        ViewText,
				Description: "Comma separated content type aliases. Empty checks every type",
			},
			{
				Alias:       types.SettingUserGroupOptIn,
				Label:       "User group opt in",
				Value:       "",
				View:        ViewMultiSelect,
				Description: "Only run for these user groups. Empty runs for everyone",
			},
		},
	}
}

// merge turns persisted records into a full settings list. Stored values
// win; declared settings that are missing are appended with their
// defaults. Virtual settings get their options computed from groups and
// the known editor kinds.
func merge(stored []types.StoredSetting, decls []types.PluginDeclaration, groups []types.UserGroup) ([]types.Setting, []types.Tab) {
	declared := make(map[string]types.Setting)
	for _, decl := range decls {
		for _, s := range decl.Settings {
			s.Tab = decl.Tab.Name
			declared[s.Alias] = s
		}
	}

	settings := make([]types.Setting, 0, len(stored)+len(declared))
	seen := make(map[string]bool, len(stored))
	for _, record := range stored {
		alias := record.Alias
		if alias == "" {
			alias = types.CamelAlias(record.Label)
		}
		if alias == "" || seen[alias] {
			continue
		}
		seen[alias] = true

		s := types.Setting{Alias: alias, Label: record.Label, Tab: record.Tab, Value: record.Value}
		if d, ok := declared[alias]; ok {
			s.View = d.View
			s.Description = d.Description
		}
		settings = append(settings, s)
	}

	for _, decl := range decls {
		for _, s := range decl.Settings {
			if seen[s.Alias] {
				continue
			}
			seen[s.Alias] = true
			s.Tab = decl.Tab.Name
			s.Prevalues = slices.Clone(s.Prevalues)
			settings = append(settings, s)
		}
	}

	for i := range settings {
		applyVirtual(&settings[i], groups)
	}
	return settings, buildTabs(settings, decls)
}

func applyVirtual(s *types.Setting, groups []types.UserGroup) {
	switch {
	case s.Alias == types.SettingUserGroupOptIn:
		s.Prevalues = make([]types.Prevalue, 0, len(groups))
		names := make([]string, 0, len(groups))
		for _, g := range groups {
			s.Prevalues = append(s.Prevalues, types.Prevalue{Key: g.Alias, Value: g.Name})
			names = append(names, g.Name)
		}
		var kept []string
		for _, name := range types.SplitCSV(s.Value) {
			if slices.Contains(names, name) {
				kept = append(kept, name)
			}
		}
		s.Value = types.JoinCSV(kept)

	case strings.HasSuffix(s.Alias, "PropertiesToTest") || s.Alias == types.SettingPropertiesToTest:
		s.Prevalues = make([]types.Prevalue, 0, len(types.AllEditorKinds))
		for _, k := range types.AllEditorKinds {
			s.Prevalues = append(s.Prevalues, types.Prevalue{Key: string(k), Value: string(k)})
		}
		if s.Value == "" {
			s.Value = types.EditorKindsCSV()
		}
	}
}

// buildTabs returns one tab per distinct settings tab, General first and
// the rest sorted by name.
func buildTabs(settings []types.Setting, decls []types.PluginDeclaration) []types.Tab {
	known := make(map[string]types.Tab, len(decls))
	for _, decl := range decls {
		known[decl.Tab.Name] = decl.Tab
	}

	var tabs []types.Tab
	seen := make(map[string]bool)
	for _, s := range settings {
		if s.Tab == "" || seen[s.Tab] {
			continue
		}
		seen[s.Tab] = true
		tab, ok := known[s.Tab]
		if !ok {
			tab = types.Tab{Name: s.Tab}
		}
		tabs = append(tabs, tab)
	}

	slices.SortStableFunc(tabs, func(a, b types.Tab) int {
		switch {
		case a.Name == b.Name:
			return 0
		case a.Name == types.GeneralTab:
			return -1
		case b.Name == types.GeneralTab:
			return 1
		default:
			return strings.Compare(a.Name, b.Name)
		}
	})
	return tabs
}
