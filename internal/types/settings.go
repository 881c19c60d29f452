package types

import (
	"strconv"
	"strings"
	"unicode"
)

// GeneralTab is the reserved tab holding settings that are not owned by a check plugin.
const GeneralTab = "General"

// Aliases of the general settings.
const (
	SettingDisableAllTests     = "disableAllTests"
	SettingRunOnSave           = "runOnSave"
	SettingCancelSaveOnFail    = "cancelSaveOnFail"
	SettingPropertiesToTest    = "propertiesToTest"
	SettingDocumentTypesToTest = "documentTypesToTest"
	SettingUserGroupOptIn      = "userGroupOptIn"
)

// Setting is a single configurable value. Values are always string encoded.
type Setting struct {
	Alias       string     `json:"alias"`
	Label       string     `json:"label"`
	Tab         string     `json:"tab"`
	Value       string     `json:"value"`
	View        string     `json:"view,omitempty"`
	Description string     `json:"description,omitempty"`
	Prevalues   []Prevalue `json:"prevalues,omitempty"`
}

// Prevalue is one selectable option for a setting.
type Prevalue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// StoredSetting is the persisted shape of a setting. Tabs, prevalues and
// derived data are never stored.
type StoredSetting struct {
	Alias string `json:"alias"`
	Label string `json:"label"`
	Tab   string `json:"tab"`
	Value string `json:"value"`
}

// Tab describes one settings group, normally one check plugin.
type Tab struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

// SettingsSet is the resolved configuration for one culture.
// Once returned by the resolver it is treated as immutable.
type SettingsSet struct {
	Culture  string    `json:"culture"`
	Settings []Setting `json:"settings"`
	Tabs     []Tab     `json:"tabs"`
	Message  string    `json:"message,omitempty"`
}

// UserGroup is a CMS user group. Settings refer to groups by name.
type UserGroup struct {
	Alias string `json:"alias" yaml:"alias"`
	Name  string `json:"name" yaml:"name"`
}

// HasSettings reports whether the set carries any configuration.
func (s *SettingsSet) HasSettings() bool {
	return s != nil && len(s.Settings) > 0
}

// Find returns the setting with the given alias.
func (s *SettingsSet) Find(alias string) (Setting, bool) {
	if s == nil {
		return Setting{}, false
	}
	return FindSetting(s.Settings, alias)
}

// Value returns the raw value of a setting, or "" when it is absent.
func (s *SettingsSet) Value(alias string) string {
	setting, _ := s.Find(alias)
	return setting.Value
}

// Bool decodes a bool setting. Absent settings are false.
func (s *SettingsSet) Bool(alias string) bool {
	return ParseBool(s.Value(alias))
}

// CSV decodes a csv setting.
func (s *SettingsSet) CSV(alias string) []string {
	return SplitCSV(s.Value(alias))
}

// ForTab returns a copy of the settings belonging to tab.
func (s *SettingsSet) ForTab(tab string) []Setting {
	if s == nil {
		return nil
	}
	var out []Setting
	for _, setting := range s.Settings {
		if setting.Tab == tab {
			out = append(out, setting)
		}
	}
	return out
}

// Stored strips a settings list down to its persisted shape.
func (s *SettingsSet) Stored() []StoredSetting {
	out := make([]StoredSetting, 0, len(s.Settings))
	for _, setting := range s.Settings {
		out = append(out, StoredSetting{
			Alias: setting.Alias,
			Label: setting.Label,
			Tab:   setting.Tab,
			Value: setting.Value,
		})
	}
	return out
}

// FindSetting looks up a setting by alias in a plain list.
func FindSetting(settings []Setting, alias string) (Setting, bool) {
	for _, setting := range settings {
		if setting.Alias == alias {
			return setting, true
		}
	}
	return Setting{}, false
}

// SettingValue returns the value for alias in a plain list, or def when absent.
func SettingValue(settings []Setting, alias, def string) string {
	if setting, ok := FindSetting(settings, alias); ok {
		return setting.Value
	}
	return def
}

// SettingInt decodes an int setting, falling back to def when absent or invalid.
func SettingInt(settings []Setting, alias string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(SettingValue(settings, alias, "")))
	if err != nil {
		return def
	}
	return v
}

// ParseBool decodes the string encodings used for bool settings ("1", "true").
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// FormatBool encodes a bool setting value.
func FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// SplitCSV splits a comma separated value, trimming whitespace and dropping empty entries.
func SplitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JoinCSV joins values into a comma separated value.
func JoinCSV(values []string) string {
	return strings.Join(values, ",")
}

// CamelAlias derives a setting alias from its label: "Run on save" becomes "runOnSave".
func CamelAlias(label string) string {
	words := strings.FieldsFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var sb strings.Builder
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if i > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		sb.WriteString(string(runes))
	}
	return sb.String()
}

// PluginDeclaration is the settings tab a check plugin contributes, with
// the default value of every setting it reads.
type PluginDeclaration struct {
	Tab      Tab       `json:"tab"`
	Settings []Setting `json:"settings"`
}
