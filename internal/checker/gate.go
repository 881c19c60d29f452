package checker

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/jonathan/preflight/internal/settings"
	"github.com/jonathan/preflight/internal/types"
)

// SaveDecision is the outcome of checking a document before it is saved.
type SaveDecision struct {
	// Failed is true when any checked culture failed.
	Failed bool `json:"failed"`
	// Cancel is true when a failing culture asks for the save to be blocked.
	Cancel bool `json:"cancel"`
	// Cultures lists the cultures that failed.
	Cultures []string `json:"cultures"`
	// Messages holds the message of each culture that could not be checked.
	Messages map[string]string `json:"messages,omitempty"`
}

// BeforeSave checks every culture present on document docID as a save
// run. A culture is skipped when the user is not in its opt-in groups, or
// when checking on save is switched off for it.
func (c *Checker) BeforeSave(ctx context.Context, docID int, userGroups []string, sink ResultSink) (SaveDecision, error) {
	doc, err := c.content.Document(ctx, docID)
	if err != nil {
		return SaveDecision{}, fmt.Errorf("failed to load document %d: %w", docID, err)
	}

	cultures := doc.Cultures()
	if len(cultures) == 0 {
		cultures = []string{c.settings.NormalizeCulture(settings.DefaultCulture)}
	}

	decision := SaveDecision{Cultures: []string{}}
	for _, culture := range cultures {
		set, err := c.settings.Resolve(ctx, culture, c.allowFallback)
		if errors.Is(err, settings.ErrNotFound) {
			continue
		}
		if err != nil {
			return SaveDecision{}, fmt.Errorf("failed to resolve settings for %s: %w", culture, err)
		}
		if !OptedIn(set, userGroups) || !set.Bool(types.SettingRunOnSave) {
			continue
		}

		result, err := c.CheckDocument(ctx, docID, culture, true, sink)
		if err != nil {
			return SaveDecision{}, err
		}
		if !result.Failed() {
			continue
		}

		decision.Failed = true
		decision.Cultures = append(decision.Cultures, culture)
		if msg := result.Message(); msg != "" {
			if decision.Messages == nil {
				decision.Messages = make(map[string]string)
			}
			decision.Messages[culture] = msg
		}
		if set.Bool(types.SettingCancelSaveOnFail) {
			decision.Cancel = true
		}
	}

	if decision.Failed {
		c.logger.Info("document failed checks before save",
			zap.Int("doc_id", docID),
			zap.Strings("cultures", decision.Cultures),
			zap.Bool("cancel", decision.Cancel))
	}
	return decision, nil
}

// PanelVisible reports whether the editor panel is shown for a document
// with the given cultures and editor kinds. A culture hides the panel
// when the user is not opted in or none of presentEditors is tested. The
// panel is hidden only when every culture hides it.
func (c *Checker) PanelVisible(ctx context.Context, cultures, userGroups []string, presentEditors []types.EditorKind) (bool, error) {
	if len(cultures) == 0 {
		cultures = []string{settings.DefaultCulture}
	}

	for _, culture := range cultures {
		set, err := c.settings.Resolve(ctx, culture, true)
		if errors.Is(err, settings.ErrNotFound) {
			// shown so the editor sees the missing settings message
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to resolve settings for %s: %w", culture, err)
		}
		if !OptedIn(set, userGroups) {
			continue
		}
		tested := types.ParseEditorKinds(set.Value(types.SettingPropertiesToTest))
		for _, kind := range presentEditors {
			if slices.Contains(tested, kind) {
				return true, nil
			}
		}
	}
	return false, nil
}

// OptedIn reports whether a user in userGroups is covered by the set's
// group opt-in. An empty opt-in list, or a user without groups, is
// always covered.
func OptedIn(set *types.SettingsSet, userGroups []string) bool {
	optIn := set.CSV(types.SettingUserGroupOptIn)
	if len(optIn) == 0 || len(userGroups) == 0 {
		return true
	}
	for _, g := range userGroups {
		if slices.Contains(optIn, g) {
			return true
		}
	}
	return false
}
