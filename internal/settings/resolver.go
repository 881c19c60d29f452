// Package settings resolves the effective preflight configuration for a
// culture: persisted values merged with plugin defaults, culture fallback
// and a time based cache.
package settings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/preflight/internal/logging"
	"github.com/jonathan/preflight/internal/types"
)

// DefaultCulture is the sentinel culture that maps to the site's default language.
const DefaultCulture = "default"

const fallbackSuffix = "|fallback"

// Store persists one settings document per culture. Load returns an error
// wrapping ErrNotFound when the culture has no document.
type Store interface {
	Load(ctx context.Context, culture string) ([]types.StoredSetting, error)
	Save(ctx context.Context, culture string, settings []types.StoredSetting) error
}

// Languages describes the configured cultures.
type Languages interface {
	DefaultCulture() string
	Fallback(culture string) (string, bool)
	CultureName(culture string) string
}

// GroupSource lists the user groups that exist in the CMS.
type GroupSource interface {
	UserGroups(ctx context.Context) ([]types.UserGroup, error)
}

// Declarations lists the settings tabs contributed by check plugins.
type Declarations interface {
	Declarations() []types.PluginDeclaration
}

// Config holds the collaborators of a Resolver.
type Config struct {
	Store     Store
	Languages Languages
	Groups    GroupSource
	Plugins   Declarations
	Cache     *Cache
	TTL       time.Duration
	Logger    *zap.Logger
}

// Resolver resolves, caches and saves settings sets.
type Resolver struct {
	store   Store
	langs   Languages
	groups  GroupSource
	plugins Declarations
	cache   *Cache
	logger  *zap.Logger
}

// New creates a Resolver. A nil Cache creates one with cfg.TTL.
func New(cfg Config) *Resolver {
	cache := cfg.Cache
	if cache == nil {
		cache = NewCache(cfg.TTL)
	}
	return &Resolver{
		store:   cfg.Store,
		langs:   cfg.Languages,
		groups:  cfg.Groups,
		plugins: cfg.Plugins,
		cache:   cache,
		logger:  logging.OrNop(cfg.Logger),
	}
}

// NormalizeCulture maps the default sentinel (or an empty culture) to the
// site's default culture.
func (r *Resolver) NormalizeCulture(culture string) string {
	if culture == "" || culture == DefaultCulture {
		return r.langs.DefaultCulture()
	}
	return culture
}

// Resolve returns the settings for culture. When the culture has no
// settings and allowFallback is set, the fallback chain ending at the
// default culture is tried and the first match is returned under the
// requested culture with an explanatory message.
//
// When nothing is found the returned set carries only the message and the
// error wraps ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, culture string, allowFallback bool) (*types.SettingsSet, error) {
	culture = r.NormalizeCulture(culture)

	set, err := r.cache.GetOrCompute(culture, func() (*types.SettingsSet, error) {
		return r.load(ctx, culture, culture)
	})
	if err == nil || !errors.Is(err, ErrNotFound) {
		return set, err
	}

	missing := &types.SettingsSet{
		Culture: culture,
		Message: fmt.Sprintf("No settings exist for %s", r.langs.CultureName(culture)),
	}
	if !allowFallback {
		return missing, &NotFoundError{Culture: culture}
	}

	set, err = r.cache.GetOrCompute(culture+fallbackSuffix, func() (*types.SettingsSet, error) {
		return r.loadFallback(ctx, culture)
	})
	if errors.Is(err, ErrNotFound) {
		return missing, &NotFoundError{Culture: culture}
	}
	return set, err
}

// loadFallback walks the fallback chain of culture, ending at the default
// culture, and returns the first culture's settings found.
func (r *Resolver) loadFallback(ctx context.Context, culture string) (*types.SettingsSet, error) {
	for _, candidate := range r.fallbackChain(culture) {
		set, err := r.load(ctx, candidate, culture)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		set.Message = fmt.Sprintf("No settings exist for %s - showing settings from %s",
			r.langs.CultureName(culture), r.langs.CultureName(candidate))
		r.logger.Debug("resolved settings through fallback",
			zap.String("culture", culture),
			zap.String("fallback", candidate))
		return set, nil
	}
	return nil, &NotFoundError{Culture: culture}
}

func (r *Resolver) fallbackChain(culture string) []string {
	visited := map[string]bool{culture: true}
	var chain []string
	current := culture
	for {
		next, ok := r.langs.Fallback(current)
		if !ok || visited[next] {
			break
		}
		visited[next] = true
		chain = append(chain, next)
		current = next
	}
	if def := r.langs.DefaultCulture(); def != "" && !visited[def] {
		chain = append(chain, def)
	}
	return chain
}

// load reads the persisted settings of source and builds a set identified as culture.
func (r *Resolver) load(ctx context.Context, source, culture string) (*types.SettingsSet, error) {
	stored, err := r.store.Load(ctx, source)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load settings for %s: %w", source, err)
	}
	return r.build(ctx, culture, stored)
}

func (r *Resolver) build(ctx context.Context, culture string, stored []types.StoredSetting) (*types.SettingsSet, error) {
	var groups []types.UserGroup
	if r.groups != nil {
		var err error
		groups, err = r.groups.UserGroups(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list user groups: %w", err)
		}
	}

	settings, tabs := merge(stored, r.declarations(), groups)
	return &types.SettingsSet{
		Culture:  culture,
		Settings: settings,
		Tabs:     tabs,
	}, nil
}

func (r *Resolver) declarations() []types.PluginDeclaration {
	decls := []types.PluginDeclaration{GeneralDeclaration()}
	if r.plugins != nil {
		decls = append(decls, r.plugins.Declarations()...)
	}
	return decls
}

// Value returns one setting's value for culture, using fallback.
func (r *Resolver) Value(ctx context.Context, culture, alias string) (string, error) {
	set, err := r.Resolve(ctx, culture, true)
	if err != nil {
		return "", err
	}
	setting, ok := set.Find(alias)
	if !ok {
		return "", fmt.Errorf("setting %q: %w", alias, ErrNotFound)
	}
	return setting.Value, nil
}

// GetTestableFieldKinds returns the editor kinds that are tested for
// documents of contentType in culture. It reports false when nothing is
// tested: the culture has no settings of its own, every test is disabled,
// or the content type is excluded.
func (r *Resolver) GetTestableFieldKinds(ctx context.Context, culture, contentType string) ([]types.EditorKind, bool, error) {
	set, err := r.Resolve(ctx, culture, false)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if set.Bool(types.SettingDisableAllTests) {
		return nil, false, nil
	}
	if allowed := set.CSV(types.SettingDocumentTypesToTest); len(allowed) > 0 && !slices.Contains(allowed, contentType) {
		return nil, false, nil
	}
	return types.ParseEditorKinds(set.Value(types.SettingPropertiesToTest)), true, nil
}

// Save persists the settings of set and replaces the cached entry for its
// culture. Only the settings list is persisted. Failures are logged and
// reported as false; the cache is left untouched when persisting fails.
func (r *Resolver) Save(ctx context.Context, set *types.SettingsSet) bool {
	if set == nil {
		return false
	}
	culture := r.NormalizeCulture(set.Culture)

	stored := set.Stored()
	if err := r.store.Save(ctx, culture, stored); err != nil {
		r.logger.Error("failed to save settings",
			zap.String("culture", culture),
			zap.Error(err))
		return false
	}

	rebuilt, err := r.build(ctx, culture, stored)
	if err != nil {
		r.logger.Warn("saved settings but failed to rebuild cache entry",
			zap.String("culture", culture),
			zap.Error(err))
		r.cache.Delete(culture)
	} else {
		r.cache.Put(culture, rebuilt)
	}
	r.cache.DeleteSuffix(fallbackSuffix)
	return true
}
