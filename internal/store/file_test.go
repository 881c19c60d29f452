package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/preflight/internal/schemas"
	"github.com/jonathan/preflight/internal/settings"
	"github.com/jonathan/preflight/internal/types"
)

func TestFileStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	want := []types.StoredSetting{
		{Alias: "runOnSave", Label: "Run on save", Tab: types.GeneralTab, Value: "1"},
		{Alias: "readabilityMin", Label: "Minimum", Tab: "Readability", Value: "60"},
	}
	require.NoError(t, s.Save(context.Background(), "en-US", want))

	got, err := s.Load(context.Background(), "en-US")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
	assert.Equal(t, "en-US.json", entries[0].Name())
}

func TestFileStore_LoadMissing(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "fr-FR")
	require.Error(t, err)
	assert.True(t, errors.Is(err, settings.ErrNotFound))
}

func TestFileStore_LoadRejectsInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en-US.json"), []byte(`[{"label":"x"}]`), 0o644))
	s, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "en-US")
	require.Error(t, err)
	var verr *schemas.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.False(t, errors.Is(err, settings.ErrNotFound))
}

func TestFileStore_SaveRejectsInvalidSettings(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	err = s.Save(context.Background(), "en-US", []types.StoredSetting{{Alias: "x", Value: "1"}})
	require.Error(t, err)
	_, err = s.Load(context.Background(), "en-US")
	assert.True(t, errors.Is(err, settings.ErrNotFound), "nothing written")
}

func TestFileStore_InvalidCulture(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	for _, culture := range []string{"", "../etc", "a/b", ".hidden"} {
		_, err := s.Load(context.Background(), culture)
		assert.Error(t, err, culture)
		assert.Error(t, s.Save(context.Background(), culture, nil), culture)
	}
}

func TestFileStore_SaveNilWritesEmptyDocument(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "en-US", nil))
	got, err := s.Load(context.Background(), "en-US")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStore_BacksResolver(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	r := settings.New(settings.Config{Store: s, Languages: fixedLanguages("en-US")})
	ok := r.Save(context.Background(), &types.SettingsSet{
		Culture:  settings.DefaultCulture,
		Settings: []types.Setting{{Alias: types.SettingRunOnSave, Label: "Run on save", Tab: types.GeneralTab, Value: "0"}},
	})
	require.True(t, ok)

	fresh := settings.New(settings.Config{Store: s, Languages: fixedLanguages("en-US")})
	set, err := fresh.Resolve(context.Background(), "en-US", false)
	require.NoError(t, err)
	assert.False(t, set.Bool(types.SettingRunOnSave))
}

type fixedLanguages string

func (f fixedLanguages) DefaultCulture() string           { return string(f) }
func (f fixedLanguages) Fallback(string) (string, bool)   { return "", false }
func (f fixedLanguages) CultureName(culture string) string { return culture }
