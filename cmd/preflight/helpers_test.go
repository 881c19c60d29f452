package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/preflight/internal/config"
)

const testSite = `
languages:
  - culture: en-US
    name: English
    default: true
  - culture: fr-FR
    name: French
    fallback: en-US
userGroups:
  - alias: editor
    name: Editors
contentTypes:
  - alias: article
    name: Article
    properties:
      - {alias: title, name: Title, editor: plaintext}
documents:
  - id: 1
    name: Banned
    contentType: article
    properties:
      - alias: title
        values:
          - culture: en-US
            published: Lorem ipsum
  - id: 2
    name: Clean
    contentType: article
    properties:
      - alias: title
        values:
          - culture: en-US
            published: Clean title
`

const testSettings = `[
  {"alias": "readabilityEnabled", "label": "Enabled", "tab": "Readability", "value": "0"},
  {"alias": "bannedWordsList", "label": "Banned words", "tab": "Banned words", "value": "lorem"}
]`

// newTestApp wires an app over a temporary site file and settings
// directory holding settings for en-US only.
func newTestApp(t *testing.T, configure ...func(*config.Config)) *app {
	t.Helper()
	dir := t.TempDir()

	site := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(site, []byte(testSite), 0o644))
	settingsDir := filepath.Join(dir, "settings")
	require.NoError(t, os.MkdirAll(settingsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(settingsDir, "en-US.json"), []byte(testSettings), 0o644))

	cfg := config.Defaults()
	cfg.Site = site
	cfg.SettingsDir = settingsDir
	for _, fn := range configure {
		fn(&cfg)
	}
	require.NoError(t, cfg.Validate())

	a, err := newApp(context.Background(), &cfg, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}
