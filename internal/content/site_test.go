package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/preflight/internal/types"
)

const testSite = `
languages:
  - culture: en-US
    name: English (United States)
    default: true
  - culture: fr-FR
    name: French (France)
    fallback: en-US
userGroups:
  - alias: editor
    name: Editors
  - alias: writer
    name: Writers
contentTypes:
  - alias: article
    name: Article
    properties:
      - alias: title
        name: Title
        editor: plaintext
      - alias: image
        name: Image
        editor: mediapicker
      - alias: body
        name: Body
        editor: nested
  - alias: typeA
    name: Type A
    properties:
      - alias: title
        name: Title
        editor: plaintext
gridEditors:
  - alias: rte
    name: Rich text editor
    view: rte
documents:
  - id: 1
    name: Home
    contentType: article
    properties:
      - alias: title
        values:
          - culture: en-US
            published: Hello
          - culture: fr-FR
            edited: Bonjour
      - alias: body
        values:
          - published:
              - alias: typeA
                title: Hi
`

func TestParseSite(t *testing.T) {
	site, err := ParseSite([]byte(testSite))
	require.NoError(t, err)

	assert.Equal(t, "en-US", site.DefaultCulture())
	fb, ok := site.Fallback("fr-FR")
	assert.True(t, ok)
	assert.Equal(t, "en-US", fb)
	_, ok = site.Fallback("en-US")
	assert.False(t, ok)
	assert.Equal(t, "French (France)", site.CultureName("fr-FR"))
	assert.Equal(t, "de-DE", site.CultureName("de-DE"))

	langs := site.Languages()
	require.Len(t, langs, 2)
	assert.Equal(t, "en-US", langs[0].Culture)
	assert.True(t, langs[0].Default)

	groups, err := site.UserGroups(context.Background())
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	ge, ok := site.GridEditor("rte")
	require.True(t, ok)
	kind, ok := ge.Kind()
	assert.True(t, ok)
	assert.Equal(t, types.EditorRichText, kind)
}

func TestSite_Document(t *testing.T) {
	site, err := ParseSite([]byte(testSite))
	require.NoError(t, err)

	doc, err := site.Document(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, doc.Properties, 3)
	assert.Equal(t, "Title", doc.Properties[0].Name)
	assert.Equal(t, types.EditorPlainText, doc.Properties[0].Editor)
	assert.Equal(t, []string{"en-US", "fr-FR"}, doc.Cultures())

	_, err = site.Document(context.Background(), 99)
	assert.True(t, errors.Is(err, ErrDocumentNotFound))

	docs := site.Documents()
	require.Len(t, docs, 1)
	assert.Same(t, doc, docs[0])
}

func TestProperty_Value(t *testing.T) {
	site, err := ParseSite([]byte(testSite))
	require.NoError(t, err)
	doc, err := site.Document(context.Background(), 1)
	require.NoError(t, err)

	title := doc.Properties[0]
	v, err := title.Value("en-US")
	require.NoError(t, err)
	assert.Equal(t, "Hello", v)

	// falls back from published to edited
	v, err = title.Value("fr-FR")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", v)

	v, err = title.Value("de-DE")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	// invariant structured values render as JSON
	body := doc.Properties[2]
	v, err = body.Value("en-US")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"alias":"typeA","title":"Hi"}]`, v)
}

func TestContentType_TestableProperties(t *testing.T) {
	site, err := ParseSite([]byte(testSite))
	require.NoError(t, err)

	ct, err := site.ContentType(context.Background(), "article")
	require.NoError(t, err)
	props := ct.TestableProperties()
	require.Len(t, props, 2)
	assert.Equal(t, "title", props[0].Alias)
	assert.Equal(t, "body", props[1].Alias)

	_, err = site.ContentType(context.Background(), "missing")
	assert.Error(t, err)
}

func TestParseSite_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"invalid yaml", "languages: [", "failed to parse site YAML"},
		{"two defaults", "languages:\n  - culture: a\n    default: true\n  - culture: b\n    default: true\n", "exactly one default"},
		{"unknown type", "documents:\n  - id: 1\n    contentType: nope\n", "unknown content type"},
		{
			"unknown property",
			"contentTypes:\n  - alias: a\ndocuments:\n  - id: 1\n    contentType: a\n    properties:\n      - alias: x\n",
			"unknown property",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSite([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadSite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSite), 0644))

	site, err := LoadSite(path)
	require.NoError(t, err)
	assert.Equal(t, "en-US", site.DefaultCulture())

	_, err = LoadSite("")
	assert.Error(t, err)
	_, err = LoadSite(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
