package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/preflight/internal/types"
)

func TestDefaultRegistry_Order(t *testing.T) {
	r := Default(Options{})

	var ids []string
	var orders []int
	for _, p := range r.All() {
		ids = append(ids, p.ID())
		orders = append(orders, p.SortOrder())
	}
	assert.Equal(t, []string{"readability", "bannedWords", "altText", "links"}, ids)
	assert.Equal(t, []int{1, 2, 3, 4}, orders)

	p, ok := r.Lookup("links")
	require.True(t, ok)
	assert.Equal(t, "Links", p.Name())
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(NewReadability(), NewReadability())
	assert.Error(t, err)

	r, err := NewRegistry()
	require.NoError(t, err)
	assert.Error(t, r.Register(nil))
}

func TestRegistry_Declarations(t *testing.T) {
	decls := Default(Options{}).Declarations()
	require.Len(t, decls, 4)

	assert.Equal(t, "Readability", decls[0].Tab.Name)
	aliases := make([]string, 0, len(decls[0].Settings))
	for _, s := range decls[0].Settings {
		aliases = append(aliases, s.Alias)
	}
	assert.Equal(t, []string{
		"readabilityEnabled", "readabilityOnSaveOnly", "readabilityPropertiesToTest",
		SettingReadabilityMin, SettingReadabilityMax, SettingReadabilityMaxSentence,
	}, aliases)
}

func TestBase_Conventions(t *testing.T) {
	links := NewLinks(nil, 0, nil)

	// defaults apply when the tab is empty
	assert.True(t, links.IsEnabled(nil))
	assert.True(t, links.IsSaveOnly(nil))
	assert.Equal(t, []types.EditorKind{types.EditorRichText, types.EditorNested, types.EditorGrid}, links.RestrictedKinds(nil))

	tab := []types.Setting{
		{Alias: "linksEnabled", Value: "0"},
		{Alias: "linksOnSaveOnly", Value: "false"},
		{Alias: "linksPropertiesToTest", Value: "plaintext"},
	}
	assert.False(t, links.IsEnabled(tab))
	assert.False(t, links.IsSaveOnly(tab))
	assert.Equal(t, []types.EditorKind{types.EditorPlainText}, links.RestrictedKinds(tab))

	readability := NewReadability()
	assert.Nil(t, readability.RestrictedKinds(nil))
	assert.False(t, readability.IsSaveOnly(nil))
}

func TestDeclaredSettings_ReturnsCopy(t *testing.T) {
	p := NewReadability()
	first := p.DeclaredSettings()
	first[0].Value = "changed"
	assert.Equal(t, "1", p.DeclaredSettings()[0].Value)
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Just text", want: "Just text"},
		{name: "paragraphs", input: "<h2>Title</h2><p>One  two</p><p>Three</p>", want: "Title\nOne two\nThree"},
		{name: "inline markup", input: "<p>Some <strong>bold</strong> text</p>", want: "Some bold text"},
		{name: "line break", input: "a<br>b", want: "a\nb"},
		{name: "entities", input: "<p>Fish &amp; chips</p>", want: "Fish & chips"},
		{name: "script removed", input: "<p>x</p><script>alert(1)</script>", want: "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlainText(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func settingsWith(values ...string) *types.SettingsSet {
	set := &types.SettingsSet{Culture: "en-US"}
	for i := 0; i+1 < len(values); i += 2 {
		set.Settings = append(set.Settings, types.Setting{Alias: values[i], Value: values[i+1]})
	}
	return set
}

func TestBannedWords(t *testing.T) {
	p := NewBannedWords()
	ctx := context.Background()

	outcome, err := p.Check(ctx, 1, "<p>Anything goes</p>", settingsWith())
	require.NoError(t, err)
	assert.Nil(t, outcome, "no list configured")

	set := settingsWith(SettingBannedWordsList, "synergy, Best in class, leverage, cat")
	outcome, err = p.Check(ctx, 1, "<p>Our SYNERGY is <em>best  in class</em>. Synergy again. Concatenate.</p>", set)
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.True(t, outcome.Failed)
	assert.Equal(t, 2, outcome.FailedCount)
	assert.Equal(t, 4, outcome.TotalTests)
	assert.Equal(t, "bannedWords", outcome.Plugin)
	assert.Equal(t, 2, outcome.SortOrder)
	assert.Equal(t, BannedWordsResult{Found: []string{"Best in class", "synergy"}}, outcome.Result)

	outcome, err = p.Check(ctx, 1, "clean copy", set)
	require.NoError(t, err)
	assert.False(t, outcome.Failed)
	assert.Equal(t, 0, outcome.FailedCount)
}

func TestContainsPhrase(t *testing.T) {
	assert.True(t, containsPhrase("the cat sat", "cat"))
	assert.True(t, containsPhrase("cat", "cat"))
	assert.True(t, containsPhrase("a cat.", "cat"))
	assert.False(t, containsPhrase("concatenate", "cat"))
	assert.True(t, containsPhrase("concatenate cat", "cat"))
	assert.False(t, containsPhrase("cats", "cat"))
	assert.True(t, containsPhrase("über cool", "über"))
}

func TestAltText(t *testing.T) {
	p := NewAltText()
	ctx := context.Background()

	outcome, err := p.Check(ctx, 1, "<p>No images</p>", nil)
	require.NoError(t, err)
	assert.Nil(t, outcome)

	outcome, err = p.Check(ctx, 1, `<p><img src="a.png" alt="A"><img src="b.png"><img src="c.png" alt="  "></p>`, nil)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.True(t, outcome.Failed)
	assert.Equal(t, 2, outcome.FailedCount)
	assert.Equal(t, 3, outcome.TotalTests)
	assert.Equal(t, AltTextResult{Images: 3, Missing: []string{"b.png", "c.png"}}, outcome.Result)
}
