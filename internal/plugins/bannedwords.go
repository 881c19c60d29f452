package plugins

import (
	"context"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/preflight/internal/types"
)

// SettingBannedWordsList is the csv of banned words and phrases.
const SettingBannedWordsList = "bannedWordsList"

// BannedWordsResult is the payload of a banned words outcome.
type BannedWordsResult struct {
	Found []string `json:"found"`
}

// BannedWords flags configured words and phrases.
type BannedWords struct {
	Base
}

// NewBannedWords creates the banned words check.
func NewBannedWords() *BannedWords {
	return &BannedWords{Base: NewBase(
		"bannedWords", "Banned words",
		"Flags words and phrases that must not be published",
		2, false, "",
		types.Setting{Alias: SettingBannedWordsList, Label: "Banned words", Value: "", View: "textarea"},
	)}
}

// Check reports each distinct banned phrase found in value. Matching is
// case insensitive and only whole words or phrases match.
func (b *BannedWords) Check(_ context.Context, _ int, value string, set *types.SettingsSet) (*types.CheckOutcome, error) {
	phrases := types.SplitCSV(b.value(set, SettingBannedWordsList))
	if len(phrases) == 0 {
		return nil, nil
	}

	text, err := PlainText(value)
	if err != nil {
		return nil, err
	}
	text = strings.ToLower(strings.Join(strings.Fields(text), " "))

	found := []string{}
	seen := make(map[string]bool)
	for _, phrase := range phrases {
		normalized := strings.ToLower(strings.Join(strings.Fields(phrase), " "))
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		if containsPhrase(text, normalized) {
			found = append(found, phrase)
		}
	}
	slices.Sort(found)

	return b.outcome(len(found), len(seen), BannedWordsResult{Found: found}), nil
}

// containsPhrase reports whether phrase occurs in text bounded by
// non-word characters on both sides.
func containsPhrase(text, phrase string) bool {
	for start := 0; start <= len(text)-len(phrase); {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(phrase)
		if wordBoundaryBefore(text, i) && wordBoundaryAfter(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		start = i + size
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func wordBoundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func wordBoundaryAfter(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[end:])
	return !isWordRune(r)
}
