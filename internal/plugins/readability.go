package plugins

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/jonathan/preflight/internal/types"
)

// Readability settings.
const (
	SettingReadabilityMin         = "readabilityMin"
	SettingReadabilityMax         = "readabilityMax"
	SettingReadabilityMaxSentence = "readabilityMaxSentence"
)

// ReadabilityResult is the payload of a readability outcome.
type ReadabilityResult struct {
	Score               float64 `json:"score"`
	AverageSentence     float64 `json:"averageSentenceLength"`
	Words               int     `json:"words"`
	Sentences           int     `json:"sentences"`
	ScoreInRange        bool    `json:"scoreInRange"`
	SentenceLengthValid bool    `json:"sentenceLengthValid"`
}

// Readability scores text with the Flesch reading ease formula.
type Readability struct {
	Base
}

// NewReadability creates the readability check.
func NewReadability() *Readability {
	return &Readability{Base: NewBase(
		"readability", "Readability",
		"Flesch reading ease score and average sentence length",
		1, false, "",
		types.Setting{Alias: SettingReadabilityMin, Label: "Minimum score", Value: "60", View: "number"},
		types.Setting{Alias: SettingReadabilityMax, Label: "Maximum score", Value: "100", View: "number"},
		types.Setting{Alias: SettingReadabilityMaxSentence, Label: "Maximum average sentence length", Value: "24", View: "number"},
	)}
}

// Check scores value. Values without words produce no outcome.
func (r *Readability) Check(_ context.Context, _ int, value string, set *types.SettingsSet) (*types.CheckOutcome, error) {
	text, err := PlainText(value)
	if err != nil {
		return nil, err
	}
	stats := textStats(text)
	if stats.words == 0 {
		return nil, nil
	}

	minScore := r.intValue(set, SettingReadabilityMin)
	maxScore := r.intValue(set, SettingReadabilityMax)
	maxSentence := r.intValue(set, SettingReadabilityMaxSentence)

	score := round2(206.835 - 1.015*stats.wordsPerSentence() - 84.6*stats.syllablesPerWord())
	avg := round2(stats.wordsPerSentence())

	result := ReadabilityResult{
		Score:               score,
		AverageSentence:     avg,
		Words:               stats.words,
		Sentences:           stats.sentences,
		ScoreInRange:        score >= float64(minScore) && score <= float64(maxScore),
		SentenceLengthValid: avg <= float64(maxSentence),
	}

	failed := 0
	if !result.ScoreInRange {
		failed++
	}
	if !result.SentenceLengthValid {
		failed++
	}
	return r.outcome(failed, 2, result), nil
}

type stats struct {
	words     int
	sentences int
	syllables int
}

func (s stats) wordsPerSentence() float64 {
	return float64(s.words) / float64(max(s.sentences, 1))
}

func (s stats) syllablesPerWord() float64 {
	return float64(s.syllables) / float64(max(s.words, 1))
}

// textStats counts words, sentences and syllables. Sentences end at
// terminal punctuation or at a line break; a trailing fragment counts as
// a sentence.
func textStats(text string) stats {
	var st stats
	for _, line := range strings.Split(text, "\n") {
		inSentence := false
		for _, raw := range strings.Fields(line) {
			word := strings.TrimFunc(raw, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r)
			})
			if word != "" {
				st.words++
				st.syllables += syllables(word)
				inSentence = true
			}
			if inSentence && endsSentence(raw) {
				st.sentences++
				inSentence = false
			}
		}
		if inSentence {
			st.sentences++
		}
	}
	return st
}

func endsSentence(word string) bool {
	word = strings.TrimRight(word, "\"')]”’")
	return word != "" && strings.ContainsAny(word[len(word)-1:], ".!?")
}

// syllables estimates the syllable count of an English word by counting
// vowel groups, ignoring a silent trailing e.
func syllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}
	return max(count, 1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
