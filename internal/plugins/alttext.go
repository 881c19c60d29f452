package plugins

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/preflight/internal/types"
)

// AltTextResult is the payload of an alt text outcome.
type AltTextResult struct {
	Images  int      `json:"images"`
	Missing []string `json:"missing"`
}

// AltText flags images without alternative text.
type AltText struct {
	Base
}

// NewAltText creates the alt text check.
func NewAltText() *AltText {
	return &AltText{Base: NewBase(
		"altText", "Alt text",
		"Images must carry alternative text",
		3, false, "richtext,nested,grid",
	)}
}

// Check reports every <img> with a missing or blank alt attribute. Values
// without images produce no outcome.
func (a *AltText) Check(_ context.Context, _ int, value string, _ *types.SettingsSet) (*types.CheckOutcome, error) {
	doc, err := parseHTML(value)
	if err != nil {
		return nil, err
	}

	images := doc.Find("img")
	if images.Length() == 0 {
		return nil, nil
	}

	missing := []string{}
	images.Each(func(_ int, s *goquery.Selection) {
		alt, ok := s.Attr("alt")
		if ok && strings.TrimSpace(alt) != "" {
			return
		}
		src, _ := s.Attr("src")
		missing = append(missing, src)
	})

	return a.outcome(len(missing), images.Length(), AltTextResult{Images: images.Length(), Missing: missing}), nil
}
