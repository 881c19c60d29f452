package plugins

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockSelector = "br,p,div,li,ul,ol,h1,h2,h3,h4,h5,h6,td,th,tr,blockquote,pre,section,article"

// parseHTML parses a field value as an HTML fragment. Plain text values
// parse to a single text node.
func parseHTML(value string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(value))
}

// PlainText strips markup from value. Block level elements end a line so
// headings and paragraphs are not run together.
func PlainText(value string) (string, error) {
	doc, err := parseHTML(value)
	if err != nil {
		return "", err
	}
	doc.Find("script,style").Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}
