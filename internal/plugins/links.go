package plugins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/preflight/internal/logging"
	"github.com/jonathan/preflight/internal/types"
)

// Links settings.
const (
	SettingLinksTimeout = "linksTimeout"
	SettingLinksBaseURL = "linksBaseUrl"
)

const (
	defaultLinkTimeout = 5 * time.Second
	linkConcurrency    = 4
	linkUserAgent      = "preflight-link-check/1.0"
)

// BrokenLink is one link that could not be fetched.
type BrokenLink struct {
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// LinksResult is the payload of a links outcome.
type LinksResult struct {
	Checked int          `json:"checked"`
	Broken  []BrokenLink `json:"broken"`
}

// Links probes every link in a value and flags the ones that fail.
type Links struct {
	Base
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewLinks creates the links check. A nil client uses a dedicated client
// without a global timeout; each check applies its own deadline.
func NewLinks(client *http.Client, timeout time.Duration, logger *zap.Logger) *Links {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = defaultLinkTimeout
	}
	return &Links{
		Base: NewBase(
			"links", "Links",
			"Links must resolve",
			4, true, "richtext,nested,grid",
			types.Setting{Alias: SettingLinksTimeout, Label: "Timeout (seconds)", Value: fmt.Sprint(int(timeout.Seconds())), View: "number"},
			types.Setting{Alias: SettingLinksBaseURL, Label: "Base URL for relative links", Value: "", View: "textstring"},
		),
		client:  client,
		timeout: timeout,
		logger:  logging.OrNop(logger),
	}
}

// Check probes the distinct links of value, bounded by the configured
// timeout. Values without checkable links produce no outcome.
func (l *Links) Check(ctx context.Context, docID int, value string, set *types.SettingsSet) (*types.CheckOutcome, error) {
	links, err := extractLinks(value, l.value(set, SettingLinksBaseURL))
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}

	timeout := l.timeout
	if secs := l.intValue(set, SettingLinksTimeout); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	broken := make([]*BrokenLink, len(links))
	g := new(errgroup.Group)
	g.SetLimit(linkConcurrency)
	for i, link := range links {
		g.Go(func() error {
			broken[i] = l.probe(ctx, link)
			return nil
		})
	}
	_ = g.Wait()

	result := LinksResult{Checked: len(links), Broken: []BrokenLink{}}
	for _, b := range broken {
		if b != nil {
			result.Broken = append(result.Broken, *b)
		}
	}
	if len(result.Broken) > 0 {
		l.logger.Debug("found broken links",
			zap.Int("doc_id", docID),
			zap.Int("broken", len(result.Broken)))
	}
	return l.outcome(len(result.Broken), len(links), result), nil
}

// probe returns nil when link responds with a non error status. Servers
// that reject HEAD are retried with GET.
func (l *Links) probe(ctx context.Context, link string) *BrokenLink {
	status, err := l.request(ctx, http.MethodHead, link)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = l.request(ctx, http.MethodGet, link)
	}
	switch {
	case err != nil:
		return &BrokenLink{URL: link, Error: err.Error()}
	case status >= http.StatusBadRequest:
		return &BrokenLink{URL: link, Status: status}
	default:
		return nil
	}
}

func (l *Links) request(ctx context.Context, method, link string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, link, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", linkUserAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// extractLinks returns the distinct absolute http(s) targets of the <a>
// elements in value, sorted. Relative links are resolved against baseURL
// and skipped when it is empty.
func extractLinks(value, baseURL string) ([]string, error) {
	doc, err := parseHTML(value)
	if err != nil {
		return nil, err
	}

	var base *url.URL
	if baseURL != "" {
		base, err = url.Parse(baseURL)
		if err != nil || base.Scheme == "" || base.Host == "" {
			base = nil
		}
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		u, err := url.Parse(href)
		if err != nil {
			return
		}
		if !u.IsAbs() {
			if base == nil {
				return
			}
			u = base.ResolveReference(u)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return
		}

		u.Fragment = ""
		link := u.String()
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})
	slices.Sort(links)
	return links, nil
}
