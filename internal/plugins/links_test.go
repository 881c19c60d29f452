package plugins

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLinkServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/get-only", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractLinks(t *testing.T) {
	html := `<p>
		<a href="https://example.com/b#frag">b</a>
		<a href="https://example.com/a">a</a>
		<a href="https://example.com/b">dup</a>
		<a href="/relative">rel</a>
		<a href="#top">anchor</a>
		<a href="mailto:x@example.com">mail</a>
		<a>no href</a>
	</p>`

	links, err := extractLinks(html, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, links)

	links, err = extractLinks(html, "https://site.test/root/")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b", "https://site.test/relative"}, links)
}

func TestLinks_Check(t *testing.T) {
	srv := newLinkServer(t)
	p := NewLinks(srv.Client(), time.Second, nil)

	value := `<a href="` + srv.URL + `/ok">ok</a>
		<a href="` + srv.URL + `/missing">missing</a>
		<a href="` + srv.URL + `/get-only">get</a>`

	outcome, err := p.Check(context.Background(), 1, value, settingsWith())
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.True(t, outcome.Failed)
	assert.Equal(t, 1, outcome.FailedCount)
	assert.Equal(t, 3, outcome.TotalTests)
	assert.Equal(t, 4, outcome.SortOrder)
	assert.Equal(t, LinksResult{
		Checked: 3,
		Broken:  []BrokenLink{{URL: srv.URL + "/missing", Status: http.StatusNotFound}},
	}, outcome.Result)
}

func TestLinks_NoLinks(t *testing.T) {
	p := NewLinks(nil, time.Second, nil)
	outcome, err := p.Check(context.Background(), 1, "<p>No links</p>", settingsWith())
	require.NoError(t, err)
	assert.Nil(t, outcome)
}

func TestLinks_TimeoutMarksBroken(t *testing.T) {
	srv := newLinkServer(t)
	p := NewLinks(srv.Client(), 50*time.Millisecond, nil)

	start := time.Now()
	outcome, err := p.Check(context.Background(), 1, `<a href="`+srv.URL+`/slow">slow</a>`, settingsWith(SettingLinksTimeout, "0"))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.NotNil(t, outcome)
	assert.True(t, outcome.Failed)
	broken := outcome.Result.(LinksResult).Broken
	require.Len(t, broken, 1)
	assert.NotEmpty(t, broken[0].Error)
}
