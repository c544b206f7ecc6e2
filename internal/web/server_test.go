package web

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/wikiserve/internal/config"
	"github.com/rcliao/wikiserve/internal/logger"
	"github.com/rcliao/wikiserve/internal/metrics"
	"github.com/rcliao/wikiserve/internal/model"
	"github.com/rcliao/wikiserve/internal/store"
)

const (
	uaOldChrome = "Mozilla/5.0 (Windows; U; Windows NT 6.1; en-US) AppleWebKit/534.3 (KHTML, like Gecko) Chrome/6.0.472.63 Safari/534.3"
	uaFirefox   = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
)

type testServer struct {
	*Server
	store   *store.SQLiteStore
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, configure func(*config.Config)) *testServer {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "wiki.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	cfg.DBPath = st.Path()
	if configure != nil {
		configure(cfg)
	}
	m := metrics.NewMetrics(prometheus.NewRegistry())

	srv, err := NewServer(Options{Config: cfg, Store: st, Metrics: m})
	require.NoError(t, err)
	return &testServer{Server: srv, store: st, metrics: m}
}

// behindProxy trusts the address httptest gives every request and reads the
// author from the usual proxy headers.
func behindProxy(cfg *config.Config) {
	cfg.TrustedProxies = []string{"192.0.2.0/24"}
	cfg.AuthorHeader = "X-Forwarded-User"
	cfg.AuthorEmailHeader = "X-Forwarded-Email"
}

func (ts *testServer) seed(t *testing.T, files map[string]string) string {
	t.Helper()
	var changes []store.Change
	for p, data := range files {
		changes = append(changes, store.Change{Path: p, Data: []byte(data)})
	}
	sha, err := ts.store.Commit(context.Background(), model.CommitMeta{Message: "seed"}, changes)
	require.NoError(t, err)
	return sha
}

func (ts *testServer) get(t *testing.T, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) post(t *testing.T, target string, form url.Values, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) history(t *testing.T, p string) []model.Revision {
	t.Helper()
	revs, err := ts.store.History(context.Background(), store.HistoryParams{Path: p})
	require.NoError(t, err)
	return revs
}

func TestRootRedirectsToDefaultPage(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.get(t, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))
}

func TestRootRedirectHonorsForwardedPrefix(t *testing.T) {
	ts := newTestServer(t, behindProxy)

	rec := ts.get(t, "/", ForwardedPrefixHeader, "/team/wiki/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/team/wiki/home", rec.Header().Get("Location"))

	// The prefix does not leak into the next request.
	rec = ts.get(t, "/")
	assert.Equal(t, "/home", rec.Header().Get("Location"))
}

func TestForwardedPrefixFromUntrustedClientIsIgnored(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) {
		behindProxy(cfg)
		cfg.TrustedProxies = []string{"10.0.0.0/8"}
	})

	rec := ts.get(t, "/", ForwardedPrefixHeader, "/evil")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))
}

func TestAssetPrefixesAreNotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"css/custom.md": "not an asset"})

	for _, p := range []string{"/javascript/app.js", "/css/custom", "/images/logo.png"} {
		t.Run(p, func(t *testing.T) {
			assert.Equal(t, http.StatusNotFound, ts.get(t, p).Code)
		})
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(ts.metrics.DispatchTotal.WithLabelValues(outcomeAsset)))
}

func TestPageView(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{
		"Home.md":     "# Welcome\n\nHello **wiki**.",
		"_Sidebar.md": "side navigation",
	})

	rec := ts.get(t, "/Home")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<strong>wiki</strong>")
	assert.Contains(t, body, `id="wiki-sidebar"`)
	assert.Contains(t, body, "side navigation")
	assert.Contains(t, body, `href="/edit/Home"`)
	assert.NotContains(t, body, `class="toc"`)
}

func TestPageViewCanonicalName(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"Getting Started.md": "start here"})

	rec := ts.get(t, "/getting-started")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "start here")
}

func TestPageViewTableOfContents(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Wiki.UniversalTOC = true })
	ts.seed(t, map[string]string{"Guide.md": "# Guide\n\n## Install\n\ntext\n\n## Usage\n\nmore"})

	rec := ts.get(t, "/Guide")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `class="toc"`)
	assert.Contains(t, body, `href="#install"`)
	assert.Contains(t, body, `href="#usage"`)
}

func TestPageViewH1Title(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Wiki.H1Title = true })
	ts.seed(t, map[string]string{"Guide.md": "# The Real Title\n\nbody"})

	rec := ts.get(t, "/Guide")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>The Real Title</title>")
}

func TestSectionPagesInheritFromParents(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{
		"docs/api/Reference.md": "reference",
		"docs/_Footer.md":       "docs footer",
		"_Footer.md":            "root footer",
	})

	rec := ts.get(t, "/docs/api/Reference")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "docs footer")
	assert.NotContains(t, body, "root footer")
}

func TestPageFileDir(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Wiki.PageFileDir = "wiki" })
	ts.seed(t, map[string]string{
		"wiki/Home.md": "inside",
		"Home.md":      "outside",
	})

	rec := ts.get(t, "/Home")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "inside")

	rec = ts.get(t, "/wiki/Home")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "inside")
}

func TestPinnedVersion(t *testing.T) {
	ts := newTestServer(t, nil)
	v1 := ts.seed(t, map[string]string{"notes.md": "first draft"})
	ts.seed(t, map[string]string{"notes.md": "second draft"})

	rec := ts.get(t, "/notes/"+v1)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "first draft")
	assert.Contains(t, body, `class="pinned"`)
	assert.NotContains(t, body, `href="/edit/notes"`)

	rec = ts.get(t, "/notes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "second draft")
}

func TestPinnedUnknownVersion(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"notes.md": "draft"})

	rec := ts.get(t, "/notes/"+strings.Repeat("a", 40))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.DispatchTotal.WithLabelValues(outcomeNotFound)))
}

func TestRawFile(t *testing.T) {
	ts := newTestServer(t, nil)
	png := "\x89PNG\r\n\x1a\nrest"
	ts.seed(t, map[string]string{"files/logo.png": png})

	rec := ts.get(t, "/files/logo.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.String())
}

// brokenConn accepts headers but fails every body write.
type brokenConn struct {
	*httptest.ResponseRecorder
}

func (brokenConn) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestRawFileWriteFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	ts := newTestServer(t, nil)
	ts.log = logger.NewLogger(logger.Config{Level: "debug", Output: &logs})
	ts.seed(t, map[string]string{"files/logo.png": "\x89PNG\r\n\x1a\nrest"})

	req := httptest.NewRequest(http.MethodGet, "/files/logo.png", nil)
	outcome, err := ts.dispatch(brokenConn{httptest.NewRecorder()}, req, newScope(req, ""), "files/logo.png")
	require.NoError(t, err)
	assert.Equal(t, outcomeFile, outcome)
	assert.Contains(t, logs.String(), "File write failed")
	assert.Contains(t, logs.String(), "files/logo.png")
	assert.Contains(t, logs.String(), "connection reset by peer")
}

func TestSplitPinned(t *testing.T) {
	sha := strings.Repeat("ab12", 10)
	cases := []struct {
		raw, page, version string
		ok                 bool
	}{
		{"Home/" + sha, "Home", sha, true},
		{"docs/Guide/" + sha, "docs/Guide", sha, true},
		{sha, "", "", false},
		{"/" + sha, "", "", false},
		{"Home/" + strings.ToUpper(sha), "", "", false},
		{"Home/" + sha[:39], "", "", false},
		{"Home", "", "", false},
	}
	for _, tc := range cases {
		page, version, ok := splitPinned(tc.raw)
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.page, page, tc.raw)
		assert.Equal(t, tc.version, version, tc.raw)
	}
}

func TestMissingPathIsNotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"Home.md": "home"})

	rec := ts.get(t, "/nowhere/at/all")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Nothing lives at")
}

func TestSearchRanking(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{
		"Apple.md":  "fruit",
		"Banana.md": "fruit\nfruit",
		"Zebra.md":  "fruit\nfruit",
		"Rock.md":   "mineral",
	})

	rec := ts.get(t, "/search?q=fruit")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	zebra := strings.Index(body, ">Zebra<")
	banana := strings.Index(body, ">Banana<")
	apple := strings.Index(body, ">Apple<")
	require.True(t, zebra > 0 && banana > 0 && apple > 0, "missing results in %s", body)
	assert.Less(t, banana, zebra, "equal counts sort by name")
	assert.Less(t, zebra, apple)
	assert.NotContains(t, body, ">Rock<")
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.SearchQueriesTotal))
}

func TestEditIsIdempotent(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"Home.md": "old"})

	form := url.Values{"content": {"new"}, "format": {"markdown"}, "message": {"update"}}
	for i := 0; i < 2; i++ {
		rec := ts.post(t, "/edit/Home", form)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/home", rec.Header().Get("Location"))
	}

	assert.Len(t, ts.history(t, "Home.md"), 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.EditsTotal.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.EditsTotal.WithLabelValues("skipped")))
}

func TestEditNormalizesLineEndings(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"Home.md": "a\nb"})

	rec := ts.post(t, "/edit/Home", url.Values{"content": {"a\r\nb"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Len(t, ts.history(t, "Home.md"), 1)
}

func TestEditWithoutContentKeepsPage(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"Home.md": "keep me"})

	rec := ts.post(t, "/edit/Home", url.Values{"message": {"nothing"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Len(t, ts.history(t, "Home.md"), 1)
}

func TestEditFormatChange(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"Home.md": "same"})

	rec := ts.post(t, "/edit/Home", url.Values{"content": {"same"}, "format": {"txt"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	f, err := ts.store.ResolveFile(context.Background(), "Home.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "same", string(f.RawData))
}

func TestEditRejectsBadInput(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"Home.md": "home"})

	rec := ts.post(t, "/edit/Home", url.Values{"content": {"x"}, "format": {"docx"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.post(t, "/edit/Home", url.Values{"content": {"x"}, "rename": {"a/b"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.post(t, "/edit/Missing", url.Values{"content": {"x"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Len(t, ts.history(t, "Home.md"), 1)
}

func TestEditRename(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"docs/Draft.md": "text"})

	rec := ts.post(t, "/edit/docs/Draft", url.Values{"content": {"final text"}, "rename": {"Final"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/docs/final", rec.Header().Get("Location"))

	rec = ts.get(t, "/docs/Final")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "final text")
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/docs/Draft").Code)
}

func TestEditRenameOntoExistingPageConflicts(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"Draft.md": "draft", "Final.md": "precious final"})

	rec := ts.post(t, "/edit/Draft", url.Values{"content": {"draft v2"}, "rename": {"Final"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.post(t, "/edit/Draft", url.Values{"content": {"draft v2"}, "rename": {"final"}, "format": {"txt"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.get(t, "/Final")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "precious final")
	assert.Len(t, ts.history(t, "Final.md"), 1)

	rec = ts.get(t, "/Draft")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "draft")
	assert.NotContains(t, rec.Body.String(), "draft v2")
}

func TestEditUsesSessionAuthor(t *testing.T) {
	ts := newTestServer(t, behindProxy)
	ts.seed(t, map[string]string{"Home.md": "old"})

	rec := ts.post(t, "/edit/Home", url.Values{"content": {"new"}, "message": {"by alice"}},
		"X-Forwarded-User", "alice", "X-Forwarded-Email", "alice@example.com")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	revs := ts.history(t, "Home.md")
	require.Len(t, revs, 2)
	assert.Equal(t, "alice", revs[0].Author.Name)
	assert.Equal(t, "alice@example.com", revs[0].Author.Email)
	assert.Equal(t, "by alice", revs[0].Message)
}

func TestEditIgnoresAuthorHeadersFromUntrustedClients(t *testing.T) {
	cases := map[string]func(*config.Config){
		"defaults": nil,
		"untrusted address": func(cfg *config.Config) {
			behindProxy(cfg)
			cfg.TrustedProxies = []string{"10.0.0.0/8"}
		},
	}
	for name, configure := range cases {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t, configure)
			ts.seed(t, map[string]string{"Home.md": "old"})

			rec := ts.post(t, "/edit/Home", url.Values{"content": {"new"}},
				"X-Forwarded-User", "mallory-as-admin", "X-Forwarded-Email", "root@example.com")
			require.Equal(t, http.StatusSeeOther, rec.Code)

			revs := ts.history(t, "Home.md")
			require.Len(t, revs, 2)
			assert.Empty(t, revs[0].Author.Name)
			assert.Empty(t, revs[0].Author.Email)
		})
	}
}

func TestNewServerRejectsBadTrustedProxy(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "wiki.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	cfg.TrustedProxies = []string{"not-a-network"}
	_, err = NewServer(Options{Config: cfg, Store: st})
	assert.Error(t, err)
}

func TestUnsupportedBrowserIsRejected(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"Home.md": "old"})

	rec := ts.get(t, "/edit/Home", "User-Agent", uaOldChrome)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.post(t, "/edit/Home", url.Values{"content": {"new"}}, "User-Agent", uaOldChrome)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, ts.history(t, "Home.md"), 1)

	// Reading is never gated.
	assert.Equal(t, http.StatusOK, ts.get(t, "/Home", "User-Agent", uaOldChrome).Code)
	assert.Equal(t, 2.0, testutil.ToFloat64(ts.metrics.UnsupportedClients))
}

func TestEditForm(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"Home.md": "current <text>"})

	rec := ts.get(t, "/edit/Home", "User-Agent", uaFirefox)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `action="/edit/Home"`)
	assert.Contains(t, body, "current &lt;text&gt;")
	assert.Contains(t, body, `<option value="markdown" selected>`)

	rec = ts.get(t, "/edit/docs/New%20Page")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, `action="/create"`)
	assert.Contains(t, body, `name="path" value="docs"`)
	assert.Contains(t, body, `value="New Page"`)
}

func TestCreate(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.post(t, "/create", url.Values{
		"page":    {"New Page"},
		"path":    {"docs"},
		"format":  {"markdown"},
		"content": {"fresh"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/docs/new-page", rec.Header().Get("Location"))

	rec = ts.get(t, "/docs/new-page")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fresh")
}

func TestCreateConflictsAndInvalidNames(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"Home.md": "home"})

	rec := ts.post(t, "/create", url.Values{"page": {"Home"}, "content": {"again"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.post(t, "/create", url.Values{"page": {""}, "content": {"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.post(t, "/create", url.Values{"page": {"a/b"}, "content": {"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 3.0, testutil.ToFloat64(ts.metrics.EditsTotal.WithLabelValues("failed")))
}

func TestHistoryView(t *testing.T) {
	ts := newTestServer(t, nil)
	v1 := ts.seed(t, map[string]string{"Home.md": "one"})
	v2 := ts.seed(t, map[string]string{"Home.md": "two"})

	rec := ts.get(t, "/history/Home")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="/home/`+v1+`"`)
	assert.Contains(t, body, `href="/home/`+v2+`"`)
	assert.Less(t, strings.Index(body, v2), strings.Index(body, v1))

	assert.Equal(t, http.StatusNotFound, ts.get(t, "/history/Missing").Code)
}

func TestPagesView(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{
		"Home.md":       "home",
		"docs/Guide.md": "guide",
		"files/a.png":   "png",
	})

	body := ts.get(t, "/pages").Body.String()
	assert.Contains(t, body, `href="/home"`)
	assert.Contains(t, body, `href="/docs/guide"`)
	assert.NotContains(t, body, "a.png")

	body = ts.get(t, "/pages?dir=docs").Body.String()
	assert.Contains(t, body, `href="/docs/guide"`)
	assert.NotContains(t, body, `href="/home"`)
}

func TestBasePathMount(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.BasePath = "/wiki" })
	ts.seed(t, map[string]string{"Home.md": "mounted"})

	rec := ts.get(t, "/wiki")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/wiki/", rec.Header().Get("Location"))

	rec = ts.get(t, "/wiki/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/wiki/home", rec.Header().Get("Location"))

	rec = ts.get(t, "/wiki/Home")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "mounted")
	assert.Contains(t, body, `href="/wiki/edit/Home"`)
	assert.Contains(t, body, `action="/wiki/search"`)

	assert.Equal(t, http.StatusNotFound, ts.get(t, "/Home").Code)
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.get(t, "/")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = ts.get(t, "/", RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestGzipResponses(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"Home.md": strings.Repeat("lots of words here\n\n", 200)})

	rec := ts.get(t, "/Home", "Accept-Encoding", "gzip")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), "lots of words here")
}

func TestRouteMetrics(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seed(t, map[string]string{"Home.md": "home"})

	ts.get(t, "/Home")
	ts.get(t, "/search?q=home")

	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.HTTPRequestsTotal.WithLabelValues("dispatch", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.HTTPRequestsTotal.WithLabelValues("search", "200")))
}

func TestNewServerRequiresStore(t *testing.T) {
	_, err := NewServer(Options{Config: config.Default()})
	assert.Error(t, err)
}
