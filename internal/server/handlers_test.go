package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/mdview/internal/monitoring"
	"github.com/conneroisu/mdview/internal/testutils"
)

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func setupTestServer(t *testing.T, files map[string]string, opts ...Option) (*Server, string) {
	t.Helper()

	dir := testutils.WriteFiles(t, files)
	server, err := New(testutils.TestConfig(dir), append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
	require.NoError(t, err)
	return server, dir
}

func doRequest(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestListingNoFiles(t *testing.T) {
	server, dir := setupTestServer(t, map[string]string{"notes.txt": "x"})

	w := doRequest(server, http.MethodGet, "/")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(),
		"no markdown files in current working dir ("+filepath.Base(dir)+")")
}

func TestListingSingleFileRedirects(t *testing.T) {
	server, _ := setupTestServer(t, map[string]string{"my notes.md": "# hi", "other.txt": ""})

	w := doRequest(server, http.MethodGet, "/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/my%20notes.md", w.Header().Get("Location"))

	w = doRequest(server, http.MethodGet, "/?c=yes")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/my%20notes.md?c=yes", w.Header().Get("Location"))

	w = doRequest(server, http.MethodGet, "/?c")
	assert.Equal(t, "/my%20notes.md?c=", w.Header().Get("Location"))
}

func TestListingManyFiles(t *testing.T) {
	server, _ := setupTestServer(t, map[string]string{
		"alpha.md":   "a",
		"beta.md":    "b",
		"a&b.md":     "c",
		"README.md":  "d",
		"ignore.txt": "e",
	})

	w := doRequest(server, http.MethodGet, "/")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html", w.Header().Get("Content-Type"))
	assert.Equal(t, fixedNow.Format(http.TimeFormat), w.Header().Get("Last-Modified"))
	assert.Contains(t, w.Body.String(), "<title>Available Files</title>")

	links := testutils.ParseLinks(t, w.Body.String())
	assert.Equal(t, []testutils.Link{
		{Href: "beta.md", Text: "beta.md"},
		{Href: "alpha.md", Text: "alpha.md"},
		{Href: "a%26b.md", Text: "a&b.md"},
		{Href: "README.md", Text: "README.md"},
	}, links)
	assert.Contains(t, w.Body.String(), ">a&amp;b.md</a>")
}

func TestListingKeepsQuery(t *testing.T) {
	server, _ := setupTestServer(t, map[string]string{"one.md": "1", "two.md": "2"})

	w := doRequest(server, http.MethodGet, "/?c=1&c=2")

	require.Equal(t, http.StatusOK, w.Code)
	for _, l := range testutils.ParseLinks(t, w.Body.String()) {
		assert.True(t, strings.HasSuffix(l.Href, ".md?c=1&c=2"), l.Href)
	}
}

func TestFileRender(t *testing.T) {
	server, dir := setupTestServer(t, map[string]string{"doc.md": "# Title\n\nSome ~~old~~ text.\n"})
	mtime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	testutils.SetModTime(t, filepath.Join(dir, "doc.md"), mtime)

	w := doRequest(server, http.MethodGet, "/doc.md")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html", w.Header().Get("Content-Type"))
	assert.Equal(t, "Tue, 02 Jan 2024 03:04:05 GMT", w.Header().Get("Last-Modified"))

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "<html><head><style>\n"))
	assert.True(t, strings.HasSuffix(body, "</body></html>"))
	assert.Contains(t, body, ".chroma")
	assert.Contains(t, body, ".markdown-body")
	assert.Contains(t, body, "</style></head><body class=\"markdown-body\">\n")
	assert.Contains(t, body, `<h1 id="title">Title</h1>`)
	assert.Contains(t, body, "<del>old</del>")
}

func TestFileRenderInfersExtension(t *testing.T) {
	server, _ := setupTestServer(t, map[string]string{"report.md": "Quarterly **numbers**\n"})

	w := doRequest(server, http.MethodGet, "/report")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<strong>numbers</strong>")
}

func TestFileRenderFlavors(t *testing.T) {
	server, _ := setupTestServer(t, map[string]string{"name.md": "this is ~~struck~~\n"})

	extended := doRequest(server, http.MethodGet, "/name.md")
	strict := doRequest(server, http.MethodGet, "/name.md?c")

	require.Equal(t, http.StatusOK, extended.Code)
	require.Equal(t, http.StatusOK, strict.Code)
	assert.Contains(t, extended.Body.String(), "<del>struck</del>")
	assert.NotContains(t, strict.Body.String(), "<del>")
	assert.Contains(t, strict.Body.String(), "~~struck~~")

	valued := doRequest(server, http.MethodGet, "/name.md?c=0")
	assert.Equal(t, strict.Body.String(), valued.Body.String())
}

func TestFileRenderIsDeterministic(t *testing.T) {
	server, _ := setupTestServer(t, map[string]string{
		"doc.md": "[TOC]\n\n# A\n\n```go\nfunc main() {}\n```\n\nNote[^1]\n\n[^1]: here\n",
	})

	first := doRequest(server, http.MethodGet, "/doc.md")
	second := doRequest(server, http.MethodGet, "/doc.md")

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	assert.Equal(t, first.Header().Get("Last-Modified"), second.Header().Get("Last-Modified"))
}

func TestFileRenderRereadsFile(t *testing.T) {
	server, dir := setupTestServer(t, map[string]string{"doc.md": "first\n"})

	assert.Contains(t, doRequest(server, http.MethodGet, "/doc.md").Body.String(), "<p>first</p>")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.md"), []byte("second\n"), 0644))
	assert.Contains(t, doRequest(server, http.MethodGet, "/doc.md").Body.String(), "<p>second</p>")
}

func TestFileErrors(t *testing.T) {
	server, dir := setupTestServer(t, map[string]string{
		"notes.txt":      "plain",
		"sub/inner.md":   "# inner",
		"folder.md/x.md": "nested",
	})
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(dir), "outside.md"), []byte("secret"), 0644))

	tests := []struct {
		name   string
		target string
		status int
		body   string
	}{
		{"missing", "/missing.md", http.StatusNotFound, "missing.md not found"},
		{"missing inferred", "/missing", http.StatusNotFound, "missing.md not found"},
		{"not markdown", "/notes.txt", http.StatusNotFound, "notes.txt not found"},
		{"parent escape", "/../outside.md", http.StatusNotFound, "../outside.md not found"},
		{"absolute", "//etc/passwd.md", http.StatusNotFound, "/etc/passwd.md not found"},
		{"encoded name is not decoded", "/sub%2Finner.md", http.StatusNotFound, "sub%2Finner.md not found"},
		{"directory", "/folder.md", http.StatusInternalServerError, "folder.md could not be read"},
		{"subdirectory", "/sub/inner.md", http.StatusOK, `<h1 id="inner">inner</h1>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(server, http.MethodGet, tt.target)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
			if tt.status != http.StatusOK {
				assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
				assert.Empty(t, w.Header().Get("Last-Modified"))
			}
		})
	}
}

func TestQueryErrors(t *testing.T) {
	server, _ := setupTestServer(t, map[string]string{"a.md": "a", "x.md": "x"})

	tests := []struct {
		name   string
		target string
		status int
		body   string
	}{
		{"unknown param", "/a?b=1", http.StatusBadRequest, "unrecognized param: b"},
		{"unknown param on listing", "/?d", http.StatusBadRequest, "unrecognized param: d"},
		{"first unknown wins", "/x?c&z=1&y=2", http.StatusBadRequest, "unrecognized param: z"},
		{"one question mark", "/x?y=1&z=2", http.StatusBadRequest, "unrecognized param: y"},
		{"multiple question marks", "/x?c?c", http.StatusInternalServerError, "invalid URL, multiple &#39;?&#39;"},
		{"multiple on listing", "/??", http.StatusInternalServerError, "invalid URL, multiple"},
		{"malformed escape", "/a.md?c=%zz", http.StatusBadRequest, "malformed query string"},
		{"escaped html", "/a?%3Cb%3E", http.StatusBadRequest, "unrecognized param: &lt;b&gt;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(server, http.MethodGet, tt.target)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server, _ := setupTestServer(t, map[string]string{"a.md": "a"})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		w := doRequest(server, method, "/a.md")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.Equal(t, "GET, HEAD", w.Header().Get("Allow"))
	}

	w := doRequest(server, http.MethodHead, "/a.md")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("Last-Modified"))
}

func TestServerMetrics(t *testing.T) {
	metrics := monitoring.NewMetrics()
	server, _ := setupTestServer(t, map[string]string{"a.md": "a", "b.md": "b"}, WithMetrics(metrics))

	doRequest(server, http.MethodGet, "/")
	doRequest(server, http.MethodGet, "/a.md")
	doRequest(server, http.MethodGet, "/missing.md")

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := w.Body.String()
	assert.Contains(t, body, `mdview_http_requests_total{method="GET",route="listing",status="200"} 1`)
	assert.Contains(t, body, `mdview_http_requests_total{method="GET",route="file",status="200"} 1`)
	assert.Contains(t, body, `mdview_http_requests_total{method="GET",route="file",status="404"} 1`)
	assert.Contains(t, body, "mdview_rendered_bytes_total")
}

func TestPathEscape(t *testing.T) {
	tests := map[string]string{
		"plain.md":    "plain.md",
		"my notes.md": "my%20notes.md",
		"a/b.md":      "a%2Fb.md",
		"x~y_z-1.md":  "x~y_z-1.md",
		"100%.md":     "100%25.md",
		"q?.md":       "q%3F.md",
		"café.md":     "caf%C3%A9.md",
	}

	for in, want := range tests {
		assert.Equal(t, want, PathEscape(in), in)
	}
}

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	server, _ := setupTestServer(t, map[string]string{"a.md": "a"})

	for _, target := range []string{"/", "/a.md", "/missing.md", "/a?x"} {
		w := doRequest(server, http.MethodGet, target)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"), target)
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"), target)
	}
}
