// Package testutils holds fixtures shared by the mdview test suites.
package testutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/conneroisu/mdview/internal/config"
)

// WriteFiles creates a temporary directory holding files, keyed by slash
// separated relative path. Parent directories are created as needed.
func WriteFiles(t testing.TB, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

// SetModTime sets both the access and modification time of path.
func SetModTime(t testing.TB, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

// TestConfig returns the default configuration serving dir.
func TestConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Render.Dir = dir
	return cfg
}

// Link is an anchor found in an HTML page.
type Link struct {
	Href string
	Text string
}

// ParseLinks returns every <a> element of body in document order.
func ParseLinks(t testing.TB, body string) []Link {
	t.Helper()

	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)

	var links []Link
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			l := Link{Text: textContent(n)}
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					l.Href = attr.Val
				}
			}
			links = append(links, l)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
