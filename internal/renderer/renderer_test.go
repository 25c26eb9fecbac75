package renderer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark/ast"

	"github.com/conneroisu/mdview/internal/errors"
)

func newTestSet(t *testing.T) *Set {
	t.Helper()
	set, err := NewSet(Options{Style: "pygments", TabWidth: 2})
	require.NoError(t, err)
	return set
}

func render(t *testing.T, r Renderer, src string) string {
	t.Helper()
	out, err := r.Render([]byte(src))
	require.NoError(t, err)
	return string(out)
}

func TestFlavor(t *testing.T) {
	assert.Equal(t, "extended", Extended.String())
	assert.Equal(t, "strict", Strict.String())
	assert.Equal(t, "unknown", Flavor(7).String())

	assert.Equal(t, Strict, FlavorFor(true))
	assert.Equal(t, Extended, FlavorFor(false))

	f, err := ParseFlavor("CommonMark")
	require.NoError(t, err)
	assert.Equal(t, Strict, f)

	f, err = ParseFlavor("")
	require.NoError(t, err)
	assert.Equal(t, Extended, f)

	_, err = ParseFlavor("gfm")
	assert.Error(t, err)
}

func TestExtendedFeatures(t *testing.T) {
	extended := newTestSet(t).For(Extended)

	tests := []struct {
		name     string
		input    string
		contains []string
	}{
		{
			name:     "strikethrough",
			input:    "this is ~~gone~~ now",
			contains: []string{"<del>gone</del>"},
		},
		{
			name:     "table",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |\n",
			contains: []string{"<table>", "<th>a</th>", "<td>2</td>"},
		},
		{
			name:     "task list",
			input:    "- [x] done\n- [ ] todo\n",
			contains: []string{`type="checkbox"`, "checked"},
		},
		{
			name:     "footnote",
			input:    "A claim.[^1]\n\n[^1]: The source.\n",
			contains: []string{`class="footnote-ref"`, `class="footnotes"`, "The source."},
		},
		{
			name:     "bare url",
			input:    "see https://example.com for more",
			contains: []string{`<a href="https://example.com">https://example.com</a>`},
		},
		{
			name:     "heading id",
			input:    "# Hello World\n",
			contains: []string{`<h1 id="hello-world">Hello World</h1>`},
		},
		{
			name:     "fenced code",
			input:    "```go\npackage main\n```\n",
			contains: []string{`class="chroma"`, "package"},
		},
		{
			name:     "indented code",
			input:    "Example:\n\n    #!/bin/sh\n    echo hello\n",
			contains: []string{`class="chroma"`, "echo"},
		},
		{
			name:     "raw html",
			input:    "<span class=\"note\">kept</span>\n",
			contains: []string{`<span class="note">kept</span>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, extended, tt.input)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestStrictHasNoExtensions(t *testing.T) {
	strict := newTestSet(t).For(Strict)

	assert.NotContains(t, render(t, strict, "this is ~~gone~~ now"), "<del>")
	assert.NotContains(t, render(t, strict, "| a | b |\n|---|---|\n| 1 | 2 |\n"), "<table>")
	assert.NotContains(t, render(t, strict, "see https://example.com"), "<a ")
	assert.Equal(t, "<h1>Hello</h1>\n", render(t, strict, "# Hello\n"))
	assert.Equal(t, "<p>[TOC]</p>\n", render(t, strict, "[TOC]\n"))
	assert.Contains(t, render(t, strict, "Example:\n\n    echo hi\n"), "<pre><code>echo hi\n</code></pre>")
	assert.Contains(t, render(t, strict, "<b>raw</b>\n"), "<b>raw</b>")
}

func TestTableOfContents(t *testing.T) {
	extended := newTestSet(t).For(Extended)

	out := render(t, extended, "[TOC]\n\n# Alpha\n\n## Beta\n\n# Gamma\n")

	require.Contains(t, out, `<div class="toc">`)
	assert.NotContains(t, out, "[TOC]")
	assert.Equal(t, 2, strings.Count(out, "<ul>"))

	alpha := strings.Index(out, `<a href="#alpha">Alpha</a>`)
	beta := strings.Index(out, `<a href="#beta">Beta</a>`)
	gamma := strings.Index(out, `<a href="#gamma">Gamma</a>`)
	require.True(t, alpha >= 0 && beta >= 0 && gamma >= 0, out)
	assert.Less(t, alpha, beta)
	assert.Less(t, beta, gamma)

	// Beta nests under Alpha, so its list opens before Alpha's item closes.
	assert.Less(t, strings.Index(out[alpha:], "<ul>"), strings.Index(out[alpha:], "</li>"))
}

func TestTableOfContentsWithoutHeadings(t *testing.T) {
	out := render(t, newTestSet(t).For(Extended), "[TOC]\n\nJust text.\n")

	assert.Contains(t, out, "<div class=\"toc\">\n</div>")
	assert.NotContains(t, out, "<ul>")
}

func TestBuildTOCListShallowerFirst(t *testing.T) {
	list := buildTOCList([]tocHeading{
		{level: 2, id: []byte("b"), text: []byte("B")},
		{level: 1, id: []byte("a"), text: []byte("A")},
		{level: 3, id: []byte("c"), text: []byte("C")},
	})

	assert.Equal(t, 2, list.ChildCount())
	second := list.LastChild()
	require.Equal(t, 2, second.ChildCount())
	assert.Equal(t, ast.KindList, second.LastChild().Kind())
}

func TestExpandTabs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"no tabs", "plain", 2, "plain"},
		{"leading tab", "\tcode", 2, "  code"},
		{"mid line", "a\tb", 2, "a b"},
		{"aligned", "ab\tc", 2, "ab  c"},
		{"multi line", "\ta\n\tb", 2, "  a\n  b"},
		{"width four", "x\ty", 4, "x   y"},
		{"multibyte", "é\tx", 2, "é x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(expandTabs([]byte(tt.input), tt.width)))
		})
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	set := newTestSet(t)
	src := []byte("[TOC]\n\n# Title\n\nText[^n] with ~~strike~~.\n\n```python\nprint('x')\n```\n\n[^n]: note\n")

	for _, flavor := range []Flavor{Extended, Strict} {
		first, err := set.For(flavor).Render(src)
		require.NoError(t, err)
		second, err := set.For(flavor).Render(src)
		require.NoError(t, err)
		assert.Equal(t, first, second, flavor.String())
	}
}

func TestUnknownStyle(t *testing.T) {
	_, err := NewSet(Options{Style: "no-such-style"})
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))

	_, err = HighlightCSS("no-such-style")
	assert.Error(t, err)
}

func TestHighlightCSS(t *testing.T) {
	css, err := HighlightCSS("pygments")
	require.NoError(t, err)
	assert.Contains(t, css, ".chroma")

	again, err := HighlightCSS("Pygments")
	require.NoError(t, err)
	assert.Equal(t, css, again)

	assert.Contains(t, StyleNames(), "github")
}

func TestSetWith(t *testing.T) {
	upper := RendererFunc(func(src []byte) ([]byte, error) {
		return []byte(strings.ToUpper(string(src))), nil
	})
	echo := RendererFunc(func(src []byte) ([]byte, error) { return src, nil })

	set := NewSetWith(upper, echo)

	assert.Equal(t, "HI", render(t, set.For(Extended), "hi"))
	assert.Equal(t, "hi", render(t, set.For(Strict), "hi"))
	assert.Equal(t, "HI", render(t, set.For(Flavor(9)), "hi"))
}
