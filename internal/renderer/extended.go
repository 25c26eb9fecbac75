package renderer

import (
	"bytes"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmrenderer "github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/conneroisu/mdview/internal/errors"
)

// ExtendedRenderer renders markdown with footnotes, tables, highlighted
// fenced and indented code, a [TOC] marker, bare URL autolinks, ~~strike~~
// and task lists.
type ExtendedRenderer struct {
	md       goldmark.Markdown
	tabWidth int
}

// NewExtendedRenderer builds the extended pipeline. The style must name a
// registered chroma style.
func NewExtendedRenderer(opts Options) (*ExtendedRenderer, error) {
	style, err := lookupStyle(opts.Style)
	if err != nil {
		return nil, err
	}
	tabWidth := opts.TabWidth
	if tabWidth <= 0 {
		tabWidth = 2
	}

	formatOptions := []chromahtml.Option{chromahtml.WithClasses(true)}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // tables, strikethrough, linkify, task lists
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style.Name),
				highlighting.WithGuessLanguage(true),
				highlighting.WithFormatOptions(formatOptions...),
			),
			NewTOC(),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			gmrenderer.WithNodeRenderers(
				util.Prioritized(newCodeBlockRenderer(style, formatOptions...), 100),
			),
		),
	)

	return &ExtendedRenderer{md: md, tabWidth: tabWidth}, nil
}

// Render implements Renderer.
func (r *ExtendedRenderer) Render(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(expandTabs(src, r.tabWidth), &buf); err != nil {
		return nil, errors.NewRenderError("extended markdown conversion failed", err)
	}
	return buf.Bytes(), nil
}

// expandTabs replaces every tab with spaces up to the next multiple of width,
// counting columns in runes and restarting at each line break.
func expandTabs(src []byte, width int) []byte {
	if bytes.IndexByte(src, '\t') < 0 {
		return src
	}

	out := make([]byte, 0, len(src)+len(src)/8)
	col := 0
	for _, b := range src {
		switch b {
		case '\t':
			n := width - col%width
			for i := 0; i < n; i++ {
				out = append(out, ' ')
			}
			col += n
		case '\n', '\r':
			out = append(out, b)
			col = 0
		default:
			out = append(out, b)
			if b&0xC0 != 0x80 {
				col++
			}
		}
	}
	return out
}
