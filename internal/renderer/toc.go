package renderer

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// DefaultTOCMarker is the paragraph text replaced by a table of contents.
const DefaultTOCMarker = "[TOC]"

// KindTOC is the node kind of a table of contents block.
var KindTOC = ast.NewNodeKind("TOC")

// TOCNode is a block holding the nested heading list built for a marker.
type TOCNode struct {
	ast.BaseBlock
}

// Kind implements ast.Node.
func (n *TOCNode) Kind() ast.NodeKind {
	return KindTOC
}

// Dump implements ast.Node.
func (n *TOCNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// TOC is a goldmark extension that gives headings ids and replaces every
// paragraph consisting only of the marker with a nested list of links to the
// document's headings.
type TOC struct {
	Marker string
}

// NewTOC returns the extension with the default marker.
func NewTOC() *TOC {
	return &TOC{Marker: DefaultTOCMarker}
}

// Extend implements goldmark.Extender.
func (e *TOC) Extend(m goldmark.Markdown) {
	marker := e.Marker
	if marker == "" {
		marker = DefaultTOCMarker
	}
	m.Parser().AddOptions(
		parser.WithAutoHeadingID(),
		parser.WithASTTransformers(
			util.Prioritized(&tocTransformer{marker: []byte(marker)}, 100),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(&tocRenderer{}, 500),
		),
	)
}

type tocHeading struct {
	level int
	id    []byte
	text  []byte
}

type tocTransformer struct {
	marker []byte
}

// Transform implements parser.ASTTransformer.
func (t *tocTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()

	var headings []tocHeading
	var markers []ast.Node

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			h := tocHeading{level: node.Level, text: nodeText(node, source)}
			if id, ok := node.AttributeString("id"); ok {
				if b, ok := id.([]byte); ok {
					h.id = b
				}
			}
			headings = append(headings, h)
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if t.isMarker(node, source) {
				markers = append(markers, node)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, m := range markers {
		toc := &TOCNode{}
		if len(headings) > 0 {
			toc.AppendChild(toc, buildTOCList(headings))
		}
		m.Parent().ReplaceChild(m.Parent(), m, toc)
	}
}

func (t *tocTransformer) isMarker(p *ast.Paragraph, source []byte) bool {
	lines := p.Lines()
	if lines.Len() != 1 {
		return false
	}
	line := lines.At(0)
	return bytes.Equal(bytes.TrimSpace(line.Value(source)), t.marker)
}

// buildTOCList nests headings by level. A heading deeper than its predecessor
// opens a sub-list inside the predecessor's item; a shallower one closes
// sub-lists until a list at its level or above is reached.
func buildTOCList(headings []tocHeading) *ast.List {
	type frame struct {
		list  *ast.List
		level int
		last  *ast.ListItem
	}

	root := newTOCList()
	stack := []frame{{list: root, level: headings[0].level}}

	for _, h := range headings {
		for len(stack) > 1 && h.level < stack[len(stack)-1].level {
			stack = stack[:len(stack)-1]
		}

		top := stack[len(stack)-1]
		if h.level > top.level && top.last != nil {
			sub := newTOCList()
			top.last.AppendChild(top.last, sub)
			stack = append(stack, frame{list: sub, level: h.level})
		}

		item := newTOCItem(h)
		current := &stack[len(stack)-1]
		current.list.AppendChild(current.list, item)
		current.last = item
	}

	return root
}

func newTOCList() *ast.List {
	list := ast.NewList('-')
	list.IsTight = true
	return list
}

func newTOCItem(h tocHeading) *ast.ListItem {
	link := ast.NewLink()
	link.Destination = append([]byte("#"), h.id...)
	link.AppendChild(link, ast.NewString(h.text))

	block := ast.NewTextBlock()
	block.AppendChild(block, link)

	item := ast.NewListItem(2)
	item.AppendChild(item, block)
	return item
}

// nodeText concatenates the text under n, turning soft line breaks into
// spaces.
func nodeText(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(source))
			if node.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		default:
			buf.Write(nodeText(c, source))
		}
	}
	return buf.Bytes()
}

type tocRenderer struct{}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *tocRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindTOC, r.renderTOC)
}

func (r *tocRenderer) renderTOC(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<div class=\"toc\">\n")
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}
