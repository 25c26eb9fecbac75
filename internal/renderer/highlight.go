package renderer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/conneroisu/mdview/internal/errors"
)

// lookupStyle resolves a chroma style by name without falling back.
func lookupStyle(name string) (*chroma.Style, error) {
	style, ok := styles.Registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.NewConfigError(
			errors.ErrCodeUnknownStyle,
			fmt.Sprintf("unknown highlight style %q", name),
		)
	}
	return style, nil
}

// StyleNames lists the registered chroma styles.
func StyleNames() []string {
	return styles.Names()
}

// HighlightCSS returns the class definitions for highlighted code in the
// named style. The classes match what the extended renderer emits.
func HighlightCSS(name string) (string, error) {
	style, err := lookupStyle(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, style); err != nil {
		return "", errors.NewInternalError(errors.ErrCodeRenderFailed, "writing highlight css", err)
	}
	return buf.String(), nil
}

// codeBlockRenderer highlights indented code blocks. Fenced blocks are
// handled by goldmark-highlighting; indented ones carry no language, so the
// lexer is picked by content analysis.
type codeBlockRenderer struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

func newCodeBlockRenderer(style *chroma.Style, opts ...chromahtml.Option) renderer.NodeRenderer {
	return &codeBlockRenderer{
		formatter: chromahtml.New(opts...),
		style:     style,
	}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
}

func (r *codeBlockRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var code bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		code.Write(segment.Value(source))
	}

	lexer := lexers.Analyse(code.String())
	if lexer == nil {
		lexer = lexers.Fallback
	}

	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code.String())
	if err != nil {
		return ast.WalkStop, err
	}
	if err := r.formatter.Format(w, r.style, iterator); err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, nil
}
