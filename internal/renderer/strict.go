package renderer

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/conneroisu/mdview/internal/errors"
)

// StrictRenderer renders CommonMark with no extensions. Raw HTML passes
// through as the reference CommonMark renderers do.
type StrictRenderer struct {
	md goldmark.Markdown
}

// NewStrictRenderer builds the strict pipeline.
func NewStrictRenderer() *StrictRenderer {
	return &StrictRenderer{
		md: goldmark.New(
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Render implements Renderer.
func (r *StrictRenderer) Render(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return nil, errors.NewRenderError("commonmark conversion failed", err)
	}
	return buf.Bytes(), nil
}
