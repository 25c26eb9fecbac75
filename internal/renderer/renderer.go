// Package renderer converts markdown source to HTML.
//
// Two interchangeable flavors sit behind the Renderer interface: Extended,
// a goldmark pipeline with GFM extensions, footnotes, a table of contents and
// chroma syntax highlighting, and Strict, plain CommonMark with no
// extensions. A Set holds one renderer per flavor so request handlers can
// pick by flag without knowing how either is built.
package renderer

import (
	"fmt"
	"strings"
)

// Renderer converts markdown source to an HTML fragment.
type Renderer interface {
	Render(src []byte) ([]byte, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(src []byte) ([]byte, error)

// Render calls f(src).
func (f RendererFunc) Render(src []byte) ([]byte, error) {
	return f(src)
}

// Flavor selects one of the markdown transforms.
type Flavor int

const (
	// Extended is the default transform.
	Extended Flavor = iota
	// Strict follows CommonMark with no extensions.
	Strict
)

// String returns the flavor name
func (f Flavor) String() string {
	switch f {
	case Extended:
		return "extended"
	case Strict:
		return "strict"
	default:
		return "unknown"
	}
}

// ParseFlavor converts a name such as "strict" into a Flavor.
func ParseFlavor(s string) (Flavor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "extended", "":
		return Extended, nil
	case "strict", "commonmark":
		return Strict, nil
	default:
		return Extended, fmt.Errorf("unknown flavor %q (supported: extended, strict)", s)
	}
}

// FlavorFor maps the strict request flag to a flavor.
func FlavorFor(strict bool) Flavor {
	if strict {
		return Strict
	}
	return Extended
}

// Options configures the renderers built by NewSet.
type Options struct {
	// Style is the chroma style name used for highlight CSS.
	Style string
	// TabWidth is the tab stop the extended flavor expands tabs to.
	TabWidth int
}

// Set holds one renderer per flavor.
type Set struct {
	renderers map[Flavor]Renderer
}

// NewSet builds the extended and strict renderers.
func NewSet(opts Options) (*Set, error) {
	extended, err := NewExtendedRenderer(opts)
	if err != nil {
		return nil, err
	}

	return &Set{
		renderers: map[Flavor]Renderer{
			Extended: extended,
			Strict:   NewStrictRenderer(),
		},
	}, nil
}

// NewSetWith builds a set from explicit renderers, mainly for tests.
func NewSetWith(extended, strict Renderer) *Set {
	return &Set{
		renderers: map[Flavor]Renderer{
			Extended: extended,
			Strict:   strict,
		},
	}
}

// For returns the renderer for a flavor. Unknown flavors get the extended
// renderer.
func (s *Set) For(f Flavor) Renderer {
	if r, ok := s.renderers[f]; ok {
		return r
	}
	return s.renderers[Extended]
}
