// Package assets holds static files bundled into the mdview binary.
package assets

import (
	_ "embed"
)

// documentCSS is the GitHub-like typography, table and list styling applied
// to every rendered page under the .markdown-body class.
//
//go:embed github.css
var documentCSS string

// DocumentCSS returns the embedded document stylesheet verbatim.
func DocumentCSS() string {
	return documentCSS
}
