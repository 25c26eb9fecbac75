package server

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/conneroisu/mdview/internal/errors"
	"github.com/conneroisu/mdview/internal/logging"
	"github.com/conneroisu/mdview/internal/renderer"
	"github.com/conneroisu/mdview/internal/scanner"
	"github.com/conneroisu/mdview/internal/validation"
)

const listingTitle = "Available Files"

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request, params *Params) {
	files, err := scanner.MarkdownFiles(s.dir)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	query := ""
	if params.Len() > 0 {
		query = "?" + params.Encode()
	}

	switch len(files) {
	case 0:
		s.writeError(w, r, errors.NewNotFoundError(errors.ErrCodeNoMarkdown,
			fmt.Sprintf("no markdown files in current working dir (%s)", s.rootName)))
	case 1:
		w.Header().Set("Location", "/"+PathEscape(files[0])+query)
		w.WriteHeader(http.StatusFound)
	default:
		var buf bytes.Buffer
		buf.WriteString("<html><head><title>" + listingTitle + "</title></head><body><h3>" + listingTitle + "</h3><ul>")
		for _, f := range files {
			fmt.Fprintf(&buf, "<li><a href=\"%s\">%s</a></li>",
				html.EscapeString(PathEscape(f)+query), html.EscapeString(f))
		}
		buf.WriteString("</ul></body></html>")

		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Last-Modified", s.now().UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request, name string, flavor renderer.Flavor) {
	if !strings.Contains(name, ".") {
		name += scanner.MarkdownExt
	}
	if !scanner.IsMarkdown(name) {
		s.writeError(w, r, notFound(name))
		return
	}

	perf := logging.StartOperation(s.logger, "render")

	src, info, err := s.readFile(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := s.Page(src, flavor)
	if err != nil {
		perf.EndWithError(r.Context(), err, "file", name)
		s.writeError(w, r, err)
		return
	}
	perf.End(r.Context(), "file", name, "flavor", flavor.String(), "bytes", len(page))
	s.metrics.AddRenderedBytes(len(page))

	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))
	w.Header().Set("Content-Length", strconv.Itoa(len(page)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

// readFile reads name from the served directory. Names that do not exist or
// that lead outside the directory are not found; anything else that stops
// the read is an I/O error.
func (s *Server) readFile(name string) ([]byte, fs.FileInfo, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, nil, notFound(name)
	}

	root, err := os.OpenRoot(s.dir)
	if err != nil {
		return nil, nil, errors.NewIOError(errors.ErrCodeDirUnreadable,
			fmt.Sprintf("%s could not be read", name), err)
	}
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil, notFound(name)
		}
		return nil, nil, unreadable(name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, unreadable(name, err)
	}
	if info.IsDir() {
		return nil, nil, unreadable(name, fmt.Errorf("%s is a directory", name))
	}

	src, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, unreadable(name, err)
	}
	return src, info, nil
}

func notFound(name string) error {
	return errors.NewNotFoundError(errors.ErrCodeFileNotFound, name+" not found").WithFile(name)
}

func unreadable(name string, cause error) error {
	return errors.NewIOError(errors.ErrCodeFileUnreadable, name+" could not be read", cause).WithFile(name)
}

// writeError answers with the status mapped from err and a small HTML page
// carrying its public message. Server errors are logged with their cause.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	msg := errors.PublicMessage(err)

	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), err, "request failed", "path", r.RequestURI, "status", status)
	} else {
		s.logger.Debug(r.Context(), "request rejected", "path", r.RequestURI, "status", status, "reason", msg)
	}

	body := fmt.Sprintf("<html><head><title>Error response</title></head><body>"+
		"<h1>Error response</h1><p>Error code: %d</p><p>Message: %s</p></body></html>",
		status, html.EscapeString(msg))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// PathEscape percent-encodes every byte of s except the unreserved
// characters A-Z a-z 0-9 - _ . ~.
func PathEscape(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	}
	return false
}
