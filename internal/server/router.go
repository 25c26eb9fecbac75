package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/conneroisu/mdview/internal/errors"
	"github.com/conneroisu/mdview/internal/renderer"
)

// StrictParam is the only recognized query key. Its presence, with or
// without a value, selects the strict renderer.
const StrictParam = "c"

// Params is a parsed query string that remembers the order in which keys
// first appeared.
type Params struct {
	keys   []string
	values url.Values
}

// Has reports whether key appeared in the query, even with an empty value.
func (p *Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns the keys in first-appearance order.
func (p *Params) Keys() []string {
	return p.keys
}

// Len returns the number of distinct keys.
func (p *Params) Len() int {
	return len(p.keys)
}

// Encode re-encodes the parameters in first-appearance order, repeating a
// key once per value.
func (p *Params) Encode() string {
	var b strings.Builder
	for _, k := range p.keys {
		ek := url.QueryEscape(k)
		for _, v := range p.values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(ek)
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// ParseQuery parses a raw query string. Pairs are separated by '&'; a pair
// without '=' has an empty value. Escapes that cannot be decoded, or a
// semicolon in a key, make the whole query malformed.
func ParseQuery(raw string) (*Params, error) {
	p := &Params{values: url.Values{}}

	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}

		key, value, _ := strings.Cut(pair, "=")
		if strings.Contains(key, ";") {
			return nil, errors.NewValidationError(errors.ErrCodeMalformedQuery, "malformed query string")
		}

		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeMalformedQuery, "malformed query string")
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeMalformedQuery, "malformed query string")
		}

		if _, seen := p.values[k]; !seen {
			p.keys = append(p.keys, k)
		}
		p.values[k] = append(p.values[k], v)
	}

	return p, nil
}

// request is the routing decision for one raw request target.
type request struct {
	listing bool
	name    string
	params  *Params
}

// parseTarget splits a raw request target into path and query, validates the
// query keys and picks the listing or file branch. The path is not
// percent-decoded.
func parseTarget(target string) (*request, error) {
	parts := strings.Split(target, "?")
	if len(parts) > 2 {
		return nil, errors.NewRequestError(errors.ErrCodeMultipleQuery, "invalid URL, multiple '?'")
	}

	params := &Params{values: url.Values{}}
	if len(parts) == 2 {
		var err error
		if params, err = ParseQuery(parts[1]); err != nil {
			return nil, err
		}
	}

	for _, k := range params.Keys() {
		if k != StrictParam {
			return nil, errors.NewValidationError(errors.ErrCodeUnknownParam, "unrecognized param: "+k)
		}
	}

	path := parts[0]
	if path == "/" {
		return &request{listing: true, params: params}, nil
	}
	return &request{name: strings.TrimPrefix(path, "/"), params: params}, nil
}

// requestTarget returns the raw target of r as sent by the client.
func requestTarget(r *http.Request) string {
	if strings.HasPrefix(r.RequestURI, "/") {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		s.writeError(w, r, errors.NewMethodError(r.Method))
		return
	}

	req, err := parseTarget(requestTarget(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if req.listing {
		s.handleListing(w, r, req.params)
		return
	}
	s.handleFile(w, r, req.name, renderer.FlavorFor(req.params.Has(StrictParam)))
}
