// Package middleware composes the HTTP handler stack of the preview server.
//
// Middlewares are listed outermost first: Chain{A, B, C}.Then(h) serves a
// request through A, then B, then C, then h.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/conneroisu/mdview/internal/logging"
	"github.com/conneroisu/mdview/internal/monitoring"
)

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain is an ordered middleware stack.
type Chain []Middleware

// New returns a chain of the given middlewares, skipping nil entries.
func New(middlewares ...Middleware) Chain {
	chain := make(Chain, 0, len(middlewares))
	for _, m := range middlewares {
		if m != nil {
			chain = append(chain, m)
		}
	}
	return chain
}

// Append returns a new chain with more middlewares added innermost.
func (c Chain) Append(middlewares ...Middleware) Chain {
	out := make(Chain, 0, len(c)+len(middlewares))
	out = append(out, c...)
	return append(out, New(middlewares...)...)
}

// Then applies the chain to h.
func (c Chain) Then(h http.Handler) http.Handler {
	if h == nil {
		panic("middleware: Then called with nil handler")
	}
	for i := len(c) - 1; i >= 0; i-- {
		h = c[i](h)
	}
	return h
}

// statusRecorder captures the status code and body size written by the
// wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if sr, ok := w.(*statusRecorder); ok {
		return sr
	}
	return &statusRecorder{ResponseWriter: w}
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Status() int {
	if sr.status == 0 {
		return http.StatusOK
	}
	return sr.status
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// Logging logs one line per request with method, path, status, size and
// duration. Server errors are logged at error level.
func Logging(logger logging.Logger) Middleware {
	logger = logger.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			fields := []interface{}{
				"method", r.Method,
				"path", r.RequestURI,
				"status", rec.Status(),
				"bytes", rec.bytes,
				"duration", time.Since(start),
			}
			if rec.Status() >= http.StatusInternalServerError {
				logger.Error(r.Context(), nil, "request failed", fields...)
				return
			}
			logger.Info(r.Context(), "request", fields...)
		})
	}
}

// Metrics records request counts and durations. A nil m disables it.
func Metrics(m *monitoring.Metrics) Middleware {
	if m == nil {
		return nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			m.ObserveRequest(r.Method, monitoring.RouteFor(r.URL.Path), rec.Status(), time.Since(start))
		})
	}
}

// Recover turns a handler panic into a 500 response.
func Recover(logger logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rv := recover()
				if rv == nil {
					return
				}
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				logger.Error(context.WithoutCancel(r.Context()), fmt.Errorf("panic: %v", rv),
					"handler panicked", "path", r.RequestURI)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
