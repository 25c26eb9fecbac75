// Package internal contains the implementation packages for mdview.
//
// # Package Organization
//
//   - config: Viper backed configuration with defaults and validation
//   - errors: typed errors carrying an HTTP status and a public message
//   - logging: slog based structured logging and operation timing
//   - renderer: goldmark renderers for the extended and strict flavors
//   - assets: the embedded document stylesheet
//   - scanner: listing of the markdown files in the served directory
//   - server: request routing, handlers, port selection and serving
//   - middleware: handler chain for logging, metrics, recovery and headers
//   - monitoring: Prometheus metrics for requests and rendered output
//   - validation: host, listen address and file name checks
//   - version: build information from ldflags and the Go toolchain
//   - testutils: fixtures shared by the package tests
//
// # Request Flow
//
// The cmd package loads a config.Config and hands it to server.New. Every
// request passes through the middleware chain before the router decides
// between the directory listing and a single file. Files are read through
// an os.Root opened on the served directory, rendered with the flavor the
// query selects, and wrapped in a page carrying the stylesheet. Nothing is
// cached between requests.
package internal
