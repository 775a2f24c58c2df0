// Package logging provides a minimal logging interface and adapters for audiomesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the graph engine, scenarios and the in-memory host use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - MeshLogger with component and scenario context
//   - ForComponent / ForScenario scoping any of the above
//   - LogConnection, LogReconstruct and LogRender graph helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelDebug, "text", false)
//	mesh := audiomesh.New(func(o *audiomesh.Options) { o.Logger = logger })
//
// The interface is intentionally small so callers can plug any structured logger.
package logging
