// Package core provides the foundational domain types and interfaces used by
// audiomesh. It defines the abstractions the graph engine consumes from a host
// audio platform:
//
//   - Node / ScheduledNode / BufferNode (native processing nodes and their terminals)
//   - Param (automatable continuous parameters)
//   - Context / OnlineContext / OfflineContext (processing contexts and their clocks)
//   - Host (factory for processing contexts)
//   - Buffer (multi-channel sample data)
//   - Automation events and the Keep sentinel
//
// The package intentionally keeps implementation concerns (the module tree,
// concrete hosts, the facade) out of scope, exposing small interfaces so the
// engine can drive any audio backend. The in-memory reference host lives in
// package host.
package core
