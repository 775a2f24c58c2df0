// Package module implements the audiomesh graph engine: a tree of modules
// whose effective input and output terminals are inferred by bubbling through
// the tree, and whose native node connections are kept correct as the tree is
// mutated.
//
// Building blocks:
//
//   - Base: ordered tree membership, terminal bubbling, connect/disconnect
//     algebra and tree mutation notification.
//   - Flow / Branch: serial bubbling rules, with Branch falling back to sinks
//     or the scenario destination.
//   - Mixer, Track, Bypass, Merger: wiring topologies.
//   - Jack: binds a native resource to an attribute dictionary and decides
//     between in-place updates and reconstruction.
//   - Element / ScheduledSource: Jacks wrapping a single core.Node; concrete
//     node kinds plug in through ElementSpec.
//   - Scenario / Scene / Record and Stage: ownership of processing contexts.
//
// Hooks that concrete kinds override are unexported methods of Module and are
// dispatched through the outermost value (Base.self), so embedding types can
// refine behavior without inheritance.
//
// The engine is single-threaded: every deferred effect is coalesced through
// the Runtime's runner.BatchRunner and executed on the runner.Loop.
package module
