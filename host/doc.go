// Package host provides an in-memory implementation of the core audio
// platform interfaces.
//
// Contexts render in fixed quanta of RenderQuantum frames with a pull-based
// renderer: every block, the destination and every other connected sink pull
// their upstream nodes once, memoizing each node's output for the block.
// Signals are mono; multi-channel outputs duplicate the mono mix on every
// channel. Channel mergers sum their inputs, splitters copy their input, and
// panners apply distance and cone gain relative to the context listener.
//
// All asynchronous behavior (state change notifications, decoding, offline
// rendering, suspension callbacks) is posted to the runner.Loop the Host was
// created with, so the whole platform advances one loop turn at a time.
//
// Online contexts have a manual clock: Advance renders the requested amount of
// time while the context is running. Offline contexts render in chunks of
// Options.RenderChunk quanta per loop turn.
package host
