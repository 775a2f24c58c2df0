// Package runner implements the single-threaded execution model of audiomesh.
//
// A Loop plays the role of the host's only execution thread: work is posted
// to it and executed one turn (Tick) at a time. Two coalescing primitives are
// layered on top of it:
//
//   - MemoizedRunner holds a single pending handler and flushes it on the next
//     turn; repeated submissions with the same hash collapse into one call.
//   - BatchRunner keeps a trie of handlers keyed by a path of comparable values
//     and flushes every pending handler exactly once on the next turn.
//
// Both primitives schedule at most one flush task per turn, so N synchronous
// mutations issued in one turn produce exactly one effect per key. The order in
// which a BatchRunner flushes distinct keys is unspecified.
package runner
