package module

import (
	"sync"

	"github.com/hupe1980/audiomesh/core"
)

// Registry maps (context, source) pairs to the native node wrapping that
// source, so sources that can be wrapped once per context are reused across
// reconstructions. Entries of a context are evicted when it is closed.
//
// Layout: context ID -> source key -> node
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]map[string]core.Node
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]map[string]core.Node)}
}

// Lookup returns the node registered for key in ctx.
func (r *Registry) Lookup(ctx core.Context, key string) (core.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[ctx.ID()][key]
	return n, ok
}

// Store registers n for key in ctx, replacing any previous entry.
func (r *Registry) Store(ctx core.Context, key string, n core.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.nodes[ctx.ID()]
	if !ok {
		m = make(map[string]core.Node)
		r.nodes[ctx.ID()] = m
	}
	m[key] = n
}

// Evict drops every entry of ctx.
func (r *Registry) Evict(ctx core.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.nodes, ctx.ID())
}

// Len returns the number of entries registered for ctx.
func (r *Registry) Len(ctx core.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes[ctx.ID()])
}
