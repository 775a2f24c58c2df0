package testutil

import (
	"sort"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/host"
	"github.com/hupe1980/audiomesh/runner"
)

// NewHost returns a loop and an in-memory host posting to it.
func NewHost() (*runner.Loop, *host.Host) {
	loop := runner.NewLoop()
	return loop, host.New(loop, func(o *host.Options) {
		o.RenderChunk = 16
	})
}

type destinations interface {
	Destinations() []core.Node
}

// Graph returns the sorted connections among the labeled nodes as "a->b"
// strings. Connections to unlabeled nodes are rendered with "?" in place of
// the missing label.
//
// Example:
//
//	Graph(map[string]core.Node{"osc": osc, "dest": ctx.Destination()})
//	// ["osc->dest"]
func Graph(labels map[string]core.Node) []string {
	names := make(map[core.Node]string, len(labels))
	for name, n := range labels {
		if n != nil {
			names[n] = name
		}
	}

	edges := []string{}
	for n, from := range names {
		d, ok := n.(destinations)
		if !ok {
			continue
		}
		for _, dst := range d.Destinations() {
			to, ok := names[dst]
			if !ok {
				to = "?"
			}
			edges = append(edges, from+"->"+to)
		}
	}
	sort.Strings(edges)
	return edges
}
