package host

import (
	"fmt"

	"github.com/hupe1980/audiomesh/core"
)

// processor renders one quantum: in holds the summed upstream signal, frame
// is the context frame of the first sample.
type processor interface {
	process(in, out []float32, frame int64)
}

// propertyHook lets a kind validate or react to property writes.
type propertyHook interface {
	setProperty(name string, value any) error
}

type baseNode interface {
	base() *node
}

type node struct {
	id      string
	kind    core.NodeKind
	ctx     *baseContext
	inputs  int
	outputs int
	sources []*node
	dests   []*node
	params  map[string]*Param
	props   map[string]any
	proc    processor
	self    core.Node
}

func newNode(ctx *baseContext, kind core.NodeKind, inputs, outputs int) *node {
	return &node{
		id:      core.NewID(),
		kind:    kind,
		ctx:     ctx,
		inputs:  inputs,
		outputs: outputs,
		params:  make(map[string]*Param),
		props: map[string]any{
			"channelCount":          2,
			"channelCountMode":      "max",
			"channelInterpretation": "speakers",
		},
	}
}

func (n *node) base() *node { return n }

func (n *node) addParam(name string, def, min, max float64) *Param {
	p := newParam(n.ctx, name, def, min, max)
	n.params[name] = p
	return p
}

// ID implements core.Node.
func (n *node) ID() string { return n.id }

// Kind implements core.Node.
func (n *node) Kind() core.NodeKind { return n.kind }

// Context implements core.Node.
func (n *node) Context() core.Context { return n.ctx.self }

// NumberOfInputs implements core.Node.
func (n *node) NumberOfInputs() int { return n.inputs }

// NumberOfOutputs implements core.Node.
func (n *node) NumberOfOutputs() int { return n.outputs }

// Connect implements core.Node.
func (n *node) Connect(dst core.Node) error {
	b, ok := dst.(baseNode)
	if !ok {
		return fmt.Errorf("connect %s to foreign node: %w", n.kind, core.ErrUnsupported)
	}
	d := b.base()
	if d.ctx != n.ctx {
		return fmt.Errorf("connect %s to %s across contexts: %w", n.kind, d.kind, core.ErrInvalidState)
	}
	if n.outputs == 0 {
		return fmt.Errorf("connect from %s without outputs: %w", n.kind, core.ErrInvalidState)
	}
	if d.inputs == 0 {
		return fmt.Errorf("connect to %s without inputs: %w", d.kind, core.ErrInvalidState)
	}
	if n.connectedTo(d) {
		return nil
	}
	n.dests = append(n.dests, d)
	d.sources = append(d.sources, n)
	return nil
}

// Disconnect implements core.Node.
func (n *node) Disconnect(dst core.Node) error {
	b, ok := dst.(baseNode)
	if !ok || !n.connectedTo(b.base()) {
		return core.ErrNotConnected
	}
	d := b.base()
	n.dests = remove(n.dests, d)
	d.sources = remove(d.sources, n)
	return nil
}

// DisconnectAll implements core.Node.
func (n *node) DisconnectAll() {
	for _, d := range n.dests {
		d.sources = remove(d.sources, n)
	}
	n.dests = nil
}

// Destinations returns the nodes n is connected to.
func (n *node) Destinations() []core.Node {
	out := make([]core.Node, 0, len(n.dests))
	for _, d := range n.dests {
		out = append(out, d.self)
	}
	return out
}

func (n *node) connectedTo(d *node) bool {
	for _, x := range n.dests {
		if x == d {
			return true
		}
	}
	return false
}

// Param implements core.Node.
func (n *node) Param(name string) (core.Param, bool) {
	p, ok := n.params[name]
	if !ok {
		return nil, false
	}
	return p, true
}

// SetProperty implements core.Node.
func (n *node) SetProperty(name string, value any) error {
	if _, ok := n.props[name]; !ok {
		return fmt.Errorf("%s has no property %q: %w", n.kind, name, core.ErrUnsupported)
	}
	if h, ok := n.proc.(propertyHook); ok {
		if err := h.setProperty(name, value); err != nil {
			return err
		}
	}
	n.props[name] = value
	return nil
}

// Property implements core.Node.
func (n *node) Property(name string) (any, bool) {
	v, ok := n.props[name]
	return v, ok
}

func (n *node) stringProp(name string) string {
	s, _ := n.props[name].(string)
	return s
}

func (n *node) floatProp(name string) float64 {
	f, _ := core.ToFloat(n.props[name])
	return f
}

func (n *node) boolProp(name string) bool {
	b, _ := n.props[name].(bool)
	return b
}

// applyOptions initializes params and properties from construction options.
func (n *node) applyOptions(opts map[string]any, skip ...string) error {
	for k, v := range opts {
		if contains(skip, k) {
			continue
		}
		if p, ok := n.params[k]; ok {
			f, ok := core.ToFloat(v)
			if !ok {
				return fmt.Errorf("%s option %q: want number, got %T", n.kind, k, v)
			}
			p.intrinsic = f
			continue
		}
		if err := n.SetProperty(k, v); err != nil {
			return err
		}
	}
	return nil
}

func remove(list []*node, x *node) []*node {
	for i, n := range list {
		if n == x {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func toFloats(v any) ([]float64, bool) {
	switch vals := v.(type) {
	case []float64:
		return vals, true
	case []float32:
		out := make([]float64, len(vals))
		for i, f := range vals {
			out[i] = float64(f)
		}
		return out, true
	case []any:
		out := make([]float64, len(vals))
		for i, x := range vals {
			f, ok := core.ToFloat(x)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	}
	return nil, false
}
