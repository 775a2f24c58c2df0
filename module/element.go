package module

import (
	"fmt"

	"github.com/hupe1980/audiomesh/core"
)

// ElementSpec describes a concrete node kind wrapped by an Element. The
// functions are called with the owning Element; closures may keep per
// instance state.
type ElementSpec struct {
	// Kind is the module kind tag, e.g. "gain".
	Kind string
	// Attributes lists the kind specific attribute names.
	Attributes []string
	// ConstructionKeys lists attributes that require a new node.
	ConstructionKeys []string
	// Construct builds a node in e.Context().
	Construct func(e *Element) (core.Node, error)
	// Apply mutates the live node in place. handled reports whether name
	// belongs to the kind; unhandled names fall through to the common
	// attributes.
	Apply func(e *Element, name string, value any) (handled bool, err error)
	// Refresh is called right before a new node is constructed.
	Refresh func(e *Element)
}

// channel attributes shared by every element.
var channelAttributes = []string{"channelCount", "channelCountMode", "channelInterpretation"}

var channelDefaults = map[string]any{
	"channelCount":          2,
	"channelCountMode":      "max",
	"channelInterpretation": "speakers",
}

// Element is a Jack whose node is both its single input and single output,
// and the anchor of a serial chain formed by its own children.
type Element struct {
	Jack
	spec ElementSpec
	node core.Node
}

// NewElement returns a detached Element of the kind described by spec.
func NewElement(rt *Runtime, spec ElementSpec, attrs Attributes) (*Element, error) {
	e := &Element{spec: spec}
	if err := e.init(e, rt, spec.Kind, attrs); err != nil {
		return nil, err
	}
	return e, nil
}

// Node returns the current native node or nil when detached.
func (e *Element) Node() core.Node { return e.node }

// Runtime returns the runtime the element was created with.
func (e *Element) Runtime() *Runtime { return e.rt }

// ScheduledSource returns the enclosing ScheduledSource, if any.
func (e *Element) ScheduledSource() (*ScheduledSource, bool) {
	s, ok := e.self.(*ScheduledSource)
	return s, ok
}

// ConstructionOptions returns the stored construction-only attributes, to be
// passed to core.Context.CreateNode.
func (e *Element) ConstructionOptions() map[string]any {
	opts := make(map[string]any)
	for _, k := range e.spec.ConstructionKeys {
		if v, ok := e.attrs[k]; ok && v != nil {
			opts[k] = v
		}
	}
	return opts
}

// ApplyParameterization drives the named param of the current node. A param
// missing on the current node returns an error wrapping core.ErrParamNotFound.
func (e *Element) ApplyParameterization(name string, automation any) error {
	if e.node == nil || e.ctx == nil {
		return nil
	}
	p, ok := e.node.Param(name)
	if !ok {
		return missingParam(e.node.Kind(), name)
	}
	return ApplyParameterization(e.ctx, p, automation)
}

func (e *Element) hasNode() bool { return e.node != nil }

func (e *Element) constructionKeys() []string { return e.spec.ConstructionKeys }

func (e *Element) attributeNames() []string {
	names := append(e.Jack.attributeNames(), channelAttributes...)
	return append(names, e.spec.Attributes...)
}

func (e *Element) innerInputs() (Terminals, error)  { return single(e.node), nil }
func (e *Element) innerOutputs() (Terminals, error) { return single(e.node), nil }

func (e *Element) fluentBackNodesToChild(child Module) (Terminals, error) {
	nodes, err := e.Jack.fluentBackNodesToChild(child)
	if err != nil || len(nodes) > 0 {
		return nodes, err
	}
	return single(e.node), nil
}

func (e *Element) connect() error {
	out, first, err := e.chain()
	if err != nil {
		return err
	}
	if err := e.Jack.connect(); err != nil {
		return err
	}
	e.link(out, first)
	return nil
}

func (e *Element) disconnect() error {
	out, first, err := e.chain()
	if err != nil {
		return err
	}
	if err := e.Jack.disconnect(); err != nil {
		return err
	}
	e.unlink(out, first)
	return nil
}

func (e *Element) chain() (out, first Terminals, err error) {
	child := e.firstChild()
	if child == nil {
		return nil, nil, nil
	}
	if out, err = outputsOf(e.self); err != nil {
		return nil, nil, err
	}
	first, err = inputsOf(child)
	return out, first, err
}

// setContext rebuilds the node under the new context. The reconnection is
// deferred to the next turn, when the whole subtree has its new nodes.
func (e *Element) setContext(ctx core.Context) error {
	if ctx == e.ctx {
		return e.Jack.setContext(ctx)
	}

	if err := e.self.disconnect(); err != nil {
		e.logger().Warn("disconnect before context change failed", "module", e.id, "error", err.Error())
	}
	err := e.Jack.setContext(ctx)
	if rerr := e.jack().refreshNode(); rerr != nil {
		e.logger().Warn("node construction failed", "module", e.id, "kind", e.kind, "error", rerr.Error())
	}

	if e.rt != nil {
		self := e.self
		e.rt.Batch.Run([]any{tagElement, self}, func() error {
			if ctx == nil {
				return nil
			}
			return self.connect()
		}, false)
	}
	e.notifyTreeMutation()
	return err
}

func (e *Element) refreshNode() error {
	if e.node != nil {
		e.node.DisconnectAll()
		e.node = nil
	}
	if e.ctx == nil {
		return nil
	}
	if e.spec.Refresh != nil {
		e.spec.Refresh(e)
	}
	if e.spec.Construct == nil {
		return fmt.Errorf("construct %s: %w", e.kind, ErrNotImplemented)
	}
	node, err := e.spec.Construct(e)
	if err != nil {
		return fmt.Errorf("construct %s: %w", e.kind, err)
	}
	e.node = node
	e.replay()
	return nil
}

func (e *Element) applyAttribute(name string, value any) error {
	if e.node == nil {
		return nil
	}
	if handled, err := e.applySpec(name, value); handled {
		return err
	}
	return e.applyCommon(name, value)
}

func (e *Element) applySpec(name string, value any) (bool, error) {
	if e.spec.Apply == nil || !containsString(e.spec.Attributes, name) {
		return false, nil
	}
	return e.spec.Apply(e, name, value)
}

func (e *Element) applyCommon(name string, value any) error {
	if containsString(channelAttributes, name) {
		if value == nil {
			value = channelDefaults[name]
		}
		return e.node.SetProperty(name, value)
	}
	return e.Jack.applyAttribute(name, value)
}
