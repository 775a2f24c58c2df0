package module

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/logging"
)

// Attributes is the raw attribute record of a module.
type Attributes map[string]any

// Module is a unit of the audio graph. Its effective terminals are its
// intrinsic ones or, when those are empty, the nearest neighbor's terminals
// found by bubbling through the tree.
type Module interface {
	ID() string
	Kind() string
	Name() string
	Parent() Module
	Children() []Module
	// Root returns the topmost ancestor, or the module itself when detached.
	Root() Module
	Context() core.Context
	Inputs() Terminals
	Outputs() Terminals
	Attribute(name string) (any, bool)
	Attributes() Attributes
	SetAttribute(name string, value any) error
	AppendChild(child Module) error
	InsertChildBefore(child, anchor Module) error
	RemoveChild(child Module) error
	ModulesByNames(names ...string) []Module

	base() *Base
	innerInputs() (Terminals, error)
	innerOutputs() (Terminals, error)
	fluentBackNodesToChild(child Module) (Terminals, error)
	fluentFrontNodesToChild(child Module) (Terminals, error)
	connect() error
	disconnect() error
	didRootMutation(root Module) error
	setContext(ctx core.Context) error
	applyAttribute(name string, value any) error
	attributeNames() []string
}

type batchTag string

const (
	tagModule          batchTag = "module"
	tagJack            batchTag = "jack"
	tagElement         batchTag = "element"
	tagScheduledSource batchTag = "scheduled-source"
	tagRecord          batchTag = "record"
)

// Base implements the tree and connection algebra shared by every module.
// Concrete kinds embed it (directly or through Flow/Branch) and call init.
type Base struct {
	self     Module
	rt       *Runtime
	id       string
	kind     string
	name     string
	parent   Module
	children Container[Module]
	ctx      core.Context
	attrs    Attributes
	order    []string
}

func (b *Base) init(self Module, rt *Runtime, kind string, attrs Attributes) error {
	b.self = self
	b.rt = rt
	b.id = core.NewID()
	b.kind = kind
	b.attrs = make(Attributes, len(attrs))

	known := self.attributeNames()
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		if !containsString(known, k) {
			return unknownAttribute(kind, k, known)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.store(k, attrs[k])
	}
	if name, ok := attrs["name"].(string); ok {
		b.name = name
	}
	return nil
}

func (b *Base) base() *Base { return b }

// ID returns the module's unique identifier.
func (b *Base) ID() string { return b.id }

// Kind returns the kind tag the module was created with.
func (b *Base) Kind() string { return b.kind }

// Name returns the module's name attribute.
func (b *Base) Name() string { return b.name }

// Parent returns the parent module or nil.
func (b *Base) Parent() Module { return b.parent }

// Children returns a copy of the child list.
func (b *Base) Children() []Module { return b.children.Items() }

// Root implements Module.
func (b *Base) Root() Module {
	m := b.self
	for m.Parent() != nil {
		m = m.Parent()
	}
	return m
}

// Context returns the processing context shared by the module's tree.
func (b *Base) Context() core.Context { return b.ctx }

// Attribute returns the last stored value of name.
func (b *Base) Attribute(name string) (any, bool) {
	v, ok := b.attrs[name]
	return v, ok
}

// Attributes returns a copy of the stored attribute record.
func (b *Base) Attributes() Attributes {
	out := make(Attributes, len(b.attrs))
	for k, v := range b.attrs {
		out[k] = v
	}
	return out
}

// Inputs implements Module. Resolution errors are logged and yield the
// empty set.
func (b *Base) Inputs() Terminals {
	nodes, err := inputsOf(b.self)
	if err != nil {
		b.logger().Warn("inputs resolution failed", "module", b.id, "kind", b.kind, "error", err.Error())
		return nil
	}
	return nodes
}

// Outputs implements Module.
func (b *Base) Outputs() Terminals {
	nodes, err := outputsOf(b.self)
	if err != nil {
		b.logger().Warn("outputs resolution failed", "module", b.id, "kind", b.kind, "error", err.Error())
		return nil
	}
	return nodes
}

// SetAttribute applies value in place and stores it.
func (b *Base) SetAttribute(name string, value any) error {
	if !containsString(b.self.attributeNames(), name) {
		return unknownAttribute(b.kind, name, b.self.attributeNames())
	}
	if err := b.self.applyAttribute(name, value); err != nil {
		return err
	}
	b.store(name, value)
	return nil
}

func (b *Base) store(name string, value any) {
	if _, ok := b.attrs[name]; !ok {
		b.order = append(b.order, name)
	}
	b.attrs[name] = value
}

func (b *Base) attributeNames() []string { return []string{"name"} }

func (b *Base) applyAttribute(name string, value any) error {
	switch name {
	case "name":
		s, ok := value.(string)
		if !ok && value != nil {
			return fmt.Errorf("%w: name must be a string, got %T", ErrInvalidAttribute, value)
		}
		if s != b.name {
			b.name = s
			b.notifyTreeMutation()
		}
		return nil
	default:
		return unknownAttribute(b.kind, name, b.self.attributeNames())
	}
}

// ModulesByNames returns the descendants whose name is one of names.
func (b *Base) ModulesByNames(names ...string) []Module {
	var out []Module
	var walk func(m Module)
	walk = func(m Module) {
		for _, c := range m.base().children.items {
			if c.Name() != "" && containsString(names, c.Name()) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(b.self)
	return out
}

// AppendChild inserts child as the last child and wires it into the flow.
func (b *Base) AppendChild(child Module) error {
	if err := b.willInsertChild(child); err != nil {
		return err
	}
	b.children.Append(child)
	return b.didInsertChild(child)
}

// InsertChildBefore inserts child directly before anchor.
func (b *Base) InsertChildBefore(child, anchor Module) error {
	if err := b.willInsertChild(child); err != nil {
		return err
	}
	if err := b.children.InsertBefore(child, anchor); err != nil {
		return err
	}
	return b.didInsertChild(child)
}

// RemoveChild unwires child and detaches it.
func (b *Base) RemoveChild(child Module) error {
	if child == nil || b.children.IndexOf(child) < 0 {
		return fmt.Errorf("remove from %s: %w", b.kind, ErrChildNotFound)
	}
	if err := child.disconnect(); err != nil {
		return err
	}
	child.base().parent = nil
	if err := child.setContext(nil); err != nil {
		b.logger().Warn("detach context failed", "module", child.ID(), "error", err.Error())
	}
	if err := b.children.Remove(child); err != nil {
		return err
	}
	b.notifyTreeMutation()
	return nil
}

func (b *Base) willInsertChild(child Module) error {
	if child == nil {
		return fmt.Errorf("insert nil child: %w", ErrChildNotFound)
	}
	if child.Parent() != nil {
		return fmt.Errorf("insert %s into %s: %w", child.Kind(), b.kind, ErrAlreadyAttached)
	}
	if _, ok := child.(ScenarioModule); ok {
		return fmt.Errorf("insert %s into %s: %w", child.Kind(), b.kind, ErrNestedScenario)
	}
	for m := b.self; m != nil; m = m.Parent() {
		if m == child {
			return fmt.Errorf("insert %s into %s: %w", child.Kind(), b.kind, ErrCycle)
		}
	}
	return nil
}

func (b *Base) didInsertChild(child Module) error {
	c := child.base()
	c.parent = b.self
	if err := child.setContext(b.ctx); err != nil {
		b.logger().Warn("attach context failed", "module", child.ID(), "error", err.Error())
	}
	if err := child.connect(); err != nil {
		c.parent = nil
		_ = child.setContext(nil)
		_ = b.children.Remove(child)
		return err
	}
	child.base().notifyTreeMutation()
	return nil
}

func (b *Base) innerInputs() (Terminals, error)  { return nil, nil }
func (b *Base) innerOutputs() (Terminals, error) { return nil, nil }

func (b *Base) fluentBackNodesToChild(Module) (Terminals, error)  { return nil, nil }
func (b *Base) fluentFrontNodesToChild(Module) (Terminals, error) { return nil, nil }

func (b *Base) didRootMutation(Module) error { return nil }

func (b *Base) setContext(ctx core.Context) error {
	b.ctx = ctx
	var result *multierror.Error
	for _, c := range b.children.items {
		if err := c.setContext(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// connect splices the module between its bubbled back and front nodes. All
// terminal sets are resolved before any wiring changes so a resolution error
// leaves the graph untouched.
func (b *Base) connect() error {
	back, front, in, out, err := b.resolve()
	if err != nil {
		return err
	}
	mixer, laneOf, err := lane(b.self)
	if err != nil {
		return err
	}
	switch {
	case mixer == nil:
		b.unsplice(back, front)
	case laneOf != b.self && !carried(mixer, laneOf, front):
		// the module fills a lane that passed signal through
		b.unsplice(back, front)
	}
	if len(front) > 0 && front.Equal(out) && b.ctx != nil {
		// ending in its own sinks, the module replaces the destination
		b.unsplice(back, single(b.ctx.Destination()))
	}
	b.link(back, in)
	b.link(out, front)
	return nil
}

// disconnect restores the back to front path around the module. A module
// whose terminals are all bubbled owns no connections and is left alone.
func (b *Base) disconnect() error {
	back, front, in, out, err := b.resolve()
	if err != nil {
		return err
	}
	mixer, laneOf, err := lane(b.self)
	if err != nil {
		return err
	}
	if mixer != nil && laneOf == b.self {
		// sibling lanes keep carrying the signal
		b.unlink(back, in)
		b.unlink(out, front)
		if carried(mixer, laneOf, front) {
			b.link(back, front)
		}
		return nil
	}
	if in.Equal(front) && out.Equal(back) {
		return nil
	}
	b.unlink(back, in)
	b.unlink(out, front)
	b.link(back, front)
	return nil
}

func (b *Base) resolve() (back, front, in, out Terminals, err error) {
	if back, err = bubbledBack(b.self); err != nil {
		return
	}
	if front, err = bubbledFront(b.self); err != nil {
		return
	}
	if in, err = inputsOf(b.self); err != nil {
		return
	}
	out, err = outputsOf(b.self)
	return
}

func (b *Base) link(back, front Terminals) {
	if len(back) == 0 || len(front) == 0 {
		return
	}
	var result *multierror.Error
	for _, src := range back {
		for _, dst := range front {
			if src == dst {
				continue
			}
			if err := src.Connect(dst); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	logging.LogConnection(b.logger(), "connect", len(back), len(front), result.ErrorOrNil())
}

func (b *Base) unlink(back, front Terminals) {
	if len(back) == 0 || len(front) == 0 {
		return
	}
	var result *multierror.Error
	for _, src := range back {
		for _, dst := range front {
			if src == dst {
				continue
			}
			if err := src.Disconnect(dst); err != nil && !errors.Is(err, core.ErrNotConnected) {
				result = multierror.Append(result, err)
			}
		}
	}
	logging.LogConnection(b.logger(), "disconnect", len(back), len(front), result.ErrorOrNil())
}

// unsplice unlinks back from front, sparing the connections an enclosing
// element's node has to that element's own front.
func (b *Base) unsplice(back, front Terminals) {
	owned := ownedFronts(b.self)
	if len(owned) == 0 {
		b.unlink(back, front)
		return
	}
	for _, src := range back {
		var drop Terminals
		for _, dst := range front {
			if !owned[src].Contains(dst) {
				drop = append(drop, dst)
			}
		}
		b.unlink(single(src), drop)
	}
}

type anchor interface {
	Node() core.Node
}

func ownedFronts(m Module) map[core.Node]Terminals {
	var owned map[core.Node]Terminals
	for p := m.Parent(); p != nil; p = p.Parent() {
		a, ok := p.(anchor)
		if !ok || a.Node() == nil {
			continue
		}
		front, err := bubbledFront(p)
		if err != nil || len(front) == 0 {
			continue
		}
		if owned == nil {
			owned = make(map[core.Node]Terminals)
		}
		owned[a.Node()] = front
	}
	return owned
}

// notifyTreeMutation queues one walk of the whole tree per context and turn,
// calling didRootMutation on every module.
func (b *Base) notifyTreeMutation() {
	ctx := b.ctx
	if ctx == nil || b.rt == nil {
		return
	}
	b.rt.Batch.Run([]any{tagModule, ctx}, func() error {
		root := b.rt.owner(ctx)
		if root == nil {
			root = b.self.Root()
		}
		return notifyRoot(root, root)
	}, true)
}

func notifyRoot(root, m Module) error {
	var result *multierror.Error
	if err := m.didRootMutation(root); err != nil {
		result = multierror.Append(result, err)
	}
	for _, c := range m.base().children.Items() {
		if err := notifyRoot(root, c); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (b *Base) logger() logging.Logger {
	if b.rt == nil || b.rt.Logger == nil {
		return logging.NoOpLogger{}
	}
	return b.rt.logger(b.ctx)
}

func (b *Base) firstChild() Module {
	c, _ := b.children.At(0)
	return c
}

func (b *Base) lastChild() Module {
	c, _ := b.children.At(b.children.Len() - 1)
	return c
}

func inputsOf(m Module) (Terminals, error) {
	nodes, err := m.innerInputs()
	if err != nil || len(nodes) > 0 {
		return nodes, err
	}
	return bubbledFront(m)
}

func outputsOf(m Module) (Terminals, error) {
	nodes, err := m.innerOutputs()
	if err != nil || len(nodes) > 0 {
		return nodes, err
	}
	return bubbledBack(m)
}

// lane finds the parallel ancestor m's terminals bubble through, together
// with the child of that ancestor holding m. Both are nil when a serial
// neighbor bounds m on either side, or when no parallel ancestor has other
// children.
func lane(m Module) (Module, Module, error) {
	child := m
	for p := m.Parent(); p != nil; p = p.Parent() {
		back, err := p.fluentBackNodesToChild(child)
		if err != nil {
			return nil, nil, err
		}
		front, err := p.fluentFrontNodesToChild(child)
		if err != nil {
			return nil, nil, err
		}
		if len(back) > 0 || len(front) > 0 {
			return nil, nil, nil
		}
		if _, ok := p.(parallel); ok && len(p.Children()) > 1 {
			return p, child, nil
		}
		child = p
	}
	return nil, nil, nil
}

// carried reports whether a lane of mixer other than except passes signal
// straight to front.
func carried(mixer, except Module, front Terminals) bool {
	for _, c := range mixer.Children() {
		if c == except {
			continue
		}
		in, err := inputsOf(c)
		if err != nil {
			continue
		}
		for _, n := range front {
			if in.Contains(n) {
				return true
			}
		}
	}
	return false
}

func bubbledBack(m Module) (Terminals, error) {
	child := m
	for p := m.Parent(); p != nil; p = p.Parent() {
		nodes, err := p.fluentBackNodesToChild(child)
		if err != nil || len(nodes) > 0 {
			return nodes, err
		}
		child = p
	}
	return nil, nil
}

func bubbledFront(m Module) (Terminals, error) {
	child := m
	for p := m.Parent(); p != nil; p = p.Parent() {
		nodes, err := p.fluentFrontNodesToChild(child)
		if err != nil || len(nodes) > 0 {
			return nodes, err
		}
		child = p
	}
	return nil, nil
}

func sibling(m Module, offset int) Module {
	p := m.Parent()
	if p == nil {
		return nil
	}
	siblings := &p.base().children
	i := siblings.IndexOf(m)
	if i < 0 {
		return nil
	}
	s, _ := siblings.At(i + offset)
	return s
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
