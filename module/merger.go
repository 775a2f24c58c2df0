package module

import "fmt"

// Merger feeds its upstream signal into every module of the tree whose name
// is listed in its links attribute. Links are re-resolved on every tree
// mutation.
type Merger struct {
	Branch
	links     []string
	linked    []Module
	resolving bool
}

// NewMerger returns a detached Merger.
func NewMerger(rt *Runtime, attrs Attributes) (*Merger, error) {
	m := &Merger{}
	if err := m.init(m, rt, "merger", attrs); err != nil {
		return nil, err
	}
	if v, ok := attrs["links"]; ok {
		links, err := toStrings(v)
		if err != nil {
			return nil, err
		}
		m.links = links
	}
	return m, nil
}

// Links returns the configured link names.
func (m *Merger) Links() []string { return append([]string(nil), m.links...) }

// Linked returns the modules currently resolved from the link names.
func (m *Merger) Linked() []Module { return append([]Module(nil), m.linked...) }

// AppendChild always fails.
func (m *Merger) AppendChild(Module) error {
	return fmt.Errorf("append to merger: %w", ErrChildrenForbidden)
}

// InsertChildBefore always fails.
func (m *Merger) InsertChildBefore(Module, Module) error {
	return fmt.Errorf("insert into merger: %w", ErrChildrenForbidden)
}

func (m *Merger) attributeNames() []string {
	return append(m.Branch.attributeNames(), "links")
}

func (m *Merger) applyAttribute(name string, value any) error {
	if name != "links" {
		return m.Branch.applyAttribute(name, value)
	}
	links, err := toStrings(value)
	if err != nil {
		return err
	}
	m.links = links

	var root Module
	if m.parent != nil {
		root = m.Root()
	}
	return m.relink(root)
}

func (m *Merger) didRootMutation(root Module) error {
	return m.relink(root)
}

func (m *Merger) relink(root Module) error {
	if err := m.disconnect(); err != nil {
		return err
	}
	m.linked = nil
	if root != nil && len(m.links) > 0 {
		m.linked = root.ModulesByNames(m.links...)
	}
	return m.connect()
}

func (m *Merger) innerInputs() (Terminals, error) {
	if m.parent == nil || m.resolving {
		return nil, nil
	}
	m.resolving = true
	defer func() { m.resolving = false }()

	var sets []Terminals
	for _, l := range m.linked {
		nodes, err := inputsOf(l)
		if err != nil {
			return nil, err
		}
		sets = append(sets, nodes)
	}
	return Union(sets...), nil
}

func toStrings(v any) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{x}, nil
	case []string:
		return append([]string(nil), x...), nil
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%w: link %v is %T", ErrInvalidAttribute, e, e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: links must be strings, got %T", ErrInvalidAttribute, v)
	}
}
