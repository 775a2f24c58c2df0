package module

// Mixer composes its children in parallel: every child is wired directly to
// the mixer's aggregate terminals and never to a sibling.
type Mixer struct {
	Base
}

// NewMixer returns a detached Mixer.
func NewMixer(rt *Runtime, attrs Attributes) (*Mixer, error) {
	m := &Mixer{}
	if err := m.init(m, rt, "mixer", attrs); err != nil {
		return nil, err
	}
	return m, nil
}

type parallel interface {
	parallelLanes()
}

func (m *Mixer) parallelLanes() {}

func (m *Mixer) innerInputs() (Terminals, error) {
	var sets []Terminals
	for _, c := range m.children.items {
		nodes, err := inputsOf(c)
		if err != nil {
			return nil, err
		}
		sets = append(sets, nodes)
	}
	return Union(sets...), nil
}

func (m *Mixer) innerOutputs() (Terminals, error) {
	var sets []Terminals
	for _, c := range m.children.items {
		nodes, err := outputsOf(c)
		if err != nil {
			return nil, err
		}
		sets = append(sets, nodes)
	}
	return Union(sets...), nil
}
