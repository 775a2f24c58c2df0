package module

// Bypass splits the incoming signal into its children (wet) and whatever is
// downstream of it (dry). It has no outputs of its own, so the dry path is
// the bubbled back nodes wired straight to the bubbled front nodes.
type Bypass struct {
	Branch
}

// NewBypass returns a detached Bypass.
func NewBypass(rt *Runtime, attrs Attributes) (*Bypass, error) {
	b := &Bypass{}
	if err := b.init(b, rt, "bypass", attrs); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bypass) innerInputs() (Terminals, error) {
	var wet Terminals
	if first := b.firstChild(); first != nil {
		nodes, err := inputsOf(first)
		if err != nil {
			return nil, err
		}
		wet = nodes
	}
	dry, err := bubbledFront(b)
	if err != nil {
		return nil, err
	}
	return Union(wet, dry), nil
}
