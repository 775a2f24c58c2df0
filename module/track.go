package module

// Track chains its children in series.
type Track struct {
	Flow
}

// NewTrack returns a detached Track.
func NewTrack(rt *Runtime, attrs Attributes) (*Track, error) {
	t := &Track{}
	if err := t.init(t, rt, "track", attrs); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Track) innerInputs() (Terminals, error) {
	first := t.firstChild()
	if first == nil {
		return nil, nil
	}
	return inputsOf(first)
}

func (t *Track) innerOutputs() (Terminals, error) {
	last := t.lastChild()
	if last == nil {
		return nil, nil
	}
	return outputsOf(last)
}
