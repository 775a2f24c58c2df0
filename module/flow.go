package module

import "github.com/hupe1980/audiomesh/core"

// Flow resolves a child's neighbors serially: the nearest non-empty sibling
// behind it feeds it, the nearest non-empty sibling in front of it receives
// from it. Empty siblings are skipped.
type Flow struct {
	Base
}

func (f *Flow) fluentBackNodesToChild(child Module) (Terminals, error) {
	for m := sibling(child, -1); m != nil; m = sibling(m, -1) {
		nodes, err := outputsOf(m)
		if err != nil || len(nodes) > 0 {
			return nodes, err
		}
	}
	return nil, nil
}

func (f *Flow) fluentFrontNodesToChild(child Module) (Terminals, error) {
	for m := sibling(child, 1); m != nil; m = sibling(m, 1) {
		nodes, err := inputsOf(m)
		if err != nil || len(nodes) > 0 {
			return nodes, err
		}
	}
	return nil, nil
}

// Branch is a Flow whose last signal either terminates in the child's own
// sinks or, failing that, in the context destination.
type Branch struct {
	Flow
}

func (b *Branch) fluentFrontNodesToChild(child Module) (Terminals, error) {
	nodes, err := b.Flow.fluentFrontNodesToChild(child)
	if err != nil || len(nodes) > 0 {
		return nodes, err
	}

	out, err := outputsOf(child)
	if err != nil {
		return nil, err
	}
	sinks := 0
	for _, n := range out {
		if core.IsSink(n) {
			sinks++
		}
	}
	switch {
	case sinks > 0 && sinks != len(out):
		return nil, &BranchConflictError{Module: b.kind, Sinks: sinks, Others: len(out) - sinks}
	case sinks > 0:
		return out, nil
	case b.ctx != nil:
		return single(b.ctx.Destination()), nil
	default:
		return nil, nil
	}
}
