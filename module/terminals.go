package module

import "github.com/hupe1980/audiomesh/core"

// Terminals is an insertion-ordered set of native nodes. The nil value is the
// empty set.
type Terminals []core.Node

// Contains reports whether n is in the set.
func (t Terminals) Contains(n core.Node) bool {
	for _, x := range t {
		if x == n {
			return true
		}
	}
	return false
}

// Equal reports whether t and o hold the same nodes, ignoring order.
func (t Terminals) Equal(o Terminals) bool {
	if len(t) != len(o) {
		return false
	}
	for _, n := range t {
		if !o.Contains(n) {
			return false
		}
	}
	return true
}

// Union returns the de-duplicated concatenation of sets.
func Union(sets ...Terminals) Terminals {
	var out Terminals
	for _, s := range sets {
		for _, n := range s {
			if n != nil && !out.Contains(n) {
				out = append(out, n)
			}
		}
	}
	return out
}

func single(n core.Node) Terminals {
	if n == nil {
		return nil
	}
	return Terminals{n}
}
