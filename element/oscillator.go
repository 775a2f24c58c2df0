package element

import (
	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/module"
)

var oscillator = kindSpec{
	kind:      "oscillator",
	node:      core.NodeOscillator,
	params:    []string{"frequency", "detune"},
	props:     map[string]any{"type": "sine"},
	construct: []string{"periodicWave"},
}

// NewOscillator returns an oscillator source. A periodicWave attribute
// (core.PeriodicWave or a record with real/imag) is construction-only and
// takes precedence over type.
func NewOscillator(rt *module.Runtime, attrs module.Attributes) (*module.ScheduledSource, error) {
	spec := oscillator.spec()
	spec.Apply = func(e *module.Element, name string, value any) (bool, error) {
		if name == "type" {
			if w, ok := e.Attribute("periodicWave"); ok && w != nil {
				return true, nil
			}
		}
		return oscillator.apply(e, name, value)
	}
	return module.NewScheduledSource(rt, spec, attrs)
}
