package element

import (
	"fmt"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/module"
)

var convolver = kindSpec{
	kind:  "convolver",
	node:  core.NodeConvolver,
	props: map[string]any{"normalize": true},
}

// NewConvolver returns a convolver element. The buffer attribute takes a
// *core.Buffer impulse response.
func NewConvolver(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	spec := convolver.spec()
	spec.Attributes = append(spec.Attributes, "buffer")
	spec.Apply = func(e *module.Element, name string, value any) (bool, error) {
		node, ok := e.Node().(core.BufferNode)
		if !ok {
			return false, nil
		}
		switch name {
		case "buffer":
			buf, ok := value.(*core.Buffer)
			if !ok && value != nil {
				return true, fmt.Errorf("%w: convolver buffer must be *core.Buffer, got %T", module.ErrInvalidAttribute, value)
			}
			return true, node.SetBuffer(buf)
		case "normalize":
			if _, err := convolver.apply(e, name, value); err != nil {
				return true, err
			}
			// normalization is baked in when the buffer is assigned
			if buf := node.Buffer(); buf != nil {
				return true, node.SetBuffer(buf)
			}
			return true, nil
		}
		return convolver.apply(e, name, value)
	}
	return module.NewElement(rt, spec, attrs)
}
