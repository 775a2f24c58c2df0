package element

import (
	"fmt"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/module"
)

// NewMediaElementSource returns a source playing a core.MediaElement. An
// element can only be wrapped once per context, so the node is kept in the
// runtime registry and reused by every rebuild in that context.
func NewMediaElementSource(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	spec := module.ElementSpec{
		Kind:             "mediaElementSource",
		Attributes:       []string{"mediaElement"},
		ConstructionKeys: []string{"mediaElement"},
		Construct:        constructMediaElementSource,
		Apply: func(*module.Element, string, any) (bool, error) {
			return true, nil
		},
	}
	return module.NewElement(rt, spec, attrs)
}

func constructMediaElementSource(e *module.Element) (core.Node, error) {
	v, _ := e.Attribute("mediaElement")
	el, ok := v.(core.MediaElement)
	if !ok || el == nil {
		return nil, fmt.Errorf("%w: mediaElement must be a core.MediaElement, got %T", module.ErrInvalidAttribute, v)
	}

	ctx := e.Context()
	registry := e.Runtime().Registry
	if node, ok := registry.Lookup(ctx, el.ID()); ok {
		return node, nil
	}
	node, err := ctx.CreateNode(core.NodeMediaElementSource, map[string]any{"mediaElement": el})
	if err != nil {
		return nil, err
	}
	registry.Store(ctx, el.ID(), node)
	return node, nil
}
