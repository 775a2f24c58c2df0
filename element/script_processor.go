package element

import (
	"fmt"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/module"
)

var scriptProcessor = kindSpec{
	kind:      "scriptProcessor",
	node:      core.NodeScriptProcessor,
	construct: []string{"bufferSize", "numberOfInputChannels", "numberOfOutputChannels"},
}

// NewScriptProcessor returns an element running a Go callback over each
// buffer. onAudioProcess takes a func(*core.AudioProcessingEvent); the latest
// value replaces the previous callback.
func NewScriptProcessor(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	spec := scriptProcessor.spec()
	spec.Attributes = append(spec.Attributes, "onAudioProcess")
	spec.Apply = func(e *module.Element, name string, value any) (bool, error) {
		if name != "onAudioProcess" {
			return scriptProcessor.apply(e, name, value)
		}
		node, ok := e.Node().(core.ScriptNode)
		if !ok {
			return true, fmt.Errorf("%s has no audio process callback: %w", e.Node().Kind(), core.ErrUnsupported)
		}
		switch fn := value.(type) {
		case nil:
			node.OnAudioProcess(nil)
		case func(*core.AudioProcessingEvent):
			node.OnAudioProcess(fn)
		default:
			return true, fmt.Errorf("%w: onAudioProcess must be a func(*core.AudioProcessingEvent), got %T", module.ErrInvalidAttribute, value)
		}
		return true, nil
	}
	return module.NewElement(rt, spec, attrs)
}
