package host

import (
	"fmt"

	"github.com/hupe1980/audiomesh/core"
)

// ScriptProcessorNode buffers bufferSize frames of input, hands them to the
// callback and plays the callback's output one buffer later.
type ScriptProcessorNode struct {
	*node
	size      int
	in        []float32
	out       []float32
	pos       int
	onProcess func(*core.AudioProcessingEvent)
}

var _ core.ScriptNode = (*ScriptProcessorNode)(nil)

func newScriptProcessor(c *baseContext, opts map[string]any) (core.Node, error) {
	size := 2048
	if v, ok := opts["bufferSize"]; ok {
		f, ok := core.ToFloat(v)
		n := int(f)
		if !ok || float64(n) != f || n < 256 || n > 16384 || n&(n-1) != 0 {
			return nil, fmt.Errorf("bufferSize %v must be a power of two in [256, 16384]: %w", v, core.ErrInvalidState)
		}
		size = n
	}
	s := &ScriptProcessorNode{
		node: newNode(c, core.NodeScriptProcessor, 1, 1),
		size: size,
		in:   make([]float32, size),
		out:  make([]float32, size),
	}
	s.props["bufferSize"] = size
	s.props["channelCountMode"] = "explicit"
	return s.init(s, s, opts, "bufferSize", "numberOfInputChannels", "numberOfOutputChannels")
}

// OnAudioProcess implements core.ScriptNode.
func (s *ScriptProcessorNode) OnAudioProcess(fn func(*core.AudioProcessingEvent)) { s.onProcess = fn }

func (s *ScriptProcessorNode) setProperty(name string, _ any) error {
	if name == "bufferSize" {
		return fmt.Errorf("bufferSize is fixed at construction: %w", core.ErrInvalidState)
	}
	return nil
}

func (s *ScriptProcessorNode) process(in, out []float32, frame int64) {
	for i := range out {
		s.in[s.pos] = in[i]
		out[i] = s.out[s.pos]
		s.pos++
		if s.pos < s.size {
			continue
		}
		next := make([]float32, s.size)
		if fn := s.onProcess; fn != nil {
			fn(&core.AudioProcessingEvent{
				PlaybackTime: s.ctx.timeAt(frame, i+1),
				Input:        append([]float32(nil), s.in...),
				Output:       next,
			})
		}
		s.out = next
		s.pos = 0
	}
}
