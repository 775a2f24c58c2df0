package host

import (
	"fmt"
	"math"

	"github.com/hupe1980/audiomesh/core"
)

const maxValue = math.MaxFloat32

type constructor func(c *baseContext, opts map[string]any) (core.Node, error)

var constructors = map[core.NodeKind]constructor{
	core.NodeAnalyser:           newAnalyser,
	core.NodeBiquadFilter:       newBiquad,
	core.NodeBufferSource:       newBufferSource,
	core.NodeChannelMerger:      newChannelMerger,
	core.NodeChannelSplitter:    newChannelSplitter,
	core.NodeConstantSource:     newConstantSource,
	core.NodeConvolver:          newConvolver,
	core.NodeDelay:              newDelay,
	core.NodeDynamicsCompressor: newCompressor,
	core.NodeGain:               newGain,
	core.NodeIIRFilter:          newIIRFilter,
	core.NodeMediaElementSource: newMediaElementSource,
	core.NodeMediaStreamSource:  newMediaStreamSource,
	core.NodeOscillator:         newOscillator,
	core.NodePanner:             newPanner,
	core.NodeScriptProcessor:    newScriptProcessor,
	core.NodeStereoPanner:       newStereoPanner,
	core.NodeStreamDestination:  newStreamDestination,
	core.NodeWaveShaper:         newWaveShaper,
}

// init wires the outer value into n and applies construction options.
func (n *node) init(self core.Node, proc processor, opts map[string]any, skip ...string) (core.Node, error) {
	n.self = self
	n.proc = proc
	if err := n.applyOptions(opts, skip...); err != nil {
		return nil, err
	}
	return self, nil
}

type destinationNode struct{ *node }

func newDestination(c *baseContext) *node {
	d := &destinationNode{node: newNode(c, core.NodeDestination, 1, 0)}
	d.props["maxChannelCount"] = 2
	d.self = d
	d.proc = d
	return d.node
}

func (d *destinationNode) process(in, out []float32, _ int64) { copy(out, in) }

func (d *destinationNode) setProperty(name string, _ any) error {
	if name == "maxChannelCount" {
		return fmt.Errorf("maxChannelCount is read-only: %w", core.ErrInvalidState)
	}
	return nil
}

// GainNode scales its input by the gain parameter.
type GainNode struct {
	*node
	gain *Param
}

func newGain(c *baseContext, opts map[string]any) (core.Node, error) {
	g := &GainNode{node: newNode(c, core.NodeGain, 1, 1)}
	g.gain = g.addParam("gain", 1, -maxValue, maxValue)
	return g.init(g, g, opts)
}

func (g *GainNode) process(in, out []float32, frame int64) {
	for i := range out {
		out[i] = in[i] * float32(g.gain.ValueAt(g.ctx.timeAt(frame, i)))
	}
}

// DelayNode delays its input by delayTime seconds.
type DelayNode struct {
	*node
	delayTime *Param
	ring      []float32
	pos       int
}

func newDelay(c *baseContext, opts map[string]any) (core.Node, error) {
	maxDelay := 1.0
	if v, ok := opts["maxDelayTime"]; ok {
		f, ok := core.ToFloat(v)
		if !ok || f <= 0 || f >= 180 {
			return nil, fmt.Errorf("maxDelayTime %v out of range: %w", v, core.ErrInvalidState)
		}
		maxDelay = f
	}
	d := &DelayNode{node: newNode(c, core.NodeDelay, 1, 1)}
	d.props["maxDelayTime"] = maxDelay
	d.delayTime = d.addParam("delayTime", 0, 0, maxDelay)
	d.ring = make([]float32, int(math.Ceil(maxDelay*c.sampleRate))+2)
	return d.init(d, d, opts, "maxDelayTime")
}

func (d *DelayNode) setProperty(name string, _ any) error {
	if name == "maxDelayTime" {
		return fmt.Errorf("maxDelayTime is fixed at construction: %w", core.ErrInvalidState)
	}
	return nil
}

func (d *DelayNode) process(in, out []float32, frame int64) {
	size := len(d.ring)
	for i := range out {
		d.ring[d.pos] = in[i]
		delay := d.delayTime.ValueAt(d.ctx.timeAt(frame, i)) * d.ctx.sampleRate
		read := float64(d.pos) - delay
		for read < 0 {
			read += float64(size)
		}
		k := int(read)
		frac := float32(read - float64(k))
		a := d.ring[k%size]
		b := d.ring[(k+1)%size]
		out[i] = a + (b-a)*frac
		d.pos = (d.pos + 1) % size
	}
}

// ConstantSourceNode outputs its offset parameter while playing.
type ConstantSourceNode struct {
	*source
	offset *Param
}

func newConstantSource(c *baseContext, opts map[string]any) (core.Node, error) {
	s := &ConstantSourceNode{source: newSource(c, core.NodeConstantSource)}
	s.offset = s.addParam("offset", 1, -maxValue, maxValue)
	return s.init(s, s, opts)
}

func (s *ConstantSourceNode) process(_, out []float32, frame int64) {
	for i := range out {
		t := s.ctx.timeAt(frame, i)
		if s.playing(t) {
			out[i] = float32(s.offset.ValueAt(t))
		}
	}
}

// StereoPannerNode carries a pan parameter; with mono signals it passes the
// input through unchanged.
type StereoPannerNode struct {
	*node
	pan *Param
}

func newStereoPanner(c *baseContext, opts map[string]any) (core.Node, error) {
	p := &StereoPannerNode{node: newNode(c, core.NodeStereoPanner, 1, 1)}
	p.pan = p.addParam("pan", 0, -1, 1)
	return p.init(p, p, opts)
}

func (p *StereoPannerNode) process(in, out []float32, _ int64) { copy(out, in) }

// AnalyserNode passes its input through and keeps the most recent fftSize
// samples.
type AnalyserNode struct {
	*node
	history []float32
}

func newAnalyser(c *baseContext, opts map[string]any) (core.Node, error) {
	a := &AnalyserNode{node: newNode(c, core.NodeAnalyser, 1, 1)}
	a.props["fftSize"] = 2048
	a.props["minDecibels"] = -100.0
	a.props["maxDecibels"] = -30.0
	a.props["smoothingTimeConstant"] = 0.8
	a.history = make([]float32, 2048)
	return a.init(a, a, opts)
}

func (a *AnalyserNode) setProperty(name string, value any) error {
	switch name {
	case "fftSize":
		f, ok := core.ToFloat(value)
		size := int(f)
		if !ok || size < 32 || size > 32768 || size&(size-1) != 0 {
			return fmt.Errorf("fftSize %v must be a power of two in [32, 32768]: %w", value, core.ErrInvalidState)
		}
		a.history = make([]float32, size)
	case "smoothingTimeConstant":
		f, ok := core.ToFloat(value)
		if !ok || f < 0 || f > 1 {
			return fmt.Errorf("smoothingTimeConstant %v out of range: %w", value, core.ErrInvalidState)
		}
	}
	return nil
}

func (a *AnalyserNode) process(in, out []float32, _ int64) {
	copy(out, in)
	if len(in) >= len(a.history) {
		copy(a.history, in[len(in)-len(a.history):])
		return
	}
	copy(a.history, a.history[len(in):])
	copy(a.history[len(a.history)-len(in):], in)
}

// FloatTimeDomainData copies the most recent samples into dst.
func (a *AnalyserNode) FloatTimeDomainData(dst []float32) int {
	return copy(dst, a.history)
}

// StreamDestinationNode is a sink that records everything it receives.
type StreamDestinationNode struct {
	*node
	recorded []float32
}

func newStreamDestination(c *baseContext, opts map[string]any) (core.Node, error) {
	s := &StreamDestinationNode{node: newNode(c, core.NodeStreamDestination, 1, 0)}
	return s.init(s, s, opts)
}

func (s *StreamDestinationNode) process(in, out []float32, _ int64) {
	s.recorded = append(s.recorded, in...)
	copy(out, in)
}

// Recorded returns the captured signal.
func (s *StreamDestinationNode) Recorded() []float32 { return s.recorded }

// MediaElementSourceNode plays a core.MediaElement. An element can be wrapped
// by a single node per context.
type MediaElementSourceNode struct {
	*node
	element core.MediaElement
}

func newMediaElementSource(c *baseContext, opts map[string]any) (core.Node, error) {
	el, ok := opts["mediaElement"].(core.MediaElement)
	if !ok || el == nil {
		return nil, fmt.Errorf("media element source requires a mediaElement option: %w", core.ErrInvalidState)
	}
	if c.media[el.ID()] {
		return nil, fmt.Errorf("media element %s already has a source node: %w", el.ID(), core.ErrInvalidState)
	}
	c.media[el.ID()] = true
	m := &MediaElementSourceNode{node: newNode(c, core.NodeMediaElementSource, 0, 1), element: el}
	return m.init(m, m, opts, "mediaElement")
}

// MediaElement returns the wrapped element.
func (m *MediaElementSourceNode) MediaElement() core.MediaElement { return m.element }

func (m *MediaElementSourceNode) process(_, out []float32, frame int64) {
	for i := range out {
		out[i] = m.element.SampleAt(m.ctx.timeAt(frame, i))
	}
}

// MediaStreamSourceNode plays a live stream. Only online contexts accept it.
type MediaStreamSourceNode struct {
	*node
	stream core.MediaStream
}

func newMediaStreamSource(c *baseContext, opts map[string]any) (core.Node, error) {
	if _, ok := c.self.(*OfflineContext); ok {
		return nil, fmt.Errorf("media stream source in offline context: %w", core.ErrUnsupported)
	}
	st, ok := opts["mediaStream"].(core.MediaStream)
	if !ok || st == nil {
		return nil, fmt.Errorf("media stream source requires a mediaStream option: %w", core.ErrInvalidState)
	}
	m := &MediaStreamSourceNode{node: newNode(c, core.NodeMediaStreamSource, 0, 1), stream: st}
	return m.init(m, m, opts, "mediaStream")
}

// MediaStream returns the wrapped stream.
func (m *MediaStreamSourceNode) MediaStream() core.MediaStream { return m.stream }

func (m *MediaStreamSourceNode) process(_, out []float32, frame int64) {
	for i := range out {
		out[i] = m.stream.SampleAt(m.ctx.timeAt(frame, i))
	}
}
