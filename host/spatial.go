package host

import (
	"fmt"
	"math"

	"github.com/hupe1980/audiomesh/core"
)

type vec3 [3]float64

func (v vec3) sub(o vec3) vec3    { return vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }
func (v vec3) dot(o vec3) float64 { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }
func (v vec3) norm() float64      { return math.Sqrt(v.dot(v)) }

// PannerNode attenuates its input by the distance and cone gains between the
// panner and the context listener. Signals are mono, so panningModel is only
// validated.
type PannerNode struct {
	*node
	positionX, positionY, positionZ          *Param
	orientationX, orientationY, orientationZ *Param
}

func newPanner(c *baseContext, opts map[string]any) (core.Node, error) {
	p := &PannerNode{node: newNode(c, core.NodePanner, 1, 1)}
	p.props["channelCountMode"] = "clamped-max"
	p.props["coneInnerAngle"] = 360.0
	p.props["coneOuterAngle"] = 360.0
	p.props["coneOuterGain"] = 0.0
	p.props["distanceModel"] = "inverse"
	p.props["maxDistance"] = 10000.0
	p.props["panningModel"] = "equalpower"
	p.props["refDistance"] = 1.0
	p.props["rolloffFactor"] = 1.0
	p.positionX = p.addParam("positionX", 0, -maxValue, maxValue)
	p.positionY = p.addParam("positionY", 0, -maxValue, maxValue)
	p.positionZ = p.addParam("positionZ", 0, -maxValue, maxValue)
	p.orientationX = p.addParam("orientationX", 1, -maxValue, maxValue)
	p.orientationY = p.addParam("orientationY", 0, -maxValue, maxValue)
	p.orientationZ = p.addParam("orientationZ", 0, -maxValue, maxValue)
	return p.init(p, p, opts)
}

func (p *PannerNode) setProperty(name string, value any) error {
	switch name {
	case "distanceModel":
		switch value {
		case "linear", "inverse", "exponential":
			return nil
		}
		return fmt.Errorf("distanceModel %v: %w", value, core.ErrInvalidState)
	case "panningModel":
		switch value {
		case "equalpower", "HRTF":
			return nil
		}
		return fmt.Errorf("panningModel %v: %w", value, core.ErrInvalidState)
	case "refDistance", "rolloffFactor":
		if f, ok := core.ToFloat(value); !ok || f < 0 {
			return fmt.Errorf("%s %v must be >= 0: %w", name, value, core.ErrInvalidState)
		}
	case "maxDistance":
		if f, ok := core.ToFloat(value); !ok || f <= 0 {
			return fmt.Errorf("maxDistance %v must be > 0: %w", value, core.ErrInvalidState)
		}
	case "coneOuterGain":
		if f, ok := core.ToFloat(value); !ok || f < 0 || f > 1 {
			return fmt.Errorf("coneOuterGain %v out of [0, 1]: %w", value, core.ErrInvalidState)
		}
	case "coneInnerAngle", "coneOuterAngle":
		if _, ok := core.ToFloat(value); !ok {
			return fmt.Errorf("%s %v: want number: %w", name, value, core.ErrInvalidState)
		}
	}
	return nil
}

func (p *PannerNode) process(in, out []float32, frame int64) {
	l := p.ctx.listener
	listener := vec3{l.PositionX, l.PositionY, l.PositionZ}
	for i := range out {
		t := p.ctx.timeAt(frame, i)
		pos := vec3{p.positionX.ValueAt(t), p.positionY.ValueAt(t), p.positionZ.ValueAt(t)}
		dir := vec3{p.orientationX.ValueAt(t), p.orientationY.ValueAt(t), p.orientationZ.ValueAt(t)}
		g := p.distanceGain(listener.sub(pos).norm()) * p.coneGain(pos, dir, listener)
		out[i] = in[i] * float32(g)
	}
}

// distanceGain follows the linear, inverse and exponential models of the
// Web Audio API.
func (p *PannerNode) distanceGain(d float64) float64 {
	ref := p.floatProp("refDistance")
	maxD := p.floatProp("maxDistance")
	roll := p.floatProp("rolloffFactor")
	switch p.stringProp("distanceModel") {
	case "linear":
		if maxD <= ref {
			return 1
		}
		roll = math.Min(roll, 1)
		d = math.Max(ref, math.Min(d, maxD))
		return 1 - roll*(d-ref)/(maxD-ref)
	case "exponential":
		if ref == 0 {
			return 0
		}
		return math.Pow(math.Max(d, ref)/ref, -roll)
	default:
		if ref == 0 {
			return 0
		}
		return ref / (ref + roll*(math.Max(d, ref)-ref))
	}
}

func (p *PannerNode) coneGain(pos, dir, listener vec3) float64 {
	inner := p.floatProp("coneInnerAngle")
	outer := p.floatProp("coneOuterAngle")
	if inner == 360 && outer == 360 {
		return 1
	}
	toListener := listener.sub(pos)
	dn, ln := dir.norm(), toListener.norm()
	if dn == 0 || ln == 0 {
		return 1
	}
	cos := math.Max(-1, math.Min(1, dir.dot(toListener)/(dn*ln)))
	angle := math.Acos(cos) * 180 / math.Pi
	halfInner, halfOuter := math.Abs(inner)/2, math.Abs(outer)/2
	outerGain := p.floatProp("coneOuterGain")
	switch {
	case angle <= halfInner:
		return 1
	case angle >= halfOuter:
		return outerGain
	default:
		x := (angle - halfInner) / (halfOuter - halfInner)
		return (1 - x) + outerGain*x
	}
}

// ChannelMergerNode combines numberOfInputs inputs into one output. Signals
// are mono, so the merge is the sum of its inputs.
type ChannelMergerNode struct{ *node }

func newChannelMerger(c *baseContext, opts map[string]any) (core.Node, error) {
	n, err := channelCountOption(opts, "numberOfInputs")
	if err != nil {
		return nil, err
	}
	m := &ChannelMergerNode{node: newNode(c, core.NodeChannelMerger, n, 1)}
	m.props["channelCount"] = 1
	m.props["channelCountMode"] = "explicit"
	return m.init(m, m, opts, "numberOfInputs")
}

func (m *ChannelMergerNode) setProperty(name string, value any) error {
	switch name {
	case "channelCount":
		if f, ok := core.ToFloat(value); !ok || f != 1 {
			return fmt.Errorf("channel merger channelCount must be 1: %w", core.ErrInvalidState)
		}
	case "channelCountMode":
		if value != "explicit" {
			return fmt.Errorf("channel merger channelCountMode must be explicit: %w", core.ErrInvalidState)
		}
	}
	return nil
}

func (m *ChannelMergerNode) process(in, out []float32, _ int64) { copy(out, in) }

// ChannelSplitterNode fans its input out to numberOfOutputs outputs. Every
// output carries the mono input.
type ChannelSplitterNode struct{ *node }

func newChannelSplitter(c *baseContext, opts map[string]any) (core.Node, error) {
	n, err := channelCountOption(opts, "numberOfOutputs")
	if err != nil {
		return nil, err
	}
	s := &ChannelSplitterNode{node: newNode(c, core.NodeChannelSplitter, 1, n)}
	s.props["channelCount"] = n
	s.props["channelCountMode"] = "explicit"
	s.props["channelInterpretation"] = "discrete"
	return s.init(s, s, opts, "numberOfOutputs")
}

func (s *ChannelSplitterNode) setProperty(name string, value any) error {
	switch name {
	case "channelCount":
		if f, ok := core.ToFloat(value); !ok || int(f) != s.outputs {
			return fmt.Errorf("channel splitter channelCount must be %d: %w", s.outputs, core.ErrInvalidState)
		}
	case "channelCountMode", "channelInterpretation":
		return fmt.Errorf("channel splitter %s is fixed: %w", name, core.ErrInvalidState)
	}
	return nil
}

func (s *ChannelSplitterNode) process(in, out []float32, _ int64) { copy(out, in) }

func channelCountOption(opts map[string]any, key string) (int, error) {
	v, ok := opts[key]
	if !ok {
		return 6, nil
	}
	f, ok := core.ToFloat(v)
	if !ok || f < 1 || f > 32 || f != math.Trunc(f) {
		return 0, fmt.Errorf("%s %v out of [1, 32]: %w", key, v, core.ErrInvalidState)
	}
	return int(f), nil
}
