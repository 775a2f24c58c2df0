package host

import (
	"fmt"
	"math"

	"github.com/hupe1980/audiomesh/core"
)

// BufferSourceNode plays a core.Buffer once it is started. The buffer can be
// assigned a single time.
type BufferSourceNode struct {
	*source
	playbackRate *Param
	detune       *Param
	buffer       *core.Buffer
	position     float64
	positioned   bool
}

var _ core.BufferNode = (*BufferSourceNode)(nil)
var _ core.ScheduledNode = (*BufferSourceNode)(nil)

func newBufferSource(c *baseContext, opts map[string]any) (core.Node, error) {
	b := &BufferSourceNode{source: newSource(c, core.NodeBufferSource)}
	b.playbackRate = b.addParam("playbackRate", 1, -maxValue, maxValue)
	b.detune = b.addParam("detune", 0, -maxValue, maxValue)
	b.props["loop"] = false
	b.props["loopStart"] = 0.0
	b.props["loopEnd"] = 0.0
	if _, err := b.init(b, b, opts, "buffer"); err != nil {
		return nil, err
	}
	if buf, ok := opts["buffer"].(*core.Buffer); ok && buf != nil {
		if err := b.SetBuffer(buf); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// SetBuffer implements core.BufferNode.
func (b *BufferSourceNode) SetBuffer(buf *core.Buffer) error {
	if b.buffer != nil && buf != nil {
		return fmt.Errorf("buffer source buffer can only be set once: %w", core.ErrInvalidState)
	}
	if buf != nil {
		b.buffer = buf
	}
	return nil
}

// Buffer implements core.BufferNode.
func (b *BufferSourceNode) Buffer() *core.Buffer { return b.buffer }

func (b *BufferSourceNode) process(_, out []float32, frame int64) {
	for i := range out {
		t := b.ctx.timeAt(frame, i)
		if !b.playing(t) || b.buffer == nil {
			continue
		}
		data := b.buffer.Channel(0)
		if len(data) == 0 {
			b.finish()
			continue
		}
		if !b.positioned {
			b.position = b.offset * b.buffer.SampleRate
			b.positioned = true
		}

		start, end := 0.0, float64(len(data))
		loop := b.boolProp("loop")
		if loop {
			if ls := b.floatProp("loopStart") * b.buffer.SampleRate; ls > 0 && ls < end {
				start = ls
			}
			if le := b.floatProp("loopEnd") * b.buffer.SampleRate; le > start && le < end {
				end = le
			}
		}
		if b.position >= end {
			if !loop {
				b.finish()
				continue
			}
			b.position = start + math.Mod(b.position-start, end-start)
		}

		k := int(b.position)
		v := data[k]
		if k+1 < len(data) {
			frac := float32(b.position - float64(k))
			v += (data[k+1] - v) * frac
		}
		out[i] = v

		rate := b.playbackRate.ValueAt(t) * math.Pow(2, b.detune.ValueAt(t)/1200)
		b.position += rate * b.buffer.SampleRate / b.ctx.sampleRate
	}
}

// ConvolverNode convolves its input with the first channel of an impulse
// response buffer.
type ConvolverNode struct {
	*node
	buffer  *core.Buffer
	kernel  []float64
	history []float64
	pos     int
}

var _ core.BufferNode = (*ConvolverNode)(nil)

func newConvolver(c *baseContext, opts map[string]any) (core.Node, error) {
	v := &ConvolverNode{node: newNode(c, core.NodeConvolver, 1, 1)}
	v.props["normalize"] = true
	if _, err := v.init(v, v, opts, "buffer"); err != nil {
		return nil, err
	}
	if buf, ok := opts["buffer"].(*core.Buffer); ok && buf != nil {
		if err := v.SetBuffer(buf); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// SetBuffer implements core.BufferNode.
func (v *ConvolverNode) SetBuffer(buf *core.Buffer) error {
	v.buffer = buf
	v.kernel, v.history, v.pos = nil, nil, 0
	if buf == nil || buf.Length() == 0 {
		return nil
	}
	if buf.SampleRate != v.ctx.sampleRate {
		return fmt.Errorf("impulse response rate %v differs from context rate %v: %w", buf.SampleRate, v.ctx.sampleRate, core.ErrInvalidState)
	}

	ir := buf.Channel(0)
	v.kernel = make([]float64, len(ir))
	energy := 0.0
	for i, s := range ir {
		v.kernel[i] = float64(s)
		energy += float64(s) * float64(s)
	}
	if v.boolProp("normalize") && energy > 0 {
		scale := 1 / math.Sqrt(energy)
		for i := range v.kernel {
			v.kernel[i] *= scale
		}
	}
	v.history = make([]float64, len(ir))
	return nil
}

// Buffer implements core.BufferNode.
func (v *ConvolverNode) Buffer() *core.Buffer { return v.buffer }

func (v *ConvolverNode) process(in, out []float32, _ int64) {
	if v.kernel == nil {
		return
	}
	n := len(v.kernel)
	for i := range out {
		v.history[v.pos] = float64(in[i])
		y := 0.0
		for k, h := range v.kernel {
			y += h * v.history[(v.pos-k+n)%n]
		}
		out[i] = float32(y)
		v.pos = (v.pos + 1) % n
	}
}
