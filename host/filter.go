package host

import (
	"fmt"
	"math"

	"github.com/hupe1980/audiomesh/core"
)

// BiquadFilterNode is a second order filter with RBJ cookbook coefficients,
// recomputed once per quantum.
type BiquadFilterNode struct {
	*node
	frequency, detune, q, gain *Param

	x1, x2, y1, y2 float64
}

func newBiquad(c *baseContext, opts map[string]any) (core.Node, error) {
	b := &BiquadFilterNode{node: newNode(c, core.NodeBiquadFilter, 1, 1)}
	b.frequency = b.addParam("frequency", 350, 0, c.sampleRate/2)
	b.detune = b.addParam("detune", 0, -153600, 153600)
	b.q = b.addParam("Q", 1, -maxValue, maxValue)
	b.gain = b.addParam("gain", 0, -maxValue, 1541)
	b.props["type"] = "lowpass"
	return b.init(b, b, opts)
}

func (b *BiquadFilterNode) setProperty(name string, value any) error {
	if name != "type" {
		return nil
	}
	switch value {
	case "lowpass", "highpass", "bandpass", "lowshelf", "highshelf", "peaking", "notch", "allpass":
		return nil
	}
	return fmt.Errorf("biquad type %v: %w", value, core.ErrUnsupported)
}

// Coefficients returns the normalized b0, b1, b2, a1, a2 at time t.
func (b *BiquadFilterNode) Coefficients(t float64) [5]float64 {
	sr := b.ctx.sampleRate
	f0 := b.frequency.ValueAt(t) * math.Pow(2, b.detune.ValueAt(t)/1200)
	f0 = math.Min(math.Max(f0, 0), sr/2)
	q := b.q.ValueAt(t)
	g := b.gain.ValueAt(t)

	w0 := 2 * math.Pi * f0 / sr
	cos, sin := math.Cos(w0), math.Sin(w0)
	A := math.Pow(10, g/40)

	var b0, b1, b2, a0, a1, a2 float64
	switch b.stringProp("type") {
	case "highpass":
		alpha := sin / (2 * math.Pow(10, q/20))
		b0, b1, b2 = (1+cos)/2, -(1 + cos), (1+cos)/2
		a0, a1, a2 = 1+alpha, -2*cos, 1-alpha
	case "bandpass":
		alpha := sin / (2 * q)
		b0, b1, b2 = alpha, 0, -alpha
		a0, a1, a2 = 1+alpha, -2*cos, 1-alpha
	case "notch":
		alpha := sin / (2 * q)
		b0, b1, b2 = 1, -2*cos, 1
		a0, a1, a2 = 1+alpha, -2*cos, 1-alpha
	case "allpass":
		alpha := sin / (2 * q)
		b0, b1, b2 = 1-alpha, -2*cos, 1+alpha
		a0, a1, a2 = 1+alpha, -2*cos, 1-alpha
	case "peaking":
		alpha := sin / (2 * q)
		b0, b1, b2 = 1+alpha*A, -2*cos, 1-alpha*A
		a0, a1, a2 = 1+alpha/A, -2*cos, 1-alpha/A
	case "lowshelf":
		alpha := sin / 2 * math.Sqrt2
		s := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) - (A-1)*cos + s)
		b1 = 2 * A * ((A - 1) - (A+1)*cos)
		b2 = A * ((A + 1) - (A-1)*cos - s)
		a0 = (A + 1) + (A-1)*cos + s
		a1 = -2 * ((A - 1) + (A+1)*cos)
		a2 = (A + 1) + (A-1)*cos - s
	case "highshelf":
		alpha := sin / 2 * math.Sqrt2
		s := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) + (A-1)*cos + s)
		b1 = -2 * A * ((A - 1) + (A+1)*cos)
		b2 = A * ((A + 1) + (A-1)*cos - s)
		a0 = (A + 1) - (A-1)*cos + s
		a1 = 2 * ((A - 1) - (A+1)*cos)
		a2 = (A + 1) - (A-1)*cos - s
	default:
		alpha := sin / (2 * math.Pow(10, q/20))
		b0, b1, b2 = (1-cos)/2, 1-cos, (1-cos)/2
		a0, a1, a2 = 1+alpha, -2*cos, 1-alpha
	}
	return [5]float64{b0 / a0, b1 / a0, b2 / a0, a1 / a0, a2 / a0}
}

func (b *BiquadFilterNode) process(in, out []float32, frame int64) {
	c := b.Coefficients(b.ctx.timeAt(frame, 0))
	for i := range out {
		x := float64(in[i])
		y := c[0]*x + c[1]*b.x1 + c[2]*b.x2 - c[3]*b.y1 - c[4]*b.y2
		b.x2, b.x1 = b.x1, x
		b.y2, b.y1 = b.y1, y
		out[i] = float32(y)
	}
}

// IIRFilterNode is a general IIR filter defined at construction.
type IIRFilterNode struct {
	*node
	feedforward []float64
	feedback    []float64
	xs, ys      []float64
}

func newIIRFilter(c *baseContext, opts map[string]any) (core.Node, error) {
	ff, ok := toFloats(opts["feedforward"])
	if !ok || len(ff) == 0 || len(ff) > 20 || allZero(ff) {
		return nil, fmt.Errorf("iir filter feedforward %v: %w", opts["feedforward"], core.ErrInvalidState)
	}
	fb, ok := toFloats(opts["feedback"])
	if !ok || len(fb) == 0 || len(fb) > 20 || fb[0] == 0 {
		return nil, fmt.Errorf("iir filter feedback %v: %w", opts["feedback"], core.ErrInvalidState)
	}
	f := &IIRFilterNode{
		node:        newNode(c, core.NodeIIRFilter, 1, 1),
		feedforward: ff,
		feedback:    fb,
		xs:          make([]float64, len(ff)),
		ys:          make([]float64, len(fb)),
	}
	return f.init(f, f, opts, "feedforward", "feedback")
}

func allZero(vals []float64) bool {
	for _, v := range vals {
		if v != 0 {
			return false
		}
	}
	return true
}

func (f *IIRFilterNode) process(in, out []float32, _ int64) {
	a0 := f.feedback[0]
	for i := range out {
		copy(f.xs[1:], f.xs)
		f.xs[0] = float64(in[i])

		y := 0.0
		for k, b := range f.feedforward {
			y += b * f.xs[k]
		}
		for k := 1; k < len(f.feedback); k++ {
			y -= f.feedback[k] * f.ys[k-1]
		}
		y /= a0

		if len(f.ys) > 0 {
			copy(f.ys[1:], f.ys)
			f.ys[0] = y
		}
		out[i] = float32(y)
	}
}
