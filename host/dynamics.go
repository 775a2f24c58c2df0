package host

import (
	"fmt"
	"math"

	"github.com/hupe1980/audiomesh/core"
)

// DynamicsCompressorNode is a feed-forward compressor with a soft knee.
type DynamicsCompressorNode struct {
	*node
	threshold, knee, ratio, attack, release *Param

	envelope  float64
	reduction float64
}

func newCompressor(c *baseContext, opts map[string]any) (core.Node, error) {
	d := &DynamicsCompressorNode{node: newNode(c, core.NodeDynamicsCompressor, 1, 1)}
	d.threshold = d.addParam("threshold", -24, -100, 0)
	d.knee = d.addParam("knee", 30, 0, 40)
	d.ratio = d.addParam("ratio", 12, 1, 20)
	d.attack = d.addParam("attack", 0.003, 0, 1)
	d.release = d.addParam("release", 0.25, 0, 1)
	d.props["reduction"] = 0.0
	return d.init(d, d, opts)
}

func (d *DynamicsCompressorNode) setProperty(name string, _ any) error {
	if name == "reduction" {
		return fmt.Errorf("reduction is read-only: %w", core.ErrInvalidState)
	}
	return nil
}

// Reduction returns the most recent gain reduction in dB (<= 0).
func (d *DynamicsCompressorNode) Reduction() float64 { return d.reduction }

func (d *DynamicsCompressorNode) process(in, out []float32, frame int64) {
	t := d.ctx.timeAt(frame, 0)
	threshold := d.threshold.ValueAt(t)
	knee := d.knee.ValueAt(t)
	ratio := d.ratio.ValueAt(t)
	attack := coefficient(d.attack.ValueAt(t), d.ctx.sampleRate)
	release := coefficient(d.release.ValueAt(t), d.ctx.sampleRate)

	for i := range out {
		level := math.Abs(float64(in[i]))
		coef := release
		if level > d.envelope {
			coef = attack
		}
		d.envelope = coef*d.envelope + (1-coef)*level

		db := -100.0
		if d.envelope > 1e-5 {
			db = 20 * math.Log10(d.envelope)
		}
		d.reduction = staticCurve(db, threshold, knee, ratio) - db
		out[i] = in[i] * float32(math.Pow(10, d.reduction/20))
	}
	d.props["reduction"] = d.reduction
}

func coefficient(seconds, sampleRate float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return math.Exp(-1 / (seconds * sampleRate))
}

func staticCurve(db, threshold, knee, ratio float64) float64 {
	over := db - threshold
	switch {
	case 2*over < -knee:
		return db
	case knee > 0 && 2*math.Abs(over) <= knee:
		x := over + knee/2
		return db + (1/ratio-1)*x*x/(2*knee)
	default:
		return threshold + over/ratio
	}
}

// WaveShaperNode maps its input through a transfer curve.
type WaveShaperNode struct {
	*node
	curve []float64
}

func newWaveShaper(c *baseContext, opts map[string]any) (core.Node, error) {
	w := &WaveShaperNode{node: newNode(c, core.NodeWaveShaper, 1, 1)}
	w.props["curve"] = nil
	w.props["oversample"] = "none"
	return w.init(w, w, opts)
}

func (w *WaveShaperNode) setProperty(name string, value any) error {
	switch name {
	case "curve":
		if value == nil {
			w.curve = nil
			return nil
		}
		curve, ok := toFloats(value)
		if !ok || len(curve) < 2 {
			return fmt.Errorf("wave shaper curve needs at least two points: %w", core.ErrInvalidState)
		}
		w.curve = curve
	case "oversample":
		switch value {
		case "none", "2x", "4x":
		default:
			return fmt.Errorf("oversample %v: %w", value, core.ErrUnsupported)
		}
	}
	return nil
}

func (w *WaveShaperNode) process(in, out []float32, _ int64) {
	if w.curve == nil {
		copy(out, in)
		return
	}
	last := len(w.curve) - 1
	for i := range out {
		pos := float64(last) * (float64(in[i]) + 1) / 2
		switch {
		case pos <= 0:
			out[i] = float32(w.curve[0])
		case pos >= float64(last):
			out[i] = float32(w.curve[last])
		default:
			k := int(pos)
			frac := pos - float64(k)
			out[i] = float32(w.curve[k] + (w.curve[k+1]-w.curve[k])*frac)
		}
	}
}
