package host

import (
	"fmt"
	"math"

	"github.com/go-viper/mapstructure/v2"

	"github.com/hupe1980/audiomesh/core"
)

const waveTableSize = 2048

// OscillatorNode generates a periodic waveform while playing.
type OscillatorNode struct {
	*source
	frequency *Param
	detune    *Param
	phase     float64
	table     []float64
}

func newOscillator(c *baseContext, opts map[string]any) (core.Node, error) {
	o := &OscillatorNode{source: newSource(c, core.NodeOscillator)}
	o.frequency = o.addParam("frequency", 440, -c.sampleRate/2, c.sampleRate/2)
	o.detune = o.addParam("detune", 0, -153600, 153600)
	o.props["type"] = "sine"
	o.props["periodicWave"] = nil

	if _, err := o.init(o, o, opts, "periodicWave", "type"); err != nil {
		return nil, err
	}
	if w, ok := opts["periodicWave"]; ok && w != nil {
		if err := o.SetProperty("periodicWave", w); err != nil {
			return nil, err
		}
	} else if t, ok := opts["type"]; ok {
		if err := o.SetProperty("type", t); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *OscillatorNode) setProperty(name string, value any) error {
	switch name {
	case "type":
		switch value {
		case "sine", "square", "sawtooth", "triangle":
			o.table = nil
		case "custom":
			return fmt.Errorf("type custom requires a periodic wave: %w", core.ErrInvalidState)
		default:
			return fmt.Errorf("oscillator type %v: %w", value, core.ErrUnsupported)
		}
	case "periodicWave":
		wave, err := toPeriodicWave(value)
		if err != nil {
			return err
		}
		o.table = buildWaveTable(wave)
		o.props["type"] = "custom"
	}
	return nil
}

func toPeriodicWave(value any) (core.PeriodicWave, error) {
	switch w := value.(type) {
	case core.PeriodicWave:
		return w, nil
	case *core.PeriodicWave:
		return *w, nil
	case map[string]any:
		var wave core.PeriodicWave
		if err := mapstructure.WeakDecode(w, &wave); err != nil {
			return wave, fmt.Errorf("decode periodic wave: %w", err)
		}
		return wave, nil
	}
	return core.PeriodicWave{}, fmt.Errorf("periodic wave of type %T: %w", value, core.ErrUnsupported)
}

func buildWaveTable(w core.PeriodicWave) []float64 {
	table := make([]float64, waveTableSize)
	n := len(w.Real)
	if len(w.Imag) > n {
		n = len(w.Imag)
	}
	peak := 0.0
	for i := range table {
		phi := 2 * math.Pi * float64(i) / waveTableSize
		v := 0.0
		for k := 1; k < n; k++ {
			if k < len(w.Real) {
				v += w.Real[k] * math.Cos(float64(k)*phi)
			}
			if k < len(w.Imag) {
				v += w.Imag[k] * math.Sin(float64(k)*phi)
			}
		}
		table[i] = v
		peak = math.Max(peak, math.Abs(v))
	}
	if !w.DisableNormalization && peak > 0 {
		for i := range table {
			table[i] /= peak
		}
	}
	return table
}

func (o *OscillatorNode) process(_, out []float32, frame int64) {
	for i := range out {
		t := o.ctx.timeAt(frame, i)
		if !o.playing(t) {
			continue
		}
		out[i] = float32(o.sample(o.phase))
		f := o.frequency.ValueAt(t) * math.Pow(2, o.detune.ValueAt(t)/1200)
		o.phase += f / o.ctx.sampleRate
		o.phase -= math.Floor(o.phase)
	}
}

func (o *OscillatorNode) sample(phase float64) float64 {
	if o.table != nil {
		return o.table[int(phase*waveTableSize)%waveTableSize]
	}
	switch o.stringProp("type") {
	case "square":
		if phase < 0.5 {
			return 1
		}
		return -1
	case "sawtooth":
		return 2*phase - 1
	case "triangle":
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}
