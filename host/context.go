package host

import (
	"fmt"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/logging"
	"github.com/hupe1980/audiomesh/runner"
)

// RenderQuantum is the number of frames rendered per block.
const RenderQuantum = 128

type baseContext struct {
	id         string
	self       core.Context
	sampleRate float64
	frame      int64
	state      core.ContextState
	loop       *runner.Loop
	logger     logging.Logger
	dest       *node
	sinks      []*node
	media      map[string]bool
	listener   core.Listener
	onState    func(core.ContextState)

	memo     map[*node][]float32
	visiting map[*node]bool
}

func newBaseContext(h *Host, sampleRate float64) *baseContext {
	c := &baseContext{
		id:         core.NewID(),
		sampleRate: sampleRate,
		state:      core.StateSuspended,
		loop:       h.loop,
		logger:     h.logger,
		media:      make(map[string]bool),
		listener:   core.DefaultListener,
	}
	c.dest = newDestination(c)
	return c
}

// ID implements core.Context.
func (c *baseContext) ID() string { return c.id }

// SampleRate implements core.Context.
func (c *baseContext) SampleRate() float64 { return c.sampleRate }

// CurrentTime implements core.Context.
func (c *baseContext) CurrentTime() float64 { return c.currentTime() }

func (c *baseContext) currentTime() float64 { return float64(c.frame) / c.sampleRate }

// State implements core.Context.
func (c *baseContext) State() core.ContextState { return c.state }

// Destination implements core.Context.
func (c *baseContext) Destination() core.Node { return c.dest.self }

// CreateNode implements core.Context.
func (c *baseContext) CreateNode(kind core.NodeKind, options map[string]any) (core.Node, error) {
	if c.state == core.StateClosed {
		return nil, fmt.Errorf("create %s on closed context: %w", kind, core.ErrInvalidState)
	}
	build, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("node kind %q: %w", kind, core.ErrUnsupported)
	}
	n, err := build(c, options)
	if err != nil {
		return nil, err
	}
	if core.IsSink(n) {
		c.sinks = append(c.sinks, n.(baseNode).base())
	}
	return n, nil
}

// DecodeAudioData implements core.Context. Data is expected to be a WAV file;
// the result is resampled to the context rate.
func (c *baseContext) DecodeAudioData(data []byte, done func(*core.Buffer, error)) {
	c.loop.Post(func() error {
		buf, err := DecodeWAV(data)
		if err == nil {
			buf = Resample(buf, c.sampleRate)
		}
		done(buf, err)
		return nil
	})
}

// Listener implements core.Context.
func (c *baseContext) Listener() core.Listener { return c.listener }

// SetListener implements core.Context.
func (c *baseContext) SetListener(l core.Listener) { c.listener = l }

func (c *baseContext) setState(s core.ContextState) {
	if c.state == s {
		return
	}
	c.state = s
	if fn := c.onState; fn != nil {
		c.loop.Post(func() error {
			fn(s)
			return nil
		})
	}
}

func (c *baseContext) close() error {
	if c.state == core.StateClosed {
		return nil
	}
	c.setState(core.StateClosed)
	return nil
}

// renderQuantum renders one block and advances the clock. The destination mix
// is returned.
func (c *baseContext) renderQuantum() []float32 {
	c.memo = make(map[*node][]float32)
	c.visiting = make(map[*node]bool)

	out := c.pull(c.dest)
	for _, s := range c.sinks {
		if len(s.sources) > 0 {
			c.pull(s)
		}
	}

	c.memo, c.visiting = nil, nil
	c.frame += RenderQuantum
	return out
}

func (c *baseContext) pull(n *node) []float32 {
	if buf, ok := c.memo[n]; ok {
		return buf
	}
	if c.visiting[n] {
		return make([]float32, RenderQuantum)
	}
	c.visiting[n] = true

	in := make([]float32, RenderQuantum)
	for _, src := range n.sources {
		sig := c.pull(src)
		for i := range in {
			in[i] += sig[i]
		}
	}
	out := make([]float32, RenderQuantum)
	n.proc.process(in, out, c.frame)

	delete(c.visiting, n)
	c.memo[n] = out
	return out
}

func (c *baseContext) timeAt(frame int64, i int) float64 {
	return float64(frame+int64(i)) / c.sampleRate
}
