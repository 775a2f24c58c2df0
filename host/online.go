package host

import (
	"fmt"
	"math"

	"github.com/hupe1980/audiomesh/core"
)

// OnlineContext is a continuously running context with a manual clock.
type OnlineContext struct {
	*baseContext
	latencyHint string
}

var _ core.OnlineContext = (*OnlineContext)(nil)

// LatencyHint returns the hint the context was created with.
func (c *OnlineContext) LatencyHint() string { return c.latencyHint }

// Resume implements core.OnlineContext.
func (c *OnlineContext) Resume() error {
	if c.state == core.StateClosed {
		return fmt.Errorf("resume closed context: %w", core.ErrInvalidState)
	}
	c.setState(core.StateRunning)
	return nil
}

// Suspend implements core.OnlineContext.
func (c *OnlineContext) Suspend() error {
	if c.state == core.StateClosed {
		return fmt.Errorf("suspend closed context: %w", core.ErrInvalidState)
	}
	c.setState(core.StateSuspended)
	return nil
}

// OnStateChange implements core.OnlineContext.
func (c *OnlineContext) OnStateChange(fn func(core.ContextState)) { c.onState = fn }

// Close implements core.Context.
func (c *OnlineContext) Close() error { return c.close() }

// Advance renders seconds of audio if the context is running and returns the
// destination signal. A suspended or closed context does not move its clock.
func (c *OnlineContext) Advance(seconds float64) []float32 {
	if c.state != core.StateRunning || seconds <= 0 {
		return nil
	}
	blocks := int(math.Ceil(seconds * c.sampleRate / RenderQuantum))
	out := make([]float32, 0, blocks*RenderQuantum)
	for i := 0; i < blocks; i++ {
		out = append(out, c.renderQuantum()...)
	}
	return out
}
