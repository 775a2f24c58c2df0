package host

import (
	"fmt"
	"math"

	"github.com/hupe1980/audiomesh/core"
)

// OfflineContext renders a fixed number of frames in loop-driven chunks.
type OfflineContext struct {
	*baseContext
	length      int
	channels    int
	chunk       int
	rendering   bool
	complete    bool
	output      *core.Buffer
	suspensions map[int64]func()
	onComplete  func(*core.Buffer)
}

var _ core.OfflineContext = (*OfflineContext)(nil)

// Length implements core.OfflineContext.
func (c *OfflineContext) Length() int { return c.length }

// NumberOfChannels implements core.OfflineContext.
func (c *OfflineContext) NumberOfChannels() int { return c.channels }

// OnComplete implements core.OfflineContext.
func (c *OfflineContext) OnComplete(fn func(*core.Buffer)) { c.onComplete = fn }

// StartRendering implements core.OfflineContext.
func (c *OfflineContext) StartRendering() error {
	if c.rendering || c.state == core.StateClosed {
		return fmt.Errorf("start rendering twice: %w", core.ErrInvalidState)
	}
	c.rendering = true
	c.output = core.NewBuffer(c.channels, c.length, c.sampleRate)
	c.setState(core.StateRunning)
	c.loop.Post(c.renderChunk)
	return nil
}

// Resume implements core.OfflineContext.
func (c *OfflineContext) Resume() error {
	if !c.rendering || c.complete || c.state == core.StateClosed {
		return fmt.Errorf("resume offline context that is not rendering: %w", core.ErrInvalidState)
	}
	if c.state == core.StateRunning {
		return nil
	}
	c.setState(core.StateRunning)
	c.loop.Post(c.renderChunk)
	return nil
}

// SuspendAt implements core.OfflineContext. t is rounded up to a quantum
// boundary; each boundary can hold a single suspension.
func (c *OfflineContext) SuspendAt(t float64, fn func()) error {
	if c.complete || c.state == core.StateClosed {
		return fmt.Errorf("suspend finished context: %w", core.ErrInvalidState)
	}
	frame := int64(math.Ceil(t*c.sampleRate/RenderQuantum-1e-9)) * RenderQuantum
	switch {
	case frame < c.frame:
		return fmt.Errorf("suspend at %v is in the past: %w", t, core.ErrInvalidState)
	case frame >= int64(c.length):
		return fmt.Errorf("suspend at %v exceeds length: %w", t, core.ErrInvalidState)
	}
	if _, dup := c.suspensions[frame]; dup {
		return fmt.Errorf("suspend at %v already scheduled: %w", t, core.ErrInvalidState)
	}
	if fn == nil {
		fn = func() {}
	}
	c.suspensions[frame] = fn
	return nil
}

// Close stops rendering without delivering a result.
func (c *OfflineContext) Close() error { return c.close() }

// Rendered returns the output buffer once rendering completed.
func (c *OfflineContext) Rendered() (*core.Buffer, bool) {
	return c.output, c.complete
}

func (c *OfflineContext) renderChunk() error {
	if c.state != core.StateRunning {
		return nil
	}

	for i := 0; i < c.chunk; i++ {
		if c.frame >= int64(c.length) {
			c.finish()
			return nil
		}
		if fn, ok := c.suspensions[c.frame]; ok {
			delete(c.suspensions, c.frame)
			c.setState(core.StateSuspended)
			c.loop.Post(func() error {
				fn()
				return nil
			})
			return nil
		}

		start := c.frame
		block := c.renderQuantum()
		for _, ch := range c.output.Channels {
			copy(ch[start:], block)
		}
	}

	c.loop.Post(c.renderChunk)
	return nil
}

func (c *OfflineContext) finish() {
	c.complete = true
	c.setState(core.StateClosed)
	c.logger.Debug("offline rendering complete", "context", c.id, "frames", c.length)
	if fn := c.onComplete; fn != nil {
		out := c.output
		c.loop.Post(func() error {
			fn(out)
			return nil
		})
	}
}
