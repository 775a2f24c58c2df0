package host

import (
	"fmt"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/logging"
	"github.com/hupe1980/audiomesh/runner"
)

// Options configures a Host.
type Options struct {
	// RenderChunk is the number of quanta an offline context renders per loop turn.
	RenderChunk int
	Logger      logging.Logger
}

// DefaultRenderChunk is used when Options.RenderChunk is not set.
const DefaultRenderChunk = 64

// Host is the in-memory audio platform.
type Host struct {
	loop        *runner.Loop
	logger      logging.Logger
	renderChunk int
}

var _ core.Host = (*Host)(nil)

// New constructs a Host posting its asynchronous work to loop.
func New(loop *runner.Loop, optFns ...func(o *Options)) *Host {
	opts := Options{
		RenderChunk: DefaultRenderChunk,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.RenderChunk <= 0 {
		opts.RenderChunk = DefaultRenderChunk
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Host{loop: loop, logger: opts.Logger, renderChunk: opts.RenderChunk}
}

// NewContext implements core.Host.
func (h *Host) NewContext(opts core.ContextOptions) (core.OnlineContext, error) {
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %v: %w", opts.SampleRate, core.ErrInvalidState)
	}
	c := &OnlineContext{baseContext: newBaseContext(h, opts.SampleRate), latencyHint: opts.LatencyHint}
	c.self = c
	h.logger.Debug("online context created", "context", c.id, "sampleRate", opts.SampleRate)
	return c, nil
}

// NewOfflineContext implements core.Host.
func (h *Host) NewOfflineContext(opts core.OfflineContextOptions) (core.OfflineContext, error) {
	if opts.SampleRate <= 0 || opts.Length <= 0 || opts.NumberOfChannels <= 0 {
		return nil, fmt.Errorf("offline context %+v: %w", opts, core.ErrInvalidState)
	}
	c := &OfflineContext{
		baseContext: newBaseContext(h, opts.SampleRate),
		length:      opts.Length,
		channels:    opts.NumberOfChannels,
		chunk:       h.renderChunk,
		suspensions: make(map[int64]func()),
	}
	c.self = c
	h.logger.Debug("offline context created", "context", c.id, "frames", opts.Length, "channels", opts.NumberOfChannels)
	return c, nil
}
