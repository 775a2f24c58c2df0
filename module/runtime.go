package module

import (
	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/logging"
	"github.com/hupe1980/audiomesh/runner"
)

// Defaults holds fallbacks for scenario attributes that are not set.
type Defaults struct {
	SampleRate       float64
	NumberOfChannels int
	LatencyHint      string
}

// DefaultDefaults mirrors common host defaults.
var DefaultDefaults = Defaults{
	SampleRate:       44100,
	NumberOfChannels: 2,
	LatencyHint:      "interactive",
}

// Runtime bundles the collaborators shared by every module of a mesh.
type Runtime struct {
	Host     core.Host
	Loop     *runner.Loop
	Batch    *runner.BatchRunner
	Registry *Registry
	Logger   logging.Logger
	Defaults Defaults

	owners  map[core.Context]Module
	loggers map[core.Context]logging.Logger
}

// RuntimeOptions configures NewRuntime.
type RuntimeOptions struct {
	Logger   logging.Logger
	Defaults Defaults
}

// NewRuntime wires a Runtime around host and loop.
func NewRuntime(host core.Host, loop *runner.Loop, optFns ...func(o *RuntimeOptions)) *Runtime {
	opts := RuntimeOptions{
		Logger:   logging.NoOpLogger{},
		Defaults: DefaultDefaults,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Runtime{
		Host:     host,
		Loop:     loop,
		Batch:    runner.NewBatchRunner(loop),
		Registry: NewRegistry(),
		Logger:   opts.Logger,
		Defaults: opts.Defaults,
		owners:   make(map[core.Context]Module),
		loggers:  make(map[core.Context]logging.Logger),
	}
}

// owner returns the scenario that created ctx.
func (rt *Runtime) owner(ctx core.Context) Module {
	return rt.owners[ctx]
}

func (rt *Runtime) own(ctx core.Context, m Module) {
	rt.owners[ctx] = m
	name := m.Name()
	if name == "" {
		name = m.Kind() + "/" + m.ID()
	}
	rt.loggers[ctx] = logging.ForScenario(rt.Logger, name)
}

func (rt *Runtime) disown(ctx core.Context) {
	delete(rt.owners, ctx)
	delete(rt.loggers, ctx)
}

// logger returns the logger scoped to the scenario owning ctx.
func (rt *Runtime) logger(ctx core.Context) logging.Logger {
	if l, ok := rt.loggers[ctx]; ok {
		return l
	}
	return rt.Logger
}
