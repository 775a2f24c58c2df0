// Package audiomesh composes a tree of declaratively described audio
// processing units into a live graph of native nodes and keeps the graph's
// wiring correct while the tree is mutated. Typical use:
//  1. Create a Mesh via New() (optionally overriding the host or logger)
//  2. Create a scenario (KindScene or KindRecord) and attach it to the stage
//  3. Create modules with Create and attach them below the scenario
//  4. Mutate attributes with SetAttribute and drive the loop with Flush/Drain
//
// The façade delegates to the module package; all mutations are synchronous
// and single threaded, deferred effects run on the mesh's runner.Loop.
package audiomesh

import (
	"fmt"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/host"
	"github.com/hupe1980/audiomesh/logging"
	"github.com/hupe1980/audiomesh/module"
	"github.com/hupe1980/audiomesh/runner"
)

// Options configures the Mesh instance.
type Options struct {
	// Host creates processing contexts. Defaults to the in-memory host
	// driven by the mesh loop.
	Host core.Host

	// Defaults for scenario attributes that are not set.
	SampleRate       float64
	NumberOfChannels int
	LatencyHint      string

	// MaxTicks bounds Drain.
	MaxTicks int

	// RenderChunk is the number of render quanta an offline context renders
	// per loop turn (in-memory host only).
	RenderChunk int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// DefaultConfig holds the default option values.
var DefaultConfig = Options{
	SampleRate:       module.DefaultDefaults.SampleRate,
	NumberOfChannels: module.DefaultDefaults.NumberOfChannels,
	LatencyHint:      module.DefaultDefaults.LatencyHint,
	MaxTicks:         runner.DefaultMaxTicks,
	RenderChunk:      host.DefaultRenderChunk,
}

// Mesh is the high-level façade over a runtime and its stage.
type Mesh struct {
	opts  Options
	loop  *runner.Loop
	rt    *module.Runtime
	stage *module.Stage
}

// New creates a Mesh with optional overrides.
func New(optFns ...func(o *Options)) *Mesh {
	opts := DefaultConfig
	opts.Logger = logging.NoOpLogger{}

	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	loop := runner.NewLoop(func(o *runner.Options) {
		o.MaxTicks = opts.MaxTicks
		o.Logger = logging.ForComponent(opts.Logger, "runner")
	})

	if opts.Host == nil {
		opts.Host = host.New(loop, func(o *host.Options) {
			o.RenderChunk = opts.RenderChunk
			o.Logger = logging.ForComponent(opts.Logger, "host")
		})
	}

	rt := module.NewRuntime(opts.Host, loop, func(o *module.RuntimeOptions) {
		o.Logger = logging.ForComponent(opts.Logger, "module")
		o.Defaults = module.Defaults{
			SampleRate:       opts.SampleRate,
			NumberOfChannels: opts.NumberOfChannels,
			LatencyHint:      opts.LatencyHint,
		}
	})

	return &Mesh{opts: opts, loop: loop, rt: rt, stage: module.NewStage(rt)}
}

// Runtime returns the runtime shared by every module of the mesh.
func (m *Mesh) Runtime() *module.Runtime { return m.rt }

// Loop returns the loop deferred effects are executed on.
func (m *Mesh) Loop() *runner.Loop { return m.loop }

// Stage returns the root stage.
func (m *Mesh) Stage() *module.Stage { return m.stage }

// Create builds a detached module of the given kind.
func (m *Mesh) Create(kind Kind, attrs module.Attributes) (module.Module, error) {
	f, ok := factories[kind]
	if !ok {
		return nil, unknownKind(string(kind))
	}
	mod, err := f(m.rt, attrs)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	return mod, nil
}

// AppendChild appends child to parent.
func (m *Mesh) AppendChild(parent, child module.Module) error {
	return parent.AppendChild(child)
}

// InsertChildBefore inserts child into parent before anchor.
func (m *Mesh) InsertChildBefore(parent, child, anchor module.Module) error {
	return parent.InsertChildBefore(child, anchor)
}

// RemoveChild removes child from parent.
func (m *Mesh) RemoveChild(parent, child module.Module) error {
	return parent.RemoveChild(child)
}

// SetAttribute writes a single attribute. Callers only issue it when the
// value changed.
func (m *Mesh) SetAttribute(mod module.Module, name string, value any) error {
	return mod.SetAttribute(name, value)
}

// PublicHandle returns mod itself.
func (m *Mesh) PublicHandle(mod module.Module) module.Module { return mod }

// AppendScenario attaches a scenario module to the stage.
func (m *Mesh) AppendScenario(s module.Module) error {
	sc, err := asScenario(s)
	if err != nil {
		return err
	}
	return m.stage.AppendChild(sc)
}

// InsertScenarioBefore attaches s to the stage before anchor.
func (m *Mesh) InsertScenarioBefore(s, anchor module.Module) error {
	sc, err := asScenario(s)
	if err != nil {
		return err
	}
	a, err := asScenario(anchor)
	if err != nil {
		return err
	}
	return m.stage.InsertChildBefore(sc, a)
}

// RemoveScenario detaches s from the stage and closes its context.
func (m *Mesh) RemoveScenario(s module.Module) error {
	sc, err := asScenario(s)
	if err != nil {
		return err
	}
	return m.stage.RemoveChild(sc)
}

// Flush runs one turn of the loop.
func (m *Mesh) Flush() error { return m.loop.Tick() }

// Drain runs the loop until it is idle.
func (m *Mesh) Drain() error { return m.loop.Drain() }

// Close detaches every scenario.
func (m *Mesh) Close() error { return m.stage.Close() }

func asScenario(mod module.Module) (module.ScenarioModule, error) {
	sc, ok := mod.(module.ScenarioModule)
	if !ok {
		kind := "<nil>"
		if mod != nil {
			kind = mod.Kind()
		}
		return nil, fmt.Errorf("%s: %w", kind, module.ErrNotScenario)
	}
	return sc, nil
}
