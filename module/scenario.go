package module

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/hupe1980/audiomesh/core"
)

// ScenarioModule is implemented by Scene and Record.
type ScenarioModule interface {
	Module
	Reconstruct()
	Active() bool
	Stage() *Stage
	scenario() *Scenario
}

type scenarioKind interface {
	jackModule
	createContext() (core.Context, error)
	updateContextExecution()
}

// Scenario owns the processing context shared by its whole subtree. The
// context is the Jack's native resource: it is replaced when a
// construction-only attribute changes.
type Scenario struct {
	Jack
	stage  *Stage
	active bool
}

func (s *Scenario) initScenario(self scenarioKind, rt *Runtime, kind string, attrs Attributes) error {
	s.active = true
	if err := s.init(self, rt, kind, attrs); err != nil {
		return err
	}
	if v, ok := attrs["active"]; ok {
		active, err := toActive(v)
		if err != nil {
			return err
		}
		s.active = active
	}
	return self.refreshNode()
}

func (s *Scenario) scenario() *Scenario { return s }

func (s *Scenario) kindHooks() scenarioKind { return s.self.(scenarioKind) }

// Active reports whether execution was requested.
func (s *Scenario) Active() bool { return s.active }

// Stage returns the stage the scenario is attached to, or nil.
func (s *Scenario) Stage() *Stage { return s.stage }

// ApplyParameterization is not supported on scenarios.
func (s *Scenario) ApplyParameterization(string, any) error {
	return fmt.Errorf("scenario automation: %w", ErrNotImplemented)
}

// SampleRate returns the sample rate the context is created with.
func (s *Scenario) SampleRate() float64 {
	if f, ok := core.ToFloat(s.attrs["sampleRate"]); ok && f > 0 {
		return f
	}
	return s.rt.Defaults.SampleRate
}

func (s *Scenario) hasNode() bool { return s.ctx != nil }

func (s *Scenario) attributeNames() []string {
	return append(s.Jack.attributeNames(), "active", "sampleRate", "listener")
}

func (s *Scenario) innerInputs() (Terminals, error)  { return nil, nil }
func (s *Scenario) innerOutputs() (Terminals, error) { return nil, nil }

func (s *Scenario) applyAttribute(name string, value any) error {
	switch name {
	case "active":
		active, err := toActive(value)
		if err != nil {
			return err
		}
		if active != s.active {
			s.active = active
			if s.ctx != nil {
				s.kindHooks().updateContextExecution()
			}
		}
		return nil
	case "listener":
		l, err := toListener(value)
		if err != nil {
			return err
		}
		if s.ctx != nil {
			s.ctx.SetListener(l)
		}
		return nil
	case "sampleRate":
		return nil
	default:
		return s.Jack.applyAttribute(name, value)
	}
}

// refreshNode replaces the owned context. Children rebuild their nodes
// through the context propagation.
func (s *Scenario) refreshNode() error {
	hooks := s.kindHooks()
	ctx, err := hooks.createContext()
	if err != nil {
		return err
	}
	if old := s.ctx; old != nil {
		s.closeContext(old)
	}
	s.rt.own(ctx, s.self)
	if err := s.Base.setContext(ctx); err != nil {
		s.logger().Warn("context propagation failed", "module", s.id, "error", err.Error())
	}
	s.replay()
	hooks.updateContextExecution()
	return nil
}

// release closes the context and leaves the subtree without one.
func (s *Scenario) release() error {
	old := s.ctx
	if old == nil {
		return nil
	}
	err := s.Base.setContext(nil)
	s.closeContext(old)
	return err
}

func (s *Scenario) closeContext(ctx core.Context) {
	if err := ctx.Close(); err != nil {
		s.logger().Debug("context close failed", "module", s.id, "context", ctx.ID(), "error", err.Error())
	}
	s.rt.Registry.Evict(ctx)
	s.rt.disown(ctx)
}

func (s *Scenario) running() bool { return s.stage != nil && s.active }

func toActive(v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return true, nil
	case bool:
		return b, nil
	default:
		return false, fmt.Errorf("%w: active must be a bool, got %T", ErrInvalidAttribute, v)
	}
}

// toListener accepts a core.Listener or a record keyed by its field names.
// Missing fields keep their default.
func toListener(v any) (core.Listener, error) {
	l := core.DefaultListener
	switch x := v.(type) {
	case nil:
	case core.Listener:
		l = x
	case *core.Listener:
		if x != nil {
			l = *x
		}
	default:
		if err := mapstructure.WeakDecode(x, &l); err != nil {
			return l, fmt.Errorf("%w: listener: %v", ErrInvalidAttribute, err)
		}
	}
	return l, nil
}
