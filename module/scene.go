package module

import (
	"fmt"

	"github.com/hupe1980/audiomesh/core"
)

// Scene is a scenario around a continuously running context. It runs while
// attached to a stage and active, and is suspended otherwise.
type Scene struct {
	Scenario
}

// NewScene creates a Scene and its context. The context starts suspended.
func NewScene(rt *Runtime, attrs Attributes) (*Scene, error) {
	s := &Scene{}
	if err := s.initScenario(s, rt, "scene", attrs); err != nil {
		return nil, err
	}
	return s, nil
}

// OnlineContext returns the owned context, or nil when released.
func (s *Scene) OnlineContext() core.OnlineContext {
	ctx, _ := s.ctx.(core.OnlineContext)
	return ctx
}

func (s *Scene) constructionKeys() []string { return []string{"latencyHint", "sampleRate"} }

func (s *Scene) attributeNames() []string {
	return append(s.Scenario.attributeNames(), "latencyHint", "onStateChange")
}

func (s *Scene) createContext() (core.Context, error) {
	hint, _ := s.attrs["latencyHint"].(string)
	if hint == "" {
		hint = s.rt.Defaults.LatencyHint
	}
	return s.rt.Host.NewContext(core.ContextOptions{
		SampleRate:  s.SampleRate(),
		LatencyHint: hint,
	})
}

func (s *Scene) applyAttribute(name string, value any) error {
	switch name {
	case "latencyHint":
		return nil
	case "onStateChange":
		ctx := s.OnlineContext()
		if ctx == nil {
			return nil
		}
		switch fn := value.(type) {
		case nil:
			ctx.OnStateChange(nil)
		case func(core.ContextState):
			ctx.OnStateChange(fn)
		default:
			return fmt.Errorf("%w: onStateChange must be func(core.ContextState), got %T", ErrInvalidAttribute, value)
		}
		return nil
	default:
		return s.Scenario.applyAttribute(name, value)
	}
}

func (s *Scene) updateContextExecution() {
	ctx := s.OnlineContext()
	if ctx == nil {
		return
	}
	var err error
	if s.running() {
		err = ctx.Resume()
	} else {
		err = ctx.Suspend()
	}
	if err != nil {
		s.logger().Warn("scene execution update failed", "module", s.id, "error", err.Error())
	}
}
