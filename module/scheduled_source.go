package module

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/hupe1980/audiomesh/core"
)

// Scheduling is the canonical form of the start attribute.
type Scheduling struct {
	When     float64 `mapstructure:"when"`
	Offset   float64 `mapstructure:"offset"`
	Duration float64 `mapstructure:"duration"`
}

// ScheduledSource is an Element around a one-shot source node. Once started
// the node cannot be restarted; a different schedule rebuilds it.
//
// The start attribute accepts a bool, a number (start time), a Scheduling, a
// map record with when/offset/duration, or a func(core.Context) any producing
// one of those.
type ScheduledSource struct {
	Element
	started bool
	honored *Scheduling

	startAttributeID string
	startNodeID      string
}

// NewScheduledSource returns a detached ScheduledSource of the kind described
// by spec.
func NewScheduledSource(rt *Runtime, spec ElementSpec, attrs Attributes) (*ScheduledSource, error) {
	s := &ScheduledSource{
		Element:          Element{spec: spec},
		startAttributeID: core.NewID(),
		startNodeID:      core.NewID(),
	}
	if err := s.init(s, rt, spec.Kind, attrs); err != nil {
		return nil, err
	}
	return s, nil
}

// Started reports whether the current node has been started.
func (s *ScheduledSource) Started() bool { return s.started }

// Honored returns the schedule the current node was started with; nil when
// it was started immediately or not at all.
func (s *ScheduledSource) Honored() *Scheduling {
	if s.honored == nil {
		return nil
	}
	h := *s.honored
	return &h
}

// StoredScheduling normalizes the stored start attribute. Booleans and an
// unset attribute yield nil.
func (s *ScheduledSource) StoredScheduling() (*Scheduling, error) {
	v := s.attrs["start"]
	if s.ctx != nil {
		v = evaluate(s.ctx, v)
	}
	switch v.(type) {
	case nil, bool:
		return nil, nil
	}
	return toScheduling(v)
}

// StartNode starts the current node on the next turn unless it has already
// been started.
func (s *ScheduledSource) StartNode(sched *Scheduling) {
	if s.rt == nil {
		return
	}
	s.rt.Batch.Run([]any{tagScheduledSource, s.self, s.startNodeID}, func() error {
		node, ok := s.node.(core.ScheduledNode)
		if s.started || !ok {
			return nil
		}
		s.started = true
		s.honored = sched

		var err error
		if sched == nil {
			err = node.Start(0, 0, 0)
		} else {
			err = node.Start(sched.When, sched.Offset, sched.Duration)
		}
		if err != nil {
			s.selfHeal("start", err)
		}
		return nil
	}, false)
}

func (s *ScheduledSource) attributeNames() []string {
	return append(s.Element.attributeNames(), "start", "onEnded")
}

func (s *ScheduledSource) refreshNode() error {
	s.started = false
	s.honored = nil
	return s.Element.refreshNode()
}

func (s *ScheduledSource) applyAttribute(name string, value any) error {
	if s.node == nil {
		return nil
	}
	if handled, err := s.applySpec(name, value); handled {
		return err
	}

	switch name {
	case "start":
		if err := validateStart(value); err != nil {
			return err
		}
		if s.rt != nil {
			s.rt.Batch.Run([]any{tagScheduledSource, s.self, s.startAttributeID}, func() error {
				return s.applyStart(value)
			}, false)
		}
		return nil
	case "onEnded":
		return s.applyOnEnded(value)
	default:
		return s.applyCommon(name, value)
	}
}

func (s *ScheduledSource) applyStart(value any) error {
	ctx := s.ctx
	if ctx == nil {
		return nil
	}
	value = evaluate(ctx, value)

	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		switch {
		case v && !s.started:
			s.StartNode(nil)
		case !v && s.started:
			node, ok := s.node.(core.ScheduledNode)
			if !ok {
				return nil
			}
			if err := node.Stop(ctx.CurrentTime()); err != nil {
				s.selfHeal("start", err)
			}
		}
		return nil
	}

	sched, err := toScheduling(value)
	if err != nil {
		return err
	}
	if sched.When < 0 {
		s.logger().Debug("negative start time ignored", "module", s.id, "when", sched.When)
		return nil
	}
	if !s.started {
		s.StartNode(sched)
		return nil
	}
	if s.honored == nil || *s.honored != *sched {
		s.Reconstruct()
	}
	return nil
}

func (s *ScheduledSource) applyOnEnded(value any) error {
	node, ok := s.node.(core.ScheduledNode)
	if !ok {
		return nil
	}
	switch fn := value.(type) {
	case nil:
		node.OnEnded(nil)
	case func():
		node.OnEnded(fn)
	default:
		return fmt.Errorf("%w: onEnded must be func(), got %T", ErrInvalidAttribute, value)
	}
	return nil
}

func evaluate(ctx core.Context, v any) any {
	switch fn := v.(type) {
	case core.AutomationFunc:
		return fn(ctx)
	case func(core.Context) any:
		return fn(ctx)
	}
	return v
}

func validateStart(v any) error {
	switch v.(type) {
	case nil, bool, core.AutomationFunc, func(core.Context) any:
		return nil
	}
	_, err := toScheduling(v)
	return err
}

func toScheduling(v any) (*Scheduling, error) {
	if f, ok := core.ToFloat(v); ok {
		return &Scheduling{When: f}, nil
	}
	switch x := v.(type) {
	case Scheduling:
		return &x, nil
	case *Scheduling:
		if x == nil {
			return nil, fmt.Errorf("%w: nil scheduling", ErrInvalidAttribute)
		}
		c := *x
		return &c, nil
	case map[string]any:
		var sched Scheduling
		if err := mapstructure.WeakDecode(x, &sched); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAttribute, err)
		}
		return &sched, nil
	}
	return nil, fmt.Errorf("%w: start of type %T", ErrInvalidAttribute, v)
}
