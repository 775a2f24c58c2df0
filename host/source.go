package host

import (
	"fmt"
	"math"

	"github.com/hupe1980/audiomesh/core"
)

// source carries the one-shot start/stop state shared by scheduled kinds.
type source struct {
	*node
	started   bool
	ended     bool
	startTime float64
	offset    float64
	duration  float64
	stopTime  float64
	onEnded   func()
}

func newSource(ctx *baseContext, kind core.NodeKind) *source {
	return &source{node: newNode(ctx, kind, 0, 1), stopTime: math.Inf(1)}
}

// Start implements core.ScheduledNode. A source can be started only once.
func (s *source) Start(when, offset, duration float64) error {
	if s.started {
		return fmt.Errorf("%s already started: %w", s.kind, core.ErrInvalidState)
	}
	if when < 0 || offset < 0 {
		return fmt.Errorf("%s: negative start time or offset: %w", s.kind, core.ErrInvalidState)
	}
	s.started = true
	s.startTime = when
	s.offset = offset
	s.duration = duration
	return nil
}

// Stop implements core.ScheduledNode.
func (s *source) Stop(when float64) error {
	if !s.started {
		return fmt.Errorf("%s stopped before start: %w", s.kind, core.ErrInvalidState)
	}
	if when < 0 {
		return fmt.Errorf("%s: negative stop time: %w", s.kind, core.ErrInvalidState)
	}
	s.stopTime = when
	return nil
}

// OnEnded implements core.ScheduledNode.
func (s *source) OnEnded(fn func()) { s.onEnded = fn }

// Started reports whether Start was called.
func (s *source) Started() bool { return s.started }

// Schedule returns the values passed to Start.
func (s *source) Schedule() (when, offset, duration float64) {
	return s.startTime, s.offset, s.duration
}

func (s *source) end() float64 {
	end := s.stopTime
	if s.duration > 0 && s.startTime+s.duration < end {
		end = s.startTime + s.duration
	}
	return end
}

// playing reports whether the source produces signal at time t and fires the
// ended notification the first time t passes the end.
func (s *source) playing(t float64) bool {
	if !s.started || s.ended || t < s.startTime {
		return false
	}
	if t >= s.end() {
		s.finish()
		return false
	}
	return true
}

func (s *source) finish() {
	if s.ended {
		return
	}
	s.ended = true
	if fn := s.onEnded; fn != nil {
		s.ctx.loop.Post(func() error {
			fn()
			return nil
		})
	}
}
