package host

import (
	"fmt"
	"math"
	"sort"

	"github.com/hupe1980/audiomesh/core"
)

type eventKind int

const (
	eventSet eventKind = iota
	eventLinear
	eventExponential
	eventTarget
	eventCurve
)

type paramEvent struct {
	kind         eventKind
	value        float64
	time         float64
	timeConstant float64
	curve        []float64
	duration     float64
}

// Param is an automatable node parameter backed by an event timeline.
type Param struct {
	name      string
	ctx       *baseContext
	intrinsic float64
	min, max  float64
	events    []paramEvent
}

var _ core.Param = (*Param)(nil)

func newParam(ctx *baseContext, name string, def, min, max float64) *Param {
	return &Param{name: name, ctx: ctx, intrinsic: def, min: min, max: max}
}

// Name implements core.Param.
func (p *Param) Name() string { return p.name }

// Value returns the computed value at the context's current time.
func (p *Param) Value() float64 { return p.ValueAt(p.ctx.currentTime()) }

// SetValue sets the value from the current time on.
func (p *Param) SetValue(v float64) error {
	if len(p.events) == 0 {
		p.intrinsic = v
		return nil
	}
	return p.SetValueAtTime(v, p.ctx.currentTime())
}

// SetValueAtTime implements core.Param.
func (p *Param) SetValueAtTime(v, t float64) error {
	if t < 0 {
		return fmt.Errorf("%s: negative time %v: %w", p.name, t, core.ErrInvalidState)
	}
	p.insert(paramEvent{kind: eventSet, value: v, time: t})
	return nil
}

// LinearRampToValueAtTime implements core.Param.
func (p *Param) LinearRampToValueAtTime(v, endTime float64) error {
	if endTime < 0 {
		return fmt.Errorf("%s: negative end time %v: %w", p.name, endTime, core.ErrInvalidState)
	}
	p.insert(paramEvent{kind: eventLinear, value: v, time: endTime})
	return nil
}

// ExponentialRampToValueAtTime implements core.Param. The target value must be
// non-zero.
func (p *Param) ExponentialRampToValueAtTime(v, endTime float64) error {
	if v == 0 {
		return fmt.Errorf("%s: exponential ramp to zero: %w", p.name, core.ErrInvalidState)
	}
	if endTime < 0 {
		return fmt.Errorf("%s: negative end time %v: %w", p.name, endTime, core.ErrInvalidState)
	}
	p.insert(paramEvent{kind: eventExponential, value: v, time: endTime})
	return nil
}

// SetTargetAtTime implements core.Param.
func (p *Param) SetTargetAtTime(v, startTime, timeConstant float64) error {
	if startTime < 0 || timeConstant < 0 {
		return fmt.Errorf("%s: invalid target timing: %w", p.name, core.ErrInvalidState)
	}
	p.insert(paramEvent{kind: eventTarget, value: v, time: startTime, timeConstant: timeConstant})
	return nil
}

// SetValueCurveAtTime implements core.Param. At least two values and a
// positive duration are required.
func (p *Param) SetValueCurveAtTime(values []float64, startTime, duration float64) error {
	if len(values) < 2 || duration <= 0 || startTime < 0 {
		return fmt.Errorf("%s: invalid value curve: %w", p.name, core.ErrInvalidState)
	}
	curve := make([]float64, len(values))
	copy(curve, values)
	p.insert(paramEvent{kind: eventCurve, time: startTime, curve: curve, duration: duration})
	return nil
}

// CancelScheduledValues removes every event scheduled at or after t.
func (p *Param) CancelScheduledValues(t float64) error {
	kept := p.events[:0]
	for _, e := range p.events {
		if e.time < t {
			kept = append(kept, e)
		}
	}
	p.events = kept
	return nil
}

// Timeline returns the scheduled events in time order.
func (p *Param) Timeline() []core.AutomationEvent {
	out := make([]core.AutomationEvent, 0, len(p.events))
	for _, e := range p.events {
		switch e.kind {
		case eventSet:
			out = append(out, core.SetValue{Value: e.value, AtTime: e.time})
		case eventLinear:
			out = append(out, core.LinearRamp{Value: e.value, EndTime: e.time})
		case eventExponential:
			out = append(out, core.ExponentialRamp{Value: e.value, EndTime: e.time})
		case eventTarget:
			out = append(out, core.Target{Value: e.value, StartTime: e.time, TimeConstant: e.timeConstant})
		case eventCurve:
			out = append(out, core.Curve{Values: e.curve, StartTime: e.time, Duration: e.duration})
		}
	}
	return out
}

func (p *Param) insert(e paramEvent) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > e.time })
	p.events = append(p.events, paramEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// ValueAt evaluates the timeline at time t.
func (p *Param) ValueAt(t float64) float64 {
	if len(p.events) == 0 {
		return p.clamp(p.intrinsic)
	}

	v := p.intrinsic
	prevT := 0.0
	for i, e := range p.events {
		switch e.kind {
		case eventLinear, eventExponential:
			if t < e.time {
				return p.clamp(ramp(e, prevT, v, t))
			}
			v, prevT = e.value, e.time
		case eventSet:
			if t < e.time {
				return p.clamp(v)
			}
			v, prevT = e.value, e.time
		case eventTarget:
			if t < e.time {
				return p.clamp(v)
			}
			next := math.Inf(1)
			if i+1 < len(p.events) {
				if n := p.events[i+1]; n.kind != eventLinear && n.kind != eventExponential {
					next = n.time
				}
			}
			if t < next {
				return p.clamp(approach(v, e, t))
			}
			v, prevT = approach(v, e, next), next
		case eventCurve:
			if t < e.time {
				return p.clamp(v)
			}
			end := e.time + e.duration
			if t < end {
				pos := (t - e.time) / e.duration * float64(len(e.curve)-1)
				k := int(pos)
				frac := pos - float64(k)
				return p.clamp(e.curve[k] + (e.curve[k+1]-e.curve[k])*frac)
			}
			v, prevT = e.curve[len(e.curve)-1], end
		}
	}
	return p.clamp(v)
}

func ramp(e paramEvent, t0, v0, t float64) float64 {
	if e.time <= t0 {
		return e.value
	}
	frac := (t - t0) / (e.time - t0)
	if e.kind == eventLinear {
		return v0 + (e.value-v0)*frac
	}
	if v0 == 0 || v0*e.value < 0 {
		return v0
	}
	return v0 * math.Pow(e.value/v0, frac)
}

func approach(v0 float64, e paramEvent, t float64) float64 {
	if e.timeConstant == 0 {
		return e.value
	}
	return e.value + (v0-e.value)*math.Exp(-(t-e.time)/e.timeConstant)
}

func (p *Param) clamp(v float64) float64 {
	if v < p.min {
		return p.min
	}
	if v > p.max {
		return p.max
	}
	return v
}
