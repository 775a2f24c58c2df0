package core

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

type keepMarker struct{}

func (keepMarker) String() string { return "keep" }

// Keep is the automation value that leaves a parameter's schedule untouched.
// It is the only value that does not cancel future scheduled changes.
var Keep any = keepMarker{}

// IsKeep reports whether v is the Keep sentinel.
func IsKeep(v any) bool {
	_, ok := v.(keepMarker)
	return ok
}

// AutomationFunc computes an automation value from the current context.
type AutomationFunc func(ctx Context) any

// AutomationEvent is a timed instruction describing how a Param changes.
type AutomationEvent interface {
	ApplyTo(p Param) error
}

// SetValue sets the parameter instantly at AtTime.
type SetValue struct {
	Value  float64 `mapstructure:"value"`
	AtTime float64 `mapstructure:"time"`
}

// ApplyTo implements AutomationEvent.
func (e SetValue) ApplyTo(p Param) error { return p.SetValueAtTime(e.Value, e.AtTime) }

// LinearRamp ramps linearly to Value, arriving at EndTime.
type LinearRamp struct {
	Value   float64 `mapstructure:"value"`
	EndTime float64 `mapstructure:"endTime"`
}

// ApplyTo implements AutomationEvent.
func (e LinearRamp) ApplyTo(p Param) error { return p.LinearRampToValueAtTime(e.Value, e.EndTime) }

// ExponentialRamp ramps exponentially to Value, arriving at EndTime.
type ExponentialRamp struct {
	Value   float64 `mapstructure:"value"`
	EndTime float64 `mapstructure:"endTime"`
}

// ApplyTo implements AutomationEvent.
func (e ExponentialRamp) ApplyTo(p Param) error {
	return p.ExponentialRampToValueAtTime(e.Value, e.EndTime)
}

// Target approaches Value exponentially from StartTime with TimeConstant.
type Target struct {
	Value        float64 `mapstructure:"value"`
	StartTime    float64 `mapstructure:"startTime"`
	TimeConstant float64 `mapstructure:"timeConstant"`
}

// ApplyTo implements AutomationEvent.
func (e Target) ApplyTo(p Param) error {
	return p.SetTargetAtTime(e.Value, e.StartTime, e.TimeConstant)
}

// Curve interpolates linearly through Values over Duration seconds.
type Curve struct {
	Values    []float64 `mapstructure:"values"`
	StartTime float64   `mapstructure:"startTime"`
	Duration  float64   `mapstructure:"duration"`
}

// ApplyTo implements AutomationEvent.
func (e Curve) ApplyTo(p Param) error { return p.SetValueCurveAtTime(e.Values, e.StartTime, e.Duration) }

// DecodeAutomationEvent converts a record such as
// {"type": "linear", "value": 1, "endTime": 0.5} into an AutomationEvent.
func DecodeAutomationEvent(record map[string]any) (AutomationEvent, error) {
	kind, _ := record["type"].(string)

	var target AutomationEvent
	switch strings.ToLower(kind) {
	case "set", "setvalue", "value":
		target = &SetValue{}
	case "linear", "linearramp":
		target = &LinearRamp{}
	case "exponential", "exponentialramp":
		target = &ExponentialRamp{}
	case "target", "settarget":
		target = &Target{}
	case "curve", "setvaluecurve":
		target = &Curve{}
	default:
		return nil, fmt.Errorf("unknown automation event type %q", kind)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(record); err != nil {
		return nil, fmt.Errorf("decode %s automation event: %w", kind, err)
	}

	switch e := target.(type) {
	case *SetValue:
		return *e, nil
	case *LinearRamp:
		return *e, nil
	case *ExponentialRamp:
		return *e, nil
	case *Target:
		return *e, nil
	default:
		return *(e.(*Curve)), nil
	}
}

// ToFloat converts any Go numeric value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
