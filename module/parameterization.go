package module

import (
	"fmt"

	"github.com/hupe1980/audiomesh/core"
)

// ApplyParameterization drives param from an automation value:
//
//   - core.AutomationFunc or func(core.Context) any: evaluated against ctx first
//   - core.Keep: no effect, the existing schedule is left untouched
//   - nil: scheduled values from now on are cancelled
//   - number: set instantly
//   - core.AutomationEvent, []core.AutomationEvent, []any or map[string]any:
//     applied in order after cancelling
//
// Every value except Keep cancels the future schedule as of ctx's current time.
func ApplyParameterization(ctx core.Context, param core.Param, automation any) error {
	switch fn := automation.(type) {
	case core.AutomationFunc:
		automation = fn(ctx)
	case func(core.Context) any:
		automation = fn(ctx)
	}

	if core.IsKeep(automation) {
		return nil
	}

	steps, err := automationSteps(automation)
	if err != nil {
		return err
	}

	if err := param.CancelScheduledValues(ctx.CurrentTime()); err != nil {
		return err
	}

	for _, step := range steps {
		if err := step(param); err != nil {
			return fmt.Errorf("automate %s: %w", param.Name(), err)
		}
	}
	return nil
}

type automationStep func(core.Param) error

// automationSteps normalizes an automation value before anything is
// cancelled, so a malformed value leaves the schedule intact.
func automationSteps(automation any) ([]automationStep, error) {
	switch v := automation.(type) {
	case nil:
		return nil, nil
	case core.AutomationEvent:
		return []automationStep{v.ApplyTo}, nil
	case []core.AutomationEvent:
		steps := make([]automationStep, 0, len(v))
		for _, e := range v {
			steps = append(steps, e.ApplyTo)
		}
		return steps, nil
	case []any:
		steps := make([]automationStep, 0, len(v))
		for _, e := range v {
			s, err := automationSteps(e)
			if err != nil {
				return nil, err
			}
			steps = append(steps, s...)
		}
		return steps, nil
	case []float64:
		steps := make([]automationStep, 0, len(v))
		for _, f := range v {
			steps = append(steps, setInstantly(f))
		}
		return steps, nil
	case map[string]any:
		e, err := core.DecodeAutomationEvent(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAttribute, err)
		}
		return []automationStep{e.ApplyTo}, nil
	}

	if f, ok := core.ToFloat(automation); ok {
		return []automationStep{setInstantly(f)}, nil
	}
	return nil, fmt.Errorf("%w: automation of type %T", ErrInvalidAttribute, automation)
}

func setInstantly(v float64) automationStep {
	return func(p core.Param) error { return p.SetValue(v) }
}
