package module

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/logging"
)

// deactivationDelay is how far past the current time a deactivated render
// suspends.
const deactivationDelay = 0.0001

// Suspension schedules render checkpoints. At each time in When the context
// suspends and Handler is called with it; Handler is responsible for resuming.
// A checkpoint whose time is no longer requested resumes on its own.
type Suspension struct {
	When    []float64                 `mapstructure:"when"`
	Handler func(core.OfflineContext) `mapstructure:"-"`
}

// Record is a scenario around an offline context rendering
// length × sampleRate frames. The first activation starts rendering, later
// activations resume a suspended render.
type Record struct {
	Scenario
	started   bool
	startedAt time.Time
	scheduled map[float64]bool
}

// NewRecord creates a Record and its offline context.
func NewRecord(rt *Runtime, attrs Attributes) (*Record, error) {
	r := &Record{scheduled: make(map[float64]bool)}
	if err := r.initScenario(r, rt, "record", attrs); err != nil {
		return nil, err
	}
	return r, nil
}

// OfflineContext returns the owned context, or nil when released.
func (r *Record) OfflineContext() core.OfflineContext {
	ctx, _ := r.ctx.(core.OfflineContext)
	return ctx
}

// Frames returns the number of frames per channel the context renders.
func (r *Record) Frames() int {
	length := 1.0
	if f, ok := core.ToFloat(r.attrs["length"]); ok && f > 0 {
		length = f
	}
	return int(length * r.SampleRate())
}

func (r *Record) constructionKeys() []string {
	return []string{"numberOfChannels", "length", "sampleRate"}
}

func (r *Record) attributeNames() []string {
	return append(r.Scenario.attributeNames(), "length", "numberOfChannels", "suspension", "onComplete")
}

func (r *Record) createContext() (core.Context, error) {
	channels := r.rt.Defaults.NumberOfChannels
	if f, ok := core.ToFloat(r.attrs["numberOfChannels"]); ok && f > 0 {
		channels = int(f)
	}
	return r.rt.Host.NewOfflineContext(core.OfflineContextOptions{
		SampleRate:       r.SampleRate(),
		Length:           r.Frames(),
		NumberOfChannels: channels,
	})
}

func (r *Record) refreshNode() error {
	r.started = false
	r.scheduled = make(map[float64]bool)
	return r.Scenario.refreshNode()
}

func (r *Record) applyAttribute(name string, value any) error {
	switch name {
	case "length", "numberOfChannels":
		return nil
	case "suspension":
		return r.applySuspension(value)
	case "onComplete":
		return r.applyOnComplete(value)
	default:
		return r.Scenario.applyAttribute(name, value)
	}
}

func (r *Record) applySuspension(value any) error {
	susp, err := toSuspension(value)
	if err != nil || susp == nil {
		return err
	}
	ctx := r.OfflineContext()
	if ctx == nil {
		return nil
	}

	for _, t := range susp.When {
		if r.scheduled[t] {
			continue
		}
		r.scheduled[t] = true

		t := t
		err := ctx.SuspendAt(t, func() {
			delete(r.scheduled, t)
			current, _ := toSuspension(r.attrs["suspension"])
			if current != nil && current.Handler != nil && containsFloat(current.When, t) && r.ctx == ctx {
				current.Handler(ctx)
				return
			}
			if err := ctx.Resume(); err != nil {
				r.logger().Debug("resume after checkpoint failed", "module", r.id, "time", t, "error", err.Error())
			}
		})
		if err != nil {
			delete(r.scheduled, t)
			r.logger().Warn("suspension not scheduled", "module", r.id, "time", t, "error", err.Error())
		}
	}
	return nil
}

func (r *Record) applyOnComplete(value any) error {
	ctx := r.OfflineContext()
	if ctx == nil {
		return nil
	}
	switch fn := value.(type) {
	case nil:
		ctx.OnComplete(nil)
	case func(*core.Buffer):
		ctx.OnComplete(func(buf *core.Buffer) {
			logging.LogRender(r.logger(), buf.Length(), buf.NumberOfChannels(), time.Since(r.startedAt))
			fn(buf)
		})
	default:
		return fmt.Errorf("%w: onComplete must be func(*core.Buffer), got %T", ErrInvalidAttribute, value)
	}
	return nil
}

func (r *Record) updateContextExecution() {
	r.rt.Batch.Run([]any{tagRecord, r}, func() error {
		ctx := r.OfflineContext()
		if ctx == nil || ctx.State() == core.StateClosed {
			return nil
		}

		if r.running() {
			if !r.started {
				r.started = true
				// sources started in this turn start on the next one
				r.rt.Loop.Post(func() error {
					if r.ctx != ctx || ctx.State() == core.StateClosed {
						return nil
					}
					r.startedAt = time.Now()
					return ctx.StartRendering()
				})
				return nil
			}
			if err := ctx.Resume(); err != nil {
				r.logger().Debug("record resume failed", "module", r.id, "error", err.Error())
			}
			return nil
		}

		err := ctx.SuspendAt(ctx.CurrentTime()+deactivationDelay, func() {
			if r.active && r.ctx == ctx {
				if err := ctx.Resume(); err != nil {
					r.logger().Debug("record resume failed", "module", r.id, "error", err.Error())
				}
			}
		})
		if err != nil {
			r.logger().Warn("record suspension failed", "module", r.id, "error", err.Error())
		}
		return nil
	}, false)
}

func toSuspension(v any) (*Suspension, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case Suspension:
		return &s, nil
	case *Suspension:
		return s, nil
	case map[string]any:
		var out Suspension
		if err := mapstructure.WeakDecode(map[string]any{"when": s["when"]}, &out); err != nil {
			return nil, fmt.Errorf("%w: suspension: %v", ErrInvalidAttribute, err)
		}
		if h, ok := s["handler"]; ok && h != nil {
			fn, ok := h.(func(core.OfflineContext))
			if !ok {
				return nil, fmt.Errorf("%w: suspension handler must be func(core.OfflineContext), got %T", ErrInvalidAttribute, h)
			}
			out.Handler = fn
		}
		return &out, nil
	default:
		return nil, fmt.Errorf("%w: suspension of type %T", ErrInvalidAttribute, v)
	}
}

func containsFloat(list []float64, f float64) bool {
	for _, x := range list {
		if x == f {
			return true
		}
	}
	return false
}
