package runner

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/hupe1980/audiomesh/logging"
)

// ErrMaxTicks is returned by Drain when the loop is still busy after the
// configured number of ticks.
var ErrMaxTicks = errors.New("loop did not become idle")

// Task is a unit of deferred work executed by a Loop.
type Task func() error

// Options configures a Loop.
type Options struct {
	// MaxTicks bounds Drain. Zero or less means DefaultMaxTicks.
	MaxTicks int
	// Logger receives task failures at debug level.
	Logger logging.Logger
}

// DefaultMaxTicks is the Drain bound used when Options.MaxTicks is not set.
const DefaultMaxTicks = 1024

// Loop is a cooperative task queue. Post is safe for concurrent use; tasks
// themselves always run on the goroutine that calls Tick or Drain.
type Loop struct {
	mu       sync.Mutex
	queue    []Task
	maxTicks int
	logger   logging.Logger
	ticks    uint64
}

// NewLoop constructs a Loop with optional overrides.
func NewLoop(optFns ...func(o *Options)) *Loop {
	opts := Options{
		MaxTicks: DefaultMaxTicks,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxTicks <= 0 {
		opts.MaxTicks = DefaultMaxTicks
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Loop{maxTicks: opts.MaxTicks, logger: opts.Logger}
}

// Post enqueues a task for the next turn.
func (l *Loop) Post(task Task) {
	if task == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Ticks returns the number of completed turns.
func (l *Loop) Ticks() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticks
}

// Tick runs the tasks queued before the call. Tasks posted while ticking run
// on the next turn. Every task runs even if an earlier one fails; failures are
// aggregated.
func (l *Loop) Tick() error {
	l.mu.Lock()
	tasks := l.queue
	l.queue = nil
	l.mu.Unlock()

	var result *multierror.Error
	for _, task := range tasks {
		if err := task(); err != nil {
			l.logger.Debug("loop task failed", "error", err)
			result = multierror.Append(result, err)
		}
	}

	l.mu.Lock()
	l.ticks++
	l.mu.Unlock()

	return result.ErrorOrNil()
}

// Drain ticks until the queue is empty.
func (l *Loop) Drain() error {
	var result *multierror.Error
	for i := 0; i < l.maxTicks; i++ {
		if l.Pending() == 0 {
			return result.ErrorOrNil()
		}
		if err := l.Tick(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if l.Pending() > 0 {
		result = multierror.Append(result, fmt.Errorf("%w after %d ticks", ErrMaxTicks, l.maxTicks))
	}
	return result.ErrorOrNil()
}
