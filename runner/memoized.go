package runner

// MemoizedRunner coalesces handlers into a single pending slot flushed on the
// next turn of its Loop.
type MemoizedRunner struct {
	loop    *Loop
	hash    any
	handler Task
	pending bool
}

// NewMemoizedRunner returns a runner flushing on loop.
func NewMemoizedRunner(loop *Loop) *MemoizedRunner {
	return &MemoizedRunner{loop: loop}
}

// Run schedules handler. When a handler with an equal hash is already pending
// the call is ignored; a different hash replaces the pending handler.
func (r *MemoizedRunner) Run(hash any, handler Task) {
	if r.pending {
		if r.hash == hash {
			return
		}
		r.hash = hash
		r.handler = handler
		return
	}

	r.hash = hash
	r.handler = handler
	r.pending = true
	r.loop.Post(r.flush)
}

// Pending reports whether a handler is waiting for the next turn.
func (r *MemoizedRunner) Pending() bool { return r.pending }

func (r *MemoizedRunner) flush() error {
	handler := r.handler
	r.hash = nil
	r.handler = nil
	r.pending = false
	if handler == nil {
		return nil
	}
	return handler()
}
