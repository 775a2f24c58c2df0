package runner

import "github.com/hashicorp/go-multierror"

type trieNode struct {
	handler  Task
	children map[any]*trieNode
}

func (n *trieNode) child(key any) *trieNode {
	if n.children == nil {
		n.children = make(map[any]*trieNode)
	}
	c, ok := n.children[key]
	if !ok {
		c = &trieNode{}
		n.children[key] = c
	}
	return c
}

func (n *trieNode) collect(out []Task) []Task {
	if n.handler != nil {
		out = append(out, n.handler)
	}
	for _, c := range n.children {
		out = c.collect(out)
	}
	return out
}

// BatchRunner keeps one pending handler per key path and flushes all of them
// on the next turn of its Loop. Path elements must be comparable.
type BatchRunner struct {
	memo *MemoizedRunner
	root *trieNode
	size int
}

// NewBatchRunner returns a runner flushing on loop.
func NewBatchRunner(loop *Loop) *BatchRunner {
	return &BatchRunner{memo: NewMemoizedRunner(loop), root: &trieNode{}}
}

// Run registers handler under path. With memoize the first handler queued for
// a path in the current turn wins; otherwise the latest one replaces it.
func (r *BatchRunner) Run(path []any, handler Task, memoize bool) {
	n := r.root
	for _, key := range path {
		n = n.child(key)
	}

	switch {
	case n.handler == nil:
		n.handler = handler
		r.size++
	case !memoize:
		n.handler = handler
	}

	r.memo.Run(r, r.flush)
}

// Pending returns the number of queued handlers.
func (r *BatchRunner) Pending() int { return r.size }

func (r *BatchRunner) flush() error {
	handlers := r.root.collect(nil)
	r.root = &trieNode{}
	r.size = 0

	var result *multierror.Error
	for _, h := range handlers {
		if err := h(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
