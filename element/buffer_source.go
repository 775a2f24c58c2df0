package element

import (
	"fmt"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/module"
)

var bufferSource = kindSpec{
	kind:   "bufferSource",
	node:   core.NodeBufferSource,
	params: []string{"detune", "playbackRate"},
	props:  map[string]any{"loop": false, "loopStart": 0.0, "loopEnd": 0.0},
}

// bufferState tracks the buffer of the current node generation.
type bufferState struct {
	// buffered is set once the node holds a buffer; a later non-nil buffer
	// needs a new node.
	buffered bool
	// generation invalidates pending decodes.
	generation uint64
}

// NewBufferSource returns a buffer source. The buffer attribute accepts a
// decoded *core.Buffer or encoded WAV bytes, which are decoded
// asynchronously. Callbacks:
//
//   - onLoading func(): called when a new buffer starts loading
//   - onLoaded func(*core.Buffer, error): called with the decoded buffer or
//     the decode error
//
// The node is started once its buffer is loaded and start is set.
func NewBufferSource(rt *module.Runtime, attrs module.Attributes) (*module.ScheduledSource, error) {
	st := &bufferState{}
	spec := bufferSource.spec()
	spec.Attributes = append(spec.Attributes, "buffer", "start", "onLoading", "onLoaded")
	spec.Refresh = func(*module.Element) {
		st.buffered = false
		st.generation++
	}
	spec.Apply = func(e *module.Element, name string, value any) (bool, error) {
		node, ok := e.Node().(core.BufferNode)
		if !ok {
			return false, nil
		}
		switch name {
		case "start":
			// started from the load completion when no buffer is set yet
			return node.Buffer() == nil, nil
		case "buffer":
			return true, st.load(e, node, value)
		case "onLoading", "onLoaded":
			return true, nil
		}
		return bufferSource.apply(e, name, value)
	}
	return module.NewScheduledSource(rt, spec, attrs)
}

func (st *bufferState) load(e *module.Element, node core.BufferNode, value any) error {
	if st.buffered && value != nil {
		e.Reconstruct()
		return nil
	}

	var data []byte
	var decoded *core.Buffer
	switch v := value.(type) {
	case nil:
	case []byte:
		data = v
	case *core.Buffer:
		decoded = v
	default:
		return fmt.Errorf("%w: buffer must be []byte or *core.Buffer, got %T", module.ErrInvalidAttribute, value)
	}

	if fn, ok := e.Attribute("onLoading"); ok {
		if onLoading, ok := fn.(func()); ok {
			onLoading()
		}
	}

	st.generation++
	gen := st.generation
	done := func(buf *core.Buffer, err error) {
		if gen != st.generation || e.Node() != node {
			return
		}
		if err != nil {
			st.loaded(e, nil, err)
			return
		}
		st.assign(e, node, buf)
	}

	if data == nil {
		done(decoded, nil)
		return nil
	}
	e.Context().DecodeAudioData(append([]byte(nil), data...), done)
	return nil
}

func (st *bufferState) assign(e *module.Element, node core.BufferNode, buf *core.Buffer) {
	if node.Buffer() != nil || buf != nil {
		st.buffered = true
	}
	if err := node.SetBuffer(buf); err != nil {
		e.Runtime().Logger.Warn("buffer assignment failed, reconstructing", "module", e.ID(), "error", err.Error())
		e.Reconstruct()
		return
	}

	if s, ok := e.ScheduledSource(); ok {
		sched, err := s.StoredScheduling()
		switch {
		case err != nil:
			e.Runtime().Logger.Warn("invalid start attribute", "module", e.ID(), "error", err.Error())
		case sched != nil:
			s.StartNode(sched)
		default:
			if start, _ := e.Attribute("start"); start == true {
				s.StartNode(nil)
			}
		}
	}

	if buf != nil {
		st.loaded(e, buf, nil)
	}
}

func (st *bufferState) loaded(e *module.Element, buf *core.Buffer, err error) {
	fn, _ := e.Attribute("onLoaded")
	if onLoaded, ok := fn.(func(*core.Buffer, error)); ok {
		onLoaded(buf, err)
	}
}
