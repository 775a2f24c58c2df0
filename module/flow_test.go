package module

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/internal/testutil"
)

func TestTrackWiresChildrenSerially(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.gain("a"), f.gain("b"), f.gain("c")
	tr := f.track()
	require.NoError(t, f.scene.AppendChild(tr))
	for _, m := range []Module{a, b, c} {
		require.NoError(t, tr.AppendChild(m))
	}
	f.drain()

	labels := map[string]core.Node{"a": a.Node(), "b": b.Node(), "c": c.Node(), "dest": f.destination()}
	want := []string{"a->b", "b->c", "c->dest"}
	if diff := cmp.Diff(want, testutil.Graph(labels)); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Terminals{a.Node()}, tr.Inputs())
	assert.Equal(t, Terminals{c.Node()}, tr.Outputs())

	require.NoError(t, tr.RemoveChild(b))
	f.drain()

	want = []string{"a->c", "c->dest"}
	if diff := cmp.Diff(want, testutil.Graph(labels)); diff != "" {
		t.Errorf("graph after removal mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, b.Node())
	assert.Nil(t, b.Parent())
}

func TestTrackBuiltBeforeAttach(t *testing.T) {
	f := newFixture(t)
	a, b := f.gain("a"), f.gain("b")
	tr := f.track(a, b)
	assert.Nil(t, a.Node(), "detached elements have no node")

	require.NoError(t, f.scene.AppendChild(tr))
	f.drain()

	labels := map[string]core.Node{"a": a.Node(), "b": b.Node(), "dest": f.destination()}
	assert.Equal(t, []string{"a->b", "b->dest"}, testutil.Graph(labels))
}

func TestMixerUnionsChildren(t *testing.T) {
	f := newFixture(t)
	src, a, b := f.gain("src"), f.gain("a"), f.gain("b")
	mixer, err := NewMixer(f.rt, nil)
	require.NoError(t, err)
	require.NoError(t, mixer.AppendChild(a))
	require.NoError(t, mixer.AppendChild(b))
	require.NoError(t, f.scene.AppendChild(f.track(src, mixer)))
	f.drain()

	labels := map[string]core.Node{"src": src.Node(), "a": a.Node(), "b": b.Node(), "dest": f.destination()}
	want := []string{"a->dest", "b->dest", "src->a", "src->b"}
	if diff := cmp.Diff(want, testutil.Graph(labels)); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}
	assert.ElementsMatch(t, Terminals{a.Node(), b.Node()}, mixer.Inputs())
	assert.ElementsMatch(t, Terminals{a.Node(), b.Node()}, mixer.Outputs())
}

func TestInsertRemoveRoundTrip(t *testing.T) {
	shapes := []struct {
		name        string
		build       func(f *fixture) Module
		transparent bool
	}{
		{name: "element", build: func(f *fixture) Module { return f.gain("x") }},
		{name: "track", build: func(f *fixture) Module { return f.track(f.gain("x1"), f.gain("x2")) }},
		{name: "empty track", build: func(f *fixture) Module { return f.track() }, transparent: true},
		{name: "mixer", build: func(f *fixture) Module {
			m, err := NewMixer(f.rt, nil)
			require.NoError(f.t, err)
			require.NoError(f.t, m.AppendChild(f.gain("x1")))
			require.NoError(f.t, m.AppendChild(f.gain("x2")))
			return m
		}},
		{name: "bypass", build: func(f *fixture) Module {
			b, err := NewBypass(f.rt, nil)
			require.NoError(f.t, err)
			require.NoError(f.t, b.AppendChild(f.gain("x")))
			return b
		}},
		{name: "element with child", build: func(f *fixture) Module {
			e := f.gain("x")
			require.NoError(f.t, e.AppendChild(f.gain("x1")))
			return e
		}},
	}

	// each parent returns the module to insert into and the anchor
	parents := []struct {
		name     string
		parallel bool
		build    func(f *fixture, a, b, c *Element) (Module, Module)
	}{
		{name: "track", build: func(f *fixture, a, b, c *Element) (Module, Module) {
			tr := f.track(a, b, c)
			require.NoError(f.t, f.scene.AppendChild(tr))
			return tr, c
		}},
		{name: "mixer", parallel: true, build: func(f *fixture, a, b, c *Element) (Module, Module) {
			m, err := NewMixer(f.rt, nil)
			require.NoError(f.t, err)
			require.NoError(f.t, m.AppendChild(b))
			require.NoError(f.t, f.scene.AppendChild(f.track(a, m, c)))
			return m, b
		}},
	}

	for _, parent := range parents {
		for _, shape := range shapes {
			t.Run(parent.name+"/"+shape.name, func(t *testing.T) {
				f := newFixture(t)
				a, b, c := f.gain("a"), f.gain("b"), f.gain("c")
				container, anchor := parent.build(f, a, b, c)
				f.drain()

				labels := map[string]core.Node{"a": a.Node(), "b": b.Node(), "c": c.Node(), "dest": f.destination()}
				before := testutil.Graph(labels)

				m := shape.build(f)
				require.NoError(t, container.InsertChildBefore(m, anchor))
				f.drain()
				if !shape.transparent || parent.parallel {
					assert.NotEqual(t, before, testutil.Graph(labels), "inserted module changes the wiring")
				}

				require.NoError(t, container.RemoveChild(m))
				f.drain()
				if diff := cmp.Diff(before, testutil.Graph(labels)); diff != "" {
					t.Errorf("graph not restored (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestMixerRemovalLeavesNoDryPath(t *testing.T) {
	f := newFixture(t)
	src, a, x, out := f.gain("src"), f.gain("a"), f.gain("x"), f.gain("out")
	mixer, err := NewMixer(f.rt, nil)
	require.NoError(t, err)
	require.NoError(t, mixer.AppendChild(a))
	require.NoError(t, mixer.AppendChild(x))
	require.NoError(t, f.scene.AppendChild(f.track(src, mixer, out)))
	f.drain()

	labels := map[string]core.Node{"src": src.Node(), "a": a.Node(), "x": x.Node(), "out": out.Node(), "dest": f.destination()}
	want := []string{"a->out", "out->dest", "src->a", "src->x", "x->out"}
	if diff := cmp.Diff(want, testutil.Graph(labels)); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, mixer.RemoveChild(x))
	f.drain()

	want = []string{"a->out", "out->dest", "src->a"}
	if diff := cmp.Diff(want, testutil.Graph(labels)); diff != "" {
		t.Errorf("graph after removal mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, mixer.RemoveChild(a))
	f.drain()
	assert.Equal(t, []string{"out->dest", "src->out"}, testutil.Graph(labels), "an empty mixer passes signal through")
}

func TestMixerEmptyLaneCarriesSignal(t *testing.T) {
	f := newFixture(t)
	src, a, out := f.gain("src"), f.gain("a"), f.gain("out")
	lane := f.track()
	mixer, err := NewMixer(f.rt, nil)
	require.NoError(t, err)
	require.NoError(t, mixer.AppendChild(a))
	require.NoError(t, mixer.AppendChild(lane))
	require.NoError(t, f.scene.AppendChild(f.track(src, mixer, out)))
	f.drain()

	labels := map[string]core.Node{"src": src.Node(), "a": a.Node(), "out": out.Node(), "dest": f.destination()}
	dry := []string{"a->out", "out->dest", "src->a", "src->out"}
	if diff := cmp.Diff(dry, testutil.Graph(labels)); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}

	x := f.gain("x")
	require.NoError(t, lane.AppendChild(x))
	f.drain()
	labels["x"] = x.Node()
	want := []string{"a->out", "out->dest", "src->a", "src->x", "x->out"}
	if diff := cmp.Diff(want, testutil.Graph(labels)); diff != "" {
		t.Errorf("graph with filled lane mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, lane.RemoveChild(x))
	f.drain()
	delete(labels, "x")
	if diff := cmp.Diff(dry, testutil.Graph(labels)); diff != "" {
		t.Errorf("graph after removal mismatch (-want +got):\n%s", diff)
	}
}

func TestBypassKeepsDryPath(t *testing.T) {
	f := newFixture(t)
	src, fx, out := f.gain("src"), f.gain("fx"), f.gain("out")
	bypass, err := NewBypass(f.rt, nil)
	require.NoError(t, err)
	require.NoError(t, bypass.AppendChild(fx))
	require.NoError(t, f.scene.AppendChild(f.track(src, bypass, out)))
	f.drain()

	labels := map[string]core.Node{"src": src.Node(), "fx": fx.Node(), "out": out.Node(), "dest": f.destination()}
	want := []string{"fx->dest", "out->dest", "src->fx", "src->out"}
	if diff := cmp.Diff(want, testutil.Graph(labels)); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}
}

func TestBranchEndsInChildSinks(t *testing.T) {
	f := newFixture(t)
	src, sink := f.gain("src"), f.sink("sink")
	require.NoError(t, f.scene.AppendChild(src))
	require.NoError(t, f.scene.AppendChild(sink))
	f.drain()

	labels := map[string]core.Node{"src": src.Node(), "sink": sink.Node(), "dest": f.destination()}
	assert.Equal(t, []string{"src->sink"}, testutil.Graph(labels))
}

func TestBranchConflictRollsBack(t *testing.T) {
	f := newFixture(t)
	mixer, err := NewMixer(f.rt, nil)
	require.NoError(t, err)
	require.NoError(t, f.scene.AppendChild(mixer))
	require.NoError(t, mixer.AppendChild(f.gain("a")))

	sink := f.sink("sink")
	err = mixer.AppendChild(sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBranchConflict)

	var conflict *BranchConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 1, conflict.Sinks)
	assert.Equal(t, 1, conflict.Others)

	assert.Len(t, mixer.Children(), 1)
	assert.Nil(t, sink.Parent())
	assert.Nil(t, sink.Node())
}

func TestMergerFollowsLinkedNames(t *testing.T) {
	f := newFixture(t)
	src, other, fx := f.gain("src"), f.gain("other"), f.gain("fx")
	merger, err := NewMerger(f.rt, Attributes{"links": []string{"fx"}})
	require.NoError(t, err)

	require.NoError(t, f.scene.AppendChild(f.track(src, merger)))
	require.NoError(t, f.scene.AppendChild(f.track(other, fx)))
	f.drain()

	labels := map[string]core.Node{"src": src.Node(), "other": other.Node(), "fx": fx.Node(), "dest": f.destination()}
	want := []string{"fx->dest", "other->fx", "src->fx", "src->other"}
	if diff := cmp.Diff(want, testutil.Graph(labels)); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, merger.Linked(), 1)
	assert.Same(t, fx, merger.Linked()[0])

	require.NoError(t, fx.SetAttribute("name", "renamed"))
	f.drain()

	want = []string{"fx->dest", "other->fx", "src->other"}
	if diff := cmp.Diff(want, testutil.Graph(labels)); diff != "" {
		t.Errorf("graph after rename mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, merger.Linked())
}

func TestMergerRejectsChildren(t *testing.T) {
	f := newFixture(t)
	merger, err := NewMerger(f.rt, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, merger.AppendChild(f.gain("a")), ErrChildrenForbidden)
	assert.ErrorIs(t, merger.InsertChildBefore(f.gain("a"), nil), ErrChildrenForbidden)
	assert.ErrorIs(t, merger.SetAttribute("links", 42), ErrInvalidAttribute)
}

func TestElementChildrenChainFromNode(t *testing.T) {
	f := newFixture(t)
	host, child := f.gain("host"), f.gain("child")
	require.NoError(t, host.AppendChild(child))
	require.NoError(t, f.scene.AppendChild(host))
	f.drain()

	labels := map[string]core.Node{"host": host.Node(), "child": child.Node(), "dest": f.destination()}
	assert.Equal(t, []string{"child->dest", "host->child", "host->dest"}, testutil.Graph(labels))
}
