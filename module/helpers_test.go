package module

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/internal/testutil"
	"github.com/hupe1980/audiomesh/runner"
)

type fixture struct {
	t     *testing.T
	rt    *Runtime
	loop  *runner.Loop
	stage *Stage
	scene *Scene
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loop, h := testutil.NewHost()
	rt := NewRuntime(h, loop)
	stage := NewStage(rt)

	scene, err := NewScene(rt, nil)
	require.NoError(t, err)
	require.NoError(t, stage.AppendChild(scene))

	return &fixture{t: t, rt: rt, loop: loop, stage: stage, scene: scene}
}

func (f *fixture) drain() {
	f.t.Helper()
	require.NoError(f.t, f.loop.Drain())
}

func (f *fixture) gain(name string) *Element {
	f.t.Helper()
	e, err := NewElement(f.rt, nodeSpec("gain", core.NodeGain, []string{"gain"}, nil, nil), Attributes{"name": name})
	require.NoError(f.t, err)
	return e
}

func (f *fixture) sink(name string) *Element {
	f.t.Helper()
	e, err := NewElement(f.rt, nodeSpec("streamDestination", core.NodeStreamDestination, nil, nil, nil), Attributes{"name": name})
	require.NoError(f.t, err)
	return e
}

func (f *fixture) track(children ...Module) *Track {
	f.t.Helper()
	tr, err := NewTrack(f.rt, nil)
	require.NoError(f.t, err)
	for _, c := range children {
		require.NoError(f.t, tr.AppendChild(c))
	}
	return tr
}

func (f *fixture) destination() core.Node {
	return f.scene.Context().Destination()
}

// nodeSpec describes an element whose params are driven by automation and
// whose construction keys are passed to CreateNode. constructs, when not nil,
// counts node constructions.
func nodeSpec(kind string, node core.NodeKind, params, construction []string, constructs *int) ElementSpec {
	return ElementSpec{
		Kind:             kind,
		Attributes:       append(append([]string(nil), params...), construction...),
		ConstructionKeys: construction,
		Construct: func(e *Element) (core.Node, error) {
			if constructs != nil {
				*constructs++
			}
			return e.Context().CreateNode(node, e.ConstructionOptions())
		},
		Apply: func(e *Element, name string, value any) (bool, error) {
			if !containsString(params, name) {
				return false, nil
			}
			return true, e.ApplyParameterization(name, value)
		},
	}
}

type scheduledNode interface {
	Started() bool
	Schedule() (when, offset, duration float64)
}
