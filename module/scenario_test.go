package module

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/internal/testutil"
	"github.com/hupe1980/audiomesh/logging"
	"github.com/hupe1980/audiomesh/runner"
)

func newStage(t *testing.T) (*Runtime, *runner.Loop, *Stage) {
	t.Helper()
	loop, h := testutil.NewHost()
	rt := NewRuntime(h, loop)
	return rt, loop, NewStage(rt)
}

func TestSceneRunsOnlyWhileStagedAndActive(t *testing.T) {
	rt, loop, stage := newStage(t)

	var states []core.ContextState
	scene, err := NewScene(rt, Attributes{
		"onStateChange": func(s core.ContextState) { states = append(states, s) },
	})
	require.NoError(t, err)
	assert.Equal(t, core.StateSuspended, scene.Context().State())

	require.NoError(t, stage.AppendChild(scene))
	assert.Equal(t, core.StateRunning, scene.Context().State())

	require.NoError(t, scene.SetAttribute("active", false))
	assert.Equal(t, core.StateSuspended, scene.Context().State())
	assert.False(t, scene.Active())

	require.NoError(t, loop.Drain())
	assert.Contains(t, states, core.StateRunning)

	assert.ErrorIs(t, scene.SetAttribute("active", "yes"), ErrInvalidAttribute)
	assert.ErrorIs(t, scene.ApplyParameterization("gain", 1), ErrNotImplemented)
}

func TestSceneReconstructMovesSubtree(t *testing.T) {
	f := newFixture(t)
	g := f.gain("g")
	require.NoError(t, f.scene.AppendChild(g))
	f.drain()
	old := f.scene.Context()

	require.NoError(t, f.scene.SetAttribute("sampleRate", 22050))
	f.drain()

	ctx := f.scene.Context()
	require.NotSame(t, old, ctx)
	assert.Equal(t, core.StateClosed, old.State())
	assert.Equal(t, core.StateRunning, ctx.State())
	assert.Equal(t, 22050.0, ctx.SampleRate())
	assert.Same(t, ctx, g.Context())
	assert.Same(t, ctx, g.Node().Context())

	labels := map[string]core.Node{"g": g.Node(), "dest": ctx.Destination()}
	assert.Equal(t, []string{"g->dest"}, testutil.Graph(labels))
}

func TestRecordRendersLengthTimesSampleRate(t *testing.T) {
	rt, loop, stage := newStage(t)

	var rendered *core.Buffer
	rec, err := NewRecord(rt, Attributes{
		"length":     2,
		"sampleRate": 44100,
		"onComplete": func(buf *core.Buffer) { rendered = buf },
	})
	require.NoError(t, err)
	assert.Equal(t, 88200, rec.Frames())

	src, err := NewScheduledSource(rt, nodeSpec("constantSource", core.NodeConstantSource, []string{"offset"}, nil, nil), Attributes{
		"start":  true,
		"offset": 0.5,
	})
	require.NoError(t, err)
	require.NoError(t, rec.AppendChild(src))
	require.NoError(t, stage.AppendChild(rec))
	require.NoError(t, loop.Drain())

	require.NotNil(t, rendered)
	assert.Equal(t, 88200, rendered.Length())
	assert.Equal(t, 2, rendered.NumberOfChannels())
	assert.InDelta(t, 0.5, rendered.Channels[0][44100], 1e-6)
}

func TestRecordWaitsForStage(t *testing.T) {
	rt, loop, stage := newStage(t)

	done := false
	rec, err := NewRecord(rt, Attributes{
		"length":     0.1,
		"onComplete": func(*core.Buffer) { done = true },
	})
	require.NoError(t, err)
	require.NoError(t, loop.Drain())
	assert.False(t, done, "a detached record does not render")

	require.NoError(t, stage.AppendChild(rec))
	require.NoError(t, loop.Drain())
	assert.True(t, done)
}

func TestRecordSuspensionHandler(t *testing.T) {
	rt, loop, stage := newStage(t)

	var at []float64
	rec, err := NewRecord(rt, Attributes{
		"length": 1,
		"suspension": Suspension{
			When: []float64{0.25},
			Handler: func(ctx core.OfflineContext) {
				at = append(at, ctx.CurrentTime())
				require.NoError(t, ctx.Resume())
			},
		},
	})
	require.NoError(t, err)
	require.NoError(t, stage.AppendChild(rec))
	require.NoError(t, loop.Drain())

	require.Len(t, at, 1)
	assert.InDelta(t, 0.25, at[0], 128/44100.0)
	_, complete := rec.OfflineContext().(interface {
		Rendered() (*core.Buffer, bool)
	}).Rendered()
	assert.True(t, complete)
}

func TestRecordDroppedCheckpointResumes(t *testing.T) {
	rt, loop, stage := newStage(t)

	calls := 0
	handler := func(ctx core.OfflineContext) {
		calls++
		require.NoError(t, ctx.Resume())
	}
	rec, err := NewRecord(rt, Attributes{
		"length":     1,
		"suspension": map[string]any{"when": []any{0.25}, "handler": handler},
	})
	require.NoError(t, err)
	require.NoError(t, rec.SetAttribute("suspension", map[string]any{"when": []any{"0.75"}, "handler": handler}))

	done := false
	require.NoError(t, rec.SetAttribute("onComplete", func(*core.Buffer) { done = true }))
	require.NoError(t, stage.AppendChild(rec))
	require.NoError(t, loop.Drain())

	assert.Equal(t, 1, calls)
	assert.True(t, done)
}

func TestStageDetachClosesAndEvicts(t *testing.T) {
	rt, _, stage := newStage(t)
	scene, err := NewScene(rt, nil)
	require.NoError(t, err)
	require.NoError(t, stage.AppendChild(scene))

	ctx := scene.Context()
	node, err := ctx.CreateNode(core.NodeGain, nil)
	require.NoError(t, err)
	rt.Registry.Store(ctx, "element", node)
	require.Equal(t, 1, rt.Registry.Len(ctx))

	require.NoError(t, stage.RemoveChild(scene))
	assert.Nil(t, scene.Context())
	assert.Nil(t, scene.Stage())
	assert.Equal(t, core.StateClosed, ctx.State())
	assert.Zero(t, rt.Registry.Len(ctx))

	require.NoError(t, stage.AppendChild(scene))
	require.NotNil(t, scene.Context())
	assert.NotSame(t, ctx, scene.Context())
	assert.Equal(t, core.StateRunning, scene.Context().State())
}

func TestStageRejectsDoubleAttach(t *testing.T) {
	rt, _, stage := newStage(t)
	scene, err := NewScene(rt, nil)
	require.NoError(t, err)
	require.NoError(t, stage.AppendChild(scene))

	assert.ErrorIs(t, stage.AppendChild(scene), ErrAlreadyAttached)
	assert.ErrorIs(t, NewStage(rt).AppendChild(scene), ErrAlreadyAttached)
	assert.ErrorIs(t, stage.AppendChild(nil), ErrNotScenario)
}

func TestScenarioCannotBeNested(t *testing.T) {
	rt, _, _ := newStage(t)
	outer, err := NewScene(rt, nil)
	require.NoError(t, err)
	inner, err := NewRecord(rt, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, outer.AppendChild(inner), ErrNestedScenario)
}

func TestStageTree(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scene.SetAttribute("name", "live"))
	require.NoError(t, f.scene.AppendChild(f.track(f.gain("a"), f.gain("b"))))

	tree := f.stage.Tree()
	assert.Contains(t, tree, "stage")
	assert.Contains(t, tree, `scene "live"`)
	assert.Contains(t, tree, "track")
	assert.Contains(t, tree, `gain "b"`)
}

func TestStageClose(t *testing.T) {
	f := newFixture(t)
	ctx := f.scene.Context()

	require.NoError(t, f.stage.Close())
	assert.Empty(t, f.stage.Children())
	assert.Equal(t, core.StateClosed, ctx.State())
}

func TestStageLogsTreeAndScopesModules(t *testing.T) {
	var buf bytes.Buffer
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = logging.LogLevelDebug
	cfg.Output = &buf

	loop, h := testutil.NewHost()
	rt := NewRuntime(h, loop, func(o *RuntimeOptions) { o.Logger = logging.NewLogger(cfg) })
	stage := NewStage(rt)

	scene, err := NewScene(rt, Attributes{"name": "live"})
	require.NoError(t, err)
	require.NoError(t, stage.AppendChild(scene))
	gain, err := NewElement(rt, nodeSpec("gain", core.NodeGain, []string{"gain"}, nil, nil), nil)
	require.NoError(t, err)
	require.NoError(t, scene.AppendChild(gain))
	require.NoError(t, loop.Drain())
	require.NoError(t, stage.RemoveChild(scene))

	byMsg := map[string][]map[string]any{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		msg, _ := e["msg"].(string)
		byMsg[msg] = append(byMsg[msg], e)
	}

	require.Len(t, byMsg["scenario attached"], 1)
	assert.Contains(t, byMsg["scenario attached"][0]["tree"], `scene "live"`)
	require.Len(t, byMsg["scenario detached"], 1)
	assert.NotContains(t, byMsg["scenario detached"][0]["tree"], "scene")

	require.NotEmpty(t, byMsg["connection change"])
	for _, e := range byMsg["connection change"] {
		assert.Equal(t, "live", e["scenario"])
	}
}

func TestRecordDeactivateThenReactivateResumes(t *testing.T) {
	rt, loop, stage := newStage(t)

	var rendered *core.Buffer
	var rec *Record
	rec, err := NewRecord(rt, Attributes{
		"length": 1,
		"suspension": Suspension{
			When: []float64{0.25},
			Handler: func(ctx core.OfflineContext) {
				require.NoError(t, rec.SetAttribute("active", false))
				require.NoError(t, ctx.Resume())
			},
		},
		"onComplete": func(buf *core.Buffer) { rendered = buf },
	})
	require.NoError(t, err)
	src, err := NewScheduledSource(rt, nodeSpec("constantSource", core.NodeConstantSource, []string{"offset"}, nil, nil), Attributes{
		"start":  true,
		"offset": 0.5,
	})
	require.NoError(t, err)
	require.NoError(t, rec.AppendChild(src))
	require.NoError(t, stage.AppendChild(rec))
	require.NoError(t, loop.Drain())

	ctx := rec.OfflineContext()
	assert.Nil(t, rendered, "an inactive record holds its render")
	assert.Equal(t, core.StateSuspended, ctx.State())
	assert.InDelta(t, 0.25, ctx.CurrentTime(), 2*128/44100.0)

	require.NoError(t, rec.SetAttribute("active", true))
	require.NoError(t, loop.Drain())

	require.NotNil(t, rendered)
	assert.Same(t, ctx, rec.OfflineContext(), "the render resumes in the same context")
	assert.Equal(t, 44100, rendered.Length())
	assert.InDelta(t, 0.5, rendered.Channels[0][44099], 1e-6)
}

func TestScenarioListener(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, core.DefaultListener, f.scene.Context().Listener())

	require.NoError(t, f.scene.SetAttribute("listener", map[string]any{"positionX": 3, "forwardZ": "-1"}))
	want := core.DefaultListener
	want.PositionX = 3
	assert.Equal(t, want, f.scene.Context().Listener())

	require.NoError(t, f.scene.SetAttribute("sampleRate", 22050))
	f.drain()
	assert.Equal(t, want, f.scene.Context().Listener(), "the listener is replayed on a new context")

	require.NoError(t, f.scene.SetAttribute("listener", nil))
	assert.Equal(t, core.DefaultListener, f.scene.Context().Listener())

	assert.ErrorIs(t, f.scene.SetAttribute("listener", "front"), ErrInvalidAttribute)
}
