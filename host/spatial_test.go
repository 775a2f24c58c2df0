package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/runner"
)

func newOnline(t *testing.T) *OnlineContext {
	t.Helper()
	c, err := New(runner.NewLoop()).NewContext(core.ContextOptions{SampleRate: 48000})
	require.NoError(t, err)
	require.NoError(t, c.Resume())
	return c.(*OnlineContext)
}

// constantInto starts a constant source of value v feeding dst.
func constantInto(t *testing.T, ctx core.Context, v float64, dst core.Node) {
	t.Helper()
	src, err := ctx.CreateNode(core.NodeConstantSource, map[string]any{"offset": v})
	require.NoError(t, err)
	require.NoError(t, src.Connect(dst))
	require.NoError(t, src.(core.ScheduledNode).Start(0, 0, 0))
}

func renderBlock(ctx *OnlineContext) []float32 {
	return ctx.Advance((RenderQuantum - 0.5) / ctx.SampleRate())
}

func TestPannerDistanceModels(t *testing.T) {
	tests := []struct {
		model string
		want  float64
	}{
		{"inverse", 1.0 / 3},
		{"exponential", 1.0 / 3},
		{"linear", 1 - 2.0/9999},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			ctx := newOnline(t)
			p, err := ctx.CreateNode(core.NodePanner, map[string]any{"positionX": 3, "distanceModel": tt.model})
			require.NoError(t, err)
			require.NoError(t, p.Connect(ctx.Destination()))
			constantInto(t, ctx, 1, p)

			out := renderBlock(ctx)
			assert.InDelta(t, tt.want, out[0], 1e-5)
			assert.InDelta(t, tt.want, out[RenderQuantum-1], 1e-5)
		})
	}
}

func TestPannerFollowsListener(t *testing.T) {
	ctx := newOnline(t)
	assert.Equal(t, core.DefaultListener, ctx.Listener())

	p, err := ctx.CreateNode(core.NodePanner, map[string]any{"positionX": 3})
	require.NoError(t, err)
	require.NoError(t, p.Connect(ctx.Destination()))
	constantInto(t, ctx, 1, p)

	assert.InDelta(t, 1.0/3, renderBlock(ctx)[0], 1e-5)

	l := core.DefaultListener
	l.PositionX = 3
	ctx.SetListener(l)
	assert.InDelta(t, 1.0, renderBlock(ctx)[0], 1e-5)
}

func TestPannerCone(t *testing.T) {
	ctx := newOnline(t)
	p, err := ctx.CreateNode(core.NodePanner, map[string]any{
		"refDistance":    2,
		"coneInnerAngle": 90,
		"coneOuterAngle": 180,
		"coneOuterGain":  0.25,
	})
	require.NoError(t, err)
	require.NoError(t, p.Connect(ctx.Destination()))
	constantInto(t, ctx, 1, p)

	l := core.DefaultListener
	l.PositionX = 2
	ctx.SetListener(l)
	assert.InDelta(t, 1.0, renderBlock(ctx)[0], 1e-5, "listener in front")

	l.PositionX = -2
	ctx.SetListener(l)
	assert.InDelta(t, 0.25, renderBlock(ctx)[0], 1e-5, "listener behind")
}

func TestPannerValidation(t *testing.T) {
	ctx := newOnline(t)
	p, err := ctx.CreateNode(core.NodePanner, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, p.SetProperty("distanceModel", "cubic"), core.ErrInvalidState)
	assert.ErrorIs(t, p.SetProperty("panningModel", "binaural"), core.ErrInvalidState)
	assert.ErrorIs(t, p.SetProperty("maxDistance", 0), core.ErrInvalidState)
	assert.ErrorIs(t, p.SetProperty("coneOuterGain", 2), core.ErrInvalidState)
	assert.NoError(t, p.SetProperty("panningModel", "HRTF"))

	for _, name := range []string{"positionX", "positionY", "positionZ", "orientationX", "orientationY", "orientationZ"} {
		_, ok := p.Param(name)
		assert.True(t, ok, name)
	}
	ox, _ := p.Param("orientationX")
	assert.Equal(t, 1.0, ox.Value())
}

func TestChannelMergerSumsInputs(t *testing.T) {
	ctx := newOnline(t)
	m, err := ctx.CreateNode(core.NodeChannelMerger, map[string]any{"numberOfInputs": 2})
	require.NoError(t, err)
	assert.Equal(t, 2, m.NumberOfInputs())
	require.NoError(t, m.Connect(ctx.Destination()))
	constantInto(t, ctx, 0.25, m)
	constantInto(t, ctx, 0.5, m)

	assert.InDelta(t, 0.75, renderBlock(ctx)[0], 1e-6)
	assert.ErrorIs(t, m.SetProperty("channelCount", 2), core.ErrInvalidState)

	d, err := ctx.CreateNode(core.NodeChannelMerger, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, d.NumberOfInputs())
}

func TestChannelSplitterOutputs(t *testing.T) {
	ctx := newOnline(t)
	s, err := ctx.CreateNode(core.NodeChannelSplitter, map[string]any{"numberOfOutputs": 4})
	require.NoError(t, err)
	assert.Equal(t, 4, s.NumberOfOutputs())
	require.NoError(t, s.Connect(ctx.Destination()))
	constantInto(t, ctx, 0.5, s)
	assert.InDelta(t, 0.5, renderBlock(ctx)[0], 1e-6)

	assert.ErrorIs(t, s.SetProperty("channelCount", 3), core.ErrInvalidState)
	assert.ErrorIs(t, s.SetProperty("channelInterpretation", "speakers"), core.ErrInvalidState)

	_, err = ctx.CreateNode(core.NodeChannelSplitter, map[string]any{"numberOfOutputs": 0})
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestMediaStreamSourceOnlineOnly(t *testing.T) {
	stream := fakeElement{id: "mic"}

	online := newOnline(t)
	a, err := online.CreateNode(core.NodeMediaStreamSource, map[string]any{"mediaStream": stream})
	require.NoError(t, err)
	_, err = online.CreateNode(core.NodeMediaStreamSource, map[string]any{"mediaStream": stream})
	require.NoError(t, err, "a stream may feed several nodes")

	require.NoError(t, a.Connect(online.Destination()))
	assert.InDelta(t, 0.1, renderBlock(online)[0], 1e-6)

	_, err = online.CreateNode(core.NodeMediaStreamSource, nil)
	assert.ErrorIs(t, err, core.ErrInvalidState)

	offline, _ := newOffline(t, 128)
	_, err = offline.CreateNode(core.NodeMediaStreamSource, map[string]any{"mediaStream": stream})
	assert.ErrorIs(t, err, core.ErrUnsupported)
}

func TestScriptProcessorDelaysOneBuffer(t *testing.T) {
	ctx := newOnline(t)
	n, err := ctx.CreateNode(core.NodeScriptProcessor, map[string]any{"bufferSize": 256})
	require.NoError(t, err)
	require.NoError(t, n.Connect(ctx.Destination()))
	constantInto(t, ctx, 0.5, n)

	var events []*core.AudioProcessingEvent
	n.(core.ScriptNode).OnAudioProcess(func(e *core.AudioProcessingEvent) {
		for i, v := range e.Input {
			e.Output[i] = 2 * v
		}
		events = append(events, e)
	})

	out := ctx.Advance((512 - 0.5) / ctx.SampleRate())
	require.Len(t, out, 512)
	assert.Equal(t, float32(0), out[0])
	assert.Equal(t, float32(0), out[255])
	assert.InDelta(t, 1.0, out[256], 1e-6)
	assert.InDelta(t, 1.0, out[511], 1e-6)

	require.Len(t, events, 2)
	assert.InDelta(t, 256/ctx.SampleRate(), events[0].PlaybackTime, 1e-9)
	assert.Len(t, events[0].Input, 256)
}

func TestScriptProcessorBufferSize(t *testing.T) {
	ctx := newOnline(t)
	for _, size := range []any{100, 512.5, 32768} {
		_, err := ctx.CreateNode(core.NodeScriptProcessor, map[string]any{"bufferSize": size})
		assert.ErrorIs(t, err, core.ErrInvalidState, "%v", size)
	}
	n, err := ctx.CreateNode(core.NodeScriptProcessor, nil)
	require.NoError(t, err)
	size, _ := n.Property("bufferSize")
	assert.Equal(t, 2048, size)
	assert.ErrorIs(t, n.SetProperty("bufferSize", 256), core.ErrInvalidState)
}
