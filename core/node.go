package core

// Node is a native processing node. Connections are directed from an output
// of the receiver to an input of dst; connecting an already connected pair is a
// no-op.
type Node interface {
	ID() string
	Kind() NodeKind
	Context() Context
	NumberOfInputs() int
	NumberOfOutputs() int
	Connect(dst Node) error
	// Disconnect returns ErrNotConnected when the pair was not connected.
	Disconnect(dst Node) error
	// DisconnectAll removes every outgoing connection.
	DisconnectAll()
	// Param returns the named automatable parameter.
	Param(name string) (Param, bool)
	// SetProperty mutates a plain (non automatable) node property in place.
	SetProperty(name string, value any) error
	Property(name string) (any, bool)
}

// ScheduledNode is a one-shot source that can be started exactly once.
type ScheduledNode interface {
	Node
	// Start schedules playback at when (context time). A duration <= 0 plays until the end.
	Start(when, offset, duration float64) error
	Stop(when float64) error
	// OnEnded replaces the listener invoked once playback ends.
	OnEnded(fn func())
}

// BufferNode is a node that reads sample data from a Buffer.
type BufferNode interface {
	Node
	SetBuffer(b *Buffer) error
	Buffer() *Buffer
}

// MediaElement is an external media source that can be wrapped by at most one
// node per context.
type MediaElement interface {
	ID() string
	// SampleAt returns the element's mono signal at time t (seconds).
	SampleAt(t float64) float32
}

// MediaStream is a live external stream, such as a capture device. Unlike a
// MediaElement it may feed any number of source nodes.
type MediaStream interface {
	ID() string
	SampleAt(t float64) float32
}

// AudioProcessingEvent carries one buffer through a script processor. Output
// is played back starting at PlaybackTime.
type AudioProcessingEvent struct {
	PlaybackTime float64
	Input        []float32
	Output       []float32
}

// ScriptNode hands its signal to a callback one buffer at a time.
type ScriptNode interface {
	Node
	// OnAudioProcess replaces the buffer callback. A nil fn outputs silence.
	OnAudioProcess(fn func(*AudioProcessingEvent))
}

// Param is an automatable, continuous node parameter. Times are context times
// in seconds.
type Param interface {
	Name() string
	Value() float64
	SetValue(v float64) error
	SetValueAtTime(v, t float64) error
	LinearRampToValueAtTime(v, endTime float64) error
	ExponentialRampToValueAtTime(v, endTime float64) error
	SetTargetAtTime(v, startTime, timeConstant float64) error
	SetValueCurveAtTime(values []float64, startTime, duration float64) error
	CancelScheduledValues(t float64) error
}
