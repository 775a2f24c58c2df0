package core

// ContextState is the run state of a processing context.
type ContextState string

// Context states.
const (
	StateSuspended ContextState = "suspended"
	StateRunning   ContextState = "running"
	StateClosed    ContextState = "closed"
)

// Context owns a clock, a final destination and the nodes created in it.
type Context interface {
	ID() string
	SampleRate() float64
	CurrentTime() float64
	State() ContextState
	Destination() Node
	CreateNode(kind NodeKind, options map[string]any) (Node, error)
	// DecodeAudioData decodes data asynchronously. done is invoked exactly once
	// on a later turn of the host loop with either a buffer or an error.
	DecodeAudioData(data []byte, done func(*Buffer, error))
	// Listener returns the position panner nodes are heard from.
	Listener() Listener
	SetListener(l Listener)
	Close() error
}

// Listener places the listener in the context's 3D space.
type Listener struct {
	PositionX float64 `mapstructure:"positionX"`
	PositionY float64 `mapstructure:"positionY"`
	PositionZ float64 `mapstructure:"positionZ"`
	ForwardX  float64 `mapstructure:"forwardX"`
	ForwardY  float64 `mapstructure:"forwardY"`
	ForwardZ  float64 `mapstructure:"forwardZ"`
	UpX       float64 `mapstructure:"upX"`
	UpY       float64 `mapstructure:"upY"`
	UpZ       float64 `mapstructure:"upZ"`
}

// DefaultListener sits at the origin facing -Z with +Y up.
var DefaultListener = Listener{ForwardZ: -1, UpY: 1}

// OnlineContext is a continuously running context.
type OnlineContext interface {
	Context
	Resume() error
	Suspend() error
	// OnStateChange replaces the listener notified after each state change.
	OnStateChange(fn func(ContextState))
}

// OfflineContext renders a fixed number of frames as fast as possible.
type OfflineContext interface {
	Context
	Length() int
	NumberOfChannels() int
	StartRendering() error
	Resume() error
	// SuspendAt suspends rendering once the clock reaches t and then calls fn.
	SuspendAt(t float64, fn func()) error
	// OnComplete replaces the listener receiving the rendered buffer.
	OnComplete(fn func(*Buffer))
}

// ContextOptions configures an online context.
type ContextOptions struct {
	SampleRate  float64
	LatencyHint string
}

// OfflineContextOptions configures an offline context.
type OfflineContextOptions struct {
	SampleRate       float64
	Length           int
	NumberOfChannels int
}

// Host creates processing contexts.
type Host interface {
	NewContext(opts ContextOptions) (OnlineContext, error)
	NewOfflineContext(opts OfflineContextOptions) (OfflineContext, error)
}
