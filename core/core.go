package core

import "github.com/google/uuid"

// NewID generates a new unique identifier for nodes, contexts and modules.
func NewID() string { return uuid.NewString() }

// NodeKind identifies the native node type a context is asked to create.
type NodeKind string

// Native node kinds understood by hosts.
const (
	NodeAnalyser           NodeKind = "analyser"
	NodeBiquadFilter       NodeKind = "biquad-filter"
	NodeBufferSource       NodeKind = "buffer-source"
	NodeChannelMerger      NodeKind = "channel-merger"
	NodeChannelSplitter    NodeKind = "channel-splitter"
	NodeConstantSource     NodeKind = "constant-source"
	NodeConvolver          NodeKind = "convolver"
	NodeDelay              NodeKind = "delay"
	NodeDestination        NodeKind = "destination"
	NodeDynamicsCompressor NodeKind = "dynamics-compressor"
	NodeGain               NodeKind = "gain"
	NodeIIRFilter          NodeKind = "iir-filter"
	NodeMediaElementSource NodeKind = "media-element-source"
	NodeMediaStreamSource  NodeKind = "media-stream-source"
	NodeOscillator         NodeKind = "oscillator"
	NodePanner             NodeKind = "panner"
	NodeScriptProcessor    NodeKind = "script-processor"
	NodeStereoPanner       NodeKind = "stereo-panner"
	NodeStreamDestination  NodeKind = "stream-destination"
	NodeWaveShaper         NodeKind = "wave-shaper"
)

// IsSink reports whether n is a terminal destination (a node without outputs).
func IsSink(n Node) bool { return n.NumberOfOutputs() == 0 }
