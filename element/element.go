package element

import (
	"sort"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/module"
)

// kindSpec is the declarative description of a simple node kind.
type kindSpec struct {
	kind string
	node core.NodeKind
	// params are automatable.
	params []string
	// props are set in place; the value is used when the attribute is unset.
	props map[string]any
	// construct are construction-only options passed to CreateNode.
	construct []string
}

func (k kindSpec) attributes() []string {
	names := append([]string(nil), k.params...)
	props := make([]string, 0, len(k.props))
	for p := range k.props {
		props = append(props, p)
	}
	sort.Strings(props)
	names = append(names, props...)
	return append(names, k.construct...)
}

func (k kindSpec) spec() module.ElementSpec {
	return module.ElementSpec{
		Kind:             k.kind,
		Attributes:       k.attributes(),
		ConstructionKeys: k.construct,
		Construct:        k.constructNode,
		Apply:            k.apply,
	}
}

func (k kindSpec) constructNode(e *module.Element) (core.Node, error) {
	return e.Context().CreateNode(k.node, e.ConstructionOptions())
}

func (k kindSpec) apply(e *module.Element, name string, value any) (bool, error) {
	if contains(k.params, name) {
		return true, e.ApplyParameterization(name, value)
	}
	if def, ok := k.props[name]; ok {
		if value == nil {
			value = def
		}
		return true, e.Node().SetProperty(name, value)
	}
	return contains(k.construct, name), nil
}

var (
	analyser = kindSpec{
		kind: "analyser",
		node: core.NodeAnalyser,
		props: map[string]any{
			"fftSize":               2048,
			"minDecibels":           -100.0,
			"maxDecibels":           -30.0,
			"smoothingTimeConstant": 0.8,
		},
	}
	biquadFilter = kindSpec{
		kind:   "biquadFilter",
		node:   core.NodeBiquadFilter,
		params: []string{"frequency", "detune", "Q", "gain"},
		props:  map[string]any{"type": "lowpass"},
	}
	channelMerger = kindSpec{
		kind:      "channelMerger",
		node:      core.NodeChannelMerger,
		construct: []string{"numberOfInputs"},
	}
	channelSplitter = kindSpec{
		kind:      "channelSplitter",
		node:      core.NodeChannelSplitter,
		construct: []string{"numberOfOutputs"},
	}
	constantSource = kindSpec{
		kind:   "constantSource",
		node:   core.NodeConstantSource,
		params: []string{"offset"},
	}
	delay = kindSpec{
		kind:      "delay",
		node:      core.NodeDelay,
		params:    []string{"delayTime"},
		construct: []string{"maxDelayTime"},
	}
	dynamicsCompressor = kindSpec{
		kind:   "dynamicsCompressor",
		node:   core.NodeDynamicsCompressor,
		params: []string{"threshold", "knee", "ratio", "attack", "release"},
	}
	gain = kindSpec{
		kind:   "gain",
		node:   core.NodeGain,
		params: []string{"gain"},
	}
	iirFilter = kindSpec{
		kind:      "iirFilter",
		node:      core.NodeIIRFilter,
		construct: []string{"feedforward", "feedback"},
	}
	mediaStreamSource = kindSpec{
		kind:      "mediaStreamSource",
		node:      core.NodeMediaStreamSource,
		construct: []string{"mediaStream"},
	}
	panner = kindSpec{
		kind:   "panner",
		node:   core.NodePanner,
		params: []string{"positionX", "positionY", "positionZ", "orientationX", "orientationY", "orientationZ"},
		props: map[string]any{
			"coneInnerAngle": 360.0,
			"coneOuterAngle": 360.0,
			"coneOuterGain":  0.0,
			"distanceModel":  "inverse",
			"maxDistance":    10000.0,
			"panningModel":   "equalpower",
			"refDistance":    1.0,
			"rolloffFactor":  1.0,
		},
	}
	stereoPanner = kindSpec{
		kind:   "stereoPanner",
		node:   core.NodeStereoPanner,
		params: []string{"pan"},
	}
	streamDestination = kindSpec{
		kind: "streamDestination",
		node: core.NodeStreamDestination,
	}
	waveShaper = kindSpec{
		kind:  "waveShaper",
		node:  core.NodeWaveShaper,
		props: map[string]any{"curve": nil, "oversample": "none"},
	}
)

// NewAnalyser returns an analyser element.
func NewAnalyser(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	return module.NewElement(rt, analyser.spec(), attrs)
}

// NewBiquadFilter returns a biquad filter element.
func NewBiquadFilter(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	return module.NewElement(rt, biquadFilter.spec(), attrs)
}

// NewChannelMerger returns a channel merger. numberOfInputs is
// construction-only.
func NewChannelMerger(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	return module.NewElement(rt, channelMerger.spec(), attrs)
}

// NewChannelSplitter returns a channel splitter. numberOfOutputs is
// construction-only.
func NewChannelSplitter(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	return module.NewElement(rt, channelSplitter.spec(), attrs)
}

// NewConstantSource returns a constant source.
func NewConstantSource(rt *module.Runtime, attrs module.Attributes) (*module.ScheduledSource, error) {
	return module.NewScheduledSource(rt, constantSource.spec(), attrs)
}

// NewDelay returns a delay element. maxDelayTime is construction-only.
func NewDelay(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	return module.NewElement(rt, delay.spec(), attrs)
}

// NewDynamicsCompressor returns a compressor element.
func NewDynamicsCompressor(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	return module.NewElement(rt, dynamicsCompressor.spec(), attrs)
}

// NewGain returns a gain element.
func NewGain(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	return module.NewElement(rt, gain.spec(), attrs)
}

// NewIIRFilter returns an IIR filter element. Both coefficient lists are
// construction-only.
func NewIIRFilter(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	return module.NewElement(rt, iirFilter.spec(), attrs)
}

// NewMediaStreamSource returns a source playing a core.MediaStream. Offline
// contexts refuse to build it.
func NewMediaStreamSource(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	return module.NewElement(rt, mediaStreamSource.spec(), attrs)
}

// NewPanner returns a 3D panner. Position and orientation are automatable.
func NewPanner(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	return module.NewElement(rt, panner.spec(), attrs)
}

// NewStereoPanner returns a stereo panner element.
func NewStereoPanner(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	return module.NewElement(rt, stereoPanner.spec(), attrs)
}

// NewStreamDestination returns a recording sink.
func NewStreamDestination(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	return module.NewElement(rt, streamDestination.spec(), attrs)
}

// NewWaveShaper returns a wave shaper element.
func NewWaveShaper(rt *module.Runtime, attrs module.Attributes) (*module.Element, error) {
	return module.NewElement(rt, waveShaper.spec(), attrs)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
