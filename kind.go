package audiomesh

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hupe1980/audiomesh/element"
	"github.com/hupe1980/audiomesh/module"
)

// ErrUnknownKind is returned by Create and ParseKind for kinds outside the
// closed enumeration.
var ErrUnknownKind = errors.New("unknown kind")

// Kind enumerates the module kinds Create can build.
type Kind string

// Module kinds.
const (
	KindMixer              Kind = "mixer"
	KindTrack              Kind = "track"
	KindBypass             Kind = "bypass"
	KindMerger             Kind = "merger"
	KindScene              Kind = "scene"
	KindRecord             Kind = "record"
	KindAnalyser           Kind = "analyser"
	KindBufferSource       Kind = "bufferSource"
	KindBiquadFilter       Kind = "biquadFilter"
	KindChannelMerger      Kind = "channelMerger"
	KindChannelSplitter    Kind = "channelSplitter"
	KindConstantSource     Kind = "constantSource"
	KindConvolver          Kind = "convolver"
	KindDelay              Kind = "delay"
	KindDynamicsCompressor Kind = "dynamicsCompressor"
	KindGain               Kind = "gain"
	KindIIRFilter          Kind = "iirFilter"
	KindMediaElementSource Kind = "mediaElementSource"
	KindMediaStreamSource  Kind = "mediaStreamSource"
	KindStreamDestination  Kind = "streamDestination"
	KindOscillator         Kind = "oscillator"
	KindPanner             Kind = "panner"
	KindScriptProcessor    Kind = "scriptProcessor"
	KindStereoPanner       Kind = "stereoPanner"
	KindWaveShaper         Kind = "waveShaper"
)

type factory func(rt *module.Runtime, attrs module.Attributes) (module.Module, error)

func wrap[T module.Module](fn func(*module.Runtime, module.Attributes) (T, error)) factory {
	return func(rt *module.Runtime, attrs module.Attributes) (module.Module, error) {
		m, err := fn(rt, attrs)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

var factories = map[Kind]factory{
	KindMixer:              wrap(module.NewMixer),
	KindTrack:              wrap(module.NewTrack),
	KindBypass:             wrap(module.NewBypass),
	KindMerger:             wrap(module.NewMerger),
	KindScene:              wrap(module.NewScene),
	KindRecord:             wrap(module.NewRecord),
	KindAnalyser:           wrap(element.NewAnalyser),
	KindBufferSource:       wrap(element.NewBufferSource),
	KindBiquadFilter:       wrap(element.NewBiquadFilter),
	KindChannelMerger:      wrap(element.NewChannelMerger),
	KindChannelSplitter:    wrap(element.NewChannelSplitter),
	KindConstantSource:     wrap(element.NewConstantSource),
	KindConvolver:          wrap(element.NewConvolver),
	KindDelay:              wrap(element.NewDelay),
	KindDynamicsCompressor: wrap(element.NewDynamicsCompressor),
	KindGain:               wrap(element.NewGain),
	KindIIRFilter:          wrap(element.NewIIRFilter),
	KindMediaElementSource: wrap(element.NewMediaElementSource),
	KindMediaStreamSource:  wrap(element.NewMediaStreamSource),
	KindStreamDestination:  wrap(element.NewStreamDestination),
	KindOscillator:         wrap(element.NewOscillator),
	KindPanner:             wrap(element.NewPanner),
	KindScriptProcessor:    wrap(element.NewScriptProcessor),
	KindStereoPanner:       wrap(element.NewStereoPanner),
	KindWaveShaper:         wrap(element.NewWaveShaper),
}

// Kinds returns every supported kind in lexical order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseKind converts a string tag into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := factories[k]; ok {
		return k, nil
	}
	return "", unknownKind(s)
}

func unknownKind(s string) error {
	names := make([]string, 0, len(factories))
	for k := range factories {
		names = append(names, string(k))
	}
	sort.Strings(names)
	if hint := module.Suggest(s, names); hint != "" {
		return fmt.Errorf("%w %q, did you mean %q?", ErrUnknownKind, s, hint)
	}
	return fmt.Errorf("%w %q", ErrUnknownKind, s)
}
