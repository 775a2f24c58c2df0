package host

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/hupe1980/audiomesh/core"
)

// ErrInvalidWAV is returned for data that is not a PCM WAV file.
var ErrInvalidWAV = errors.New("invalid wav data")

// DecodeWAV decodes integer PCM WAV data into a buffer at the file's rate.
func DecodeWAV(data []byte) (*core.Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: audio format %d", ErrInvalidWAV, dec.WavAudioFormat)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}

	channels := pcm.Format.NumChannels
	if channels <= 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidWAV)
	}
	depth := pcm.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	scale := math.Pow(2, float64(depth-1))

	frames := len(pcm.Data) / channels
	buf := core.NewBuffer(channels, frames, float64(pcm.Format.SampleRate))
	for i, v := range pcm.Data[:frames*channels] {
		s := float64(v)
		if depth == 8 {
			s -= 128
		}
		buf.Channels[i%channels][i/channels] = float32(s / scale)
	}
	return buf, nil
}

// EncodeWAV writes buf as integer PCM WAV with the given bit depth.
func EncodeWAV(w io.WriteSeeker, buf *core.Buffer, bitDepth int) error {
	channels := buf.NumberOfChannels()
	if channels == 0 {
		return fmt.Errorf("encode empty buffer: %w", ErrInvalidWAV)
	}
	enc := wav.NewEncoder(w, int(buf.SampleRate), bitDepth, channels, 1)

	scale := math.Pow(2, float64(bitDepth-1)) - 1
	frames := buf.Length()
	data := make([]int, frames*channels)
	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			s := math.Max(-1, math.Min(1, float64(buf.Channels[c][f])))
			data[f*channels+c] = int(math.Round(s * scale))
		}
	}

	pcm := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: int(buf.SampleRate)},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(pcm); err != nil {
		return err
	}
	return enc.Close()
}

// Resample converts buf to rate with linear interpolation.
func Resample(buf *core.Buffer, rate float64) *core.Buffer {
	if buf == nil || buf.SampleRate == rate || buf.SampleRate <= 0 {
		return buf
	}
	ratio := buf.SampleRate / rate
	frames := int(math.Round(float64(buf.Length()) / ratio))
	out := core.NewBuffer(buf.NumberOfChannels(), frames, rate)
	for c, src := range buf.Channels {
		dst := out.Channels[c]
		for i := range dst {
			pos := float64(i) * ratio
			k := int(pos)
			if k >= len(src)-1 {
				dst[i] = src[len(src)-1]
				continue
			}
			frac := float32(pos - float64(k))
			dst[i] = src[k] + (src[k+1]-src[k])*frac
		}
	}
	return out
}
