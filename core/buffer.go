package core

// Buffer holds de-interleaved sample frames.
type Buffer struct {
	SampleRate float64
	Channels   [][]float32
}

// NewBuffer allocates a silent buffer.
func NewBuffer(channels, length int, sampleRate float64) *Buffer {
	b := &Buffer{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for i := range b.Channels {
		b.Channels[i] = make([]float32, length)
	}
	return b
}

// NumberOfChannels returns the channel count.
func (b *Buffer) NumberOfChannels() int { return len(b.Channels) }

// Length returns the number of frames per channel.
func (b *Buffer) Length() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Length()) / b.SampleRate
}

// Channel returns channel i or nil when out of range.
func (b *Buffer) Channel(i int) []float32 {
	if i < 0 || i >= len(b.Channels) {
		return nil
	}
	return b.Channels[i]
}

// PeriodicWave describes a custom oscillator waveform by its Fourier
// coefficients. Index 0 (DC) is ignored.
type PeriodicWave struct {
	Real                 []float64 `mapstructure:"real"`
	Imag                 []float64 `mapstructure:"imag"`
	DisableNormalization bool      `mapstructure:"disableNormalization"`
}
