package testutil

import "math"

// ConstantElement is a core.MediaElement producing a constant signal.
type ConstantElement struct {
	Name  string
	Level float32
}

// ID implements core.MediaElement.
func (e *ConstantElement) ID() string { return e.Name }

// SampleAt implements core.MediaElement.
func (e *ConstantElement) SampleAt(float64) float32 { return e.Level }

// SineElement is a core.MediaElement producing a sine wave.
type SineElement struct {
	Name      string
	Frequency float64
}

// ID implements core.MediaElement.
func (e *SineElement) ID() string { return e.Name }

// SampleAt implements core.MediaElement.
func (e *SineElement) SampleAt(t float64) float32 {
	return float32(math.Sin(2 * math.Pi * e.Frequency * t))
}
