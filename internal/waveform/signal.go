package waveform

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Signal is a sampled time-domain waveform. Samples are real-valued and
// uniformly spaced at 1/SampleRate seconds.
type Signal struct {
	Samples    []float64
	SampleRate float64
}

// Duration returns the signal length in seconds.
func (s Signal) Duration() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return float64(len(s.Samples)) / s.SampleRate
}

// TimeAxis returns the timestamp of each sample, starting at zero.
func (s Signal) TimeAxis() []float64 {
	if len(s.Samples) == 0 {
		return []float64{}
	}
	axis := make([]float64, len(s.Samples))
	if len(s.Samples) == 1 || s.SampleRate == 0 {
		return axis
	}
	last := float64(len(s.Samples)-1) / s.SampleRate
	floats.Span(axis, 0, last)
	return axis
}

// Clone returns a deep copy so downstream stages never alias the input buffer.
func (s Signal) Clone() Signal {
	out := Signal{Samples: make([]float64, len(s.Samples)), SampleRate: s.SampleRate}
	copy(out.Samples, s.Samples)
	return out
}

// MeanPower computes the mean squared amplitude of the samples.
func MeanPower(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return floats.Dot(samples, samples) / float64(len(samples))
}

// ZeroCrossings counts sign changes between consecutive samples.
// Samples that are exactly zero are skipped so a touch of the axis is not
// counted twice.
func ZeroCrossings(samples []float64) int {
	count := 0
	prev := 0.0
	for _, v := range samples {
		if v == 0 {
			continue
		}
		if prev != 0 && math.Signbit(v) != math.Signbit(prev) {
			count++
		}
		prev = v
	}
	return count
}
