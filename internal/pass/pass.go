// Package pass derives a time-varying link quality from a simplified
// satellite pass: the satellite rises, peaks at max elevation mid-pass,
// and sets again.
package pass

import (
	"time"

	"github.com/orbiterzero/groundlink/internal/waveform"
)

// Pass describes one overflight window.
type Pass struct {
	Start        time.Time
	Duration     time.Duration
	MaxElevation float64 // degrees at the midpoint of the pass
}

// Validate fails fast on parameters no elevation curve can be built from.
func (p Pass) Validate() error {
	if p.Duration <= 0 {
		return &waveform.ConfigurationError{Param: "pass_duration", Reason: "must be > 0"}
	}
	if p.MaxElevation <= 0 || p.MaxElevation > 90 {
		return &waveform.ConfigurationError{Param: "max_elevation", Reason: "must be in (0, 90]"}
	}
	return nil
}

// ElevationAt returns the elevation in degrees at offset t into the pass.
// The curve is a parabola: zero at rise and set, MaxElevation at the
// midpoint, and zero outside [0, Duration].
func (p Pass) ElevationAt(t time.Duration) float64 {
	if t < 0 || t > p.Duration {
		return 0
	}
	progress := float64(t) / float64(p.Duration)
	frac := 1 - 4*(progress-0.5)*(progress-0.5)
	if frac < 0 {
		frac = 0
	}
	return p.MaxElevation * frac
}

// SNRAt maps elevation linearly onto [minSNR, maxSNR] dB: minSNR at the
// horizon, maxSNR at MaxElevation. The result is clamped to the range.
func (p Pass) SNRAt(t time.Duration, minSNR, maxSNR float64) float64 {
	elev := p.ElevationAt(t)
	snr := minSNR + (maxSNR-minSNR)*(elev/p.MaxElevation)
	if snr < minSNR {
		return minSNR
	}
	if snr > maxSNR {
		return maxSNR
	}
	return snr
}

// DistanceAt returns the slant range in km: 2000 km at the horizon
// shrinking linearly to 1000 km at peak elevation.
func (p Pass) DistanceAt(t time.Duration) float64 {
	return 2000 - 1000*(p.ElevationAt(t)/p.MaxElevation)
}

// Point is one sampled instant of the pass timeline.
type Point struct {
	Offset     time.Duration
	Elevation  float64
	SNRdB      float64
	DistanceKm float64
}

// Sample returns n evenly spaced points spanning the whole pass, endpoints
// included. Each point feeds one transmission attempt.
func (p Pass) Sample(n int, minSNR, maxSNR float64) []Point {
	if n <= 0 {
		return nil
	}
	points := make([]Point, n)
	for i := range points {
		var t time.Duration
		if n == 1 {
			t = p.Duration / 2
		} else {
			t = time.Duration(float64(p.Duration) * float64(i) / float64(n-1))
		}
		points[i] = Point{
			Offset:     t,
			Elevation:  p.ElevationAt(t),
			SNRdB:      p.SNRAt(t, minSNR, maxSNR),
			DistanceKm: p.DistanceAt(t),
		}
	}
	return points
}
