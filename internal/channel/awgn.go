package channel

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/orbiterzero/groundlink/internal/waveform"
)

// NoNoise is the SNR sentinel for a perfectly clean channel. Passing it to
// AddAWGN returns the signal untouched, so callers never need a literal
// infinity in ordinary parameter plumbing.
var NoNoise = math.Inf(1)

// AddAWGN adds zero-mean Gaussian noise scaled so the result has the
// requested signal-to-noise ratio. Noise power is derived from the mean
// squared amplitude of the input: P_noise = P_signal / 10^(snr/10).
// The drawn noise vector is returned alongside the noisy signal for
// display. A nil src uses the globally seeded source.
func AddAWGN(sig waveform.Signal, snrDB float64, src rand.Source) (waveform.Signal, []float64) {
	out := sig.Clone()
	if len(out.Samples) == 0 || math.IsInf(snrDB, 1) {
		return out, make([]float64, len(out.Samples))
	}

	signalPower := waveform.MeanPower(sig.Samples)
	noisePower := signalPower / DBToLinear(snrDB)
	dist := distuv.Normal{Mu: 0, Sigma: math.Sqrt(noisePower), Src: src}

	noise := make([]float64, len(out.Samples))
	for i := range noise {
		noise[i] = dist.Rand()
		out.Samples[i] += noise[i]
	}
	return out, noise
}

// MeasureSNR computes the ratio of clean signal power to noise power in dB.
// Zero noise power reports +Inf.
func MeasureSNR(clean, noise []float64) float64 {
	noisePower := waveform.MeanPower(noise)
	if noisePower == 0 {
		return math.Inf(1)
	}
	return LinearToDB(waveform.MeanPower(clean) / noisePower)
}

// DBToLinear converts a decibel power ratio to linear scale.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/10)
}

// LinearToDB converts a linear power ratio to decibels. Non-positive
// values report -Inf.
func LinearToDB(linear float64) float64 {
	if linear <= 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(linear)
}
