package waveform

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrum holds the one-sided power spectrum of a real signal.
type Spectrum struct {
	FrequenciesHz []float64
	PowerDB       []float64
}

// hamming returns a Hamming window of length n.
func hamming(n int) []float64 {
	win := make([]float64, n)
	if n == 1 {
		win[0] = 1
		return win
	}
	for i := range win {
		win[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return win
}

// PowerSpectrum computes the windowed one-sided power spectrum in dB,
// normalized by the window sum. Bins with zero magnitude report -Inf.
func PowerSpectrum(sig Signal) Spectrum {
	n := len(sig.Samples)
	if n == 0 || sig.SampleRate == 0 {
		return Spectrum{FrequenciesHz: []float64{}, PowerDB: []float64{}}
	}

	win := hamming(n)
	windowed := make([]float64, n)
	winSum := 0.0
	for i, v := range sig.Samples {
		windowed[i] = v * win[i]
		winSum += win[i]
	}

	coeffs := fourier.NewFFT(n).Coefficients(nil, windowed)
	freqs := make([]float64, len(coeffs))
	power := make([]float64, len(coeffs))
	for i, c := range coeffs {
		freqs[i] = float64(i) * sig.SampleRate / float64(n)
		mag := math.Hypot(real(c), imag(c)) / winSum
		if mag == 0 {
			power[i] = math.Inf(-1)
			continue
		}
		power[i] = 20 * math.Log10(mag)
	}
	return Spectrum{FrequenciesHz: freqs, PowerDB: power}
}

// DominantFrequency returns the frequency of the strongest non-DC bin.
// It returns 0 for empty or constant signals.
func DominantFrequency(sig Signal) float64 {
	spec := PowerSpectrum(sig)
	if len(spec.PowerDB) < 2 {
		return 0
	}
	best := 1
	for i := 2; i < len(spec.PowerDB); i++ {
		if spec.PowerDB[i] > spec.PowerDB[best] {
			best = i
		}
	}
	if math.IsInf(spec.PowerDB[best], -1) {
		return 0
	}
	return spec.FrequenciesHz[best]
}
