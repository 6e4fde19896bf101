package modem

import (
	"math"

	"github.com/orbiterzero/groundlink/internal/waveform"
)

// BitsToSymbols maps bits onto BPSK symbols with the fixed mapping
// 0 -> -1, 1 -> +1.
func BitsToSymbols(bits []int) []float64 {
	symbols := make([]float64, len(bits))
	for i, b := range bits {
		if b != 0 {
			symbols[i] = 1
		} else {
			symbols[i] = -1
		}
	}
	return symbols
}

// SymbolsToBits applies the sign decision to each symbol. A symbol of
// exactly zero decodes to bit 0 by convention.
func SymbolsToBits(symbols []float64) []int {
	bits := make([]int, len(symbols))
	for i, s := range symbols {
		if s > 0 {
			bits[i] = 1
		}
	}
	return bits
}

// Carrier holds the parameters of the modulation carrier.
type Carrier struct {
	FrequencyHz      float64
	SampleRateHz     float64
	SamplesPerSymbol int
}

func (c Carrier) validate() error {
	if c.FrequencyHz <= 0 {
		return &waveform.ConfigurationError{Param: "carrier_freq_hz", Reason: "must be > 0"}
	}
	if c.SampleRateHz <= 0 {
		return &waveform.ConfigurationError{Param: "sample_rate_hz", Reason: "must be > 0"}
	}
	if c.SamplesPerSymbol < 1 {
		return &waveform.ConfigurationError{Param: "samples_per_symbol", Reason: "must be >= 1"}
	}
	return nil
}

// Modulate multiplies each BPSK symbol against its window of the shared
// sine carrier. Sample i of the output sits at t = i/rate, so symbol k
// owns samples [k*spp, (k+1)*spp).
func Modulate(symbols []float64, c Carrier) (waveform.Signal, error) {
	if err := c.validate(); err != nil {
		return waveform.Signal{}, err
	}
	n := len(symbols) * c.SamplesPerSymbol
	samples := make([]float64, n)
	w := 2 * math.Pi * c.FrequencyHz
	for i := range samples {
		t := float64(i) / c.SampleRateHz
		samples[i] = symbols[i/c.SamplesPerSymbol] * math.Sin(w*t)
	}
	return waveform.Signal{Samples: samples, SampleRate: c.SampleRateHz}, nil
}

// Demodulate recovers bits from a BPSK signal coherently: the signal is
// multiplied by the reference carrier, integrated over each symbol window,
// and the sign of the integral decides the bit. An integral of exactly
// zero resolves to bit 0, mirroring SymbolsToBits.
func Demodulate(sig waveform.Signal, c Carrier) ([]int, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	numSymbols := len(sig.Samples) / c.SamplesPerSymbol
	bits := make([]int, 0, numSymbols)
	w := 2 * math.Pi * c.FrequencyHz
	for k := 0; k < numSymbols; k++ {
		sum := 0.0
		for i := k * c.SamplesPerSymbol; i < (k+1)*c.SamplesPerSymbol; i++ {
			t := float64(i) / c.SampleRateHz
			sum += sig.Samples[i] * math.Sin(w*t)
		}
		if sum > 0 {
			bits = append(bits, 1)
		} else {
			bits = append(bits, 0)
		}
	}
	return bits, nil
}
