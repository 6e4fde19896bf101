package modem

import (
	"testing"

	"github.com/orbiterzero/groundlink/internal/waveform"
)

func waveformSignal() waveform.Signal {
	return waveform.Signal{Samples: nil, SampleRate: 1000}
}

func TestSymbolMapping(t *testing.T) {
	symbols := BitsToSymbols([]int{0, 1, 1, 0})
	want := []float64{-1, 1, 1, -1}
	for i := range want {
		if symbols[i] != want[i] {
			t.Fatalf("symbol %d is %.0f, want %.0f", i, symbols[i], want[i])
		}
	}
	bits := SymbolsToBits(symbols)
	for i, b := range []int{0, 1, 1, 0} {
		if bits[i] != b {
			t.Fatalf("bit %d is %d, want %d", i, bits[i], b)
		}
	}
	// The tie at exactly zero resolves to bit 0.
	if got := SymbolsToBits([]float64{0}); got[0] != 0 {
		t.Fatalf("zero symbol decoded to %d, want 0", got[0])
	}
}

func TestModulateDemodulateRoundTrip(t *testing.T) {
	carrier := Carrier{FrequencyHz: 100, SampleRateHz: 1000, SamplesPerSymbol: 10}
	messages := []string{"HI", "Hello, World!", "x"}
	for _, msg := range messages {
		bits := TextToBits(msg)
		sig, err := Modulate(BitsToSymbols(bits), carrier)
		if err != nil {
			t.Fatalf("%q: modulate: %v", msg, err)
		}
		if len(sig.Samples) != len(bits)*carrier.SamplesPerSymbol {
			t.Fatalf("%q: got %d samples, want %d", msg, len(sig.Samples), len(bits)*carrier.SamplesPerSymbol)
		}
		got, err := Demodulate(sig, carrier)
		if err != nil {
			t.Fatalf("%q: demodulate: %v", msg, err)
		}
		if errs := BitErrors(bits, got); errs != 0 {
			t.Fatalf("%q: %d bit errors over a clean channel", msg, errs)
		}
		text, err := BitsToText(got)
		if err != nil {
			t.Fatalf("%q: decode: %v", msg, err)
		}
		if text != msg {
			t.Fatalf("round trip mismatch: %q vs %q", msg, text)
		}
	}
}

func TestCarrierValidation(t *testing.T) {
	tests := []struct {
		name string
		c    Carrier
	}{
		{"zero frequency", Carrier{FrequencyHz: 0, SampleRateHz: 1000, SamplesPerSymbol: 10}},
		{"zero sample rate", Carrier{FrequencyHz: 100, SampleRateHz: 0, SamplesPerSymbol: 10}},
		{"zero samples per symbol", Carrier{FrequencyHz: 100, SampleRateHz: 1000, SamplesPerSymbol: 0}},
	}
	for _, tt := range tests {
		if _, err := Modulate([]float64{1}, tt.c); err == nil {
			t.Fatalf("%s: modulate accepted invalid carrier", tt.name)
		}
		if _, err := Demodulate(waveformSignal(), tt.c); err == nil {
			t.Fatalf("%s: demodulate accepted invalid carrier", tt.name)
		}
	}
}

func TestDemodulateEmptySignal(t *testing.T) {
	carrier := Carrier{FrequencyHz: 100, SampleRateHz: 1000, SamplesPerSymbol: 10}
	bits, err := Demodulate(waveformSignal(), carrier)
	if err != nil {
		t.Fatalf("demodulate: %v", err)
	}
	if len(bits) != 0 {
		t.Fatalf("empty signal produced %d bits", len(bits))
	}
}
