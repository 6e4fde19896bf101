package waveform

import (
	"math"
	"testing"
)

func TestGenerateSine(t *testing.T) {
	gen := NewGenerator(nil)
	sig, err := gen.Generate(Sine, Params{
		FrequencyHz:  10,
		Amplitude:    1,
		DurationSec:  1,
		SampleRateHz: 1000,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(sig.Samples) != 1000 {
		t.Fatalf("expected 1000 samples, got %d", len(sig.Samples))
	}

	max, min := sig.Samples[0], sig.Samples[0]
	for _, v := range sig.Samples {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	if math.Abs(max-1) > 0.01 {
		t.Fatalf("max amplitude %.4f, want ~1", max)
	}
	if math.Abs(min+1) > 0.01 {
		t.Fatalf("min amplitude %.4f, want ~-1", min)
	}

	crossings := ZeroCrossings(sig.Samples)
	if crossings < 18 || crossings > 22 {
		t.Fatalf("10 Hz sine over 1s should cross zero ~20 times, got %d", crossings)
	}
}

func TestGenerateSquare(t *testing.T) {
	gen := NewGenerator(nil)
	sig, err := gen.Generate(Square, Params{
		FrequencyHz:  5,
		Amplitude:    2,
		DurationSec:  0.5,
		SampleRateHz: 400,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i, v := range sig.Samples {
		if v != 2 && v != -2 {
			t.Fatalf("sample %d is %.4f, square wave must be exactly +/-amplitude", i, v)
		}
	}
}

func TestGenerateRejectsBadParams(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"zero frequency", Params{FrequencyHz: 0, Amplitude: 1, DurationSec: 1, SampleRateHz: 100}},
		{"negative amplitude", Params{FrequencyHz: 10, Amplitude: -1, DurationSec: 1, SampleRateHz: 100}},
		{"zero duration", Params{FrequencyHz: 10, Amplitude: 1, DurationSec: 0, SampleRateHz: 100}},
		{"zero sample rate", Params{FrequencyHz: 10, Amplitude: 1, DurationSec: 1, SampleRateHz: 0}},
	}
	gen := NewGenerator(nil)
	for _, tt := range tests {
		if _, err := gen.Generate(Sine, tt.p); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		} else if _, ok := err.(*ConfigurationError); !ok {
			t.Fatalf("%s: expected ConfigurationError, got %T", tt.name, err)
		}
	}
}

func TestNyquistViolationStillGenerates(t *testing.T) {
	p := Params{FrequencyHz: 100, Amplitude: 1, DurationSec: 0.1, SampleRateHz: 150}
	if p.NyquistOK() {
		t.Fatalf("150 Hz sampling of 100 Hz should violate Nyquist")
	}
	sig, err := NewGenerator(nil).Generate(Sine, p)
	if err != nil {
		t.Fatalf("generation should proceed despite aliasing: %v", err)
	}
	if len(sig.Samples) != 15 {
		t.Fatalf("expected 15 samples, got %d", len(sig.Samples))
	}
}

func TestMeanPower(t *testing.T) {
	sig, err := NewGenerator(nil).Generate(Sine, Params{
		FrequencyHz: 10, Amplitude: 1, DurationSec: 1, SampleRateHz: 1000,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// Unit sine carries power A^2/2.
	if p := MeanPower(sig.Samples); math.Abs(p-0.5) > 0.01 {
		t.Fatalf("sine power %.4f, want ~0.5", p)
	}
	if p := MeanPower(nil); p != 0 {
		t.Fatalf("empty power %.4f, want 0", p)
	}
}

func TestTimeAxis(t *testing.T) {
	sig := Signal{Samples: []float64{0, 0, 0, 0, 0}, SampleRate: 100}
	axis := sig.TimeAxis()
	if len(axis) != 5 {
		t.Fatalf("axis length %d, want 5", len(axis))
	}
	if axis[0] != 0 {
		t.Fatalf("axis must start at 0, got %v", axis[0])
	}
	if math.Abs(axis[4]-0.04) > 1e-12 {
		t.Fatalf("last timestamp %.6f, want 0.04", axis[4])
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	sig := Signal{Samples: []float64{1, 2, 3}, SampleRate: 10}
	dup := sig.Clone()
	dup.Samples[0] = 99
	if sig.Samples[0] != 1 {
		t.Fatalf("clone mutated the original")
	}
}
