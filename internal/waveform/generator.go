package waveform

import (
	"fmt"
	"math"

	"github.com/orbiterzero/groundlink/internal/logging"
)

// ConfigurationError reports an invalid parameter at a stage boundary.
// It is returned before any computation proceeds.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// Kind identifies a waveform shape.
type Kind int

const (
	Sine Kind = iota
	Square
)

func (k Kind) String() string {
	switch k {
	case Sine:
		return "sine"
	case Square:
		return "square"
	default:
		return "unknown"
	}
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "sine", "":
		return Sine, nil
	case "square":
		return Square, nil
	default:
		return Kind(0), fmt.Errorf("unsupported waveform kind %q", s)
	}
}

// Params holds waveform generation parameters.
type Params struct {
	FrequencyHz  float64
	Amplitude    float64
	DurationSec  float64
	SampleRateHz float64
}

// NyquistOK reports whether the sample rate satisfies the Nyquist
// criterion for the configured frequency. A violation does not stop
// generation; aliasing is part of what the simulator demonstrates.
func (p Params) NyquistOK() bool {
	return p.SampleRateHz >= 2*p.FrequencyHz
}

func (p Params) validate() error {
	if p.FrequencyHz <= 0 {
		return &ConfigurationError{Param: "frequency_hz", Reason: "must be > 0"}
	}
	if p.Amplitude < 0 {
		return &ConfigurationError{Param: "amplitude", Reason: "must be >= 0"}
	}
	if p.DurationSec <= 0 {
		return &ConfigurationError{Param: "duration_sec", Reason: "must be > 0"}
	}
	if p.SampleRateHz <= 0 {
		return &ConfigurationError{Param: "sample_rate_hz", Reason: "must be > 0"}
	}
	return nil
}

// sampleFunc evaluates one waveform shape at time t.
type sampleFunc func(p Params, t float64) float64

var sampleFuncs = map[Kind]sampleFunc{
	Sine:   sineAt,
	Square: squareAt,
}

func sineAt(p Params, t float64) float64 {
	return p.Amplitude * math.Sin(2*math.Pi*p.FrequencyHz*t)
}

// squareAt uses the sign-of-sine construction. The zero crossings of the
// underlying sine map to +amplitude so the wave is fully defined.
func squareAt(p Params, t float64) float64 {
	if math.Sin(2*math.Pi*p.FrequencyHz*t) < 0 {
		return -p.Amplitude
	}
	return p.Amplitude
}

// Generator produces sampled waveforms.
type Generator struct {
	logger logging.Logger
}

// NewGenerator builds a Generator. A nil logger falls back to the
// process default.
func NewGenerator(logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Generator{logger: logger}
}

// Generate produces round(duration*rate) samples of the requested waveform.
// Sample i is evaluated at t = i/rate. A Nyquist violation is logged as a
// warning but generation still proceeds.
func (g *Generator) Generate(kind Kind, p Params) (Signal, error) {
	if err := p.validate(); err != nil {
		return Signal{}, err
	}
	fn, ok := sampleFuncs[kind]
	if !ok {
		return Signal{}, &ConfigurationError{Param: "kind", Reason: fmt.Sprintf("unsupported waveform kind %d", kind)}
	}
	if !p.NyquistOK() {
		g.logger.Warn("sample rate below Nyquist limit, output will alias",
			logging.F("frequency_hz", p.FrequencyHz),
			logging.F("sample_rate_hz", p.SampleRateHz))
	}

	n := int(math.Round(p.DurationSec * p.SampleRateHz))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = fn(p, float64(i)/p.SampleRateHz)
	}
	return Signal{Samples: samples, SampleRate: p.SampleRateHz}, nil
}
