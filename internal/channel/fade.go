package channel

import (
	"math"
	"math/rand"
	"sort"

	"github.com/orbiterzero/groundlink/internal/waveform"
)

// FadeEvent is a scheduled, time-bounded attenuation: the signal loses
// SeverityDB of power over [StartSec, StartSec+DurationSec).
type FadeEvent struct {
	StartSec    float64
	DurationSec float64
	SeverityDB  float64
}

// EndSec returns the instant the fade stops applying.
func (f FadeEvent) EndSec() float64 { return f.StartSec + f.DurationSec }

// ActiveAt reports whether the fade covers time t. The interval is
// half-open: a fade is active at its start and inactive at its end.
func (f FadeEvent) ActiveAt(t float64) bool {
	return t >= f.StartSec && t < f.EndSec()
}

// ApplyFades attenuates each sample by every fade covering its timestamp.
// Overlapping fades compose additively in dB, so two fades of s1 and s2 dB
// act exactly like one fade of s1+s2 dB.
func ApplyFades(sig waveform.Signal, events []FadeEvent) waveform.Signal {
	out := sig.Clone()
	if len(events) == 0 || sig.SampleRate == 0 {
		return out
	}
	for i := range out.Samples {
		t := float64(i) / sig.SampleRate
		totalDB := 0.0
		for _, f := range events {
			if f.ActiveAt(t) {
				totalDB += f.SeverityDB
			}
		}
		if totalDB != 0 {
			out.Samples[i] *= math.Pow(10, -totalDB/20)
		}
	}
	return out
}

// FadeMask returns the linear attenuation factor applied at each sample,
// 1.0 where no fade is active. Useful for plotting fades against a signal.
func FadeMask(sig waveform.Signal, events []FadeEvent) []float64 {
	mask := make([]float64, len(sig.Samples))
	for i := range mask {
		mask[i] = 1
	}
	if sig.SampleRate == 0 {
		return mask
	}
	for i := range mask {
		t := float64(i) / sig.SampleRate
		for _, f := range events {
			if f.ActiveAt(t) {
				mask[i] *= math.Pow(10, -f.SeverityDB/20)
			}
		}
	}
	return mask
}

// FadeProfile selects how severe generated fades are.
type FadeProfile int

const (
	FadeShallow FadeProfile = iota
	FadeDeep
	FadeMixed
)

// ParseFadeProfile converts a string to a FadeProfile.
func ParseFadeProfile(s string) (FadeProfile, bool) {
	switch s {
	case "shallow":
		return FadeShallow, true
	case "deep":
		return FadeDeep, true
	case "mixed", "":
		return FadeMixed, true
	default:
		return FadeProfile(0), false
	}
}

// severityRangeDB maps a profile to its [min,max) severity range in dB.
// Shallow fades cost a couple of dB, deep fades can erase the signal.
func severityRangeDB(profile FadeProfile) (float64, float64) {
	switch profile {
	case FadeShallow:
		return 1, 3
	case FadeDeep:
		return 5, 13
	default:
		return 1, 10
	}
}

// GenerateFades produces a schedule of n random fade events across
// durationSec, sorted by start time. The schedule is data, not behavior:
// apply it separately with ApplyFades. Deterministic for a seeded rng.
func GenerateFades(durationSec float64, n int, profile FadeProfile, rng *rand.Rand) []FadeEvent {
	if durationSec <= 0 || n <= 0 {
		return nil
	}
	minDB, maxDB := severityRangeDB(profile)
	events := make([]FadeEvent, 0, n)
	for i := 0; i < n; i++ {
		start := rng.Float64() * durationSec
		dur := 0.05*durationSec + rng.Float64()*0.15*durationSec
		if start+dur > durationSec {
			dur = durationSec - start
		}
		events = append(events, FadeEvent{
			StartSec:    start,
			DurationSec: dur,
			SeverityDB:  minDB + rng.Float64()*(maxDB-minDB),
		})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartSec < events[j].StartSec })
	return events
}
