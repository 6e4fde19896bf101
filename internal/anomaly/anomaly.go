// Package anomaly records notable link events alongside a simulation run
// so the archive and console can explain why a transmission degraded.
package anomaly

import "fmt"

// Kind classifies an anomaly.
type Kind string

const (
	ChecksumFailure Kind = "checksum_failure"
	HighBER         Kind = "high_ber"
	LowSNR          Kind = "low_snr"
	FadeDropout     Kind = "fade_dropout"
	DecodeFailure   Kind = "decode_failure"
)

// Event is one recorded anomaly, stamped with the offset into the run.
type Event struct {
	OffsetSec float64 `json:"offset_sec"`
	Kind      Kind    `json:"kind"`
	Detail    string  `json:"detail"`
}

func (e Event) String() string {
	return fmt.Sprintf("%.2fs %s: %s", e.OffsetSec, e.Kind, e.Detail)
}

// Detector accumulates events for one run. It is plain state, not shared
// between runs: each simulation allocates a fresh one.
type Detector struct {
	events []Event
}

// New returns an empty Detector.
func New() *Detector { return &Detector{} }

// Record appends an event.
func (d *Detector) Record(offsetSec float64, kind Kind, detail string) {
	d.events = append(d.events, Event{OffsetSec: offsetSec, Kind: kind, Detail: detail})
}

// Recordf appends an event with a formatted detail string.
func (d *Detector) Recordf(offsetSec float64, kind Kind, format string, args ...any) {
	d.Record(offsetSec, kind, fmt.Sprintf(format, args...))
}

// Events returns a copy of the recorded events in insertion order.
func (d *Detector) Events() []Event {
	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}

// Count returns the number of recorded events.
func (d *Detector) Count() int { return len(d.events) }
