package anomaly

import (
	"strings"
	"testing"
)

func TestDetectorRecordsInOrder(t *testing.T) {
	d := New()
	if d.Count() != 0 {
		t.Fatalf("fresh detector has %d events", d.Count())
	}
	d.Record(0, LowSNR, "SNR 2.1 dB below 5.0 dB")
	d.Recordf(12.5, FadeDropout, "%.1f dB fade", 8.0)

	events := d.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != LowSNR || events[1].Kind != FadeDropout {
		t.Fatalf("events out of order: %v", events)
	}
	if events[1].Detail != "8.0 dB fade" {
		t.Fatalf("formatted detail %q", events[1].Detail)
	}
	if !strings.Contains(events[1].String(), "fade_dropout") {
		t.Fatalf("event string %q should name the kind", events[1].String())
	}
}

func TestEventsReturnsCopy(t *testing.T) {
	d := New()
	d.Record(0, HighBER, "x")
	events := d.Events()
	events[0].Detail = "mutated"
	if d.Events()[0].Detail != "x" {
		t.Fatalf("Events leaked internal state")
	}
}
