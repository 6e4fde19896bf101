package telemetry

import (
	"testing"
	"time"
)

func sampleAt(snr float64) Sample {
	return Sample{Timestamp: time.Now(), SNRdB: snr, PacketValid: true}
}

func TestHubHistoryLimit(t *testing.T) {
	hub := NewHub(3)
	for i := 0; i < 5; i++ {
		hub.Report(sampleAt(float64(i)))
	}
	history := hub.History()
	if len(history) != 3 {
		t.Fatalf("history holds %d samples, want 3", len(history))
	}
	if history[0].SNRdB != 2 || history[2].SNRdB != 4 {
		t.Fatalf("history kept the wrong window: %v", history)
	}
}

func TestHubSubscribe(t *testing.T) {
	hub := NewHub(10)
	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Report(sampleAt(7))
	select {
	case got := <-ch:
		if got.SNRdB != 7 {
			t.Fatalf("subscriber got SNR %.1f, want 7", got.SNRdB)
		}
	case <-time.After(time.Second):
		t.Fatalf("subscriber never received the sample")
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub(100)
	_, cancel := hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Nobody drains the channel; reports must still complete.
		for i := 0; i < 64; i++ {
			hub.Report(sampleAt(float64(i)))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("hub blocked on a slow subscriber")
	}
}

func TestMultiReporterFansOut(t *testing.T) {
	a, b := NewHub(10), NewHub(10)
	MultiReporter{a, b}.Report(sampleAt(1))
	if len(a.History()) != 1 || len(b.History()) != 1 {
		t.Fatalf("fan-out missed a reporter: %d, %d", len(a.History()), len(b.History()))
	}
}
