// Package telemetry publishes per-transmission link quality samples to
// pluggable sinks: stdout, an in-memory hub with a web front end, and
// Prometheus collectors.
package telemetry

import (
	"time"

	"github.com/orbiterzero/groundlink/internal/logging"
)

// Sample is one transmission's link quality snapshot.
type Sample struct {
	Timestamp    time.Time `json:"timestamp"`
	SNRdB        float64   `json:"snr_db"`
	BER          float64   `json:"ber"`
	ElevationDeg float64   `json:"elevation_deg"`
	PacketValid  bool      `json:"packet_valid"`
	MessageMatch bool      `json:"message_match"`
	Anomalies    int       `json:"anomalies"`
}

// Reporter receives telemetry samples.
type Reporter interface {
	Report(Sample)
}

// MultiReporter fans a sample out to several reporters.
type MultiReporter []Reporter

func (m MultiReporter) Report(sample Sample) {
	for _, r := range m {
		r.Report(sample)
	}
}

// StdoutReporter logs each sample through the structured logger.
type StdoutReporter struct {
	Logger logging.Logger
}

func (s StdoutReporter) Report(sample Sample) {
	logger := s.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger.Info("telemetry",
		logging.F("snr_db", sample.SNRdB),
		logging.F("ber", sample.BER),
		logging.F("elevation_deg", sample.ElevationDeg),
		logging.F("packet_valid", sample.PacketValid),
		logging.F("match", sample.MessageMatch),
		logging.F("anomalies", sample.Anomalies))
}
