package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors for the simulation pipeline.
type Metrics struct {
	gatherer prometheus.Gatherer

	Transmissions    *prometheus.CounterVec
	PacketsCorrupted prometheus.Counter
	BitErrorRate     prometheus.Histogram
	SNR              prometheus.Histogram
	Anomalies        *prometheus.CounterVec
}

// NewMetrics registers pipeline metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	transmissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "groundlink_transmissions_total",
		Help: "Total simulated transmissions, labeled by packet validity.",
	}, []string{"result"})
	corrupted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "groundlink_packets_corrupted_total",
		Help: "Total packets that failed checksum validation.",
	})
	ber := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "groundlink_bit_error_rate",
		Help:    "Per-transmission bit error rate.",
		Buckets: []float64{0, 1e-4, 1e-3, 0.01, 0.05, 0.1, 0.25, 0.5},
	})
	snr := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "groundlink_snr_db",
		Help:    "Per-transmission channel SNR in dB.",
		Buckets: prometheus.LinearBuckets(-5, 5, 10),
	})
	anomalies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "groundlink_anomalies_total",
		Help: "Anomaly events recorded during simulation, labeled by kind.",
	}, []string{"kind"})

	for name, c := range map[string]prometheus.Collector{
		"groundlink_transmissions_total":    transmissions,
		"groundlink_packets_corrupted_total": corrupted,
		"groundlink_bit_error_rate":          ber,
		"groundlink_snr_db":                  snr,
		"groundlink_anomalies_total":         anomalies,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}

	return &Metrics{
		gatherer:         gatherer,
		Transmissions:    transmissions,
		PacketsCorrupted: corrupted,
		BitErrorRate:     ber,
		SNR:              snr,
		Anomalies:        anomalies,
	}, nil
}

// Report implements Reporter, feeding the sample into the collectors.
func (m *Metrics) Report(sample Sample) {
	if m == nil {
		return
	}
	result := "valid"
	if !sample.PacketValid {
		result = "corrupted"
		m.PacketsCorrupted.Inc()
	}
	m.Transmissions.WithLabelValues(result).Inc()
	m.BitErrorRate.Observe(sample.BER)
	m.SNR.Observe(sample.SNRdB)
}

// RecordAnomaly bumps the anomaly counter for kind.
func (m *Metrics) RecordAnomaly(kind string) {
	if m == nil {
		return
	}
	m.Anomalies.WithLabelValues(kind).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Metrics) Handler() http.Handler {
	gatherer := m.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
