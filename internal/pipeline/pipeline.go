// Package pipeline chains the simulation stages into complete
// transmissions: text to bits to packet to waveform, through the impaired
// channel, and back. Every stage consumes its input and produces a fresh
// value; the only side effect anywhere is the caller's archive write.
package pipeline

import (
	"math"
	mrand "math/rand"
	"time"
	"unicode/utf8"

	"golang.org/x/exp/rand"

	"github.com/orbiterzero/groundlink/internal/anomaly"
	"github.com/orbiterzero/groundlink/internal/archive"
	"github.com/orbiterzero/groundlink/internal/channel"
	"github.com/orbiterzero/groundlink/internal/fec"
	"github.com/orbiterzero/groundlink/internal/logging"
	"github.com/orbiterzero/groundlink/internal/modem"
	"github.com/orbiterzero/groundlink/internal/packet"
	"github.com/orbiterzero/groundlink/internal/telemetry"
	"github.com/orbiterzero/groundlink/internal/waveform"
)

// Thresholds for anomaly notes, matching the console's teaching defaults.
const (
	highBERThreshold  = 0.1
	lowSNRThresholdDB = 5.0
)

// CorruptSpec asks for deliberate byte-level damage to the received frame
// before validation, on top of whatever the channel already did.
type CorruptSpec struct {
	Mode   packet.CorruptionMode
	Amount float64
}

// Params configures one simulated transmission. A Params value is
// session-scoped: the caller builds it once and passes it into every run,
// never through global state.
type Params struct {
	Message           string
	CarrierFreqHz     float64
	SampleRateHz      float64
	SamplesPerSymbol  int
	SNRdB             float64
	DistanceKm        float64
	AtmosphericLossDB float64
	FEC               fec.Mode
	Fades             []channel.FadeEvent
	Corrupt           *CorruptSpec
	// Seed makes the run deterministic. Zero draws a time-based seed.
	Seed uint64
}

func (p Params) validate() error {
	if p.Message == "" {
		return &waveform.ConfigurationError{Param: "message", Reason: "must not be empty"}
	}
	if p.CarrierFreqHz <= 0 {
		return &waveform.ConfigurationError{Param: "carrier_freq_hz", Reason: "must be > 0"}
	}
	if p.SampleRateHz <= 0 {
		return &waveform.ConfigurationError{Param: "sample_rate_hz", Reason: "must be > 0"}
	}
	if p.SamplesPerSymbol < 1 {
		return &waveform.ConfigurationError{Param: "samples_per_symbol", Reason: "must be >= 1"}
	}
	if p.DistanceKm < 0 {
		return &waveform.ConfigurationError{Param: "distance_km", Reason: "must be >= 0"}
	}
	if p.AtmosphericLossDB < 0 {
		return &waveform.ConfigurationError{Param: "atmospheric_loss_db", Reason: "must be >= 0"}
	}
	return nil
}

// Result is the complete outcome of one simulated transmission. It stays
// valid in memory whether or not the caller manages to archive it.
type Result struct {
	MessageSent     string
	MessageReceived string
	Match           bool

	TxBits []int
	RxBits []int

	TxSignal waveform.Signal
	RxSignal waveform.Signal

	BitErrors     int
	BER           float64
	SNRTargetDB   float64
	SNRMeasuredDB float64
	RangeLossDB   float64

	PacketID         uint16
	PacketValid      bool
	PacketsTotal     int
	PacketsCorrupted int
	FECCorrected     int

	Anomalies []anomaly.Event
	Elapsed   time.Duration
}

// ArchiveRecord converts the result into a mission record ready for the
// archive, folding run parameters and anomalies into the metadata blob.
func (r Result) ArchiveRecord(p Params) archive.Record {
	corrupted := 0
	if !r.PacketValid {
		corrupted = 1
	}
	metadata := map[string]any{
		"distance_km":     p.DistanceKm,
		"carrier_freq_hz": p.CarrierFreqHz,
		"fec_mode":        p.FEC.String(),
		"range_loss_db":   r.RangeLossDB,
		"elapsed_sec":     r.Elapsed.Seconds(),
	}
	if len(r.Anomalies) > 0 {
		notes := make([]string, len(r.Anomalies))
		for i, ev := range r.Anomalies {
			notes[i] = ev.String()
		}
		metadata["anomalies"] = notes
	}
	return archive.Record{
		Timestamp:        time.Now(),
		MessageSent:      r.MessageSent,
		MessageReceived:  r.MessageReceived,
		BER:              r.BER,
		SNRdB:            r.SNRMeasuredDB,
		PacketsTotal:     r.PacketsTotal,
		PacketsCorrupted: corrupted,
		Metadata:         metadata,
	}
}

// Simulator runs transmissions through the full stage chain.
type Simulator struct {
	logger   logging.Logger
	reporter telemetry.Reporter
	metrics  *telemetry.Metrics
	nextID   uint16
}

// NewSimulator builds a Simulator. logger, reporter, and metrics may each
// be nil.
func NewSimulator(logger logging.Logger, reporter telemetry.Reporter, metrics *telemetry.Metrics) *Simulator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Simulator{logger: logger, reporter: reporter, metrics: metrics, nextID: 1}
}

// Simulate runs one complete transmission: packetize, protect, modulate,
// impair, demodulate, repair, validate. Corruption along the way is data,
// not an error; only invalid parameters abort the run.
func (s *Simulator) Simulate(p Params) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}
	start := time.Now()
	seed := p.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	detector := anomaly.New()

	res := Result{
		MessageSent:  p.Message,
		SNRTargetDB:  p.SNRdB,
		PacketsTotal: 1,
	}

	// Frame the message.
	res.PacketID = s.nextID
	s.nextID++
	frame, err := packet.Create([]byte(p.Message), res.PacketID, uint32(start.Unix()))
	if err != nil {
		return Result{}, err
	}

	// Protect and modulate.
	frameBits := modem.BytesToBits(frame)
	res.TxBits = fec.Encode(p.FEC, frameBits)
	carrier := modem.Carrier{
		FrequencyHz:      p.CarrierFreqHz,
		SampleRateHz:     p.SampleRateHz,
		SamplesPerSymbol: p.SamplesPerSymbol,
	}
	txSignal, err := modem.Modulate(modem.BitsToSymbols(res.TxBits), carrier)
	if err != nil {
		return Result{}, err
	}
	res.TxSignal = txSignal

	// Channel impairments.
	res.RangeLossDB = channel.RangeLossDB(p.DistanceKm)
	impaired := channel.ApplyRangeLoss(txSignal, p.DistanceKm)
	impaired = channel.ApplyAtmosphericLoss(impaired, p.AtmosphericLossDB)
	if len(p.Fades) > 0 {
		impaired = channel.ApplyFades(impaired, p.Fades)
		for _, f := range p.Fades {
			detector.Recordf(f.StartSec, anomaly.FadeDropout,
				"%.1f dB fade for %.2fs", f.SeverityDB, f.DurationSec)
		}
	}
	rxSignal, noise := channel.AddAWGN(impaired, p.SNRdB, rand.NewSource(seed))
	res.RxSignal = rxSignal
	res.SNRMeasuredDB = channel.MeasureSNR(impaired.Samples, noise)

	// Demodulate and repair.
	rxBits, err := modem.Demodulate(rxSignal, carrier)
	if err != nil {
		return Result{}, err
	}
	if len(rxBits) > len(res.TxBits) {
		rxBits = rxBits[:len(res.TxBits)]
	}
	res.RxBits = rxBits
	decoded := fec.Decode(p.FEC, rxBits)
	res.FECCorrected = decoded.Corrected

	rxFrame := modem.BitsToBytes(decoded.Bits)
	if len(rxFrame) > len(frame) {
		rxFrame = rxFrame[:len(frame)]
	}

	// Optional deliberate corruption of the received frame.
	if p.Corrupt != nil {
		rng := mrand.New(mrand.NewSource(int64(seed)))
		c := packet.Corrupt(rxFrame, p.Corrupt.Mode, p.Corrupt.Amount, rng)
		rxFrame = c.Frame
	}

	// Validate and extract the payload. A malformed or corrupt frame is
	// an ordinary outcome here.
	res.MessageReceived = "[UNRECOVERABLE]"
	if pkt, err := packet.Parse(rxFrame); err == nil {
		res.PacketValid = pkt.ChecksumOK
		res.MessageReceived = decodePayload(pkt.Payload)
	} else {
		res.PacketValid = false
		detector.Recordf(0, anomaly.DecodeFailure, "packet parse: %v", err)
	}
	if !res.PacketValid {
		res.PacketsCorrupted = 1
		detector.Record(0, anomaly.ChecksumFailure, "CRC validation failed")
	}
	res.Match = res.MessageSent == res.MessageReceived

	// Link quality metrics and anomaly notes.
	res.BitErrors = modem.BitErrors(res.TxBits, res.RxBits)
	res.BER = modem.BER(res.TxBits, res.RxBits)
	if res.BER > highBERThreshold {
		detector.Recordf(0, anomaly.HighBER, "BER %.4f above %.2f", res.BER, highBERThreshold)
	}
	if !math.IsInf(res.SNRMeasuredDB, 1) && res.SNRMeasuredDB < lowSNRThresholdDB {
		detector.Recordf(0, anomaly.LowSNR, "SNR %.1f dB below %.1f dB", res.SNRMeasuredDB, lowSNRThresholdDB)
	}
	res.Anomalies = detector.Events()
	res.Elapsed = time.Since(start)

	s.logger.Debug("transmission complete",
		logging.F("packet_id", res.PacketID),
		logging.F("ber", res.BER),
		logging.F("snr_db", res.SNRMeasuredDB),
		logging.F("packet_valid", res.PacketValid),
		logging.F("match", res.Match))
	s.report(res, 0)
	return res, nil
}

func (s *Simulator) report(res Result, elevation float64) {
	sample := telemetry.Sample{
		Timestamp:    time.Now(),
		SNRdB:        res.SNRMeasuredDB,
		BER:          res.BER,
		ElevationDeg: elevation,
		PacketValid:  res.PacketValid,
		MessageMatch: res.Match,
		Anomalies:    len(res.Anomalies),
	}
	if s.reporter != nil {
		s.reporter.Report(sample)
	}
	if s.metrics != nil {
		s.metrics.Report(sample)
		for _, ev := range res.Anomalies {
			s.metrics.RecordAnomaly(string(ev.Kind))
		}
	}
}

// decodePayload renders payload bytes as text, substituting the
// replacement character for invalid sequences so corrupted payloads stay
// displayable.
func decodePayload(payload []byte) string {
	if utf8.Valid(payload) {
		return string(payload)
	}
	// Round-tripping through []rune swaps invalid sequences for U+FFFD.
	return string([]rune(string(payload)))
}
