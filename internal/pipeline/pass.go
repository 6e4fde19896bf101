package pipeline

import (
	"time"

	"github.com/orbiterzero/groundlink/internal/archive"
	"github.com/orbiterzero/groundlink/internal/logging"
	"github.com/orbiterzero/groundlink/internal/pass"
)

// PassParams configures a full-pass simulation on top of the per-run
// Params: the overflight geometry and the SNR range it sweeps through.
type PassParams struct {
	Pass          pass.Pass
	MinSNRdB      float64
	MaxSNRdB      float64
	Transmissions int
}

// PassResult aggregates the transmissions attempted across one pass.
type PassResult struct {
	Points        []pass.Point
	Transmissions []Result

	AverageBER       float64
	AverageSNRdB     float64
	PacketsTotal     int
	PacketsCorrupted int
	Delivered        int
}

// ArchiveRecord folds the pass into a single mission record, the per-point
// outcomes summarized into the metadata blob.
func (r PassResult) ArchiveRecord(p Params, pp PassParams) archive.Record {
	sent, received := "", ""
	if len(r.Transmissions) > 0 {
		sent = r.Transmissions[0].MessageSent
		received = r.Transmissions[len(r.Transmissions)-1].MessageReceived
	}
	elevations := make([]float64, len(r.Points))
	for i, pt := range r.Points {
		elevations[i] = pt.Elevation
	}
	return archive.Record{
		Timestamp:        time.Now(),
		MessageSent:      sent,
		MessageReceived:  received,
		BER:              r.AverageBER,
		SNRdB:            r.AverageSNRdB,
		PacketsTotal:     r.PacketsTotal,
		PacketsCorrupted: r.PacketsCorrupted,
		Metadata: map[string]any{
			"kind":              "pass",
			"max_elevation_deg": pp.Pass.MaxElevation,
			"duration_sec":      pp.Pass.Duration.Seconds(),
			"transmissions":     len(r.Transmissions),
			"delivered":         r.Delivered,
			"elevation_profile": elevations,
		},
	}
}

// SimulatePass samples the pass timeline and runs one transmission at each
// point, with SNR and slant range tracking elevation. Transmissions that
// arrive corrupted count toward the aggregate; they never abort the pass.
func (s *Simulator) SimulatePass(p Params, pp PassParams) (PassResult, error) {
	if err := pp.Pass.Validate(); err != nil {
		return PassResult{}, err
	}
	n := pp.Transmissions
	if n <= 0 {
		n = 10
	}
	baseSeed := p.Seed
	if baseSeed == 0 {
		baseSeed = uint64(time.Now().UnixNano())
	}

	res := PassResult{Points: pp.Pass.Sample(n, pp.MinSNRdB, pp.MaxSNRdB)}
	var sumBER, sumSNR float64
	for i, pt := range res.Points {
		run := p
		run.SNRdB = pt.SNRdB
		run.DistanceKm = pt.DistanceKm
		run.Seed = baseSeed + uint64(i)

		tx, err := s.Simulate(run)
		if err != nil {
			return PassResult{}, err
		}
		s.logger.Info("pass transmission",
			logging.F("offset_sec", pt.Offset.Seconds()),
			logging.F("elevation_deg", pt.Elevation),
			logging.F("snr_db", pt.SNRdB),
			logging.F("packet_valid", tx.PacketValid))

		res.Transmissions = append(res.Transmissions, tx)
		res.PacketsTotal += tx.PacketsTotal
		res.PacketsCorrupted += tx.PacketsCorrupted
		if tx.Match {
			res.Delivered++
		}
		sumBER += tx.BER
		sumSNR += tx.SNRMeasuredDB
	}
	if len(res.Transmissions) > 0 {
		res.AverageBER = sumBER / float64(len(res.Transmissions))
		res.AverageSNRdB = sumSNR / float64(len(res.Transmissions))
	}
	return res, nil
}
