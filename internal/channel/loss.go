package channel

import (
	"math"

	"github.com/orbiterzero/groundlink/internal/waveform"
)

// referenceDistanceKm anchors the range loss curve. At or below the
// reference distance the transform is the identity.
const referenceDistanceKm = 1.0

// RangeLossDB returns the free-space-derived power loss in dB for the
// given distance: 20*log10(d/d0) with a 1 km reference, the inverse-square
// spreading law. Distances at or below the reference lose nothing.
func RangeLossDB(distanceKm float64) float64 {
	if distanceKm <= referenceDistanceKm {
		return 0
	}
	return 20 * math.Log10(distanceKm/referenceDistanceKm)
}

// ApplyRangeLoss attenuates the signal by the range loss for distanceKm.
// distanceKm = 0 is the identity transform.
func ApplyRangeLoss(sig waveform.Signal, distanceKm float64) waveform.Signal {
	return attenuate(sig, RangeLossDB(distanceKm))
}

// ApplyAtmosphericLoss applies a flat scalar attenuation of lossDB.
func ApplyAtmosphericLoss(sig waveform.Signal, lossDB float64) waveform.Signal {
	return attenuate(sig, lossDB)
}

// attenuate scales every sample by the amplitude factor for a power loss
// of lossDB: 10^(-loss/20).
func attenuate(sig waveform.Signal, lossDB float64) waveform.Signal {
	out := sig.Clone()
	if lossDB == 0 {
		return out
	}
	factor := math.Pow(10, -lossDB/20)
	for i := range out.Samples {
		out.Samples[i] *= factor
	}
	return out
}
