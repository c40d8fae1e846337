package fluid

import (
	"math"

	"gonum.org/v1/gonum/blas/blas32"
)

// Diagnostics summarizes the state of the published field after a tick.
type Diagnostics struct {
	Energy           float64 // Σ|v|² over all cells
	DivergenceBefore float64 // Mean |div| of the advected field, before relaxation
	DivergenceAfter  float64 // Mean |div| of the published field
	PeakSpeed        float32
}

// ResidualRatio is DivergenceAfter / DivergenceBefore, or 0 for a still field.
func (d Diagnostics) ResidualRatio() float64 {
	if d.DivergenceBefore == 0 {
		return 0
	}
	return d.DivergenceAfter / d.DivergenceBefore
}

// KineticEnergy returns Σ|v|² of an interleaved velocity buffer.
func KineticEnergy(vel []float32) float64 {
	v := blas32.Vector{N: len(vel), Inc: 1, Data: vel}
	return float64(blas32.Dot(v, v))
}

// MeanAbs returns the mean absolute value of xs.
func MeanAbs(xs []float32) float64 {
	if len(xs) == 0 {
		return 0
	}
	v := blas32.Vector{N: len(xs), Inc: 1, Data: xs}
	return float64(blas32.Asum(v)) / float64(len(xs))
}

// PeakSpeed returns the largest cell speed in an interleaved velocity buffer.
func PeakSpeed(vel []float32) float32 {
	var peak2 float32
	for i := 0; i+1 < len(vel); i += 2 {
		s2 := vel[i]*vel[i] + vel[i+1]*vel[i+1]
		if s2 > peak2 {
			peak2 = s2
		}
	}
	return float32(math.Sqrt(float64(peak2)))
}
