// Package curve holds measured frequency responses and the sampling
// helpers the fitter builds its target from.
package curve

import "errors"

// NormFreq is the frequency every normalised curve reads 0 dB at.
const NormFreq = 400.0

var (
	// ErrInsufficientSamples is returned when a curve has too few points
	// for the requested operation.
	ErrInsufficientSamples = errors.New("curve: insufficient samples")
	// ErrDegenerateInterpolation is returned when the two points nearest to
	// the query frequency share the same frequency.
	ErrDegenerateInterpolation = errors.New("curve: degenerate interpolation")
)

// Point is one sample of a frequency response.
type Point struct {
	Freq float64 `json:"freq"`
	Gain float64 `json:"gain"`
}

// Curve is a sequence of samples. Order carries no meaning: lookups search
// by distance in frequency.
type Curve []Point

// Clone returns an independent copy of c.
func (c Curve) Clone() Curve {
	if c == nil {
		return nil
	}
	out := make(Curve, len(c))
	copy(out, c)
	return out
}

// Freqs returns the frequencies of c in order.
func (c Curve) Freqs() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.Freq
	}
	return out
}

// Gains returns the gains of c in order.
func (c Curve) Gains() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.Gain
	}
	return out
}
