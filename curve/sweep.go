package curve

import (
	"fmt"
	"math"
)

// SweepOptions describes the geometric frequency grid the difference curve
// is sampled on.
type SweepOptions struct {
	Lower     float64
	Upper     float64
	Knee      float64 // below Knee LowRatio applies, HighRatio above
	LowRatio  float64
	HighRatio float64
}

// DefaultSweepOptions returns the 20 Hz .. 18 kHz grid, 10% steps below
// 2 kHz and 5% steps above.
func DefaultSweepOptions() SweepOptions {
	return SweepOptions{
		Lower:     20,
		Upper:     18000,
		Knee:      2000,
		LowRatio:  1.10,
		HighRatio: 1.05,
	}
}

// Validate reports whether the sweep terminates and is strictly increasing.
func (o SweepOptions) Validate() error {
	if !(o.Lower > 0) || !(o.Upper >= o.Lower) {
		return fmt.Errorf("sweep: invalid bounds [%g, %g]", o.Lower, o.Upper)
	}
	if !(o.LowRatio > 1) || !(o.HighRatio > 1) {
		return fmt.Errorf("sweep: ratios must be > 1 (got %g, %g)", o.LowRatio, o.HighRatio)
	}
	return nil
}

// Sweep returns the grid frequencies from Lower up to Upper inclusive. Each
// step multiplies by the ratio for the current band and rounds up to a
// whole Hz.
func Sweep(o SweepOptions) []float64 {
	var out []float64
	for f := o.Lower; f <= o.Upper; {
		out = append(out, f)
		if f < o.Knee {
			f *= o.LowRatio
		} else {
			f *= o.HighRatio
		}
		f = math.Ceil(f)
	}
	return out
}

// DifferenceAt returns the correction in dB that turns input into output
// at freq.
func DifferenceAt(input, output Curve, freq float64) (float64, error) {
	out, err := Interpolate(output, freq)
	if err != nil {
		return 0, fmt.Errorf("output curve at %g Hz: %w", freq, err)
	}
	in, err := Interpolate(input, freq)
	if err != nil {
		return 0, fmt.Errorf("input curve at %g Hz: %w", freq, err)
	}
	return out - in, nil
}

// Difference samples DifferenceAt over Sweep(o).
func Difference(input, output Curve, o SweepOptions) (Curve, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	freqs := Sweep(o)
	out := make(Curve, 0, len(freqs))
	for _, f := range freqs {
		g, err := DifferenceAt(input, output, f)
		if err != nil {
			return nil, err
		}
		out = append(out, Point{Freq: f, Gain: g})
	}
	return out, nil
}
