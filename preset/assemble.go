// Package preset turns a fitted filter bank into equalizer settings and
// reads and writes them.
package preset

import (
	"math"

	"github.com/cwbudde/algo-eqfit/curve"
	"github.com/cwbudde/algo-eqfit/peq"
)

// Result is a finished equalizer: filters ordered by center, the preamp
// that keeps the corrected input at or below 0 dB, and the predicted
// corrected input curve.
type Result struct {
	Preamp    float64
	Bank      peq.Bank
	Predicted curve.Curve
}

// Assemble orders a copy of bank and derives preamp and prediction from
// the input measurement.
func Assemble(bank peq.Bank, input curve.Curve) (*Result, error) {
	sorted := bank.Clone()
	sorted.SortByCenter()
	preamp, err := Preamp(sorted, input)
	if err != nil {
		return nil, err
	}
	return &Result{
		Preamp:    preamp,
		Bank:      sorted,
		Predicted: Predict(sorted, input),
	}, nil
}

// Preamp returns min(0, -max boost of bank over the input frequencies).
// It is never positive.
func Preamp(bank peq.Bank, input curve.Curve) (float64, error) {
	if len(input) == 0 {
		return 0, curve.ErrInsufficientSamples
	}
	peak := math.Inf(-1)
	for _, p := range input {
		if r := bank.Response(p.Freq); r > peak {
			peak = r
		}
	}
	preamp := math.Min(0, -peak)
	if preamp == 0 {
		// Avoid printing "-0".
		preamp = 0
	}
	return preamp, nil
}

// Predict returns the input curve with the bank applied.
func Predict(bank peq.Bank, input curve.Curve) curve.Curve {
	out := make(curve.Curve, len(input))
	for i, p := range input {
		out[i] = curve.Point{Freq: p.Freq, Gain: p.Gain + bank.Response(p.Freq)}
	}
	return out
}

// EQ renders the result in equalizer text form.
func (r *Result) EQ() string {
	return Format(r.Preamp, r.Bank)
}
