// Package fit searches for peaking-filter banks that approximate a
// difference curve, using parallel rounds of simulated annealing.
package fit

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-eqfit/internal/fitcommon"
	"github.com/cwbudde/algo-eqfit/peq"
)

// Deviation holds the mutation scale per filter parameter: center in
// octaves, Q, and gain in dB.
type Deviation [3]float64

// Scale returns d with every component multiplied by k.
func (d Deviation) Scale(k float64) Deviation {
	return Deviation{d[0] * k, d[1] * k, d[2] * k}
}

// Options configures a search. It is built once and not modified while a
// search runs.
type Options struct {
	FilterCount int `json:"filters"`
	Iterations  int `json:"iterations"` // annealing iterations per worker and round
	Workers     int `json:"workers"`    // 0 uses GOMAXPROCS
	Rounds      int `json:"rounds"`

	Deviation         Deviation `json:"deviation"`
	DeviationDecay    float64   `json:"deviation_decay"`      // applied to Deviation after every round that misses the target
	MinErrorPerSample float64   `json:"min_error_per_sample"` // target error is this times the difference-curve length

	LowerFreq  float64 `json:"lower_freq"`
	UpperFreq  float64 `json:"upper_freq"`
	MinQ       float64 `json:"min_q"`
	MaxQ       float64 `json:"max_q"`
	MinGain    float64 `json:"min_gain"`
	MaxGain    float64 `json:"max_gain"`
	SampleRate float64 `json:"sample_rate"`

	InitialCenter float64 `json:"initial_center"`
	InitialQ      float64 `json:"initial_q"`
	InitialGain   float64 `json:"initial_gain"`

	// Seed 0 derives a seed from the clock.
	Seed int64 `json:"seed"`

	// RefineEvals > 0 runs a Mayfly polish around the final bank.
	RefineEvals int `json:"refine_evals"`
	RefinePop   int `json:"refine_pop"`
}

// DefaultOptions returns the stock configuration: 20 filters, 6 workers of
// 1000 iterations, one round.
func DefaultOptions() Options {
	return Options{
		FilterCount:       20,
		Iterations:        1000,
		Workers:           6,
		Rounds:            1,
		Deviation:         Deviation{1, 1, 1},
		DeviationDecay:    0.8,
		MinErrorPerSample: 0.2,
		LowerFreq:         20,
		UpperFreq:         18000,
		MinQ:              0.1,
		MaxQ:              5,
		MinGain:           -100,
		MaxGain:           100,
		SampleRate:        peq.DefaultSampleRate,
		InitialCenter:     2000,
		InitialQ:          1,
		InitialGain:       1,
		RefinePop:         10,
	}
}

// Validate checks that the options describe a runnable search.
func (o Options) Validate() error {
	var errs []error
	if o.FilterCount < 1 {
		errs = append(errs, fmt.Errorf("filter count must be >= 1 (got %d)", o.FilterCount))
	}
	if o.Iterations < 1 {
		errs = append(errs, fmt.Errorf("iterations must be >= 1 (got %d)", o.Iterations))
	}
	if o.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0 (got %d)", o.Workers))
	}
	if o.Rounds < 1 {
		errs = append(errs, fmt.Errorf("rounds must be >= 1 (got %d)", o.Rounds))
	}
	for i, d := range o.Deviation {
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			errs = append(errs, fmt.Errorf("deviation[%d] must be finite and >= 0 (got %g)", i, d))
		}
	}
	if !(o.DeviationDecay > 0 && o.DeviationDecay <= 1) {
		errs = append(errs, fmt.Errorf("deviation decay must be in (0, 1] (got %g)", o.DeviationDecay))
	}
	if o.MinErrorPerSample < 0 {
		errs = append(errs, fmt.Errorf("min error per sample must be >= 0 (got %g)", o.MinErrorPerSample))
	}
	if !(o.LowerFreq > 0 && o.UpperFreq >= o.LowerFreq) {
		errs = append(errs, fmt.Errorf("frequency bounds invalid [%g, %g]", o.LowerFreq, o.UpperFreq))
	}
	if !(o.MinQ > 0 && o.MaxQ >= o.MinQ) {
		errs = append(errs, fmt.Errorf("Q bounds invalid [%g, %g]", o.MinQ, o.MaxQ))
	}
	if !(o.MaxGain >= o.MinGain) {
		errs = append(errs, fmt.Errorf("gain bounds invalid [%g, %g]", o.MinGain, o.MaxGain))
	}
	if !(o.SampleRate > 0) {
		errs = append(errs, fmt.Errorf("sample rate must be > 0 (got %g)", o.SampleRate))
	}
	if o.RefineEvals < 0 {
		errs = append(errs, fmt.Errorf("refine evals must be >= 0 (got %d)", o.RefineEvals))
	}
	if o.RefineEvals > 0 && o.RefinePop < 2 {
		errs = append(errs, fmt.Errorf("refine population must be >= 2 (got %d)", o.RefinePop))
	}
	return errors.Join(errs...)
}

// ClampFilter forces f inside the configured bounds and onto the configured
// sample rate.
func (o Options) ClampFilter(f peq.Filter) peq.Filter {
	return peq.Filter{
		Center:     fitcommon.Clamp(f.Center, o.LowerFreq, o.UpperFreq),
		Q:          fitcommon.Clamp(f.Q, o.MinQ, o.MaxQ),
		Gain:       fitcommon.Clamp(f.Gain, o.MinGain, o.MaxGain),
		SampleRate: o.SampleRate,
	}
}

// InitialBank returns FilterCount copies of the initial filter.
func (o Options) InitialBank() peq.Bank {
	seed := o.ClampFilter(peq.Filter{Center: o.InitialCenter, Q: o.InitialQ, Gain: o.InitialGain})
	return peq.NewBank(o.FilterCount, seed)
}
