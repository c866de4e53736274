package fit

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-eqfit/curve"
	"github.com/cwbudde/algo-eqfit/internal/fitcommon"
	"github.com/cwbudde/algo-eqfit/peq"
)

// Error is the summed absolute deviation, in dB, between the bank's
// response and the difference curve.
func Error(bank peq.Bank, diff curve.Curve) float64 {
	var res float64
	for _, p := range diff {
		var s float64
		for _, f := range bank {
			s += peq.Response(p.Freq, f)
		}
		res += math.Abs(s - p.Gain)
	}
	return res
}

// Annealer runs coordinate-wise simulated annealing of a bank against one
// difference curve. It keeps one response row per filter so a parameter
// change only re-evaluates that filter. An Annealer is not safe for
// concurrent use; every worker owns one.
type Annealer struct {
	opts   Options
	diff   curve.Curve
	probes []peq.Probe
	rng    *rand.Rand

	rows    [][]float64
	scratch []float64
	evals   int64
}

// NewAnnealer prepares an annealer. All filters passed to Run must use
// opts.SampleRate.
func NewAnnealer(opts Options, diff curve.Curve, rng *rand.Rand) *Annealer {
	probes := make([]peq.Probe, len(diff))
	for i, p := range diff {
		probes[i] = peq.NewProbe(p.Freq, opts.SampleRate)
	}
	return &Annealer{
		opts:    opts,
		diff:    diff,
		probes:  probes,
		rng:     rng,
		scratch: make([]float64, len(diff)),
	}
}

// Evaluations returns how many error evaluations the annealer has made.
func (a *Annealer) Evaluations() int64 { return a.evals }

// Run anneals a copy of start for iters iterations with mutation scale dev
// and returns the final state. The temperature falls linearly from just
// under 1 to 0.
func (a *Annealer) Run(start peq.Bank, dev Deviation, iters int) peq.Bank {
	bank := start.Clone()
	if iters <= 0 || len(bank) == 0 {
		return bank
	}
	a.load(bank)
	last := a.total()

	o := a.opts
	for iter := 0; iter < iters; iter++ {
		temp := 1 - float64(iter+1)/float64(iters)
		for i := range bank {
			orig := bank[i]
			cand := peq.Filter{
				Center:     fitcommon.Clamp(math.Exp2(math.Log2(orig.Center)+a.uniform(dev[0])), o.LowerFreq, o.UpperFreq),
				Q:          fitcommon.Clamp(orig.Q+a.uniform(dev[1]), o.MinQ, o.MaxQ),
				Gain:       fitcommon.Clamp(orig.Gain+a.uniform(dev[2]), o.MinGain, o.MaxGain),
				SampleRate: orig.SampleRate,
			}
			for param := 0; param < 3; param++ {
				prev := bank[i]
				switch param {
				case 0:
					bank[i].Center = cand.Center
				case 1:
					bank[i].Q = cand.Q
				case 2:
					bank[i].Gain = cand.Gain
				}
				a.swapRow(i, bank[i])
				next := a.total()
				if a.accept(last, next, temp) {
					last = next
					continue
				}
				bank[i] = prev
				a.rows[i], a.scratch = a.scratch, a.rows[i]
			}
		}
	}
	return bank
}

func (a *Annealer) uniform(maximum float64) float64 {
	return (a.rng.Float64()*2 - 1) * maximum
}

// accept applies the Metropolis rule. At zero temperature an equal error
// gives 0/0; the NaN probability counts as a rejection.
func (a *Annealer) accept(last, next, temp float64) bool {
	prob := math.Exp((last - next) / temp)
	if math.IsNaN(prob) {
		prob = 0
	}
	return last > next || a.rng.Float64() < prob
}

func (a *Annealer) load(bank peq.Bank) {
	if cap(a.rows) < len(bank) {
		a.rows = make([][]float64, len(bank))
	}
	a.rows = a.rows[:len(bank)]
	for i, f := range bank {
		if len(a.rows[i]) != len(a.probes) {
			a.rows[i] = make([]float64, len(a.probes))
		}
		fillRow(a.rows[i], f, a.probes)
	}
}

// swapRow evaluates f into the scratch row and makes it row i. The old row
// is left in scratch so a rejection can swap it back.
func (a *Annealer) swapRow(i int, f peq.Filter) {
	fillRow(a.scratch, f, a.probes)
	a.rows[i], a.scratch = a.scratch, a.rows[i]
}

func fillRow(dst []float64, f peq.Filter, probes []peq.Probe) {
	for j, p := range probes {
		dst[j] = f.ResponseAt(p)
	}
}

// total is Error over the cached rows, summed in the same order.
func (a *Annealer) total() float64 {
	a.evals++
	var res float64
	for j, p := range a.diff {
		var s float64
		for _, row := range a.rows {
			s += row[j]
		}
		res += math.Abs(s - p.Gain)
	}
	return res
}
