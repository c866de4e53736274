package fit

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/algo-eqfit/internal/fitcommon"
	"github.com/cwbudde/algo-eqfit/peq"
)

// box is the per-parameter search window of one filter. Centers are kept
// in log2 space.
type box struct {
	lo, hi [3]float64
}

func refineBoxes(o Options, bank peq.Bank, dev Deviation) []box {
	lo2, hi2 := math.Log2(o.LowerFreq), math.Log2(o.UpperFreq)
	out := make([]box, len(bank))
	for i, f := range bank {
		c := math.Log2(f.Center)
		out[i] = box{
			lo: [3]float64{
				fitcommon.Clamp(c-dev[0], lo2, hi2),
				fitcommon.Clamp(f.Q-dev[1], o.MinQ, o.MaxQ),
				fitcommon.Clamp(f.Gain-dev[2], o.MinGain, o.MaxGain),
			},
			hi: [3]float64{
				fitcommon.Clamp(c+dev[0], lo2, hi2),
				fitcommon.Clamp(f.Q+dev[1], o.MinQ, o.MaxQ),
				fitcommon.Clamp(f.Gain+dev[2], o.MinGain, o.MaxGain),
			},
		}
	}
	return out
}

// fromNormalized maps a position in [0,1]^(3n) onto a bank inside boxes.
// Centers are clamped again after leaving log2 space since Exp2(Log2(x))
// may land a few ULP outside the bounds.
func fromNormalized(pos []float64, boxes []box, o Options) peq.Bank {
	bank := make(peq.Bank, len(boxes))
	for i, b := range boxes {
		var v [3]float64
		for k := 0; k < 3; k++ {
			p := fitcommon.Clamp(pos[3*i+k], 0, 1)
			v[k] = b.lo[k] + p*(b.hi[k]-b.lo[k])
		}
		bank[i] = peq.Filter{
			Center:     fitcommon.Clamp(math.Exp2(v[0]), o.LowerFreq, o.UpperFreq),
			Q:          v[1],
			Gain:       v[2],
			SampleRate: o.SampleRate,
		}
	}
	return bank
}

// refine runs a Mayfly search in a window of ±dev around best and returns
// the best bank it evaluated.
func (s *Search) refine(best peq.Bank, bestErr float64, dev Deviation, seed int64) (peq.Bank, float64, int64, error) {
	o := s.opts
	cfg, err := newMayflyConfig(o.RefinePop, 3*len(best), fitcommon.MaxInt(1, o.RefineEvals/(2*o.RefinePop)))
	if err != nil {
		return nil, 0, 0, err
	}
	cfg.Rand = rand.New(rand.NewSource(seed ^ 0x5eed))

	boxes := refineBoxes(o, best, dev)
	found, foundErr := best, bestErr
	var evals int64
	cfg.ObjectiveFunc = func(pos []float64) float64 {
		if evals >= int64(o.RefineEvals) {
			return foundErr + 1
		}
		evals++
		cand := fromNormalized(pos, boxes, o)
		e := Error(cand, s.diff)
		if e < foundErr {
			found, foundErr = cand, e
		}
		return e
	}
	if _, err := runMayfly(cfg); err != nil {
		return nil, 0, evals, err
	}
	return found, foundErr, evals, nil
}

func newMayflyConfig(pop int, dims int, iters int) (*mayfly.Config, error) {
	if pop < 2 || dims < 1 {
		return nil, fmt.Errorf("invalid mayfly size pop=%d dims=%d", pop, dims)
	}
	cfg := mayfly.NewDESMAConfig()
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = fitcommon.MaxInt(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}
