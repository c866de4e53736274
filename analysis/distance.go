package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-eqfit/curve"
	"github.com/cwbudde/algo-eqfit/peq"
)

// Score weights; the score saturates at these deviations.
const (
	fullScaleMeanDB = 6.0
	fullScaleMaxDB  = 20.0
	WeightMean      = 0.7
	WeightMax       = 0.3
)

// Metrics describes how well a filter bank approximates a target curve.
// Residuals are bank response minus target, in dB.
type Metrics struct {
	Samples int `json:"samples"`

	SumAbsDB   float64 `json:"sum_abs_db"`
	MeanAbsDB  float64 `json:"mean_abs_db"`
	RMSEDB     float64 `json:"rmse_db"`
	MaxAbsDB   float64 `json:"max_abs_db"`
	MaxAbsFreq float64 `json:"max_abs_freq"`
	BiasDB     float64 `json:"bias_db"`
	StdDevDB   float64 `json:"stddev_db"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Residual returns bank.Response(f) - gain for every target point.
func Residual(target curve.Curve, bank peq.Bank) []float64 {
	out := make([]float64, len(target))
	for i, p := range target {
		out[i] = bank.Response(p.Freq) - p.Gain
	}
	return out
}

// Compare returns residual statistics and a combined score in [0,1]
// (0 best). SumAbsDB equals the fitter's error function.
func Compare(target curve.Curve, bank peq.Bank) Metrics {
	m := Metrics{Samples: len(target)}
	if len(target) == 0 {
		m.Score = 1
		return m
	}
	res := Residual(target, bank)
	abs := make([]float64, len(res))
	for i, r := range res {
		abs[i] = math.Abs(r)
	}

	m.SumAbsDB = floats.Norm(res, 1)
	if !isFinite(m.SumAbsDB) {
		m.Score = 1
		return m
	}
	m.MeanAbsDB = m.SumAbsDB / float64(len(res))
	m.RMSEDB = floats.Norm(res, 2) / math.Sqrt(float64(len(res)))
	idx := floats.MaxIdx(abs)
	m.MaxAbsDB = abs[idx]
	m.MaxAbsFreq = target[idx].Freq
	if len(res) > 1 {
		m.BiasDB, m.StdDevDB = stat.MeanStdDev(res, nil)
	} else {
		m.BiasDB = res[0]
	}

	meanNorm := clamp01(m.MeanAbsDB / fullScaleMeanDB)
	maxNorm := clamp01(m.MaxAbsDB / fullScaleMaxDB)
	m.Score = clamp01(WeightMean*meanNorm + WeightMax*maxNorm)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))
	return m
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
