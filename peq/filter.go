package peq

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// DefaultSampleRate is the sample rate peaking filters are designed at.
const DefaultSampleRate = 44100.0

// Filter is one RBJ peaking EQ section.
type Filter struct {
	Center     float64 `json:"fc"`
	Q          float64 `json:"q"`
	Gain       float64 `json:"gain"`
	SampleRate float64 `json:"sample_rate"`
}

// NewFilter returns a peaking filter at DefaultSampleRate.
func NewFilter(center, q, gain float64) Filter {
	return Filter{Center: center, Q: q, Gain: gain, SampleRate: DefaultSampleRate}
}

// Probe holds the trigonometric terms of e^{-jw} for one frequency so the
// response of many filters can be evaluated there without recomputing them.
type Probe struct {
	Freq       float64
	SampleRate float64

	cosW, sinW   float64
	cos2W, sin2W float64
}

// NewProbe precomputes the evaluation terms for freq at sampleRate.
func NewProbe(freq, sampleRate float64) Probe {
	w := 2 * math.Pi * freq / sampleRate
	return Probe{
		Freq:       freq,
		SampleRate: sampleRate,
		cosW:       math.Cos(w),
		sinW:       math.Sin(w),
		cos2W:      math.Cos(2 * w),
		sin2W:      math.Sin(2 * w),
	}
}

// Response returns the magnitude response of f in dB at freq.
//
// Q == 0 or SampleRate == 0 yield NaN/Inf; callers keep filters inside
// their configured bounds.
func Response(freq float64, f Filter) float64 {
	return f.ResponseAt(NewProbe(freq, f.SampleRate))
}

// ResponseAt evaluates the magnitude response in dB at a precomputed probe.
// The probe must have been built with the filter's sample rate.
func (f Filter) ResponseAt(p Probe) float64 {
	a := math.Pow(10, f.Gain/40)
	w0 := 2 * math.Pi * f.Center / f.SampleRate
	alpha := math.Sin(w0) / (2 * f.Q)
	cw0 := math.Cos(w0)

	b0 := 1 + alpha*a
	b1 := -2 * cw0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cw0
	a2 := 1 - alpha/a

	numRe := b0 + b1*p.cosW + b2*p.cos2W
	numIm := -b1*p.sinW - b2*p.sin2W
	denRe := a0 + a1*p.cosW + a2*p.cos2W
	denIm := -a1*p.sinW - a2*p.sin2W

	num := math.Sqrt(numRe*numRe + numIm*numIm)
	den := math.Sqrt(denRe*denRe + denIm*denIm)
	return 20 * math.Log10(num/den)
}

// Coefficients returns the a0-normalized biquad coefficients of f.
func (f Filter) Coefficients() biquad.Coefficients {
	return design.Peak(f.Center, f.Gain, f.Q, f.SampleRate)
}
