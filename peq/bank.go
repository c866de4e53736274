package peq

import (
	"math"
	"sort"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
)

// Bank is an ordered set of peaking filters applied in series. Its
// magnitude response in dB is the sum of the members' responses.
type Bank []Filter

// NewBank returns n copies of seed.
func NewBank(n int, seed Filter) Bank {
	b := make(Bank, n)
	for i := range b {
		b[i] = seed
	}
	return b
}

// Clone returns an independent copy of b.
func (b Bank) Clone() Bank {
	if b == nil {
		return nil
	}
	out := make(Bank, len(b))
	copy(out, b)
	return out
}

// Response returns the summed magnitude response of the bank in dB at freq.
func (b Bank) Response(freq float64) float64 {
	var sum float64
	for _, f := range b {
		sum += Response(freq, f)
	}
	return sum
}

// SortByCenter orders the bank by ascending center frequency in place.
func (b Bank) SortByCenter() {
	sort.SliceStable(b, func(i, j int) bool { return b[i].Center < b[j].Center })
}

// Chain builds a biquad cascade realizing the bank, preceded by a flat
// gain of preampDB.
func (b Bank) Chain(preampDB float64) *biquad.Chain {
	coeffs := make([]biquad.Coefficients, len(b))
	for i, f := range b {
		coeffs[i] = f.Coefficients()
	}
	return biquad.NewChain(coeffs, biquad.WithGain(math.Pow(10, preampDB/20)))
}
