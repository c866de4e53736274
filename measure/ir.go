// Package measure derives frequency-response curves from recorded impulse
// responses.
package measure

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-eqfit/curve"
	"github.com/cwbudde/algo-eqfit/internal/fitcommon"
)

const (
	// MaxFFTSize bounds the transform length; longer responses are truncated.
	MaxFFTSize = 1 << 18
	// MinFFTSize keeps low bands resolvable for very short responses.
	MinFFTSize = 1 << 12

	BandsPerOctave = 24
	LowestBand     = 20.0
	HighestBand    = 20000.0
)

var (
	ErrEmptyResponse = errors.New("measure: empty impulse response")
	ErrBadSampleRate = errors.New("measure: sample rate must be > 0")
)

// FFTSize returns the power-of-two transform length used for n samples.
func FFTSize(n int) int {
	size := MinFFTSize
	for size < n && size < MaxFFTSize {
		size <<= 1
	}
	return size
}

// BandCenters returns the 1/24-octave centers from LowestBand up to
// min(HighestBand, 0.45*sampleRate).
func BandCenters(sampleRate int) []float64 {
	hi := math.Min(HighestBand, 0.45*float64(sampleRate))
	var out []float64
	for k := 0; ; k++ {
		f := LowestBand * math.Exp2(float64(k)/BandsPerOctave)
		if f > hi {
			break
		}
		out = append(out, f)
	}
	return out
}

// FromImpulseResponse returns the magnitude response of an impulse response
// in dB, averaged over 1/24-octave bands.
func FromImpulseResponse(samples []float64, sampleRate int) (curve.Curve, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyResponse
	}
	if sampleRate <= 0 {
		return nil, ErrBadSampleRate
	}

	n := FFTSize(len(samples))
	buf := make([]float64, n)
	copy(buf, samples)
	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}
	spec := make([]complex128, n/2+1)
	plan.Forward(spec, buf)

	power := make([]float64, len(spec))
	for k, c := range spec {
		a := cmplx.Abs(c)
		power[k] = a * a
	}

	binHz := float64(sampleRate) / float64(n)
	half := math.Exp2(1.0 / (2 * BandsPerOctave))
	centers := BandCenters(sampleRate)
	out := make(curve.Curve, 0, len(centers))
	for _, f := range centers {
		lo := int(math.Ceil(f / half / binHz))
		hi := int(math.Floor(f * half / binHz))
		if hi >= len(power) {
			hi = len(power) - 1
		}
		var sum float64
		cnt := 0
		for k := fitcommon.MaxInt(lo, 1); k <= hi; k++ {
			sum += power[k]
			cnt++
		}
		var p float64
		if cnt > 0 {
			p = sum / float64(cnt)
		} else {
			// Band narrower than one bin.
			k := int(math.Round(f / binHz))
			if k >= len(power) {
				k = len(power) - 1
			}
			p = power[k]
		}
		out = append(out, curve.Point{Freq: f, Gain: 10 * math.Log10(math.Max(p, 1e-24))})
	}
	return out, nil
}

// ReadImpulseResponse loads a WAV impulse response and converts it with
// FromImpulseResponse.
func ReadImpulseResponse(path string) (curve.Curve, error) {
	samples, sr, err := fitcommon.ReadWAVMono(path)
	if err != nil {
		return nil, fmt.Errorf("read impulse response %s: %w", path, err)
	}
	c, err := FromImpulseResponse(samples, sr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
