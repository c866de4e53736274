package peq

import (
	"math"
	"testing"
)

func TestResponseMatchesDesignPeak(t *testing.T) {
	filters := []Filter{
		NewFilter(1000, 1, 6),
		NewFilter(80, 0.7, -9),
		NewFilter(12000, 4.5, 3),
		NewFilter(2000, 0.1, -30),
	}
	freqs := []float64{20, 63, 400, 1000, 2500, 9000, 18000}
	for _, f := range filters {
		c := f.Coefficients()
		for _, freq := range freqs {
			got := Response(freq, f)
			want := c.MagnitudeDB(freq, f.SampleRate)
			if math.Abs(got-want) > 1e-9 {
				t.Fatalf("Response(%g, %+v) = %.12f, design.Peak = %.12f", freq, f, got, want)
			}
		}
	}
}

func TestResponseAtCenterEqualsGainForLargeQ(t *testing.T) {
	for _, g := range []float64{-12, -3, 0.5, 6, 20} {
		for _, q := range []float64{1, 10, 100, 1000} {
			f := NewFilter(3000, q, g)
			if got := Response(f.Center, f); math.Abs(got-g) > 1e-6 {
				t.Fatalf("gain=%g q=%g: response at center = %.9f", g, q, got)
			}
		}
	}
}

func TestResponseZeroGainIsFlat(t *testing.T) {
	f := NewFilter(500, 2, 0)
	for _, freq := range []float64{20, 500, 5000, 20000} {
		if got := Response(freq, f); math.Abs(got) > 1e-12 {
			t.Fatalf("Response(%g) = %g, want 0", freq, got)
		}
	}
}

func TestResponseDecaysAwayFromCenter(t *testing.T) {
	f := NewFilter(1000, 2, 10)
	near := Response(1200, f)
	far := Response(8000, f)
	if !(near > far && far > 0 && near < 10) {
		t.Fatalf("expected 10 > near(%g) > far(%g) > 0", near, far)
	}
}

func TestResponseAtMatchesResponse(t *testing.T) {
	f := NewFilter(750, 1.3, -4)
	p := NewProbe(333, f.SampleRate)
	if got, want := f.ResponseAt(p), Response(333, f); got != want {
		t.Fatalf("ResponseAt = %v, Response = %v", got, want)
	}
}
