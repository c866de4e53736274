package peq

import (
	"math"
	"testing"
)

func TestNewBankCopiesSeed(t *testing.T) {
	b := NewBank(3, NewFilter(2000, 1, 1))
	if len(b) != 3 {
		t.Fatalf("len = %d, want 3", len(b))
	}
	b[0].Gain = 5
	if b[1].Gain != 1 || b[2].Gain != 1 {
		t.Fatalf("slots share state: %+v", b)
	}
}

func TestBankResponseSumsFilters(t *testing.T) {
	b := Bank{NewFilter(100, 1, 3), NewFilter(1000, 2, -2), NewFilter(8000, 0.5, 4)}
	for _, freq := range []float64{50, 1000, 10000} {
		var want float64
		for _, f := range b {
			want += Response(freq, f)
		}
		if got := b.Response(freq); got != want {
			t.Fatalf("Bank.Response(%g) = %v, want %v", freq, got, want)
		}
	}
}

func TestCloneCopiesSlice(t *testing.T) {
	orig := Bank{NewFilter(100, 1, 1)}
	cloned := orig.Clone()
	cloned[0].Center = 999
	if orig[0].Center != 100 {
		t.Fatalf("clone mutated original: %+v", orig)
	}
}

func TestSortByCenter(t *testing.T) {
	b := Bank{NewFilter(5000, 1, 1), NewFilter(50, 1, 2), NewFilter(700, 1, 3)}
	b.SortByCenter()
	for i := 1; i < len(b); i++ {
		if b[i-1].Center > b[i].Center {
			t.Fatalf("not sorted: %+v", b)
		}
	}
	if b[0].Gain != 2 {
		t.Fatalf("filters lost their parameters: %+v", b)
	}
}

func TestChainMagnitudeMatchesBankResponse(t *testing.T) {
	b := Bank{NewFilter(200, 1, 4), NewFilter(3000, 3, -6)}
	const preamp = -4.0
	ch := b.Chain(preamp)
	if ch.NumSections() != len(b) {
		t.Fatalf("sections = %d, want %d", ch.NumSections(), len(b))
	}
	for _, freq := range []float64{100, 200, 3000, 15000} {
		got := ch.MagnitudeDB(freq, DefaultSampleRate)
		want := preamp + b.Response(freq)
		if math.Abs(got-want) > 1e-6 {
			t.Fatalf("chain at %g Hz = %f dB, want %f dB", freq, got, want)
		}
	}
}
