package curve

import (
	"math"
	"sort"
)

// Closest returns a copy of c ordered by ascending distance to freq. Points
// at equal distance keep their original order.
func Closest(c Curve, freq float64) Curve {
	out := c.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Freq-freq) < math.Abs(out[j].Freq-freq)
	})
	return out
}

// nearestTwo returns the same two points as Closest(c, freq)[:2] without
// sorting the whole curve.
func nearestTwo(c Curve, freq float64) (Point, Point, error) {
	if len(c) < 2 {
		return Point{}, Point{}, ErrInsufficientSamples
	}
	first, second := -1, -1
	var d1, d2 float64
	for i, p := range c {
		d := math.Abs(p.Freq - freq)
		switch {
		case first < 0 || d < d1:
			second, d2 = first, d1
			first, d1 = i, d
		case second < 0 || d < d2:
			second, d2 = i, d
		}
	}
	return c[first], c[second], nil
}

// Interpolate evaluates, at freq, the straight line through the two points
// of c nearest to freq. The two points need not bracket freq, in which case
// the line is extrapolated.
func Interpolate(c Curve, freq float64) (float64, error) {
	p1, p2, err := nearestTwo(c, freq)
	if err != nil {
		return 0, err
	}
	return lerp(p1, p2, freq)
}

func lerp(p1, p2 Point, x float64) (float64, error) {
	x1, y1 := p1.Freq, p1.Gain
	x2, y2 := p2.Freq, p2.Gain
	if x1 == x2 {
		return 0, ErrDegenerateInterpolation
	}
	// Exact at the samples themselves.
	switch x {
	case x1:
		return y1, nil
	case x2:
		return y2, nil
	}
	return (y1-y2)/(x1-x2)*x + (x1*y2-x2*y1)/(x1-x2), nil
}

// Normalise shifts every gain so that the point nearest NormFreq reads 0 dB.
func Normalise(c Curve) (Curve, error) {
	if len(c) == 0 {
		return nil, ErrInsufficientSamples
	}
	anchor := 0
	best := math.Abs(c[0].Freq - NormFreq)
	for i := 1; i < len(c); i++ {
		if d := math.Abs(c[i].Freq - NormFreq); d < best {
			anchor, best = i, d
		}
	}
	ref := c[anchor].Gain
	out := make(Curve, len(c))
	for i, p := range c {
		out[i] = Point{Freq: p.Freq, Gain: p.Gain - ref}
	}
	return out, nil
}
