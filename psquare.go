// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"math"
)

// quantile is a streaming estimator for a single quantile, using the P-Square
// algorithm (Jain and Chlamtac, 1985): five markers, O(1) per observation,
// no stored samples.
//
// Thread Safety: NOT thread-safe.
type quantile struct {
	// heights of the markers
	h [5]float64
	// actual (0-indexed) marker positions
	pos [5]int
	// desired marker positions, and their per-observation increments
	want [5]float64
	inc  [5]float64
	p    float64
	n    int
}

func newQuantile(p float64) quantile {
	p = math.Min(math.Max(p, 0), 1)
	return quantile{
		p:   p,
		inc: [5]float64{0, p / 2, p, (1 + p) / 2, 1},
	}
}

func (x *quantile) observe(v float64) {
	x.n++

	if x.n <= 5 {
		// warmup: keep the first five values sorted in the marker heights
		i := x.n - 1
		for ; i > 0 && x.h[i-1] > v; i-- {
			x.h[i] = x.h[i-1]
		}
		x.h[i] = v
		if x.n == 5 {
			for i := range x.pos {
				x.pos[i] = i
			}
			x.want = [5]float64{0, 2 * x.p, 4 * x.p, 2 + 2*x.p, 4}
		}
		return
	}

	var cell int
	switch {
	case v < x.h[0]:
		x.h[0] = v
	case v >= x.h[4]:
		x.h[4] = v
		cell = 3
	default:
		for cell = 0; cell < 3 && v >= x.h[cell+1]; cell++ {
		}
	}

	for i := cell + 1; i < 5; i++ {
		x.pos[i]++
	}
	for i := range x.want {
		x.want[i] += x.inc[i]
	}

	for i := 1; i < 4; i++ {
		d := x.want[i] - float64(x.pos[i])
		if !((d >= 1 && x.pos[i+1]-x.pos[i] > 1) || (d <= -1 && x.pos[i-1]-x.pos[i] < -1)) {
			continue
		}
		s := 1
		if d < 0 {
			s = -1
		}
		if h := x.parabolic(i, s); x.h[i-1] < h && h < x.h[i+1] {
			x.h[i] = h
		} else {
			x.h[i] = x.linear(i, s)
		}
		x.pos[i] += s
	}
}

func (x *quantile) parabolic(i, s int) float64 {
	d := float64(s)
	n0, n1, n2 := float64(x.pos[i-1]), float64(x.pos[i]), float64(x.pos[i+1])
	return x.h[i] + d/(n2-n0)*((n1-n0+d)*(x.h[i+1]-x.h[i])/(n2-n1)+(n2-n1-d)*(x.h[i]-x.h[i-1])/(n1-n0))
}

func (x *quantile) linear(i, s int) float64 {
	return x.h[i] + float64(s)*(x.h[i+s]-x.h[i])/float64(x.pos[i+s]-x.pos[i])
}

func (x *quantile) value() float64 {
	switch {
	case x.n == 0:
		return 0
	case x.n < 5:
		// exact, the heights are the sorted observations
		return x.h[int(float64(x.n-1)*x.p)]
	default:
		return x.h[2]
	}
}

// quantiles tracks several quantiles of the same stream, plus its maximum and
// mean.
type quantiles struct {
	est   []quantile
	sum   float64
	max   float64
	count int
}

func newQuantiles(ps ...float64) *quantiles {
	x := &quantiles{est: make([]quantile, len(ps)), max: math.Inf(-1)}
	for i, p := range ps {
		x.est[i] = newQuantile(p)
	}
	return x
}

func (x *quantiles) observe(v float64) {
	x.count++
	x.sum += v
	x.max = math.Max(x.max, v)
	for i := range x.est {
		x.est[i].observe(v)
	}
}

func (x *quantiles) value(i int) float64 {
	if i < 0 || i >= len(x.est) {
		return 0
	}
	return x.est[i].value()
}

func (x *quantiles) mean() float64 {
	if x.count == 0 {
		return 0
	}
	return x.sum / float64(x.count)
}

func (x *quantiles) maximum() float64 {
	if x.count == 0 {
		return 0
	}
	return x.max
}
