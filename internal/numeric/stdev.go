// Package numeric holds small streaming aggregates shared by the store
// and the LD summary.
package numeric

import "math"

// Stdev is an online standard deviation accumulator (Welford).
// The zero value is not ready for use; call NewStdev.
type Stdev struct {
	m float64
	s float64
	k int
}

// NewStdev returns an empty accumulator.
func NewStdev() *Stdev {
	return &Stdev{k: 1}
}

// Step consumes one observation.
func (a *Stdev) Step(x float64) {
	tm := a.m
	a.m += (x - tm) / float64(a.k)
	a.s += (x - tm) * (x - a.m)
	a.k++
}

// Finalize returns the standard deviation of the observations so far.
// It reports false when fewer than three observations were consumed.
func (a *Stdev) Finalize() (float64, bool) {
	if a.k < 4 {
		return 0, false
	}
	return stdevFromSums(a.s, a.k), true
}

// stdevFromSums divides by k-2 where k is the post-increment counter,
// i.e. n-1 for n consumed observations.
func stdevFromSums(s float64, k int) float64 {
	return math.Sqrt(s / float64(k-2))
}
