// rolling.go - Windowed averaging over a stream of samples
package peekpoke

import (
	"gonum.org/v1/gonum/stat"
)

// RollingAverage keeps the last capacity samples of a stream and reports
// their mean. Useful for smoothing scan timings or frame rates.
type RollingAverage struct {
	samples []float64
	next    int
	full    bool
}

// NewRollingAverage creates a window holding up to capacity samples.
// A capacity below one is raised to one.
func NewRollingAverage(capacity int) *RollingAverage {
	if capacity < 1 {
		capacity = 1
	}
	return &RollingAverage{samples: make([]float64, capacity)}
}

// Add pushes a sample, evicting the oldest once the window is full
func (r *RollingAverage) Add(sample float64) {
	r.samples[r.next] = sample
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
}

// Len returns how many samples the window currently holds
func (r *RollingAverage) Len() int {
	if r.full {
		return len(r.samples)
	}
	return r.next
}

// Mean returns the average of the held samples, or 0 for an empty window
func (r *RollingAverage) Mean() float64 {
	n := r.Len()
	if n == 0 {
		return 0
	}
	if r.full {
		return stat.Mean(r.samples, nil)
	}
	return stat.Mean(r.samples[:n], nil)
}

// Reset empties the window
func (r *RollingAverage) Reset() {
	r.next = 0
	r.full = false
}
