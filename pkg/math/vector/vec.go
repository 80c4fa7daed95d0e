package vector

import (
	"math"
	"sort"
)

// V is a single feature row.
type V []float64

func New(vec []float64) V {
	return vec
}

func (v V) Dimensions() int {
	return len(v)
}

func (v V) Point(idx int) float64 {
	return v[idx]
}

func (v V) Points() []float64 {
	return v
}

func (v V) Copy() V {
	var v1 = make(V, len(v))
	copy(v1, v)
	return v1
}

func (v V) Zero() {
	for i := range v {
		v[i] = 0.0
	}
}

func (v V) Scale(value float64) {
	for i := range v {
		v[i] *= value
	}
}

// Add accumulates vec into v in place.
func (v V) Add(vec V) error {
	if len(v) != len(vec) {
		return ErrDimNotEqual
	}
	for i := range v {
		v[i] += vec[i]
	}
	return nil
}

func (v V) Sum() float64 {
	var s float64
	for i := range v {
		s += v[i]
	}
	return s
}

func (v V) Mean() float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return v.Sum() / float64(len(v))
}

// Variance is the population variance, as numpy computes it by default.
func (v V) Variance() float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	mean := v.Mean()
	var s float64
	for i := range v {
		s += (v[i] - mean) * (v[i] - mean)
	}
	return s / float64(len(v))
}

func (v V) Max() float64 {
	var max = math.Inf(-1)
	for i := range v {
		if v[i] > max {
			max = v[i]
		}
	}
	return max
}

func (v V) Min() float64 {
	var min = math.Inf(1)
	for i := range v {
		if v[i] < min {
			min = v[i]
		}
	}
	return min
}

func (v V) Equal(vec V) bool {
	if len(v) != len(vec) {
		return false
	}
	for i, value := range v {
		if vec[i] != value {
			return false
		}
	}
	return true
}

func (v V) Median() float64 {
	return v.Percentile(50)
}

// Percentile returns the q-th percentile (0..100) with linear interpolation
// between closest ranks, matching numpy's default method.
func (v V) Percentile(q float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	sorted := v.Copy()
	sort.Float64s(sorted)
	if q <= 0 {
		return sorted[0]
	}
	if q >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
