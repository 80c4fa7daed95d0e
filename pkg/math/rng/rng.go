// Package rng derives independent, reproducible fastrand generators from a
// single model seed.
package rng

import "github.com/valyala/fastrand"

// New returns a generator for the given stream of seed. The same (seed,
// stream) pair always yields the same sequence.
func New(seed int64, stream int) *fastrand.RNG {
	s := mix32(uint32(seed) ^ mix32(uint32(seed>>32)+uint32(stream)*0x9e3779b9+1))
	if s == 0 {
		// fastrand treats a zero state as unseeded
		s = 0x6d2b79f5
	}
	var r fastrand.RNG
	r.Seed(s)
	return &r
}

// Float64 returns a value in the open interval (0, 1).
func Float64(r *fastrand.RNG) float64 {
	return (float64(r.Uint32()) + 0.5) / (1 << 32)
}

// Intn returns a value in [0, n).
func Intn(r *fastrand.RNG, n int) int {
	return int(r.Uint32n(uint32(n)))
}

// Sample draws k distinct indices out of [0, n).
func Sample(r *fastrand.RNG, n, k int) []int {
	if k > n {
		k = n
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + Intn(r, n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:k]
}

func mix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}
