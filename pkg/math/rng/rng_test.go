package rng

import "testing"

func TestNew_Reproducible(t *testing.T) {
	t.Parallel()
	a, b := New(42, 3), New(42, 3)
	for i := 0; i < 100; i++ {
		if x, y := a.Uint32(), b.Uint32(); x != y {
			t.Fatalf("draw %d differs for the same seed and stream: %d != %d", i, x, y)
		}
	}
}

func TestNew_Streams(t *testing.T) {
	t.Parallel()
	a, b := New(42, 0), New(42, 1)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Uint32() == b.Uint32() {
			same++
		}
	}
	if same > 2 {
		t.Errorf("streams of one seed must diverge, %d equal draws out of 100", same)
	}
}

func TestFloat64(t *testing.T) {
	t.Parallel()
	r := New(7, 0)
	for i := 0; i < 1000; i++ {
		if f := Float64(r); f <= 0 || f >= 1 {
			t.Fatalf("Float64 out of (0, 1): %v", f)
		}
	}
}

func TestSample(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		n, k     int
		expected int
	}{
		{name: "subset", n: 20, k: 5, expected: 5},
		{name: "all", n: 13, k: 13, expected: 13},
		{name: "clamped", n: 3, k: 10, expected: 3},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got := Sample(New(1, 0), test.n, test.k)
			if len(got) != test.expected {
				t.Fatalf("sample size, got: %d, expected: %d", len(got), test.expected)
			}
			seen := map[int]bool{}
			for _, idx := range got {
				if idx < 0 || idx >= test.n {
					t.Errorf("index %d out of range [0, %d)", idx, test.n)
				}
				if seen[idx] {
					t.Errorf("index %d drawn twice", idx)
				}
				seen[idx] = true
			}
		})
	}
}
