package vector

import "testing"

func TestDistances(t *testing.T) {
	tests := []struct {
		name     string
		fn       DistanceFn
		p        []float64
		p1       []float64
		expected float64
		err      bool
	}{
		{name: "chebyshev", fn: ChebyshevDistance, p: []float64{1.2, 2.0}, p1: []float64{2.0, 3.0}, expected: 1},
		{name: "chebyshev", fn: ChebyshevDistance, p: []float64{10, 2.0}, p1: []float64{5, 3.0}, expected: 5},
		{name: "chebyshev_err", fn: ChebyshevDistance, p: []float64{5, 2.0}, p1: []float64{3}, err: true},
		{name: "euclidean", fn: EuclideanDistance, p: []float64{1.2, 2.0}, p1: []float64{2.0, 3.0}, expected: 1.2806248474865698},
		{name: "euclidean", fn: EuclideanDistance, p: []float64{10, 2.0}, p1: []float64{5, 3.0}, expected: 5.0990195135927845},
		{name: "euclidean_err", fn: EuclideanDistance, p: []float64{2.0}, p1: []float64{3, 4.0}, err: true},
		{name: "squared_euclidean", fn: SquaredEuclideanDistance, p: []float64{10, 2.0}, p1: []float64{5, 3.0}, expected: 26},
		{name: "manhattan", fn: ManhattanDistance, p: []float64{10, 2.0}, p1: []float64{5, 3.0}, expected: 6},
		{name: "manhattan_err", fn: ManhattanDistance, p: []float64{5, 2.0}, p1: []float64{3}, err: true},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			got, err := test.fn(test.p, test.p1)
			if test.err {
				if err == nil {
					t.Errorf("the dimension of the vectors is different, an error must be output %v", ErrDimNotEqual)
				}
				return
			}
			if err != nil {
				t.Errorf("the error should not be returned, got %v", err)
			}
			if got != test.expected {
				t.Errorf(
					"the distance obtained does not correspond to the expected distance, got %f, expected %f",
					got, test.expected)
			}
		})
	}
}
