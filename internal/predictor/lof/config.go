package lof

import (
	"fmt"

	"github.com/go-sod/vtml/pkg/math/vector"
)

type DistanceFuncType string

const (
	DistanceFuncTypeEuclidean DistanceFuncType = "EUCLIDEAN"
	DistanceFuncTypeChebyshev DistanceFuncType = "CHEBYSHEV"
	DistanceFuncTypeManhattan DistanceFuncType = "MANHATTAN"
)

type Config struct {
	KNum           int              `envconfig:"VTML_LOF_K_NUM" default:"20"`
	MetricFuncType DistanceFuncType `envconfig:"VTML_LOF_DISTANCE_FUNC" default:"EUCLIDEAN"`
	// Rows searched for neighbours in parallel
	Concurrency int `envconfig:"VTML_LOF_CONCURRENCY" default:"4"`
}

func DistanceFuncFor(d DistanceFuncType) (vector.DistanceFn, error) {
	switch d {
	case DistanceFuncTypeChebyshev:
		return vector.ChebyshevDistance, nil
	case DistanceFuncTypeEuclidean:
		return vector.EuclideanDistance, nil
	case DistanceFuncTypeManhattan:
		return vector.ManhattanDistance, nil
	default:
		return nil, fmt.Errorf("unknown distance function: %s", d)
	}
}
