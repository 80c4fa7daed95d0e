// Package route reorders route points by grouping nearby points into clusters.
package route

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-sod/vtml/internal/feature"
	"github.com/go-sod/vtml/internal/logging"
	"github.com/go-sod/vtml/internal/metrics"
	"github.com/go-sod/vtml/internal/predictor"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const DefaultMinPoints = 5

type ModelState interface {
	Current(kind predictor.Kind) predictor.Model
	Publish(ctx context.Context, m predictor.Model) error
	Guard(kind predictor.Kind) func()
}

type Result struct {
	OptimizedRoute []feature.RoutePoint
	Clusters       int
	// Insufficient is set when the route was too short to cluster
	Insufficient bool
	// Geodesic lengths in meters of the route as given and as reordered
	OriginalLength  float64
	OptimizedLength float64
}

type Option func(*Clusterer)

func WithMinPoints(n int) Option {
	return func(c *Clusterer) {
		c.minPoints = n
	}
}

func NewClusterer(state ModelState, opts ...Option) *Clusterer {
	c := &Clusterer{state: state, minPoints: DefaultMinPoints}
	for _, f := range opts {
		f(c)
	}
	return c
}

type Clusterer struct {
	state     ModelState
	minPoints int
}

// Optimize groups points by cluster in ascending cluster id order. Points keep
// their relative order inside a cluster.
func (c *Clusterer) Optimize(ctx context.Context, points []feature.RoutePoint) (*Result, error) {
	logger := logging.FromContext(ctx)

	coords, err := feature.RouteCoordinates(points)
	if err != nil {
		return nil, fmt.Errorf("extract coordinates: %w", err)
	}
	if len(coords) < c.minPoints {
		logger.Debugf("route optimization skipped, %d points below minimum %d", len(coords), c.minPoints)
		return &Result{OptimizedRoute: points, Insufficient: true}, nil
	}

	labels, err := c.fit(ctx, coords)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return labels[order[a]] < labels[order[b]]
	})

	res := &Result{
		OptimizedRoute: make([]feature.RoutePoint, len(points)),
		Clusters:       distinct(labels),
	}
	reordered := make([][]float64, len(coords))
	for i, idx := range order {
		res.OptimizedRoute[i] = points[idx]
		reordered[i] = coords[idx]
	}
	res.OriginalLength = Length(coords)
	res.OptimizedLength = Length(reordered)
	metrics.RecordRouteLength(ctx, res.OriginalLength, res.OptimizedLength)
	logger.Debugf("route of %d points in %d clusters, length %.0fm -> %.0fm",
		len(points), res.Clusters, res.OriginalLength, res.OptimizedLength)
	return res, nil
}

func (c *Clusterer) fit(ctx context.Context, coords [][]float64) (labels []int, err error) {
	release := c.state.Guard(predictor.KindRoute)
	defer release()

	model, ok := c.state.Current(predictor.KindRoute).(predictor.ClusterModel)
	if !ok {
		return nil, predictor.ModelFailure("no route model loaded")
	}

	start := time.Now()
	defer func() {
		metrics.RecordFit(ctx, predictor.KindRoute.String(), string(model.Algorithm()), time.Since(start), err)
	}()

	fitted, labels, err := model.FitPredict(ctx, coords)
	if err != nil {
		return nil, fmt.Errorf("fit route model: %w", err)
	}
	if len(labels) != len(coords) {
		return nil, predictor.ModelFailure("model returned %d labels for %d points", len(labels), len(coords))
	}
	if err := c.state.Publish(ctx, fitted); err != nil {
		return nil, fmt.Errorf("persist route model: %w", err)
	}
	return labels, nil
}

// Length is the geodesic length in meters of a path of [latitude, longitude]
// pairs.
func Length(coords [][]float64) float64 {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c[1], c[0]}
	}
	return geo.Length(ls)
}

func distinct(labels []int) int {
	seen := make(map[int]struct{}, len(labels))
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}
