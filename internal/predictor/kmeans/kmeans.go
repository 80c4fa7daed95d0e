package kmeans

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/davecgh/go-xdr/xdr2"
	"github.com/go-sod/vtml/internal/predictor"
	"github.com/go-sod/vtml/pkg/math/rng"
	"github.com/go-sod/vtml/pkg/math/vector"
	"github.com/valyala/fastrand"
	"golang.org/x/sync/errgroup"
)

var _ predictor.ClusterModel = (*KMeans)(nil)

const (
	DefaultClusters  = 5
	DefaultRestarts  = 10
	DefaultMaxIter   = 300
	DefaultTolerance = 1e-4
	DefaultSeed      = 42
)

type Option func(*KMeans)

func WithClusters(k int) Option {
	return func(km *KMeans) {
		km.opts.clusters = k
	}
}

func WithRestarts(n int) Option {
	return func(km *KMeans) {
		km.opts.restarts = n
	}
}

func WithMaxIter(n int) Option {
	return func(km *KMeans) {
		km.opts.maxIter = n
	}
}

func WithTolerance(tol float64) Option {
	return func(km *KMeans) {
		km.opts.tolerance = tol
	}
}

func WithSeed(seed int64) Option {
	return func(km *KMeans) {
		km.opts.seed = seed
	}
}

func WithConcurrency(n int) Option {
	return func(km *KMeans) {
		km.opts.concurrency = n
	}
}

type Options struct {
	clusters    int
	restarts    int
	maxIter     int
	tolerance   float64
	seed        int64
	concurrency int
}

var defaultOptions = Options{
	clusters:  DefaultClusters,
	restarts:  DefaultRestarts,
	maxIter:   DefaultMaxIter,
	tolerance: DefaultTolerance,
	seed:      DefaultSeed,
}

func New(opts ...Option) (*KMeans, error) {
	km := &KMeans{opts: defaultOptions}
	for _, opt := range opts {
		opt(km)
	}
	if km.opts.clusters < 1 {
		return nil, fmt.Errorf("unable creating kmeans, clusters must be positive, got %d", km.opts.clusters)
	}
	if km.opts.restarts < 1 {
		return nil, fmt.Errorf("unable creating kmeans, restarts must be positive, got %d", km.opts.restarts)
	}
	if km.opts.maxIter < 1 {
		return nil, fmt.Errorf("unable creating kmeans, max iterations must be positive, got %d", km.opts.maxIter)
	}
	return km, nil
}

// KMeans partitions rows into a fixed number of clusters. Fit never mutates
// the receiver.
type KMeans struct {
	opts    Options
	centers [][]float64
	inertia float64
	iters   int
}

type run struct {
	centers [][]float64
	labels  []int
	inertia float64
	iters   int
}

func (km *KMeans) Kind() predictor.Kind {
	return predictor.KindRoute
}

func (km *KMeans) Algorithm() predictor.AlgType {
	return predictor.AlgKMeans
}

func (km *KMeans) Clusters() int {
	return km.opts.clusters
}

func (km *KMeans) Centers() [][]float64 {
	return km.centers
}

// Inertia is the sum of squared distances of the training rows to their
// closest center.
func (km *KMeans) Inertia() float64 {
	return km.inertia
}

func (km *KMeans) Fitted() bool {
	return len(km.centers) > 0
}

func (km *KMeans) FitPredict(ctx context.Context, data [][]float64) (predictor.ClusterModel, []int, error) {
	fitted, labels, err := km.fit(ctx, data)
	if err != nil {
		return nil, nil, err
	}
	return fitted, labels, nil
}

func (km *KMeans) Fit(ctx context.Context, data [][]float64) (*KMeans, error) {
	fitted, _, err := km.fit(ctx, data)
	return fitted, err
}

// Predict assigns every row to its closest fitted center.
func (km *KMeans) Predict(data [][]float64) ([]int, error) {
	if !km.Fitted() {
		return nil, predictor.ModelFailure("kmeans is not fitted yet")
	}
	m, err := vector.NewMatrix(data)
	if err != nil {
		return nil, predictor.ModelFailure("kmeans input: %v", err)
	}
	if m.Rows() > 0 && m.Cols() != len(km.centers[0]) {
		return nil, predictor.ModelFailure("x has %d features, but kmeans is expecting %d", m.Cols(), len(km.centers[0]))
	}
	labels := make([]int, m.Rows())
	for i := range m {
		labels[i], _ = closest(m[i], km.centers)
	}
	return labels, nil
}

func (km *KMeans) fit(ctx context.Context, data [][]float64) (*KMeans, []int, error) {
	m, err := vector.NewMatrix(data)
	if err != nil {
		return nil, nil, predictor.ModelFailure("kmeans input: %v", err)
	}
	if m.Rows() < km.opts.clusters {
		return nil, nil, predictor.ModelFailure("n_samples=%d should be >= n_clusters=%d", m.Rows(), km.opts.clusters)
	}

	var variance float64
	for j := 0; j < m.Cols(); j++ {
		variance += m.Column(j).Variance()
	}
	tol := 0.0
	if m.Cols() > 0 {
		tol = km.opts.tolerance * variance / float64(m.Cols())
	}

	concurrency := km.opts.concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	runs := make([]run, km.opts.restarts)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range runs {
		i := i
		g.Go(func() error {
			r := rng.New(km.opts.seed, i)
			centers, err := initCenters(m, km.opts.clusters, r)
			if err != nil {
				return err
			}
			res, err := km.lloyd(gctx, m, centers, tol)
			if err != nil {
				return err
			}
			runs[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("kmeans restarts: %w", err)
	}

	best := 0
	for i := 1; i < len(runs); i++ {
		if runs[i].inertia < runs[best].inertia {
			best = i
		}
	}
	fitted := &KMeans{
		opts:    km.opts,
		centers: runs[best].centers,
		inertia: runs[best].inertia,
		iters:   runs[best].iters,
	}
	return fitted, runs[best].labels, nil
}

// initCenters is greedy k-means++: every new center is the best of
// 2+log(k) candidates drawn proportionally to the squared distance.
// Squared distances that overflow make the draw meaningless and fail the fit.
func initCenters(m vector.Matrix, k int, r *fastrand.RNG) ([][]float64, error) {
	n := m.Rows()
	trials := 2 + int(math.Log(float64(k)))
	centers := make([][]float64, 0, k)
	centers = append(centers, vector.V(m[rng.Intn(r, n)]).Copy())

	closestSq := make([]float64, n)
	for i := range m {
		closestSq[i] = sqDist(m[i], centers[0])
	}
	cumulative := make([]float64, n)

	for len(centers) < k {
		var total float64
		for i := range closestSq {
			total += closestSq[i]
			cumulative[i] = total
		}
		if !finite(total) {
			return nil, predictor.ModelFailure("kmeans init: squared distances are not finite")
		}

		bestIdx, bestPot := -1, math.Inf(1)
		var cand int
		for t := 0; t < trials; t++ {
			if total == 0 {
				cand = rng.Intn(r, n)
			} else {
				target := rng.Float64(r) * total
				cand = sort.SearchFloat64s(cumulative, target)
				if cand >= n {
					cand = n - 1
				}
			}
			var pot float64
			for i := range m {
				pot += math.Min(closestSq[i], sqDist(m[i], m[cand]))
			}
			if !finite(pot) {
				return nil, predictor.ModelFailure("kmeans init: candidate potential is not finite")
			}
			if pot < bestPot {
				bestIdx, bestPot = cand, pot
			}
		}
		if bestIdx < 0 {
			bestIdx = cand
		}

		c := vector.V(m[bestIdx]).Copy()
		centers = append(centers, c)
		for i := range m {
			if d := sqDist(m[i], c); d < closestSq[i] {
				closestSq[i] = d
			}
		}
	}
	return centers, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (km *KMeans) lloyd(ctx context.Context, m vector.Matrix, centers [][]float64, tol float64) (run, error) {
	k := len(centers)
	dims := m.Cols()
	labels := make([]int, m.Rows())
	dist := make([]float64, m.Rows())

	iters := 0
	for iters < km.opts.maxIter {
		if err := ctx.Err(); err != nil {
			return run{}, err
		}
		iters++
		for i := range m {
			labels[i], dist[i] = closest(m[i], centers)
		}

		next := make([][]float64, k)
		counts := make([]int, k)
		for c := range next {
			next[c] = make([]float64, dims)
		}
		for i := range m {
			vector.V(next[labels[i]]).Add(m[i])
			counts[labels[i]]++
		}
		relocated := make(map[int]bool)
		for c := range next {
			if counts[c] == 0 {
				far := farthest(dist, relocated)
				relocated[far] = true
				copy(next[c], m[far])
				continue
			}
			vector.V(next[c]).Scale(1 / float64(counts[c]))
		}

		var shift float64
		for c := range centers {
			shift += sqDist(centers[c], next[c])
		}
		centers = next
		if shift <= tol {
			break
		}
	}

	var inertia float64
	for i := range m {
		labels[i], dist[i] = closest(m[i], centers)
		inertia += dist[i]
	}
	return run{centers: centers, labels: labels, inertia: inertia, iters: iters}, nil
}

func farthest(dist []float64, skip map[int]bool) int {
	idx, max := 0, math.Inf(-1)
	for i, d := range dist {
		if skip[i] {
			continue
		}
		if d > max {
			idx, max = i, d
		}
	}
	return idx
}

// closest returns the nearest center and the squared distance to it; ties go
// to the lower center index.
func closest(x []float64, centers [][]float64) (int, float64) {
	idx, best := 0, math.Inf(1)
	for c := range centers {
		if d := sqDist(x, centers[c]); d < best {
			idx, best = c, d
		}
	}
	return idx, best
}

func sqDist(a, b []float64) float64 {
	d, _ := vector.SquaredEuclideanDistance(a, b)
	return d
}

type state struct {
	Clusters  int32
	Restarts  int32
	MaxIter   int32
	Tolerance float64
	Seed      int64
	Centers   [][]float64
	Inertia   float64
	Iters     int32
}

func (km *KMeans) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	s := state{
		Clusters:  int32(km.opts.clusters),
		Restarts:  int32(km.opts.restarts),
		MaxIter:   int32(km.opts.maxIter),
		Tolerance: km.opts.tolerance,
		Seed:      km.opts.seed,
		Centers:   km.centers,
		Inertia:   km.inertia,
		Iters:     int32(km.iters),
	}
	if _, err := xdr.Marshal(&buf, &s); err != nil {
		return nil, fmt.Errorf("encode kmeans: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode restores a model written by MarshalBinary.
func Decode(payload []byte, opts ...Option) (predictor.Model, error) {
	var s state
	if _, err := xdr.Unmarshal(bytes.NewReader(payload), &s); err != nil {
		return nil, fmt.Errorf("decode kmeans: %w", err)
	}
	km := &KMeans{opts: defaultOptions}
	for _, opt := range opts {
		opt(km)
	}
	km.opts.clusters = int(s.Clusters)
	km.opts.restarts = int(s.Restarts)
	km.opts.maxIter = int(s.MaxIter)
	km.opts.tolerance = s.Tolerance
	km.opts.seed = s.Seed
	km.centers = s.Centers
	km.inertia = s.Inertia
	km.iters = int(s.Iters)
	return km, nil
}
