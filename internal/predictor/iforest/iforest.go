package iforest

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/davecgh/go-xdr/xdr2"
	"github.com/go-sod/vtml/internal/predictor"
	"github.com/go-sod/vtml/pkg/math/rng"
	"github.com/go-sod/vtml/pkg/math/vector"
	"golang.org/x/sync/errgroup"
)

var _ predictor.OutlierModel = (*Forest)(nil)

const (
	DefaultTrees         = 100
	DefaultMaxSamples    = 256
	DefaultContamination = 0.1
	DefaultSeed          = 42
)

type Option func(*Forest)

func WithTrees(n int) Option {
	return func(f *Forest) {
		f.opts.trees = n
	}
}

func WithMaxSamples(n int) Option {
	return func(f *Forest) {
		f.opts.maxSamples = n
	}
}

func WithContamination(c float64) Option {
	return func(f *Forest) {
		f.opts.contamination = c
	}
}

func WithSeed(seed int64) Option {
	return func(f *Forest) {
		f.opts.seed = seed
	}
}

// WithConcurrency caps the number of trees grown at once; n <= 0 means one per CPU.
func WithConcurrency(n int) Option {
	return func(f *Forest) {
		f.opts.concurrency = n
	}
}

type Options struct {
	trees         int
	maxSamples    int
	contamination float64
	seed          int64
	concurrency   int
}

var defaultOptions = Options{
	trees:         DefaultTrees,
	maxSamples:    DefaultMaxSamples,
	contamination: DefaultContamination,
	seed:          DefaultSeed,
}

// New returns an unfitted isolation forest.
func New(opts ...Option) (*Forest, error) {
	f := &Forest{opts: defaultOptions}
	for _, opt := range opts {
		opt(f)
	}
	if f.opts.trees <= 0 {
		return nil, fmt.Errorf("unable creating isolation forest, trees must be positive, got %d", f.opts.trees)
	}
	if f.opts.maxSamples <= 0 {
		return nil, fmt.Errorf("unable creating isolation forest, max samples must be positive, got %d", f.opts.maxSamples)
	}
	if f.opts.contamination <= 0 || f.opts.contamination > 0.5 {
		return nil, fmt.Errorf("unable creating isolation forest, contamination must be in (0, 0.5], got %v", f.opts.contamination)
	}
	return f, nil
}

// Forest is an isolation forest. A fitted Forest is never mutated: Fit and
// FitPredict return a new value, so a published model can be scored from
// many goroutines.
type Forest struct {
	opts       Options
	trees      []tree
	sampleSize int
	dims       int
	offset     float64
}

func (f *Forest) Kind() predictor.Kind {
	return predictor.KindAnomaly
}

func (f *Forest) Algorithm() predictor.AlgType {
	return predictor.AlgIsolationForest
}

func (f *Forest) Fitted() bool {
	return len(f.trees) > 0
}

// Offset is the score above which a sample counts as an outlier.
func (f *Forest) Offset() float64 {
	return f.offset
}

func (f *Forest) Contamination() float64 {
	return f.opts.contamination
}

// Fit grows a fresh forest on data. Parameters of any previous fit are not
// reused.
func (f *Forest) Fit(ctx context.Context, data [][]float64) (*Forest, error) {
	m, err := vector.NewMatrix(data)
	if err != nil {
		return nil, predictor.ModelFailure("isolation forest input: %v", err)
	}
	if m.Rows() == 0 {
		return nil, predictor.ModelFailure("found array with 0 sample(s) while a minimum of 1 is required")
	}

	psi := f.opts.maxSamples
	if psi > m.Rows() {
		psi = m.Rows()
	}
	maxDepth := int(math.Ceil(math.Log2(math.Max(float64(psi), 2))))

	concurrency := f.opts.concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	trees := make([]tree, f.opts.trees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range trees {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := rng.New(f.opts.seed, i)
			trees[i] = grow(m, rng.Sample(r, m.Rows(), psi), maxDepth, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("growing isolation trees: %w", err)
	}

	fitted := &Forest{
		opts:       f.opts,
		trees:      trees,
		sampleSize: psi,
		dims:       m.Cols(),
	}
	scores := fitted.score(m)
	fitted.offset = vector.V(scores).Percentile(100 * (1 - f.opts.contamination))
	return fitted, nil
}

// FitPredict fits on data and flags the outliers of the same batch.
func (f *Forest) FitPredict(ctx context.Context, data [][]float64) (predictor.OutlierModel, []bool, error) {
	fitted, err := f.Fit(ctx, data)
	if err != nil {
		return nil, nil, err
	}
	flags, err := fitted.Predict(data)
	if err != nil {
		return nil, nil, err
	}
	return fitted, flags, nil
}

// Score returns the anomaly score of every row, in (0, 1]; higher is more
// anomalous.
func (f *Forest) Score(data [][]float64) ([]float64, error) {
	if !f.Fitted() {
		return nil, predictor.ModelFailure("isolation forest is not fitted yet")
	}
	m, err := vector.NewMatrix(data)
	if err != nil {
		return nil, predictor.ModelFailure("isolation forest input: %v", err)
	}
	if m.Rows() > 0 && m.Cols() != f.dims {
		return nil, predictor.ModelFailure("x has %d features, but the forest is expecting %d", m.Cols(), f.dims)
	}
	return f.score(m), nil
}

// Predict flags rows whose score is above the fitted offset.
func (f *Forest) Predict(data [][]float64) ([]bool, error) {
	scores, err := f.Score(data)
	if err != nil {
		return nil, err
	}
	flags := make([]bool, len(scores))
	for i := range scores {
		flags[i] = scores[i] > f.offset
	}
	return flags, nil
}

func (f *Forest) score(m vector.Matrix) []float64 {
	norm := averagePathLength(int64(f.sampleSize))
	if norm == 0 {
		norm = 1
	}
	scores := make([]float64, m.Rows())
	for i := range m {
		var sum float64
		for _, t := range f.trees {
			sum += t.pathLength(m[i])
		}
		mean := sum / float64(len(f.trees))
		scores[i] = math.Pow(2, -mean/norm)
	}
	return scores
}

type state struct {
	Trees         int32
	MaxSamples    int32
	Contamination float64
	Seed          int64
	SampleSize    int32
	Dims          int32
	Offset        float64
	Forest        []tree
}

func (f *Forest) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	s := state{
		Trees:         int32(f.opts.trees),
		MaxSamples:    int32(f.opts.maxSamples),
		Contamination: f.opts.contamination,
		Seed:          f.opts.seed,
		SampleSize:    int32(f.sampleSize),
		Dims:          int32(f.dims),
		Offset:        f.offset,
		Forest:        f.trees,
	}
	if _, err := xdr.Marshal(&buf, &s); err != nil {
		return nil, fmt.Errorf("encode isolation forest: %w", err)
	}
	return buf.Bytes(), nil
}

func (f *Forest) UnmarshalBinary(payload []byte) error {
	var s state
	if _, err := xdr.Unmarshal(bytes.NewReader(payload), &s); err != nil {
		return fmt.Errorf("decode isolation forest: %w", err)
	}
	f.opts.trees = int(s.Trees)
	f.opts.maxSamples = int(s.MaxSamples)
	f.opts.contamination = s.Contamination
	f.opts.seed = s.Seed
	f.sampleSize = int(s.SampleSize)
	f.dims = int(s.Dims)
	f.offset = s.Offset
	f.trees = s.Forest
	return nil
}

// Decode restores a forest written by MarshalBinary. Runtime-only options
// (concurrency) are taken from opts.
func Decode(payload []byte, opts ...Option) (predictor.Model, error) {
	f := &Forest{opts: defaultOptions}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.UnmarshalBinary(payload); err != nil {
		return nil, err
	}
	return f, nil
}
