package lof

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/davecgh/go-xdr/xdr2"
	"github.com/go-sod/vtml/internal/predictor"
	"github.com/go-sod/vtml/pkg/math/vector"
	"github.com/go-sod/vtml/pkg/pqueue"
	"github.com/go-sod/vtml/pkg/rworker"
)

var _ predictor.OutlierModel = (*Lof)(nil)

const (
	DefaultKNum          = 20
	DefaultContamination = 0.1

	// keeps lrd finite for duplicated points
	lrdEpsilon = 1e-10
)

type Option func(*Lof)

// WithKNum sets the neighbourhood size; it is capped at n-1 on every fit.
func WithKNum(k int) Option {
	return func(l *Lof) {
		l.opts.kNum = k
	}
}

func WithDistance(d DistanceFuncType) Option {
	return func(l *Lof) {
		l.opts.distanceFuncType = d
	}
}

func WithContamination(c float64) Option {
	return func(l *Lof) {
		l.opts.contamination = c
	}
}

func WithConcurrency(n int) Option {
	return func(l *Lof) {
		l.opts.concurrency = n
	}
}

var defaultOptions = Options{
	kNum:             DefaultKNum,
	distanceFuncType: DistanceFuncTypeEuclidean,
	contamination:    DefaultContamination,
	concurrency:      4,
}

type Options struct {
	kNum             int
	distanceFuncType DistanceFuncType
	contamination    float64
	concurrency      int
}

func New(opts ...Option) (*Lof, error) {
	l := &Lof{opts: defaultOptions}
	for _, f := range opts {
		f(l)
	}
	distFunc, err := DistanceFuncFor(l.opts.distanceFuncType)
	if err != nil {
		return nil, fmt.Errorf("unable creating lof instance, %v", err)
	}
	if l.opts.kNum < 1 {
		return nil, fmt.Errorf("unable creating lof instance, the k selected in the config is too small")
	}
	if l.opts.contamination <= 0 || l.opts.contamination > 0.5 {
		return nil, fmt.Errorf("unable creating lof instance, contamination must be in (0, 0.5], got %v", l.opts.contamination)
	}
	if l.opts.concurrency < 1 {
		l.opts.concurrency = 1
	}
	l.distFunc = distFunc
	return l, nil
}

// Lof is a batch Local Outlier Factor model. Fitted values are never
// mutated after FitPredict returns them.
type Lof struct {
	opts     Options
	distFunc vector.DistanceFn

	k       int
	factors []float64
	offset  float64
}

type neighbour struct {
	idx  int
	dist float64
}

func (l *Lof) Kind() predictor.Kind {
	return predictor.KindAnomaly
}

func (l *Lof) Algorithm() predictor.AlgType {
	return predictor.AlgTypeLof
}

// Factors are the outlier factors of the last fitted batch.
func (l *Lof) Factors() []float64 {
	return l.factors
}

func (l *Lof) Offset() float64 {
	return l.offset
}

func (l *Lof) KNum() int {
	return l.k
}

func (l *Lof) FitPredict(ctx context.Context, data [][]float64) (predictor.OutlierModel, []bool, error) {
	m, err := vector.NewMatrix(data)
	if err != nil {
		return nil, nil, predictor.ModelFailure("lof input: %v", err)
	}
	if m.Rows() < 2 {
		return nil, nil, predictor.ModelFailure("lof needs at least 2 samples, got %d", m.Rows())
	}
	k := l.opts.kNum
	if k > m.Rows()-1 {
		k = m.Rows() - 1
	}

	nn, err := l.neighbours(ctx, m, k)
	if err != nil {
		return nil, nil, err
	}

	kDist := make([]float64, m.Rows())
	for i := range nn {
		kDist[i] = nn[i][k-1].dist
	}
	lrd := make([]float64, m.Rows())
	for i := range nn {
		var rSum float64
		for _, o := range nn[i] {
			rSum += math.Max(kDist[o.idx], o.dist)
		}
		lrd[i] = 1 / (rSum/float64(k) + lrdEpsilon)
	}
	factors := make([]float64, m.Rows())
	for i := range nn {
		var lrdSum float64
		for _, o := range nn[i] {
			lrdSum += lrd[o.idx]
		}
		factors[i] = lrdSum / float64(k) / lrd[i]
	}

	fitted := &Lof{
		opts:     l.opts,
		distFunc: l.distFunc,
		k:        k,
		factors:  factors,
		offset:   vector.V(factors).Percentile(100 * (1 - l.opts.contamination)),
	}
	flags := make([]bool, len(factors))
	for i := range factors {
		flags[i] = factors[i] > fitted.offset
	}
	return fitted, flags, nil
}

// neighbours finds the k nearest rows of every row, itself excluded. Ties keep
// the lower row index first.
func (l *Lof) neighbours(ctx context.Context, m vector.Matrix, k int) ([][]neighbour, error) {
	var (
		wg    sync.WaitGroup
		rate  = make(chan struct{}, l.opts.concurrency)
		errCh = make(chan error, 1)
		nn    = make([][]neighbour, m.Rows())
	)
	for i := range m {
		i := i
		rworker.Job(ctx, &wg, func() error {
			q := pqueue.New(pqueue.WithOrderAsc(), pqueue.WithCap(uint(k)))
			for j := range m {
				if j == i {
					continue
				}
				d, err := l.distFunc(m[i], m[j])
				if err != nil {
					return fmt.Errorf("unable compute distance: %w", err)
				}
				q.Push(neighbour{idx: j, dist: d}, d)
			}
			row := make([]neighbour, 0, k)
			for _, v := range q.PopAll() {
				row = append(row, v.(neighbour))
			}
			nn[i] = row
			return nil
		}, rate, errCh)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return nil, predictor.ModelFailure("lof neighbours: %v", err)
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("lof neighbours: %w", err)
	}
	return nn, nil
}

type state struct {
	KNum          int32
	Distance      string
	Contamination float64
	K             int32
	Factors       []float64
	Offset        float64
}

func (l *Lof) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	s := state{
		KNum:          int32(l.opts.kNum),
		Distance:      string(l.opts.distanceFuncType),
		Contamination: l.opts.contamination,
		K:             int32(l.k),
		Factors:       l.factors,
		Offset:        l.offset,
	}
	if _, err := xdr.Marshal(&buf, &s); err != nil {
		return nil, fmt.Errorf("encode lof: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode restores a model written by MarshalBinary.
func Decode(payload []byte) (predictor.Model, error) {
	var s state
	if _, err := xdr.Unmarshal(bytes.NewReader(payload), &s); err != nil {
		return nil, fmt.Errorf("decode lof: %w", err)
	}
	l, err := New(
		WithKNum(int(s.KNum)),
		WithDistance(DistanceFuncType(s.Distance)),
		WithContamination(s.Contamination),
	)
	if err != nil {
		return nil, fmt.Errorf("decode lof: %w", err)
	}
	l.k = int(s.K)
	l.factors = s.Factors
	l.offset = s.Offset
	return l, nil
}
