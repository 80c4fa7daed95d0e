// Package anomaly flags unusual GPS reports by fitting an outlier model on
// every submitted batch.
package anomaly

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sod/vtml/internal/feature"
	"github.com/go-sod/vtml/internal/logging"
	"github.com/go-sod/vtml/internal/metrics"
	"github.com/go-sod/vtml/internal/predictor"
)

const DefaultMinPoints = 11

// ModelState is the slice of modelstore.State the detector needs.
type ModelState interface {
	Current(kind predictor.Kind) predictor.Model
	Publish(ctx context.Context, m predictor.Model) error
	Guard(kind predictor.Kind) func()
}

// Notifier receives the anomalies of every detection. It must not block.
type Notifier interface {
	Notify(records ...Record)
}

// Record is a GPS point flagged as anomalous, with its derived hour.
type Record struct {
	VehicleID int64    `json:"vehicle_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Speed     float64  `json:"speed"`
	Heading   *float64 `json:"heading"`
	Timestamp string   `json:"timestamp"`
	Hour      int      `json:"hour"`
	Anomaly   bool     `json:"anomaly"`
}

type Result struct {
	Flags        []bool
	AnomalyCount int
	Anomalies    []Record
}

type Option func(*Detector)

func WithMinPoints(n int) Option {
	return func(d *Detector) {
		d.minPoints = n
	}
}

func WithNotifier(n Notifier) Option {
	return func(d *Detector) {
		d.notifier = n
	}
}

func NewDetector(state ModelState, opts ...Option) *Detector {
	d := &Detector{state: state, minPoints: DefaultMinPoints}
	for _, f := range opts {
		f(d)
	}
	return d
}

type Detector struct {
	state     ModelState
	notifier  Notifier
	minPoints int
}

// Detect flags the outliers of points. Batches below the minimum size are
// returned unflagged without touching the model. Otherwise a fresh model is
// fitted on the batch and persisted before the result is returned.
func (d *Detector) Detect(ctx context.Context, points []feature.GPSPoint) (*Result, error) {
	logger := logging.FromContext(ctx)

	rows, err := feature.BuildGPSFeatures(points)
	if err != nil {
		return nil, fmt.Errorf("build features: %w", err)
	}

	flags := make([]bool, len(rows))
	if len(rows) < d.minPoints {
		logger.Debugf("anomaly detection skipped, %d points below minimum %d", len(rows), d.minPoints)
		metrics.RecordDetection(ctx, len(rows), 0)
		return &Result{Flags: flags, Anomalies: []Record{}}, nil
	}

	flags, err = d.fit(ctx, rows)
	if err != nil {
		return nil, err
	}

	res := &Result{Flags: flags, Anomalies: []Record{}}
	for i, flagged := range flags {
		if !flagged {
			continue
		}
		res.AnomalyCount++
		res.Anomalies = append(res.Anomalies, newRecord(points[i], rows[i]))
	}
	metrics.RecordDetection(ctx, len(rows), res.AnomalyCount)
	logger.Debugf("anomaly detection flagged %d of %d points", res.AnomalyCount, len(rows))

	if d.notifier != nil && len(res.Anomalies) > 0 {
		d.notifier.Notify(res.Anomalies...)
	}
	return res, nil
}

func (d *Detector) fit(ctx context.Context, rows [][]float64) (flags []bool, err error) {
	release := d.state.Guard(predictor.KindAnomaly)
	defer release()

	model, ok := d.state.Current(predictor.KindAnomaly).(predictor.OutlierModel)
	if !ok {
		return nil, predictor.ModelFailure("no anomaly model loaded")
	}

	start := time.Now()
	defer func() {
		metrics.RecordFit(ctx, predictor.KindAnomaly.String(), string(model.Algorithm()), time.Since(start), err)
	}()

	fitted, flags, err := model.FitPredict(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("fit anomaly model: %w", err)
	}
	if len(flags) != len(rows) {
		return nil, predictor.ModelFailure("model returned %d flags for %d points", len(flags), len(rows))
	}
	if err := d.state.Publish(ctx, fitted); err != nil {
		return nil, fmt.Errorf("persist anomaly model: %w", err)
	}
	return flags, nil
}

func newRecord(p feature.GPSPoint, row []float64) Record {
	r := Record{
		VehicleID: p.VehicleID,
		Latitude:  row[feature.ColLatitude],
		Longitude: row[feature.ColLongitude],
		Speed:     row[feature.ColSpeed],
		Timestamp: p.Timestamp,
		Hour:      int(row[feature.ColHour]),
		Anomaly:   true,
	}
	if h, ok := p.Heading.Value(); ok {
		r.Heading = &h
	}
	return r
}

// Notifiers fans every detection out to each of its members.
type Notifiers []Notifier

func (ns Notifiers) Notify(records ...Record) {
	for _, n := range ns {
		n.Notify(records...)
	}
}
