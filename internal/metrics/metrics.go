// Package metrics records model and request statistics with OpenCensus and
// exposes them in the Prometheus format.
package metrics

import (
	"context"
	"fmt"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const Namespace = "vtml"

var (
	Fits          = stats.Int64("vtml/fits", "Model fits", stats.UnitDimensionless)
	FitLatency    = stats.Float64("vtml/fit_latency", "Model fit and persist latency", stats.UnitMilliseconds)
	PointsScored  = stats.Int64("vtml/points_scored", "GPS points submitted for anomaly detection", stats.UnitDimensionless)
	Anomalies     = stats.Int64("vtml/anomalies", "GPS points flagged as anomalous", stats.UnitDimensionless)
	RouteLength   = stats.Float64("vtml/route_length", "Geodesic route length", "m")
	AlertsDropped = stats.Int64("vtml/alerts_dropped", "Anomaly events that could not be delivered", stats.UnitDimensionless)
)

var (
	KeyKind      = tag.MustNewKey("kind")
	KeyAlgorithm = tag.MustNewKey("algorithm")
	KeyStatus    = tag.MustNewKey("status")
	KeyOrder     = tag.MustNewKey("order")
)

var Views = []*view.View{
	{
		Name:        "fit_count",
		Description: "Number of model fits",
		Measure:     Fits,
		TagKeys:     []tag.Key{KeyKind, KeyAlgorithm, KeyStatus},
		Aggregation: view.Count(),
	},
	{
		Name:        "fit_latency_ms",
		Description: "Model fit latency distribution",
		Measure:     FitLatency,
		TagKeys:     []tag.Key{KeyKind, KeyAlgorithm},
		Aggregation: view.Distribution(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	},
	{
		Name:        "points_scored_total",
		Description: "GPS points submitted for anomaly detection",
		Measure:     PointsScored,
		Aggregation: view.Sum(),
	},
	{
		Name:        "anomalies_total",
		Description: "GPS points flagged as anomalous",
		Measure:     Anomalies,
		Aggregation: view.Sum(),
	},
	{
		Name:        "route_length_m",
		Description: "Route length before and after reordering",
		Measure:     RouteLength,
		TagKeys:     []tag.Key{KeyOrder},
		Aggregation: view.Distribution(1e2, 1e3, 1e4, 1e5, 1e6, 1e7),
	},
	{
		Name:        "alerts_dropped_total",
		Description: "Anomaly events that could not be delivered",
		Measure:     AlertsDropped,
		Aggregation: view.Sum(),
	},
}

func Register() error {
	if err := view.Register(Views...); err != nil {
		return fmt.Errorf("register views: %w", err)
	}
	return nil
}

func Unregister() {
	view.Unregister(Views...)
}

// NewExporter returns the /metrics handler.
func NewExporter() (*prometheus.Exporter, error) {
	exporter, err := prometheus.NewExporter(prometheus.Options{Namespace: Namespace})
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	return exporter, nil
}

func RecordFit(ctx context.Context, kind, algorithm string, took time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{
			tag.Upsert(KeyKind, kind),
			tag.Upsert(KeyAlgorithm, algorithm),
			tag.Upsert(KeyStatus, status),
		},
		Fits.M(1),
		FitLatency.M(float64(took)/float64(time.Millisecond)),
	)
}

func RecordDetection(ctx context.Context, points, anomalies int) {
	stats.Record(ctx, PointsScored.M(int64(points)), Anomalies.M(int64(anomalies)))
}

func RecordRouteLength(ctx context.Context, before, after float64) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeyOrder, "original")}, RouteLength.M(before))
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeyOrder, "optimized")}, RouteLength.M(after))
}

func RecordAlertsDropped(ctx context.Context, n int) {
	stats.Record(ctx, AlertsDropped.M(int64(n)))
}
