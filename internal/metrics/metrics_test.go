package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opencensus.io/stats/view"
)

func TestRecord(t *testing.T) {
	if err := Register(); err != nil {
		t.Fatalf("register: %v", err)
	}
	defer Unregister()

	ctx := context.Background()
	RecordFit(ctx, "anomaly", "ISOLATION_FOREST", 12*time.Millisecond, nil)
	RecordFit(ctx, "anomaly", "ISOLATION_FOREST", 3*time.Millisecond, errors.New("boom"))
	RecordDetection(ctx, 13, 1)
	RecordDetection(ctx, 20, 2)

	rows, err := view.RetrieveData("fit_count")
	if err != nil {
		t.Fatalf("retrieve fit_count: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("fit_count rows, got: %d, expected: %d", len(rows), 2)
	}

	rows, err = view.RetrieveData("anomalies_total")
	if err != nil {
		t.Fatalf("retrieve anomalies_total: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("anomalies_total rows, got: %d, expected: %d", len(rows), 1)
	}
	if sum := rows[0].Data.(*view.SumData).Value; sum != 3 {
		t.Errorf("anomalies_total, got: %v, expected: %v", sum, 3)
	}
}

func TestNewExporter(t *testing.T) {
	exporter, err := NewExporter()
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	if exporter == nil {
		t.Fatalf("exporter is nil")
	}
}
