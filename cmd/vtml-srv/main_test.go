package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-sod/vtml/internal/anomaly"
	vtml "github.com/go-sod/vtml/internal/config"
	"github.com/go-sod/vtml/internal/integration"
	"github.com/go-sod/vtml/internal/modelstore"
	"github.com/go-sod/vtml/internal/server"
	"github.com/go-sod/vtml/internal/setup"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*integration.Client, *httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	modelDir := filepath.Join(dir, "models")
	t.Setenv("VTML_MODEL_DIR", modelDir)
	t.Setenv("VTML_BOLT_FILE", filepath.Join(dir, "vtml.db"))
	t.Setenv("VTML_ALLOW_ALERTS", "false")

	ctx := context.Background()
	config := vtml.Config{}
	env, err := setup.Setup(ctx, &config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close(ctx) })

	mux, err := newMux(&config, env, anomaly.Notifiers{env.Stream()})
	require.NoError(t, err)
	srv := httptest.NewServer(server.WithRequestLogging(mux))
	t.Cleanup(srv.Close)

	return integration.NewClient(strings.TrimPrefix(srv.URL, "http://")), srv, modelDir
}

func scenario() string {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 12; i++ {
		b.WriteString(`{"vehicle_id": 7, "latitude": 0, "longitude": 0, "speed": 0, "timestamp": "2024-03-01T08:00:00Z"},`)
	}
	b.WriteString(`{"vehicle_id": 7, "latitude": 90, "longitude": 180, "speed": 200, "timestamp": "2024-03-01T08:00:00Z"}]`)
	return b.String()
}

func TestService_Health(t *testing.T) {
	client, _, _ := newTestService(t)
	ctx := context.Background()

	var prev string
	for i := 0; i < 3; i++ {
		resp, err := client.Health(ctx)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var health integration.HealthResponse
		require.NoError(t, resp.Decode(&health))
		assert.Equal(t, "healthy", health.Status)
		assert.GreaterOrEqual(t, health.Timestamp, prev)
		prev = health.Timestamp
	}
}

func TestService_AnomalyDetection(t *testing.T) {
	client, _, modelDir := newTestService(t)
	ctx := context.Background()

	resp, err := client.Detect(ctx, strings.NewReader(scenario()))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

	var res integration.AnomalyResponse
	require.NoError(t, resp.Decode(&res))
	assert.Equal(t, 13, res.TotalPoints)
	assert.Equal(t, 1, res.AnomalyCount)
	require.Len(t, res.Anomalies, 1)
	assert.Contains(t, string(res.Anomalies[0]), `"latitude":90`)
	assert.Contains(t, string(res.Anomalies[0]), `"hour":8`)

	_, err = os.Stat(filepath.Join(modelDir, "anomaly_model.xdr"))
	assert.NoError(t, err, "fitted anomaly model was not persisted")

	resp, err = client.Detect(ctx, strings.NewReader(`[{"vehicle_id": 1, "latitude": 1, "longitude": 2, "timestamp": "yesterday"}]`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var detail integration.ErrorResponse
	require.NoError(t, resp.Decode(&detail))
	assert.True(t, strings.HasPrefix(detail.Detail, "Anomaly detection failed: "), detail.Detail)
}

func TestService_RouteOptimization(t *testing.T) {
	client, _, _ := newTestService(t)
	ctx := context.Background()

	resp, err := client.Optimize(ctx, strings.NewReader(`{"vehicle_id": 3, "points": [{"latitude": 1, "longitude": 1}, {"latitude": 2, "longitude": 2}]}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
	var short integration.RouteResponse
	require.NoError(t, resp.Decode(&short))
	assert.Equal(t, "Insufficient data for optimization", short.Message)
	assert.Len(t, short.OptimizedRoute, 2)

	var b strings.Builder
	b.WriteString(`{"vehicle_id": 3, "points": [`)
	for i := 0; i < 10; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"latitude": %v, "longitude": %v}`, 55.70+float64(i)*0.01, 37.60+float64(i%3)*0.01)
	}
	b.WriteString("]}")

	resp, err = client.Optimize(ctx, strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
	var res integration.RouteResponse
	require.NoError(t, resp.Decode(&res))
	assert.Equal(t, 10, res.OriginalPoints)
	assert.Equal(t, "15-20%", res.EstimatedSavings)
	assert.Len(t, res.OptimizedRoute, 10)
}

func TestService_PredictiveMaintenance(t *testing.T) {
	client, _, _ := newTestService(t)

	resp, err := client.Maintenance(context.Background(), strings.NewReader(
		`{"vehicle_id": 1, "mileage": 12000, "engine_hours": 100, "fuel_consumption": 8, "last_service_date": "2024-01-01T00:00:00"}`,
	))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

	var res integration.MaintenanceResponse
	require.NoError(t, resp.Decode(&res))
	require.Len(t, res.Predictions, 1)
	assert.Equal(t, "mileage_service", res.Predictions[0].Type)
	assert.Equal(t, "high", res.Predictions[0].Urgency)
	assert.Equal(t, "2024-03-31T00:00:00", res.NextServiceDate)
}

func TestService_AnomalyStream(t *testing.T) {
	client, srv, _ := newTestService(t)
	ctx := context.Background()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/anomalies", nil)
	require.NoError(t, err)
	defer conn.Close()
	// Give the hub a moment to register the subscriber.
	time.Sleep(50 * time.Millisecond)

	resp, err := client.Detect(ctx, strings.NewReader(scenario()))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"vehicle_id":7`)
}

func TestService_ModelSurvivesRestart(t *testing.T) {
	client, _, modelDir := newTestService(t)
	resp, err := client.Detect(context.Background(), strings.NewReader(scenario()))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	store, err := modelstore.NewFileStore(modelDir)
	require.NoError(t, err)
	data, err := store.Load(context.Background(), "anomaly")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
