package setup_test

import (
	"context"
	"path/filepath"
	"testing"

	vtml "github.com/go-sod/vtml/internal/config"
	"github.com/go-sod/vtml/internal/predictor"
	"github.com/go-sod/vtml/internal/predictor/iforest"
	"github.com/go-sod/vtml/internal/predictor/kmeans"
	"github.com/go-sod/vtml/internal/predictor/lof"
	"github.com/go-sod/vtml/internal/setup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("VTML_MODEL_DIR", filepath.Join(dir, "models"))
	t.Setenv("VTML_BOLT_FILE", filepath.Join(dir, "vtml.db"))
}

func TestSetup(t *testing.T) {
	setEnv(t)
	ctx := context.Background()

	config := vtml.Config{}
	env, err := setup.Setup(ctx, &config)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, env.Close(ctx))
	}()

	assert.Equal(t, ":8000", config.SrvAddr)
	assert.Equal(t, 11, config.Anomaly.MinPoints)
	assert.Equal(t, 5, config.KMeans.Clusters)

	state := env.ModelState()
	require.NotNil(t, state)
	assert.IsType(t, &iforest.Forest{}, state.Current(predictor.KindAnomaly))
	assert.IsType(t, &kmeans.KMeans{}, state.Current(predictor.KindRoute))
	assert.NotNil(t, env.ProvideNotifier())
	assert.NotNil(t, env.Stream())
	assert.NotNil(t, env.Maintenance())
	assert.NotNil(t, env.Database())
}

func TestSetup_Lof(t *testing.T) {
	setEnv(t)
	t.Setenv("VTML_ANOMALY_ALGORITHM", "LOF")
	t.Setenv("VTML_ALLOW_ALERTS", "false")
	t.Setenv("VTML_STREAM_ENABLED", "false")
	ctx := context.Background()

	config := vtml.Config{}
	env, err := setup.Setup(ctx, &config)
	require.NoError(t, err)
	defer env.Close(ctx)

	assert.IsType(t, &lof.Lof{}, env.ModelState().Current(predictor.KindAnomaly))
	assert.Nil(t, env.ProvideNotifier())
	assert.Nil(t, env.Stream())
}

func TestSetup_Errors(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown_algorithm", env: map[string]string{"VTML_ANOMALY_ALGORITHM": "SVM"}},
		{name: "unknown_backend", env: map[string]string{"VTML_STORE_BACKEND": "s3"}},
		{name: "unknown_distance", env: map[string]string{"VTML_ANOMALY_ALGORITHM": "LOF", "VTML_LOF_DISTANCE_FUNC": "COSINE"}},
		{name: "missing_rules_file", env: map[string]string{"VTML_MAINTENANCE_RULES_FILE": "/nonexistent/rules.toml"}},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			setEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			config := vtml.Config{}
			if _, err := setup.Setup(context.Background(), &config); err == nil {
				t.Errorf("Setup error mismatch, got: nil, expected: error")
			}
		})
	}
}

func TestProvideClustererFor(t *testing.T) {
	fn := setup.ProvideClustererFor(&predictor.Config{Seed: 42}, &kmeans.Config{Clusters: 5, Restarts: 10, MaxIter: 300, Tolerance: 1e-4})
	m, err := fn()
	require.NoError(t, err)
	km, ok := m.(*kmeans.KMeans)
	require.True(t, ok)
	assert.Equal(t, 5, km.Clusters())
	assert.False(t, km.Fitted())
}
