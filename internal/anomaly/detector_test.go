package anomaly

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-sod/vtml/internal/feature"
	"github.com/go-sod/vtml/internal/modelstore"
	"github.com/go-sod/vtml/internal/predictor"
	"github.com/go-sod/vtml/internal/predictor/iforest"
	"github.com/go-sod/vtml/internal/predictor/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeState struct {
	mu        sync.Mutex
	current   predictor.Model
	published []predictor.Model
	err       error
}

func (s *fakeState) Current(predictor.Kind) predictor.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *fakeState) Publish(_ context.Context, m predictor.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.current = m
	s.published = append(s.published, m)
	return nil
}

func (s *fakeState) Guard(predictor.Kind) func() {
	return func() {}
}

type recordingNotifier struct {
	records []Record
}

func (n *recordingNotifier) Notify(records ...Record) {
	n.records = append(n.records, records...)
}

func gpsPoints(n int) []feature.GPSPoint {
	points := make([]feature.GPSPoint, n)
	for i := range points {
		lat, lon := feature.Float(40+float64(i)*0.001), feature.Float(-73)
		points[i] = feature.GPSPoint{
			VehicleID: 7,
			Latitude:  &lat,
			Longitude: &lon,
			Timestamp: fmt.Sprintf("2024-03-01T%02d:00:00Z", i%24),
		}
	}
	return points
}

// twelve identical reports and one far away
func scenarioPoints() []feature.GPSPoint {
	points := make([]feature.GPSPoint, 0, 13)
	zero := feature.Float(0)
	for i := 0; i < 12; i++ {
		points = append(points, feature.GPSPoint{
			VehicleID: 1, Latitude: &zero, Longitude: &zero, Speed: &zero,
			Timestamp: "2024-03-01T00:00:00Z",
		})
	}
	lat, lon, speed := feature.Float(90), feature.Float(180), feature.Float(200)
	return append(points, feature.GPSPoint{
		VehicleID: 1, Latitude: &lat, Longitude: &lon, Speed: &speed,
		Timestamp: "2024-03-01T00:00:00Z",
	})
}

func TestDetect_BelowMinimum(t *testing.T) {
	model := mocks.NewOutlierModel(t)
	state := &fakeState{current: model}
	d := NewDetector(state)

	for _, n := range []int{0, 1, 10} {
		res, err := d.Detect(context.Background(), gpsPoints(n))
		require.NoError(t, err)
		assert.Len(t, res.Flags, n)
		assert.Zero(t, res.AnomalyCount)
		assert.NotNil(t, res.Anomalies)
		for _, f := range res.Flags {
			assert.False(t, f)
		}
	}
	assert.Empty(t, state.published, "nothing is persisted without a fit")
}

func TestDetect_FitsAndPublishes(t *testing.T) {
	fitted := &mocks.OutlierModel{}
	model := mocks.NewOutlierModel(t)
	flags := make([]bool, 11)
	flags[3], flags[9] = true, true
	model.On("FitPredict", mock.Anything, mock.MatchedBy(func(rows [][]float64) bool {
		return len(rows) == 11 && len(rows[0]) == feature.GPSWidth
	})).Return(fitted, flags, nil).Once()
	model.On("Algorithm").Return(predictor.AlgIsolationForest).Maybe()

	state := &fakeState{current: model}
	notifier := &recordingNotifier{}
	d := NewDetector(state, WithNotifier(notifier))

	res, err := d.Detect(context.Background(), gpsPoints(11))
	require.NoError(t, err, spew.Sdump(state))

	assert.Equal(t, 2, res.AnomalyCount)
	assert.Equal(t, flags, res.Flags)
	require.Len(t, res.Anomalies, 2)
	assert.Equal(t, 3, res.Anomalies[0].Hour)
	assert.True(t, res.Anomalies[0].Anomaly)
	assert.Equal(t, "2024-03-01T09:00:00Z", res.Anomalies[1].Timestamp)
	assert.Equal(t, []predictor.Model{fitted}, state.published)
	assert.Len(t, notifier.records, 2)
}

func TestDetect_Failures(t *testing.T) {
	tests := []struct {
		name      string
		points    []feature.GPSPoint
		setup     func(m *mocks.OutlierModel, s *fakeState)
		errTarget error
		published int
	}{
		{
			name: "bad timestamp",
			points: func() []feature.GPSPoint {
				p := gpsPoints(20)
				p[13].Timestamp = "13 o'clock"
				return p
			}(),
			setup:     func(*mocks.OutlierModel, *fakeState) {},
			errTarget: predictor.ErrMalformedInput,
		},
		{
			name:   "fit failure",
			points: gpsPoints(12),
			setup: func(m *mocks.OutlierModel, _ *fakeState) {
				m.On("Algorithm").Return(predictor.AlgIsolationForest).Maybe()
				m.On("FitPredict", mock.Anything, mock.Anything).
					Return(nil, nil, predictor.ModelFailure("degenerate input")).Once()
			},
			errTarget: predictor.ErrModelFailure,
		},
		{
			name:   "short flags",
			points: gpsPoints(12),
			setup: func(m *mocks.OutlierModel, _ *fakeState) {
				m.On("Algorithm").Return(predictor.AlgIsolationForest).Maybe()
				m.On("FitPredict", mock.Anything, mock.Anything).
					Return(&mocks.OutlierModel{}, []bool{true}, nil).Once()
			},
			errTarget: predictor.ErrModelFailure,
		},
		{
			name:   "persist failure",
			points: gpsPoints(12),
			setup: func(m *mocks.OutlierModel, s *fakeState) {
				s.err = errors.New("read-only file system")
				m.On("Algorithm").Return(predictor.AlgIsolationForest).Maybe()
				m.On("FitPredict", mock.Anything, mock.Anything).
					Return(&mocks.OutlierModel{}, make([]bool, 12), nil).Once()
			},
		},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			model := mocks.NewOutlierModel(t)
			state := &fakeState{current: model}
			test.setup(model, state)
			notifier := &recordingNotifier{}

			res, err := NewDetector(state, WithNotifier(notifier)).Detect(context.Background(), test.points)
			require.Error(t, err)
			assert.Nil(t, res, "no partial results")
			if test.errTarget != nil {
				assert.ErrorIs(t, err, test.errTarget)
			}
			assert.Empty(t, notifier.records)
		})
	}
}

func TestDetect_NoModel(t *testing.T) {
	_, err := NewDetector(&fakeState{}).Detect(context.Background(), gpsPoints(11))
	assert.ErrorIs(t, err, predictor.ErrModelFailure)
}

func TestDetect_IsolationForestScenario(t *testing.T) {
	ctx := context.Background()
	store, err := modelstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	state := modelstore.NewState(store)
	state.Register(predictor.KindAnomaly, func() (predictor.Model, error) { return iforest.New() })
	require.NoError(t, state.Load(ctx))

	res, err := NewDetector(state).Detect(ctx, scenarioPoints())
	require.NoError(t, err)
	require.Equal(t, 1, res.AnomalyCount, spew.Sdump(res))
	assert.True(t, res.Flags[12])
	assert.Equal(t, 90.0, res.Anomalies[0].Latitude)
	assert.Equal(t, 200.0, res.Anomalies[0].Speed)

	_, err = store.Load(ctx, predictor.KindAnomaly)
	assert.NoError(t, err, "fitted model must be persisted")
}

func TestDetect_CountMatchesFlags(t *testing.T) {
	ctx := context.Background()
	store, err := modelstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	state := modelstore.NewState(store)
	state.Register(predictor.KindAnomaly, func() (predictor.Model, error) { return iforest.New(iforest.WithTrees(25)) })
	require.NoError(t, state.Load(ctx))
	d := NewDetector(state)

	for _, n := range []int{11, 30, 97} {
		res, err := d.Detect(ctx, gpsPoints(n))
		require.NoError(t, err)
		var count int
		for _, f := range res.Flags {
			if f {
				count++
			}
		}
		assert.Len(t, res.Flags, n)
		assert.Equal(t, count, res.AnomalyCount)
		assert.Len(t, res.Anomalies, count)
	}
}
