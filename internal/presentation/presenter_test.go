package presentation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benmeehan/location-tracker/internal/models"
	"github.com/benmeehan/location-tracker/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommander struct {
	mu        sync.Mutex
	intervals []time.Duration
	stops     int
	err       error
}

func (f *fakeCommander) StartTracking(interval time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.intervals = append(f.intervals, interval)
	return nil
}

func (f *fakeCommander) StopTracking() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.stops++
	return nil
}

func (f *fakeCommander) calls() ([]time.Duration, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.intervals...), f.stops
}

type recordingRenderer struct {
	mu     sync.Mutex
	states []ViewState
}

func (r *recordingRenderer) Render(state ViewState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recordingRenderer) last() ViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[len(r.states)-1]
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "locations.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func startPresenter(t *testing.T, history History, commander Commander) (*Presenter, *recordingRenderer) {
	t.Helper()
	p := NewPresenter(history, commander, zerolog.Nop())
	r := &recordingRenderer{}
	p.AddRenderer(r)
	require.NoError(t, p.Start())
	t.Cleanup(func() { _ = p.Stop() })
	return p, r
}

func insert(t *testing.T, s *store.SQLiteStore, lat, lng float64, ts int64, acc float32) {
	t.Helper()
	sample := models.LocationSample{Latitude: lat, Longitude: lng, Timestamp: ts, Accuracy: acc}
	require.NoError(t, s.Insert(context.Background(), &sample))
}

func TestPresenter_RendersStoreEmissions(t *testing.T) {
	s := newTestStore(t)
	p, r := startPresenter(t, s, &fakeCommander{})

	insert(t, s, 19.50, -99.14, 100, 5)
	insert(t, s, 19.51, -99.15, 200, 8)

	assert.Eventually(t, func() bool { return p.State().PointCount == 2 }, time.Second, 5*time.Millisecond)
	state := r.last()
	assert.Equal(t, "Lat: 19.51\nLon: -99.15\nAccuracy: 8m", state.Readout)
	assert.NotNil(t, state.Marker)
	assert.NotNil(t, state.Path)
}

func TestPresenter_ClearRemovesPathAndMarker(t *testing.T) {
	s := newTestStore(t)
	insert(t, s, 19.50, -99.14, 100, 5)
	insert(t, s, 19.51, -99.15, 200, 8)
	insert(t, s, 19.52, -99.16, 300, 3)

	p, _ := startPresenter(t, s, &fakeCommander{})
	require.Eventually(t, func() bool { return p.State().PointCount == 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, p.ClearHistory(context.Background()))

	assert.Eventually(t, func() bool {
		state := p.State()
		return state.PointCount == 0 && state.Path == nil && state.Marker == nil && state.Readout == ""
	}, time.Second, 5*time.Millisecond)
}

func TestPresenter_StartChoice(t *testing.T) {
	commander := &fakeCommander{}
	p, _ := startPresenter(t, newTestStore(t), commander)

	require.NoError(t, p.StartChoice("medium"))
	assert.Eventually(t, func() bool { return p.State().Status.Active }, time.Second, 5*time.Millisecond)
	intervals, _ := commander.calls()
	assert.Equal(t, []time.Duration{time.Minute}, intervals)

	err := p.StartChoice("forever")
	assert.ErrorIs(t, err, ErrUnknownChoice)
}

func TestPresenter_StopTracking(t *testing.T) {
	commander := &fakeCommander{}
	p, _ := startPresenter(t, newTestStore(t), commander)

	require.NoError(t, p.StartTracking(10*time.Second))
	require.NoError(t, p.StopTracking())

	assert.Eventually(t, func() bool {
		return p.State().Status.Text == "Status: INACTIVE"
	}, time.Second, 5*time.Millisecond)
	_, stops := commander.calls()
	assert.Equal(t, 1, stops)
}

func TestPresenter_CommanderErrorLeavesStatus(t *testing.T) {
	commander := &fakeCommander{err: errors.New("broker unreachable")}
	p, _ := startPresenter(t, newTestStore(t), commander)

	assert.Error(t, p.StartTracking(10*time.Second))
	assert.False(t, p.State().Status.Active)
}

func TestPresenter_ShowsDegradedControllerState(t *testing.T) {
	p, _ := startPresenter(t, newTestStore(t), &fakeCommander{})

	require.NoError(t, p.StartTracking(10*time.Second))
	p.OnControllerStatus(models.TrackingStatus{State: models.TrackingRunning, Degraded: true, DegradedReason: "location permission denied"})

	assert.Eventually(t, func() bool {
		return p.State().Status.Text == "Status: ACTIVE (degraded)"
	}, time.Second, 5*time.Millisecond)
}

func TestPresenter_GesturesRequireRunningLoop(t *testing.T) {
	p := NewPresenter(newTestStore(t), &fakeCommander{}, zerolog.Nop())
	assert.ErrorIs(t, p.StopTracking(), ErrNotRunning)
}
