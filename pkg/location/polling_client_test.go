package location

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	calls     atomic.Int32
	err       error
	permError error
}

func (s *stubProvider) GetLocation(ctx context.Context) (Location, error) {
	s.calls.Add(1)
	if s.err != nil {
		return Location{}, s.err
	}
	return Location{Latitude: 19.5, Longitude: -99.14, Accuracy: 5}, nil
}

func (s *stubProvider) CheckPermission() error { return s.permError }

func (s *stubProvider) Close() error { return nil }

func TestPollingClient_DeliversFixes(t *testing.T) {
	provider := &stubProvider{}
	client := NewPollingClient(provider, time.Millisecond, zerolog.Nop())

	fixes := make(chan Location, 10)
	sub, err := client.RequestUpdates(20*time.Millisecond, func(l Location) { fixes <- l }, nil)
	require.NoError(t, err)
	defer sub.Remove()

	select {
	case fix := <-fixes:
		assert.Equal(t, 19.5, fix.Latitude)
		assert.False(t, fix.Time.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no fix delivered")
	}
}

func TestPollingClient_RemoveStopsDelivery(t *testing.T) {
	provider := &stubProvider{}
	client := NewPollingClient(provider, time.Millisecond, zerolog.Nop())

	var delivered atomic.Int32
	sub, err := client.RequestUpdates(10*time.Millisecond, func(Location) { delivered.Add(1) }, nil)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	sub.Remove()
	sub.Remove()
	after := delivered.Load()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, delivered.Load())
}

func TestPollingClient_PermissionDenied(t *testing.T) {
	provider := &stubProvider{permError: ErrPermissionDenied}
	client := NewPollingClient(provider, time.Millisecond, zerolog.Nop())

	sub, err := client.RequestUpdates(time.Second, func(Location) {}, nil)

	assert.Nil(t, sub)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestPollingClient_ClampsToMinimumInterval(t *testing.T) {
	client := NewPollingClient(&stubProvider{}, time.Second, zerolog.Nop())

	sub, err := client.RequestUpdates(10*time.Millisecond, func(Location) {}, nil)
	require.NoError(t, err)
	defer sub.Remove()

	assert.Equal(t, time.Second, sub.Interval())
}

func TestPollingClient_RejectsNonPositiveInterval(t *testing.T) {
	client := NewPollingClient(&stubProvider{}, time.Second, zerolog.Nop())

	_, err := client.RequestUpdates(0, func(Location) {}, nil)
	assert.Error(t, err)
}

func TestPollingClient_ProviderErrorsAreSkipped(t *testing.T) {
	provider := &stubProvider{err: errors.New("no satellites")}
	client := NewPollingClient(provider, time.Millisecond, zerolog.Nop())

	var delivered atomic.Int32
	sub, err := client.RequestUpdates(5*time.Millisecond, func(Location) { delivered.Add(1) }, nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return provider.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	sub.Remove()
	assert.Zero(t, delivered.Load())
}

func TestPollingClient_ReportsFixErrors(t *testing.T) {
	provider := &stubProvider{err: ErrPermissionDenied}
	client := NewPollingClient(provider, time.Millisecond, zerolog.Nop())

	errs := make(chan error, 10)
	sub, err := client.RequestUpdates(5*time.Millisecond, func(Location) {
		t.Error("unexpected fix")
	}, func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	require.NoError(t, err)
	defer sub.Remove()

	select {
	case got := <-errs:
		assert.ErrorIs(t, got, ErrPermissionDenied)
	case <-time.After(time.Second):
		t.Fatal("fix error not reported")
	}
}

func TestSimulatedProvider_StaysNearStart(t *testing.T) {
	p := NewSimulatedProvider(19.5045, -99.1469, 0.0002, 42)

	for i := 0; i < 10; i++ {
		loc, err := p.GetLocation(context.Background())
		require.NoError(t, err)
		assert.InDelta(t, 19.5045, loc.Latitude, 0.0021)
		assert.InDelta(t, -99.1469, loc.Longitude, 0.0021)
		assert.Greater(t, loc.Accuracy, 0.0)
	}
}
