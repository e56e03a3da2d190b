package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benmeehan/location-tracker/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore creates a temporary database for testing.
func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sample(lat, lng float64, ts int64, acc float32) *models.LocationSample {
	return &models.LocationSample{Latitude: lat, Longitude: lng, Timestamp: ts, Accuracy: acc}
}

// next reads one snapshot or fails the test.
func next(t *testing.T, sub *Subscription) []models.LocationSample {
	t.Helper()
	select {
	case snap, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "path", "test.db")

	s, err := NewSQLiteStore(dbPath, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestInsert_AssignsIncreasingIDs(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := sample(19.50, -99.14, 100, 5.0)
	second := sample(19.51, -99.15, 200, 8.0)
	require.NoError(t, s.Insert(ctx, first))
	require.NoError(t, s.Insert(ctx, second))

	assert.Greater(t, first.ID, int64(0))
	assert.Greater(t, second.ID, first.ID)
}

func TestObserveAll_NewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, sample(19.50, -99.14, 100, 5.0)))
	require.NoError(t, s.Insert(ctx, sample(19.51, -99.15, 200, 8.0)))

	sub, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer sub.Close()

	snap := next(t, sub)
	require.Len(t, snap, 2)
	assert.Equal(t, 19.51, snap[0].Latitude)
	assert.Equal(t, -99.15, snap[0].Longitude)
	assert.Equal(t, int64(200), snap[0].Timestamp)
	assert.Equal(t, float32(8.0), snap[0].Accuracy)
	assert.Equal(t, 19.50, snap[1].Latitude)
	assert.Equal(t, -99.14, snap[1].Longitude)
	assert.Equal(t, int64(100), snap[1].Timestamp)
	assert.Equal(t, float32(5.0), snap[1].Accuracy)
}

func TestObserveAll_InitialSnapshotWhenEmpty(t *testing.T) {
	s := testStore(t)

	sub, err := s.ObserveAll(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	snap := next(t, sub)
	assert.NotNil(t, snap)
	assert.Empty(t, snap)
}

func TestObserveAll_EmitsAfterEachMutation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sub, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, next(t, sub))

	require.NoError(t, s.Insert(ctx, sample(1, 1, 10, 1)))
	assert.Len(t, next(t, sub), 1)

	require.NoError(t, s.Insert(ctx, sample(2, 2, 20, 1)))
	assert.Len(t, next(t, sub), 2)

	require.NoError(t, s.ClearAll(ctx))
	assert.Empty(t, next(t, sub))
}

func TestObserveAll_MultipleSubscribers(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer a.Close()
	b, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer b.Close()
	next(t, a)
	next(t, b)

	require.NoError(t, s.Insert(ctx, sample(1, 1, 10, 1)))

	assert.Len(t, next(t, a), 1)
	assert.Len(t, next(t, b), 1)
}

func TestObserveAll_SlowSubscriberSeesLatest(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sub, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer sub.Close()

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, s.Insert(ctx, sample(1, 1, i*10, 1)))
	}

	snap := next(t, sub)
	assert.Len(t, snap, 5)
	assert.Equal(t, int64(50), snap[0].Timestamp)
}

func TestObserveAll_ContextCancelEndsSubscription(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	next(t, sub)

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-sub.C()
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestClearAll_EmptiesRegardlessOfCount(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := int64(0); i < 3; i++ {
		require.NoError(t, s.Insert(ctx, sample(1, 1, i, 1)))
	}
	require.NoError(t, s.ClearAll(ctx))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	sub, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, next(t, sub))
}

func TestConcurrentInserts_OrderedAndComplete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sub, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer sub.Close()
	next(t, sub)

	var wg sync.WaitGroup
	for i := int64(0); i < 20; i++ {
		wg.Add(1)
		go func(ts int64) {
			defer wg.Done()
			assert.NoError(t, s.Insert(ctx, sample(1, 1, ts, 1)))
		}(i)
	}
	wg.Wait()

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 20)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i-1].Timestamp, all[i].Timestamp)
	}

	// The latest emission matches the table.
	assert.Len(t, next(t, sub), 20)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), n)
}

func TestClose_EndsSubscriptionsAndRejectsWrites(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)

	sub, err := s.ObserveAll(context.Background())
	require.NoError(t, err)
	next(t, sub)

	require.NoError(t, s.Close())

	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.ErrorIs(t, s.Insert(context.Background(), sample(1, 1, 1, 1)), ErrClosed)
	sub.Close()
}
