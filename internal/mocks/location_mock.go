package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/benmeehan/location-tracker/internal/models"
	"github.com/benmeehan/location-tracker/pkg/location"
	"github.com/stretchr/testify/mock"
)

// MockLocationClient is a mock implementation of location.Client that keeps
// the callbacks of every request so tests can deliver fixes and errors by hand.
type MockLocationClient struct {
	mock.Mock

	mu        sync.Mutex
	callbacks []location.Callback
	onErrors  []location.ErrorCallback
}

func (m *MockLocationClient) RequestUpdates(interval time.Duration, cb location.Callback, onError location.ErrorCallback) (location.Subscription, error) {
	args := m.Called(interval)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.callbacks = append(m.callbacks, cb)
	m.onErrors = append(m.onErrors, onError)
	m.mu.Unlock()
	return args.Get(0).(location.Subscription), nil
}

// Deliver invokes the most recently registered callback.
func (m *MockLocationClient) Deliver(loc location.Location) {
	m.mu.Lock()
	cb := m.callbacks[len(m.callbacks)-1]
	m.mu.Unlock()
	cb(loc)
}

// Fail reports a failed fix attempt to the most recently registered error callback.
func (m *MockLocationClient) Fail(err error) {
	m.mu.Lock()
	onError := m.onErrors[len(m.onErrors)-1]
	m.mu.Unlock()
	if onError != nil {
		onError(err)
	}
}

// MockSubscription is a mock implementation of location.Subscription
type MockSubscription struct {
	mock.Mock
}

func (m *MockSubscription) Interval() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

func (m *MockSubscription) Remove() {
	m.Called()
}

// MockWriter is a mock implementation of store.Writer
type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) Insert(ctx context.Context, sample *models.LocationSample) error {
	args := m.Called(ctx, sample)
	return args.Error(0)
}

// MockIndicator is a mock implementation of services.Indicator
type MockIndicator struct {
	mock.Mock
}

func (m *MockIndicator) Show(indicator models.Indicator) error {
	args := m.Called(indicator)
	return args.Error(0)
}

func (m *MockIndicator) Hide() error {
	args := m.Called()
	return args.Error(0)
}
