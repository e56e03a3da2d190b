package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benmeehan/location-tracker/internal/mocks"
	"github.com/benmeehan/location-tracker/internal/models"
	"github.com/benmeehan/location-tracker/internal/services"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticSource struct{ status models.TrackingStatus }

func (s staticSource) Status() models.TrackingStatus { return s.status }

type staticCounter struct {
	count int64
	err   error
}

func (c staticCounter) Count(context.Context) (int64, error) { return c.count, c.err }

func TestStatusService_Report(t *testing.T) {
	source := staticSource{status: models.TrackingStatus{State: models.TrackingRunning, IntervalMS: 10000}}
	svc := services.NewStatusService("tracker/status", time.Minute, 0, mocks.NewMockDeviceInfo("device-1"),
		source, staticCounter{count: 7}, new(mocks.MockMQTTClient), zerolog.Nop())

	report := svc.Report(context.Background())

	assert.Equal(t, "device-1", report.DeviceID)
	assert.Equal(t, source.status, report.Tracking)
	assert.Equal(t, int64(7), report.StoredCount)
	assert.False(t, report.Timestamp.IsZero())
}

func TestStatusService_ReportSurvivesCountError(t *testing.T) {
	svc := services.NewStatusService("tracker/status", time.Minute, 0, mocks.NewMockDeviceInfo("device-1"),
		staticSource{}, staticCounter{err: errors.New("db locked")}, new(mocks.MockMQTTClient), zerolog.Nop())

	report := svc.Report(context.Background())
	assert.Zero(t, report.StoredCount)
}

func TestStatusService_Publish(t *testing.T) {
	mqttClient := new(mocks.MockMQTTClient)
	mqttClient.On("Publish", "tracker/status", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) {
			var report models.StatusReport
			require.NoError(t, json.Unmarshal(args.Get(3).([]byte), &report))
			assert.Equal(t, "device-1", report.DeviceID)
			assert.Equal(t, models.TrackingStopped, report.Tracking.State)
		}).Return(mocks.NewMockToken(nil))

	svc := services.NewStatusService("tracker/status", time.Minute, 1, mocks.NewMockDeviceInfo("device-1"),
		staticSource{status: models.TrackingStatus{State: models.TrackingStopped}}, staticCounter{}, mqttClient, zerolog.Nop())

	require.NoError(t, svc.Publish(context.Background()))
	mqttClient.AssertExpectations(t)
}

func TestStatusService_PublishesOnTrackingChange(t *testing.T) {
	var mu sync.Mutex
	published := 0
	mqttClient := new(mocks.MockMQTTClient)
	mqttClient.On("Publish", "tracker/status", byte(0), false, mock.Anything).
		Run(func(mock.Arguments) {
			mu.Lock()
			published++
			mu.Unlock()
		}).Return(mocks.NewMockToken(nil))

	svc := services.NewStatusService("tracker/status", time.Hour, 0, mocks.NewMockDeviceInfo("device-1"),
		staticSource{}, staticCounter{}, mqttClient, zerolog.Nop())
	require.NoError(t, svc.Start())

	svc.OnTrackingChange(models.TrackingStatus{State: models.TrackingRunning})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return published >= 1
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, svc.Stop())
}

func TestStatusService_StartStopErrors(t *testing.T) {
	svc := services.NewStatusService("tracker/status", time.Hour, 0, mocks.NewMockDeviceInfo("device-1"),
		staticSource{}, staticCounter{}, new(mocks.MockMQTTClient), zerolog.Nop())

	assert.Error(t, svc.Stop())
	require.NoError(t, svc.Start())
	assert.Error(t, svc.Start())
	require.NoError(t, svc.Stop())
}
