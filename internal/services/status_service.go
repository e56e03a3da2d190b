package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/benmeehan/location-tracker/internal/models"
	"github.com/benmeehan/location-tracker/pkg/identity"
	"github.com/benmeehan/location-tracker/pkg/mqtt"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/process"
)

// StatusSource reports the tracking controller's state.
type StatusSource interface {
	Status() models.TrackingStatus
}

// SampleCounter reports how many samples the store holds.
type SampleCounter interface {
	Count(ctx context.Context) (int64, error)
}

// StatusService publishes a status report periodically and whenever the
// tracking state changes.
type StatusService struct {
	PubTopic   string
	Interval   time.Duration
	QOS        int
	DeviceInfo identity.DeviceInfoInterface
	Source     StatusSource
	Counter    SampleCounter
	MqttClient mqtt.MQTTClient
	Logger     zerolog.Logger

	changed chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewStatusService initializes a new StatusService.
func NewStatusService(pubTopic string, interval time.Duration, qos int, deviceInfo identity.DeviceInfoInterface,
	source StatusSource, counter SampleCounter, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *StatusService {

	return &StatusService{
		PubTopic:   pubTopic,
		Interval:   interval,
		QOS:        qos,
		DeviceInfo: deviceInfo,
		Source:     source,
		Counter:    counter,
		MqttClient: mqttClient,
		Logger:     logger,
		changed:    make(chan struct{}, 1),
	}
}

// Start launches the status loop in a separate goroutine.
func (s *StatusService) Start() error {
	if s.ctx != nil {
		s.Logger.Warn().Msg("StatusService is already running")
		return errors.New("status service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runStatusLoop()
	}()

	s.Logger.Info().Str("topic", s.PubTopic).Dur("interval", s.Interval).Msg("StatusService started successfully")
	return nil
}

// Stop gracefully stops the status service.
func (s *StatusService) Stop() error {
	if s.ctx == nil {
		s.Logger.Warn().Msg("StatusService is not running")
		return errors.New("status service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.Logger.Info().Msg("StatusService stopped successfully")
	return nil
}

// OnTrackingChange schedules an immediate report. It never blocks, so it can
// be registered as a TrackingService listener.
func (s *StatusService) OnTrackingChange(models.TrackingStatus) {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func (s *StatusService) runStatusLoop() {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-s.changed:
		case <-s.ctx.Done():
			s.Logger.Info().Msg("StatusService stopping gracefully")
			return
		}

		if err := s.Publish(s.ctx); err != nil {
			s.Logger.Error().Err(err).Msg("Failed to publish status report")
		} else {
			s.Logger.Debug().Msg("Status report published successfully")
		}
	}
}

// Publish sends one status report.
func (s *StatusService) Publish(ctx context.Context) error {
	payload, err := json.Marshal(s.Report(ctx))
	if err != nil {
		return err
	}

	token := s.MqttClient.Publish(s.PubTopic, byte(s.QOS), false, payload)
	token.Wait()
	return token.Error()
}

// Report assembles the current status. Host and process figures that cannot
// be read are left at zero.
func (s *StatusService) Report(ctx context.Context) models.StatusReport {
	report := models.StatusReport{
		DeviceID:  s.DeviceInfo.GetDeviceID(),
		Timestamp: time.Now(),
		Tracking:  s.Source.Status(),
	}

	if uptime, err := host.Uptime(); err == nil {
		report.UptimeSec = uptime
	} else {
		s.Logger.Debug().Err(err).Msg("Failed to read host uptime")
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil {
			report.ProcessRSS = mem.RSS
		}
	}

	if count, err := s.Counter.Count(ctx); err == nil {
		report.StoredCount = count
	} else {
		s.Logger.Warn().Err(err).Msg("Failed to count stored samples")
	}

	return report
}
