package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benmeehan/location-tracker/internal/constants"
	"github.com/benmeehan/location-tracker/internal/models"
	"github.com/benmeehan/location-tracker/internal/store"
	"github.com/benmeehan/location-tracker/internal/utils"
	"github.com/benmeehan/location-tracker/pkg/location"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrInvalidInterval is returned when tracking is started with a non-positive interval.
var ErrInvalidInterval = errors.New("tracking interval must be positive")

// StatusListener is notified after every tracking state change. It runs with
// the service lock held and must not block or call back into the service.
type StatusListener func(models.TrackingStatus)

// healthEvent carries a fix outcome from the location client goroutine to the
// health watcher. A nil err clears the degraded state.
type healthEvent struct {
	gen uint64
	err error
}

// TrackingService owns location acquisition: it requests periodic fixes from
// the location client and appends each one to the location store.
type TrackingService struct {
	// Dependencies
	client    location.Client
	writer    store.Writer
	indicator Indicator
	logger    zerolog.Logger
	pool      *utils.WorkerPool
	now       func() time.Time

	// Internal state management
	mu        sync.Mutex
	session   *models.TrackingSession
	sub       location.Subscription
	degraded  string
	gen       uint64
	listeners []StatusListener

	// Fix health, reported from the location client goroutine
	health      chan healthEvent
	healthMu    sync.Mutex
	done        chan struct{}
	stopOnce    sync.Once
	watcher     sync.WaitGroup
	fixErrors   atomic.Int32
	fixDegraded atomic.Bool

	written  atomic.Uint64
	failures atomic.Uint64
}

// NewTrackingService creates a stopped TrackingService. writeWorkers bounds the
// number of concurrent store inserts.
func NewTrackingService(client location.Client, writer store.Writer, indicator Indicator,
	writeWorkers int, logger zerolog.Logger) *TrackingService {
	t := &TrackingService{
		client:    client,
		writer:    writer,
		indicator: indicator,
		logger:    logger,
		pool:      utils.NewWorkerPool(writeWorkers),
		now:       time.Now,
		health:    make(chan healthEvent, 1),
		done:      make(chan struct{}),
	}
	t.watcher.Add(1)
	go t.watchHealth()
	return t
}

// Start satisfies the registry lifecycle. Tracking itself begins with StartTracking.
func (t *TrackingService) Start() error {
	t.logger.Info().Msg("TrackingService ready")
	return nil
}

// Stop ends tracking and waits for queued writes to finish.
func (t *TrackingService) Stop() error {
	err := t.StopTracking()
	t.stopOnce.Do(func() { close(t.done) })
	t.watcher.Wait()
	t.pool.Shutdown()
	t.logger.Info().
		Uint64("samples_written", t.written.Load()).
		Uint64("write_failures", t.failures.Load()).
		Msg("TrackingService stopped")
	return err
}

// OnStatusChange registers a listener for state changes.
func (t *TrackingService) OnStatusChange(listener StatusListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, listener)
}

// StartTracking begins sampling at interval. When already running the current
// subscription is replaced, so exactly one subscription is ever active.
//
// A location client that refuses the request (permission denied, missing
// device) leaves the service running in a degraded state instead of failing.
func (t *TrackingService) StartTracking(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rearm := t.session != nil
	if t.sub != nil {
		t.sub.Remove()
		t.sub = nil
	}
	if t.session == nil {
		t.session = &models.TrackingSession{ID: uuid.NewString(), StartedAt: t.now()}
	}
	t.degraded = ""

	// Callbacks of the replaced subscription have stopped, so the fix
	// health counters can start over for the new generation.
	t.gen++
	gen := t.gen
	t.fixErrors.Store(0)
	t.fixDegraded.Store(false)

	effective := interval
	sub, err := t.client.RequestUpdates(interval,
		func(loc location.Location) { t.onFix(gen, loc) },
		func(err error) { t.onFixError(gen, err) })
	if err != nil {
		t.degraded = err.Error()
		event := t.logger.Error()
		if errors.Is(err, location.ErrPermissionDenied) {
			event = t.logger.Warn()
		}
		event.Err(err).Str("session_id", t.session.ID).Msg("Location updates unavailable, tracking degraded")
	} else {
		t.sub = sub
		effective = sub.Interval()
	}
	t.session.Interval = effective

	indicator := models.Indicator{
		Title: constants.IndicatorTitle,
		Text:  fmt.Sprintf(constants.IndicatorTextFormat, ceilSeconds(effective)),
	}
	if err := t.indicator.Show(indicator); err != nil {
		t.logger.Warn().Err(err).Msg("Failed to show tracking indicator")
	}

	t.logger.Info().
		Str("session_id", t.session.ID).
		Dur("interval", effective).
		Bool("rearm", rearm).
		Bool("degraded", t.degraded != "").
		Msg("Tracking started")

	t.notifyLocked()
	return nil
}

// StopTracking cancels the location subscription and removes the indicator.
// Writes already queued still complete. Calling it while stopped is a no-op.
func (t *TrackingService) StopTracking() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		t.logger.Debug().Msg("Tracking already stopped")
		return nil
	}

	if t.sub != nil {
		t.sub.Remove()
		t.sub = nil
	}

	var err error
	if err = t.indicator.Hide(); err != nil {
		t.logger.Warn().Err(err).Msg("Failed to remove tracking indicator")
	}

	t.logger.Info().Str("session_id", t.session.ID).Msg("Tracking stopped")
	t.session = nil
	t.degraded = ""

	t.notifyLocked()
	return err
}

// Status returns the current controller state.
func (t *TrackingService) Status() models.TrackingStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked()
}

func (t *TrackingService) statusLocked() models.TrackingStatus {
	status := models.TrackingStatus{
		State:          models.TrackingStopped,
		SamplesWritten: t.written.Load(),
		WriteFailures:  t.failures.Load(),
	}
	if t.session != nil {
		status.State = models.TrackingRunning
		status.SessionID = t.session.ID
		status.IntervalMS = t.session.Interval.Milliseconds()
		status.Degraded = t.degraded != ""
		status.DegradedReason = t.degraded
	}
	return status
}

func (t *TrackingService) notifyLocked() {
	status := t.statusLocked()
	for _, listener := range t.listeners {
		listener(status)
	}
}

// ceilSeconds rounds d up to whole seconds for display.
func ceilSeconds(d time.Duration) int64 {
	return int64((d + time.Second - 1) / time.Second)
}

// onFix runs on the location client's goroutine. It must not take t.mu, since
// StopTracking holds it while waiting for the subscription to wind down.
func (t *TrackingService) onFix(gen uint64, loc location.Location) {
	t.fixErrors.Store(0)
	if t.fixDegraded.Swap(false) {
		t.reportHealth(healthEvent{gen: gen})
	}

	sample := models.NewLocationSample(loc.Latitude, loc.Longitude, float32(loc.Accuracy), t.now())
	if !t.pool.Submit(func() { t.persist(sample) }) {
		t.logger.Warn().Msg("Dropping location fix, service is shutting down")
	}
}

// onFixError runs on the location client's goroutine. Permission loss
// degrades tracking at once; other errors only after FixFailureThreshold
// consecutive failures.
func (t *TrackingService) onFixError(gen uint64, err error) {
	n := t.fixErrors.Add(1)
	if !errors.Is(err, location.ErrPermissionDenied) && n < constants.FixFailureThreshold {
		return
	}
	t.fixDegraded.Store(true)
	t.reportHealth(healthEvent{gen: gen, err: err})
}

// reportHealth replaces any pending event with ev. It never blocks, so it is
// safe on the location client's goroutine.
func (t *TrackingService) reportHealth(ev healthEvent) {
	t.healthMu.Lock()
	defer t.healthMu.Unlock()
	select {
	case <-t.health:
	default:
	}
	t.health <- ev
}

func (t *TrackingService) watchHealth() {
	defer t.watcher.Done()
	for {
		select {
		case <-t.done:
			return
		case ev := <-t.health:
			t.applyHealth(ev)
		}
	}
}

// applyHealth updates the degraded state. Events from a replaced or stopped
// subscription are ignored.
func (t *TrackingService) applyHealth(ev healthEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ev.gen != t.gen || t.session == nil || t.sub == nil {
		return
	}
	reason := ""
	if ev.err != nil {
		reason = ev.err.Error()
	}
	if reason == t.degraded {
		return
	}
	t.degraded = reason

	if reason != "" {
		t.logger.Warn().Err(ev.err).Str("session_id", t.session.ID).Msg("Location fixes failing, tracking degraded")
	} else {
		t.logger.Info().Str("session_id", t.session.ID).Msg("Location fixes recovered")
	}
	t.notifyLocked()
}

// persist writes one sample. Failures are logged and the sample dropped.
func (t *TrackingService) persist(sample models.LocationSample) {
	if err := t.writer.Insert(context.Background(), &sample); err != nil {
		t.failures.Add(1)
		t.logger.Error().
			Err(err).
			Float64("latitude", sample.Latitude).
			Float64("longitude", sample.Longitude).
			Msg("Failed to store location sample")
		return
	}
	t.written.Add(1)
	t.logger.Debug().
		Int64("id", sample.ID).
		Float64("latitude", sample.Latitude).
		Float64("longitude", sample.Longitude).
		Float32("accuracy", sample.Accuracy).
		Msg("Location sample stored")
}
