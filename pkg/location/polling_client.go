package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PollingClient turns a pull-based Provider into a Client by polling it on a
// ticker for each subscription.
type PollingClient struct {
	provider    Provider
	minInterval time.Duration
	timeout     time.Duration
	logger      zerolog.Logger
}

// NewPollingClient creates a PollingClient. Requested intervals below
// minInterval are raised to it.
func NewPollingClient(provider Provider, minInterval time.Duration, logger zerolog.Logger) *PollingClient {
	return &PollingClient{
		provider:    provider,
		minInterval: minInterval,
		timeout:     10 * time.Second,
		logger:      logger,
	}
}

// RequestUpdates starts polling the provider every interval and passes each
// successful fix to cb and each failed attempt to onError, which may be nil.
// It fails with ErrPermissionDenied when the provider reports it cannot be
// accessed.
func (c *PollingClient) RequestUpdates(interval time.Duration, cb Callback, onError ErrorCallback) (Subscription, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid update interval %s", interval)
	}
	if cb == nil {
		return nil, errors.New("nil location callback")
	}
	if checker, ok := c.provider.(PermissionChecker); ok {
		if err := checker.CheckPermission(); err != nil {
			return nil, err
		}
	}
	if interval < c.minInterval {
		c.logger.Debug().
			Dur("requested", interval).
			Dur("min_interval", c.minInterval).
			Msg("Raising update interval to platform minimum")
		interval = c.minInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &pollingSubscription{interval: interval, cancel: cancel}

	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		c.poll(ctx, interval, cb, onError)
	}()

	c.logger.Info().Dur("interval", interval).Msg("Location updates requested")
	return sub, nil
}

func (c *PollingClient) poll(ctx context.Context, interval time.Duration, cb Callback, onError ErrorCallback) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fixCtx, cancel := context.WithTimeout(ctx, c.timeout)
			loc, err := c.provider.GetLocation(fixCtx)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Warn().Err(err).Msg("Failed to get location from provider")
				if onError != nil {
					onError(err)
				}
				continue
			}
			if loc.Time.IsZero() {
				loc.Time = time.Now()
			}
			cb(loc)
		case <-ctx.Done():
			return
		}
	}
}

// Close releases the underlying provider.
func (c *PollingClient) Close() error {
	return c.provider.Close()
}

type pollingSubscription struct {
	interval time.Duration
	cancel   context.CancelFunc
	once     sync.Once
	wg       sync.WaitGroup
}

func (s *pollingSubscription) Interval() time.Duration {
	return s.interval
}

// Remove stops the polling goroutine and waits for it to exit. Safe to call
// more than once.
func (s *pollingSubscription) Remove() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}
