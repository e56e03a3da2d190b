package presentation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benmeehan/location-tracker/internal/constants"
	"github.com/benmeehan/location-tracker/internal/models"
	"github.com/benmeehan/location-tracker/internal/store"
	"github.com/rs/zerolog"
)

// ErrUnknownChoice is returned for an interval choice outside IntervalChoices.
var ErrUnknownChoice = errors.New("unknown interval choice")

// ErrNotRunning is returned for gestures made while the presenter is stopped.
var ErrNotRunning = errors.New("presenter is not running")

// Commander sends start/stop requests to the tracking controller.
type Commander interface {
	StartTracking(interval time.Duration) error
	StopTracking() error
}

// History is the part of the location store the presenter reads and clears.
type History interface {
	ObserveAll(ctx context.Context) (*store.Subscription, error)
	ClearAll(ctx context.Context) error
}

// Renderer draws view states. Render runs on the UI loop and must not block.
type Renderer interface {
	Render(state ViewState)
}

// Presenter owns the MapView. Every view mutation happens on its single UI
// loop goroutine: store snapshots, controller status and gestures are all
// funnelled into that loop.
type Presenter struct {
	history   History
	commander Commander
	logger    zerolog.Logger

	view      *MapView
	renderers []Renderer
	actions   chan func()

	statusMu sync.Mutex
	statusC  chan models.TrackingStatus

	stateMu sync.RWMutex
	current ViewState

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPresenter creates a stopped presenter.
func NewPresenter(history History, commander Commander, logger zerolog.Logger) *Presenter {
	view := NewMapView()
	return &Presenter{
		history:   history,
		commander: commander,
		logger:    logger,
		view:      view,
		actions:   make(chan func(), 16),
		statusC:   make(chan models.TrackingStatus, 1),
		current:   view.State(),
	}
}

// AddRenderer registers a surface. Call before Start.
func (p *Presenter) AddRenderer(r Renderer) {
	p.renderers = append(p.renderers, r)
}

// Start subscribes to the store and launches the UI loop.
func (p *Presenter) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx != nil {
		return errors.New("presenter is already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := p.history.ObserveAll(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("observe location history: %w", err)
	}
	p.ctx, p.cancel = ctx, cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.loop(ctx, sub)
	}()

	p.logger.Info().Int("renderers", len(p.renderers)).Msg("Presenter started")
	return nil
}

// Stop ends the UI loop.
func (p *Presenter) Stop() error {
	p.mu.Lock()
	if p.ctx == nil {
		p.mu.Unlock()
		return nil
	}
	p.cancel()
	p.ctx, p.cancel = nil, nil
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info().Msg("Presenter stopped")
	return nil
}

func (p *Presenter) loop(ctx context.Context, sub *store.Subscription) {
	defer sub.Close()
	p.render()

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-sub.C():
			if !ok {
				p.logger.Warn().Msg("Location feed closed")
				return
			}
			p.view.ApplySnapshot(snapshot)
		case status := <-p.statusC:
			p.view.ApplyControllerStatus(status)
		case action := <-p.actions:
			action()
		}
		p.render()
	}
}

func (p *Presenter) render() {
	state := p.view.State()

	p.stateMu.Lock()
	p.current = state
	p.stateMu.Unlock()

	for _, r := range p.renderers {
		r.Render(state)
	}
}

// State returns the last rendered view.
func (p *Presenter) State() ViewState {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.current
}

// OnControllerStatus forwards controller state to the UI loop. It never
// blocks; an unread status is replaced by the newer one.
func (p *Presenter) OnControllerStatus(status models.TrackingStatus) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	select {
	case <-p.statusC:
	default:
	}
	p.statusC <- status
}

// StartChoice starts tracking with one of the named interval choices.
func (p *Presenter) StartChoice(choice string) error {
	interval, ok := constants.IntervalChoices[choice]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChoice, choice)
	}
	return p.StartTracking(interval)
}

// StartTracking asks the controller to track at interval and marks the view
// active once the request has been sent.
func (p *Presenter) StartTracking(interval time.Duration) error {
	if err := p.commander.StartTracking(interval); err != nil {
		return err
	}
	p.logger.Info().Dur("interval", interval).Msg("Tracking start requested")
	return p.post(func() { p.view.SetTracking(true, interval) })
}

// StopTracking asks the controller to stop and marks the view inactive.
func (p *Presenter) StopTracking() error {
	if err := p.commander.StopTracking(); err != nil {
		return err
	}
	p.logger.Info().Msg("Tracking stop requested")
	return p.post(func() { p.view.SetTracking(false, 0) })
}

// ClearHistory deletes the whole log. The view follows through the store's
// empty snapshot.
func (p *Presenter) ClearHistory(ctx context.Context) error {
	if err := p.history.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	p.logger.Info().Msg("Location history cleared")
	return nil
}

// post queues fn on the UI loop.
func (p *Presenter) post(fn func()) error {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()
	if ctx == nil {
		return ErrNotRunning
	}

	select {
	case p.actions <- fn:
		return nil
	case <-ctx.Done():
		return ErrNotRunning
	}
}
