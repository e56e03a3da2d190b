package store

import (
	"context"
	"sync"

	"github.com/benmeehan/location-tracker/internal/models"
	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// Subscription receives full snapshots of the log, newest first. The first
// value is the state at subscribe time; each later value follows a mutation.
// A slow reader only ever sees the most recent snapshot.
type Subscription struct {
	id   string
	c    chan []models.LocationSample
	hub  *Hub
	once sync.Once
}

// C returns the snapshot channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan []models.LocationSample {
	return s.c
}

// Close unregisters the subscription.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s.id)
	})
}

// Hub is a registry of snapshot subscribers. Callers hold the hub lock around
// "mutate, read snapshot, publish" so every subscriber sees snapshots in
// mutation order.
type Hub struct {
	mu          sync.Mutex
	subscribers cmap.ConcurrentMap[string, *Subscription]
	closed      bool
}

// NewHub creates an empty registry.
func NewHub() *Hub {
	return &Hub{subscribers: cmap.New[*Subscription]()}
}

// Do runs fn with the hub locked.
func (h *Hub) Do(fn func() error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	return fn()
}

// Subscribe registers a subscriber and delivers initial as its first
// snapshot. snapshot is called with the hub locked.
func (h *Hub) Subscribe(ctx context.Context, snapshot func() ([]models.LocationSample, error)) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}

	initial, err := snapshot()
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		id:  uuid.NewString(),
		c:   make(chan []models.LocationSample, 1),
		hub: h,
	}
	sub.c <- initial
	h.subscribers.Set(sub.id, sub)

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			sub.Close()
		}()
	}
	return sub, nil
}

// Publish delivers snapshot to every subscriber. Must be called from inside Do.
func (h *Hub) Publish(snapshot []models.LocationSample) {
	for item := range h.subscribers.IterBuffered() {
		deliver(item.Val.c, snapshot)
	}
}

// Len returns the number of active subscribers.
func (h *Hub) Len() int {
	return h.subscribers.Count()
}

// Close ends every subscription. Further Do/Subscribe calls fail with ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for item := range h.subscribers.IterBuffered() {
		h.subscribers.Remove(item.Key)
		close(item.Val.c)
	}
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subscribers.Pop(id); ok {
		close(sub.c)
	}
}

// deliver replaces any unread snapshot with the new one. Only the hub sends on
// c, so after draining there is always room.
func deliver(c chan []models.LocationSample, snapshot []models.LocationSample) {
	select {
	case c <- snapshot:
		return
	default:
	}
	select {
	case <-c:
	default:
	}
	c <- snapshot
}
