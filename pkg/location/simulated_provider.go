package location

import (
	"context"
	"math/rand"
	"sync"
)

// SimulatedProvider produces a random walk around a starting point. Useful on
// machines without a GPS receiver.
type SimulatedProvider struct {
	mu       sync.Mutex
	lat, lng float64
	jitter   float64
	rnd      *rand.Rand
}

// NewSimulatedProvider creates a random walk starting at lat/lng that moves at
// most jitter degrees per axis on each fix.
func NewSimulatedProvider(lat, lng, jitter float64, seed int64) *SimulatedProvider {
	return &SimulatedProvider{
		lat:    lat,
		lng:    lng,
		jitter: jitter,
		rnd:    rand.New(rand.NewSource(seed)),
	}
}

// GetLocation advances the walk and returns the new position.
func (s *SimulatedProvider) GetLocation(ctx context.Context) (Location, error) {
	if err := ctx.Err(); err != nil {
		return Location{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lat += (s.rnd.Float64()*2 - 1) * s.jitter
	s.lng += (s.rnd.Float64()*2 - 1) * s.jitter

	return Location{
		Latitude:  s.lat,
		Longitude: s.lng,
		Accuracy:  3 + s.rnd.Float64()*7,
	}, nil
}

func (s *SimulatedProvider) Close() error {
	return nil
}
