// Package store is the append-only location log: inserts, bulk clear and a
// live newest-first feed of every sample.
package store

import (
	"context"
	"errors"

	"github.com/benmeehan/location-tracker/internal/models"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Writer is the write side used by the tracking controller.
type Writer interface {
	Insert(ctx context.Context, sample *models.LocationSample) error
}

// Repository is the full location log.
type Repository interface {
	Writer
	ObserveAll(ctx context.Context) (*Subscription, error)
	ClearAll(ctx context.Context) error
	All(ctx context.Context) ([]models.LocationSample, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}
