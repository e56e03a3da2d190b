package location

import (
	"context"
	"errors"
	"time"
)

// ErrPermissionDenied is returned when the process is not allowed to access
// the location source (device permissions, missing API credentials).
var ErrPermissionDenied = errors.New("location permission denied")

// Provider interface defines the methods for location providers
type Provider interface {
	GetLocation(ctx context.Context) (Location, error)
	Close() error
}

// PermissionChecker is implemented by providers that can tell up front
// whether they will be able to deliver fixes.
type PermissionChecker interface {
	CheckPermission() error
}

// Callback receives each fix delivered by a Client.
type Callback func(Location)

// ErrorCallback receives each failed fix attempt. A provider that loses
// access reports ErrPermissionDenied here.
type ErrorCallback func(error)

// Subscription is an active request for periodic updates.
type Subscription interface {
	Interval() time.Duration
	Remove()
}

// Client delivers fixes at a requested cadence, the same way a platform
// location service does. Cadence is entirely the client's responsibility.
type Client interface {
	RequestUpdates(interval time.Duration, cb Callback, onError ErrorCallback) (Subscription, error)
}
