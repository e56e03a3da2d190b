package models

import (
	"time"
)

// LocationSample is one recorded fix as persisted in the location log.
type LocationSample struct {
	ID        int64   `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"` // milliseconds since epoch
	Accuracy  float32 `json:"accuracy"`  // meters
}

// NewLocationSample builds a sample captured at the given instant. ID is left
// for the store to assign.
func NewLocationSample(lat, lng float64, accuracy float32, capturedAt time.Time) LocationSample {
	return LocationSample{
		Latitude:  lat,
		Longitude: lng,
		Timestamp: capturedAt.UnixMilli(),
		Accuracy:  accuracy,
	}
}

// Time returns the capture time of the sample.
func (s LocationSample) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}
