package location

import "time"

// Location represents the geographical coordinates of a device
type Location struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64   // Estimated horizontal accuracy in meters
	Time      time.Time // When the provider produced the fix, zero if unknown
}
