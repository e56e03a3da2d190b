package constants

import "time"

// Control message actions
const (
	// ActionStart starts tracking or re-arms it with a new interval
	ActionStart = "start"
	// ActionStop stops tracking
	ActionStop = "stop"
)

// Interval choices offered to the user
const (
	IntervalShort  = 10 * time.Second
	IntervalMedium = 60 * time.Second
	IntervalLong   = 5 * time.Minute
)

const (
	DefaultInterval        = IntervalShort
	DefaultMinInterval     = 1 * time.Second
	DefaultWriteWorkers    = 2
	FixFailureThreshold    = 3
	DefaultStatusInterval  = 30 * time.Second
	DefaultListenAddr      = ":8080"
	DefaultControlTopic    = "tracker/control"
	DefaultStatusTopic     = "tracker/status"
	DefaultIndicatorTopic  = "tracker/indicator"
	DefaultProvider        = ProviderSimulated
	DefaultGPSBaudRate     = 9600
	IndicatorTitle         = "Location tracking active"
	IndicatorTextFormat    = "Saving location every %d sec"
	DefaultStartLatitude   = 19.5045
	DefaultStartLongitude  = -99.1469
	DefaultSimulatedJitter = 0.0002
)

// Location provider kinds
const (
	ProviderSensor    = "sensor"
	ProviderGoogle    = "google"
	ProviderSimulated = "simulated"
)

// IntervalChoices maps the user-facing interval names to durations.
var IntervalChoices = map[string]time.Duration{
	"short":  IntervalShort,
	"medium": IntervalMedium,
	"long":   IntervalLong,
}
