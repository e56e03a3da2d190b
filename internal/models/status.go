package models

import "time"

// TrackingState is the controller's lifecycle state.
type TrackingState string

const (
	TrackingStopped TrackingState = "stopped"
	TrackingRunning TrackingState = "running"
)

// TrackingSession is the in-memory record of an active tracking run. It is
// never persisted.
type TrackingSession struct {
	ID        string        `json:"id"`
	Interval  time.Duration `json:"interval"`
	StartedAt time.Time     `json:"started_at"`
}

// TrackingStatus is a point-in-time view of the controller.
type TrackingStatus struct {
	State          TrackingState `json:"state"`
	SessionID      string        `json:"session_id,omitempty"`
	IntervalMS     int64         `json:"interval_ms,omitempty"`
	Degraded       bool          `json:"degraded"`
	DegradedReason string        `json:"degraded_reason,omitempty"`
	SamplesWritten uint64        `json:"samples_written"`
	WriteFailures  uint64        `json:"write_failures"`
}

// Running reports whether the controller is tracking.
func (s TrackingStatus) Running() bool {
	return s.State == TrackingRunning
}

// StatusReport is the periodic status message published by the agent.
type StatusReport struct {
	DeviceID    string         `json:"device_id"`
	Timestamp   time.Time      `json:"timestamp"`
	Tracking    TrackingStatus `json:"tracking"`
	UptimeSec   uint64         `json:"host_uptime_sec"`
	ProcessRSS  uint64         `json:"process_rss_bytes"`
	StoredCount int64          `json:"stored_samples"`
}

// Indicator is the persistent "tracking active" notice shown while the
// controller runs.
type Indicator struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}
