package models

// ControlMessage is the inter-process message sent to the tracking controller.
type ControlMessage struct {
	Action     string `json:"action"`                // "start" or "stop"
	IntervalMS int64  `json:"interval_ms,omitempty"` // Sampling interval, only for "start"
}
