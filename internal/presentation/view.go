// Package presentation turns store snapshots and tracking state into a map
// view (path, current-position marker, readout, status) and turns user
// gestures into controller and store calls.
package presentation

import (
	"fmt"
	"time"

	"github.com/benmeehan/location-tracker/internal/constants"
	"github.com/benmeehan/location-tracker/internal/geojson"
	"github.com/benmeehan/location-tracker/internal/models"
)

// DefaultZoom is the map zoom used when centring on a fix.
const DefaultZoom = 18.0

// Center is where the map is focused.
type Center struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
}

// StatusView is the tracking status line. Active mirrors the user's last
// start/stop gesture; Degraded comes from the controller.
type StatusView struct {
	Active         bool   `json:"active"`
	IntervalMS     int64  `json:"interval_ms,omitempty"`
	Degraded       bool   `json:"degraded"`
	DegradedReason string `json:"degraded_reason,omitempty"`
	Text           string `json:"text"`
}

// ViewState is everything a map surface needs to draw.
type ViewState struct {
	Readout    string           `json:"readout"`
	Path       *geojson.Feature `json:"path,omitempty"`
	Marker     *geojson.Feature `json:"marker,omitempty"`
	Center     Center           `json:"center"`
	PointCount int              `json:"point_count"`
	Status     StatusView       `json:"status"`
}

// MapView holds the view state. It is not safe for concurrent use; the
// Presenter confines it to its UI loop.
type MapView struct {
	state ViewState
}

// NewMapView returns an empty view centred on the default start point.
func NewMapView() *MapView {
	v := &MapView{
		state: ViewState{
			Center: Center{
				Latitude:  constants.DefaultStartLatitude,
				Longitude: constants.DefaultStartLongitude,
				Zoom:      DefaultZoom,
			},
		},
	}
	v.refreshStatusText()
	return v
}

// ApplySnapshot redraws from a newest-first snapshot of the log.
func (v *MapView) ApplySnapshot(newestFirst []models.LocationSample) {
	v.state.PointCount = len(newestFirst)

	if len(newestFirst) == 0 {
		v.state.Readout = ""
		v.state.Path = nil
		v.state.Marker = nil
		return
	}

	latest := newestFirst[0]
	v.state.Readout = FormatReadout(latest)

	if line, ok := geojson.Path(geojson.Chronological(newestFirst)); ok {
		v.state.Path = &line
	} else {
		v.state.Path = nil
	}

	v.state.Center = Center{Latitude: latest.Latitude, Longitude: latest.Longitude, Zoom: DefaultZoom}

	// Replace, never add: there is only ever one current-position marker.
	marker := geojson.Point(latest)
	marker.Properties["title"] = "You are here"
	v.state.Marker = &marker
}

// SetTracking records the user's start/stop gesture.
func (v *MapView) SetTracking(active bool, interval time.Duration) {
	v.state.Status.Active = active
	v.state.Status.IntervalMS = 0
	if active {
		v.state.Status.IntervalMS = interval.Milliseconds()
	} else {
		v.state.Status.Degraded = false
		v.state.Status.DegradedReason = ""
	}
	v.refreshStatusText()
}

// ApplyControllerStatus takes the degraded flag from the controller. The
// active flag stays whatever the user last asked for.
func (v *MapView) ApplyControllerStatus(status models.TrackingStatus) {
	v.state.Status.Degraded = status.Degraded
	v.state.Status.DegradedReason = status.DegradedReason
	v.refreshStatusText()
}

// State returns a copy of the current view.
func (v *MapView) State() ViewState {
	return v.state
}

func (v *MapView) refreshStatusText() {
	s := &v.state.Status
	switch {
	case s.Active && s.Degraded:
		s.Text = "Status: ACTIVE (degraded)"
	case s.Active:
		s.Text = "Status: ACTIVE"
	default:
		s.Text = "Status: INACTIVE"
	}
}

// FormatReadout renders the coordinate readout for a sample.
func FormatReadout(s models.LocationSample) string {
	return fmt.Sprintf("Lat: %v\nLon: %v\nAccuracy: %vm", s.Latitude, s.Longitude, s.Accuracy)
}

// FormatCoordinates renders a sample on one line.
func FormatCoordinates(s models.LocationSample) string {
	return fmt.Sprintf("(%.5f, %.5f) ±%.0fm", s.Latitude, s.Longitude, s.Accuracy)
}
