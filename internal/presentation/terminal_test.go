package presentation

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestFormatView(t *testing.T) {
	color.NoColor = true

	v := NewMapView()
	v.ApplySnapshot(twoSamples())
	v.SetTracking(true, 0)

	var out bytes.Buffer
	NewTerminalRenderer(&out).Render(v.State())

	text := out.String()
	assert.Contains(t, text, "Status: ACTIVE")
	assert.Contains(t, text, "  Lat: 19.51")
	assert.Contains(t, text, "  Accuracy: 8m")
	assert.Contains(t, text, "2 point(s) on path")
}

func TestFormatView_Empty(t *testing.T) {
	color.NoColor = true

	text := FormatView(NewMapView().State())
	assert.Contains(t, text, "Status: INACTIVE")
	assert.Contains(t, text, "(no location yet)")
}

func TestFormatStatus_Degraded(t *testing.T) {
	color.NoColor = true

	line := FormatStatus(StatusView{Active: true, Degraded: true, Text: "Status: ACTIVE (degraded)", DegradedReason: "location permission denied"})
	assert.Equal(t, "Status: ACTIVE (degraded) - location permission denied", line)
}

func TestFormatCoordinates(t *testing.T) {
	assert.Equal(t, "(19.51000, -99.15000) ±8m", FormatCoordinates(twoSamples()[0]))
}
