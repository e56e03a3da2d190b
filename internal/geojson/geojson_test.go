package geojson

import (
	"encoding/json"
	"testing"

	"github.com/benmeehan/location-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplesNewestFirst() []models.LocationSample {
	return []models.LocationSample{
		{ID: 3, Latitude: 19.3, Longitude: -99.3, Timestamp: 3000, Accuracy: 5},
		{ID: 2, Latitude: 19.2, Longitude: -99.2, Timestamp: 2000, Accuracy: 5},
		{ID: 1, Latitude: 19.1, Longitude: -99.1, Timestamp: 1000, Accuracy: 5},
	}
}

func TestPoint_UsesLngLatOrder(t *testing.T) {
	f := Point(models.LocationSample{ID: 1, Latitude: 41.8781, Longitude: -87.6298, Accuracy: 12})

	assert.Equal(t, "Point", f.Geometry.Type)
	assert.Equal(t, PointCoordinates{-87.6298, 41.8781}, f.Geometry.Coordinates)
	assert.Equal(t, float32(12), f.Properties["accuracy"])
}

func TestPath_NeedsTwoPoints(t *testing.T) {
	_, ok := Path(nil)
	assert.False(t, ok)

	_, ok = Path(samplesNewestFirst()[:1])
	assert.False(t, ok)
}

func TestChronological_ReversesWithoutMutating(t *testing.T) {
	in := samplesNewestFirst()
	out := Chronological(in)

	assert.Equal(t, []int64{1, 2, 3}, []int64{out[0].ID, out[1].ID, out[2].ID})
	assert.Equal(t, int64(3), in[0].ID)
}

func TestHistory(t *testing.T) {
	fc := History(samplesNewestFirst())

	require.Len(t, fc.Features, 4)
	line := fc.Features[0]
	assert.Equal(t, "LineString", line.Geometry.Type)
	assert.Equal(t, LineCoordinates{{-99.1, 19.1}, {-99.2, 19.2}, {-99.3, 19.3}}, line.Geometry.Coordinates)
	assert.Equal(t, 3, line.Properties["point_count"])
	assert.Equal(t, "Point", fc.Features[1].Geometry.Type)
}

func TestHistory_Empty(t *testing.T) {
	data, err := History(nil).ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}

func TestToJSONIndent_IsValidJSON(t *testing.T) {
	data, err := History(samplesNewestFirst()).ToJSONIndent()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded["type"])
}
