package identity

import (
	"path/filepath"
	"testing"

	"github.com/benmeehan/location-tracker/pkg/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDeviceInfo_GeneratesAndPersistsID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	fs := file.NewFileService()

	first := NewDeviceInfo(path, fs)
	require.NoError(t, first.LoadDeviceInfo())
	require.NotEmpty(t, first.GetDeviceID())

	second := NewDeviceInfo(path, fs)
	require.NoError(t, second.LoadDeviceInfo())
	assert.Equal(t, first.GetDeviceID(), second.GetDeviceID())
}

func TestLoadDeviceInfo_KeepsExistingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	fs := file.NewFileService()
	require.NoError(t, fs.WriteJsonFile(path, Identity{ID: "tracker-01", Name: "bike"}))

	d := NewDeviceInfo(path, fs)
	require.NoError(t, d.LoadDeviceInfo())

	assert.Equal(t, "tracker-01", d.GetDeviceID())
	assert.Equal(t, "bike", d.Identity.Name)
}

func TestLoadDeviceInfo_InMemoryWithoutFile(t *testing.T) {
	d := NewDeviceInfo("", file.NewFileService())
	require.NoError(t, d.LoadDeviceInfo())
	assert.NotEmpty(t, d.GetDeviceID())
}
