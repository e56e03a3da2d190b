package identity

import (
	"os"

	"github.com/benmeehan/location-tracker/pkg/file"
	"github.com/google/uuid"
)

// Identity holds the device's unique identifier and other metadata.
type Identity struct {
	ID   string `json:"device_id,omitempty"`
	Name string `json:"device_name,omitempty"`
}

// DeviceInfoInterface defines methods for managing device identity.
type DeviceInfoInterface interface {
	LoadDeviceInfo() error
	GetDeviceID() string
}

// DeviceInfo manages the device identity and its associated file operations.
type DeviceInfo struct {
	DeviceInfoFile string
	Identity       Identity
	fileOps        file.FileOperations
}

// NewDeviceInfo initializes a new DeviceInfo instance.
func NewDeviceInfo(filePath string, fileOps file.FileOperations) *DeviceInfo {
	return &DeviceInfo{
		DeviceInfoFile: filePath,
		fileOps:        fileOps,
	}
}

// LoadDeviceInfo reads the device identity from the file. A device without an
// ID gets a fresh UUID, which is written back so it survives restarts. With no
// file configured the ID lives only in memory.
func (d *DeviceInfo) LoadDeviceInfo() error {
	if d.DeviceInfoFile != "" {
		err := d.fileOps.ReadJsonFile(d.DeviceInfoFile, &d.Identity)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if d.Identity.ID != "" {
		return nil
	}

	d.Identity.ID = uuid.NewString()
	if d.DeviceInfoFile == "" {
		return nil
	}
	return d.fileOps.WriteJsonFile(d.DeviceInfoFile, d.Identity)
}

// GetDeviceID returns the current device ID.
func (d *DeviceInfo) GetDeviceID() string {
	return d.Identity.ID
}
