package location

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"
)

// hdopToMeters converts horizontal dilution of precision into an accuracy
// radius using a nominal user equivalent range error.
const hdopToMeters = 5.0

// DeviceSensorProvider is responsible for retrieving location data from a GPS device connected via serial port.
type DeviceSensorProvider struct {
	port     string // Serial port to which the GPS device is connected
	baudRate int    // Baud rate for the serial communication
}

// NewDeviceSensorProvider creates a new instance of DeviceSensorProvider with the specified port and baud rate.
func NewDeviceSensorProvider(port string, baudRate int) *DeviceSensorProvider {
	return &DeviceSensorProvider{
		port:     port,
		baudRate: baudRate,
	}
}

// CheckPermission verifies that the serial device exists and is readable.
func (d *DeviceSensorProvider) CheckPermission() error {
	f, err := os.OpenFile(d.port, os.O_RDONLY, 0)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, d.port)
		}
		return err
	}
	return f.Close()
}

// GetLocation reads GPS data from the device and returns the device's location.
func (d *DeviceSensorProvider) GetLocation(ctx context.Context) (Location, error) {
	c := &serial.Config{Name: d.port, Baud: d.baudRate, ReadTimeout: 2 * time.Second}
	s, err := serial.OpenPort(c)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return Location{}, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return Location{}, err
	}
	defer s.Close() // Ensure the port is closed when done

	// Unblock the scanner if the caller gives up
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	loc, err := readFix(s)
	if err != nil && ctx.Err() != nil {
		return Location{}, ctx.Err()
	}
	return loc, err
}

// Close is a no-op; the port is opened per read.
func (d *DeviceSensorProvider) Close() error {
	return nil
}

// readFix scans NMEA output until the first valid GGA fix.
func readFix(r io.Reader) (Location, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		loc, ok, err := parseGGA(strings.TrimSpace(scanner.Text()))
		if err != nil {
			// partial sentences are common right after the port opens
			continue
		}
		if ok {
			return loc, nil
		}
	}

	// Check for any scanner errors
	if err := scanner.Err(); err != nil {
		return Location{}, err
	}

	return Location{}, errors.New("no valid GPS data found")
}

// parseGGA extracts a fix from a GGA sentence of any talker ($GPGGA, $GNGGA...).
// ok is false for other sentence types and for GGA sentences without a fix.
func parseGGA(line string) (Location, bool, error) {
	if !strings.HasPrefix(line, "$") || !strings.Contains(line, "GGA,") {
		return Location{}, false, nil
	}
	sentence, err := nmea.Parse(line)
	if err != nil {
		return Location{}, false, err
	}

	gga, ok := sentence.(nmea.GGA)
	if !ok || gga.FixQuality == nmea.Invalid {
		return Location{}, false, nil
	}

	return Location{
		Latitude:  gga.Latitude,
		Longitude: gga.Longitude,
		Accuracy:  gga.HDOP * hdopToMeters,
	}, true, nil
}
