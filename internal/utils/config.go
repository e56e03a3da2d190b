package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/benmeehan/location-tracker/internal/constants"
	"github.com/benmeehan/location-tracker/pkg/file"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config represents the structure of the configuration file.
type Config struct {
	Log struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"` // zerolog level name
		Pretty bool   `yaml:"pretty"`                                                       // Human readable console output
	} `yaml:"log"`

	MQTT struct {
		Enabled       bool   `yaml:"enabled"`                                    // Connect to a broker at all
		Broker        string `yaml:"broker" validate:"required_if=Enabled true"` // MQTT broker address
		ClientID      string `yaml:"client_id"`                                  // MQTT client ID
		CACertificate string `yaml:"ca_certificate"`                             // Path to the CA certificate, empty for plain TCP
	} `yaml:"mqtt"`

	Identity struct {
		DeviceFile string `yaml:"device_file"` // Path to the device identity file
	} `yaml:"identity"`

	Storage struct {
		Path string `yaml:"path"` // SQLite database file
	} `yaml:"storage"`

	Services struct {
		Tracking struct {
			DefaultInterval time.Duration `yaml:"default_interval" validate:"gte=0"` // Interval used by autostart
			MinInterval     time.Duration `yaml:"min_interval" validate:"gte=0"`     // Platform minimum update interval
			WriteWorkers    int           `yaml:"write_workers" validate:"gte=0"`    // Concurrent store writers
			Autostart       bool          `yaml:"autostart"`                         // Start tracking on boot
			IndicatorTopic  string        `yaml:"indicator_topic"`                   // Retained MQTT topic for the active indicator

			Provider struct {
				Type              string  `yaml:"type" validate:"omitempty,oneof=sensor google simulated"` // Location source
				GPSDevicePort     string  `yaml:"gps_device_port" validate:"required_if=Type sensor"`      // UNIX Port where the GPS sensor is mounted
				GPSDeviceBaudRate int     `yaml:"gps_baud_rate"`                                           // The Baud rate for GPS sensor
				MapsAPIKey        string  `yaml:"maps_api_key"`                                            // Google maps API Key
				ModemIndex        int     `yaml:"modem_index"`                                             // mmcli modem used for cell towers
				StartLatitude     float64 `yaml:"start_latitude" validate:"gte=-90,lte=90"`                // Simulated walk origin
				StartLongitude    float64 `yaml:"start_longitude" validate:"gte=-180,lte=180"`             // Simulated walk origin
			} `yaml:"provider"`
		} `yaml:"tracking"`

		Control struct {
			Enabled bool   `yaml:"enabled"`                    // Listen for start/stop messages
			Topic   string `yaml:"topic"`                      // MQTT topic for control messages
			QOS     int    `yaml:"qos" validate:"gte=0,lte=2"` // MQTT QoS level for control messages
		} `yaml:"control"`

		Status struct {
			Enabled  bool          `yaml:"enabled"`                    // Enable/disable status reports
			Topic    string        `yaml:"topic"`                      // MQTT topic for status reports
			Interval time.Duration `yaml:"interval" validate:"gte=0"`  // Interval between status reports
			QOS      int           `yaml:"qos" validate:"gte=0,lte=2"` // MQTT QoS level for status reports
		} `yaml:"status"`

		Presentation struct {
			Enabled       bool   `yaml:"enabled"`        // Serve the map UI and HTTP API
			ListenAddr    string `yaml:"listen_addr"`    // HTTP listen address
			StaticDir     string `yaml:"static_dir"`     // Optional directory with the browser map page
			RemoteControl bool   `yaml:"remote_control"` // Send gestures over the MQTT control channel
		} `yaml:"presentation"`
	} `yaml:"services"`
}

// LoadConfig loads the YAML configuration from the specified file.
// Values from a .env file and TRACKER_* environment variables override the
// file, then defaults are applied and the result validated.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	// Use the ReadYamlFile method from fileClient
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}
	return config.finalize()
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() (*Config, error) {
	var config Config
	config.Services.Presentation.Enabled = true
	return config.finalize()
}

func (c *Config) finalize() (*Config, error) {
	_ = godotenv.Load()
	c.applyEnv()
	c.applyDefaults()

	if err := validator.New().Struct(c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TRACKER_MQTT_BROKER"); v != "" {
		c.MQTT.Broker = v
	}
	if v := os.Getenv("TRACKER_MAPS_API_KEY"); v != "" {
		c.Services.Tracking.Provider.MapsAPIKey = v
	}
	if v := os.Getenv("TRACKER_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "location-tracker"
	}

	t := &c.Services.Tracking
	if t.DefaultInterval == 0 {
		t.DefaultInterval = constants.DefaultInterval
	}
	if t.MinInterval == 0 {
		t.MinInterval = constants.DefaultMinInterval
	}
	if t.WriteWorkers == 0 {
		t.WriteWorkers = constants.DefaultWriteWorkers
	}
	if t.IndicatorTopic == "" {
		t.IndicatorTopic = constants.DefaultIndicatorTopic
	}
	if t.Provider.Type == "" {
		t.Provider.Type = constants.DefaultProvider
	}
	if t.Provider.GPSDeviceBaudRate == 0 {
		t.Provider.GPSDeviceBaudRate = constants.DefaultGPSBaudRate
	}
	if t.Provider.StartLatitude == 0 && t.Provider.StartLongitude == 0 {
		t.Provider.StartLatitude = constants.DefaultStartLatitude
		t.Provider.StartLongitude = constants.DefaultStartLongitude
	}

	if c.Services.Control.Topic == "" {
		c.Services.Control.Topic = constants.DefaultControlTopic
	}
	if c.Services.Status.Topic == "" {
		c.Services.Status.Topic = constants.DefaultStatusTopic
	}
	if c.Services.Status.Interval == 0 {
		c.Services.Status.Interval = constants.DefaultStatusInterval
	}
	if c.Services.Presentation.ListenAddr == "" {
		c.Services.Presentation.ListenAddr = constants.DefaultListenAddr
	}
}
