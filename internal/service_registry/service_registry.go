package service_registry

import (
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/location-tracker/internal/constants"
	"github.com/benmeehan/location-tracker/internal/presentation"
	"github.com/benmeehan/location-tracker/internal/registry"
	"github.com/benmeehan/location-tracker/internal/services"
	"github.com/benmeehan/location-tracker/internal/store"
	"github.com/benmeehan/location-tracker/internal/utils"
	"github.com/benmeehan/location-tracker/pkg/identity"
	"github.com/benmeehan/location-tracker/pkg/location"
	"github.com/benmeehan/location-tracker/pkg/mqtt"
	"github.com/rs/zerolog"
)

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	mqttClient  mqtt.MQTTClient             // nil when MQTT is disabled
	Logger      zerolog.Logger

	tracking  *services.TrackingService
	presenter *presentation.Presenter
}

// NewServiceRegistry initializes a new service registry with dependencies.
// mqttClient may be nil.
func NewServiceRegistry(mqttClient mqtt.MQTTClient, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]registry.Service),
		mqttClient: mqttClient,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// Services returns the registered service names in start order.
func (sr *ServiceRegistry) Services() []string {
	return append([]string(nil), sr.serviceKeys...)
}

// Tracking returns the tracking controller, or nil before RegisterServices.
func (sr *ServiceRegistry) Tracking() *services.TrackingService {
	return sr.tracking
}

// Presenter returns the presenter, or nil when presentation is disabled.
func (sr *ServiceRegistry) Presenter() *presentation.Presenter {
	return sr.presenter
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return fmt.Errorf("start %s: %w", name, err)
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices builds the agent from configuration: location source,
// tracking controller, control channel, status reports and presentation.
// repo is owned by the caller.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, deviceInfo identity.DeviceInfoInterface, repo store.Repository) error {
	trackingCfg := config.Services.Tracking

	provider, err := NewLocationProvider(config, sr.Logger)
	if err != nil {
		sr.Logger.Error().Err(err).Msg("Failed to create location provider")
		return err
	}
	client := location.NewPollingClient(provider, trackingCfg.MinInterval, sr.Logger.With().Str("service", "location").Logger())

	var indicator services.Indicator = services.NewLogIndicator(sr.Logger)
	if sr.mqttClient != nil {
		indicator = services.NewMQTTIndicator(trackingCfg.IndicatorTopic, 1, sr.mqttClient, sr.Logger)
	}

	sr.tracking = services.NewTrackingService(client, repo, indicator, trackingCfg.WriteWorkers,
		sr.Logger.With().Str("service", "tracking").Logger())

	mqttAvailable := func(name string, enabled bool) bool {
		if enabled && sr.mqttClient == nil {
			sr.Logger.Warn().Msgf("Service %s needs MQTT, which is disabled; skipping", name)
			return false
		}
		return enabled
	}

	// Ordered service definitions with inline constructors
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (registry.Service, error)
	}{
		{
			name:    "location",
			enabled: true,
			constructor: func() (registry.Service, error) {
				return closerService{name: "location", close: client.Close, logger: sr.Logger}, nil
			},
		},
		{
			name:    "tracking",
			enabled: true,
			constructor: func() (registry.Service, error) {
				return sr.tracking, nil
			},
		},
		{
			name:    "control",
			enabled: mqttAvailable("control", config.Services.Control.Enabled),
			constructor: func() (registry.Service, error) {
				return services.NewControlService(
					config.Services.Control.Topic,
					config.Services.Control.QOS,
					sr.mqttClient,
					sr.tracking,
					sr.Logger.With().Str("service", "control").Logger(),
				), nil
			},
		},
		{
			name:    "status",
			enabled: mqttAvailable("status", config.Services.Status.Enabled),
			constructor: func() (registry.Service, error) {
				status := services.NewStatusService(
					config.Services.Status.Topic,
					config.Services.Status.Interval,
					config.Services.Status.QOS,
					deviceInfo,
					sr.tracking,
					repo,
					sr.mqttClient,
					sr.Logger.With().Str("service", "status").Logger(),
				)
				sr.tracking.OnStatusChange(status.OnTrackingChange)
				return status, nil
			},
		},
		{
			name:    "presenter",
			enabled: config.Services.Presentation.Enabled,
			constructor: func() (registry.Service, error) {
				var commander presentation.Commander = sr.tracking
				if config.Services.Presentation.RemoteControl && sr.mqttClient != nil {
					commander = services.NewControlClient(config.Services.Control.Topic, config.Services.Control.QOS, sr.mqttClient)
				}
				sr.presenter = presentation.NewPresenter(repo, commander, sr.Logger.With().Str("service", "presenter").Logger())
				sr.tracking.OnStatusChange(sr.presenter.OnControllerStatus)
				return sr.presenter, nil
			},
		},
		{
			name:    "http",
			enabled: config.Services.Presentation.Enabled,
			constructor: func() (registry.Service, error) {
				logger := sr.Logger.With().Str("service", "http").Logger()
				hub := presentation.NewWebSocketHub(sr.presenter, logger)
				sr.presenter.AddRenderer(hub)
				return presentation.NewServer(
					config.Services.Presentation.ListenAddr,
					config.Services.Presentation.StaticDir,
					sr.presenter,
					repo,
					sr.tracking,
					hub,
					logger,
				), nil
			},
		},
	}

	// Register services in the predefined order
	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}

// Autostart begins tracking at the configured default interval when the
// configuration asks for it. Call after StartServices.
func (sr *ServiceRegistry) Autostart(config *utils.Config) error {
	if !config.Services.Tracking.Autostart || sr.tracking == nil {
		return nil
	}
	interval := config.Services.Tracking.DefaultInterval
	sr.Logger.Info().Str("interval", utils.FormatInterval(interval)).Msg("Autostarting tracking")
	if sr.presenter != nil {
		return sr.presenter.StartTracking(interval)
	}
	return sr.tracking.StartTracking(interval)
}

// NewLocationProvider builds the configured location source.
func NewLocationProvider(config *utils.Config, logger zerolog.Logger) (location.Provider, error) {
	p := config.Services.Tracking.Provider
	switch p.Type {
	case constants.ProviderSensor:
		return location.NewDeviceSensorProvider(p.GPSDevicePort, p.GPSDeviceBaudRate), nil
	case constants.ProviderGoogle:
		return location.NewGoogleGeolocationProvider(p.MapsAPIKey, p.ModemIndex, logger)
	case constants.ProviderSimulated, "":
		return location.NewSimulatedProvider(p.StartLatitude, p.StartLongitude, constants.DefaultSimulatedJitter, time.Now().UnixNano()), nil
	default:
		return nil, fmt.Errorf("unknown location provider %q", p.Type)
	}
}

// closerService adapts a resource that only needs closing to the Service
// lifecycle.
type closerService struct {
	name   string
	close  func() error
	logger zerolog.Logger
}

func (c closerService) Start() error { return nil }

func (c closerService) Stop() error {
	c.logger.Info().Msgf("Closing %s", c.name)
	return c.close()
}
