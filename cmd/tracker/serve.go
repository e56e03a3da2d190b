package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/benmeehan/location-tracker/internal/service_registry"
	"github.com/benmeehan/location-tracker/pkg/identity"
	"github.com/benmeehan/location-tracker/pkg/mqtt"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracking agent and the map server",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openStore()
		if err != nil {
			return err
		}
		defer repo.Close()
		logger.Info().Str("path", repo.Path()).Msg("Location store opened")

		// Initialize DeviceInfo
		deviceInfo := identity.NewDeviceInfo(config.Identity.DeviceFile, fileClient)
		if err := deviceInfo.LoadDeviceInfo(); err != nil {
			logger.Error().Err(err).Msg("Failed to load device information")
			return err
		}

		var mqttClient mqtt.MQTTClient
		if config.MQTT.Enabled {
			// Generate a unique MQTT Client ID by appending a UUID
			clientID := config.MQTT.ClientID + "-" + uuid.NewString()
			logger.Info().Str("client_id", clientID).Str("broker", config.MQTT.Broker).Msg("Connecting to MQTT broker")

			svc := mqtt.NewMqttService(fileClient)
			if err := svc.Initialize(config.MQTT.Broker, clientID, config.MQTT.CACertificate); err != nil {
				logger.Error().Err(err).Msg("Failed to initialize MQTT connection")
				return err
			}
			defer svc.Disconnect(250)
			mqttClient = svc
		}

		serviceRegistry := service_registry.NewServiceRegistry(mqttClient, logger)
		if err := serviceRegistry.RegisterServices(config, deviceInfo, repo); err != nil {
			return err
		}
		if err := serviceRegistry.StartServices(); err != nil {
			return err
		}
		logger.Info().Str("device_id", deviceInfo.GetDeviceID()).Msg("All services started successfully")

		if err := serviceRegistry.Autostart(config); err != nil {
			logger.Error().Err(err).Msg("Autostart failed")
		}

		// Handle graceful shutdown
		stopCh := make(chan os.Signal, 1)
		signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
		<-stopCh

		logger.Info().Msg("Shutting down gracefully...")
		return serviceRegistry.StopServices()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
