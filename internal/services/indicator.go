package services

import (
	"encoding/json"

	"github.com/benmeehan/location-tracker/internal/models"
	"github.com/benmeehan/location-tracker/pkg/mqtt"
	"github.com/rs/zerolog"
)

// Indicator is the persistent, non-dismissible notice that tracking is active.
type Indicator interface {
	Show(indicator models.Indicator) error
	Hide() error
}

// MQTTIndicator keeps the indicator as a retained message on a topic. Hiding
// publishes an empty retained payload, which clears it on the broker.
type MQTTIndicator struct {
	topic      string
	qos        int
	mqttClient mqtt.MQTTClient
	logger     zerolog.Logger
}

// NewMQTTIndicator creates an indicator backed by a retained MQTT message.
func NewMQTTIndicator(topic string, qos int, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *MQTTIndicator {
	return &MQTTIndicator{
		topic:      topic,
		qos:        qos,
		mqttClient: mqttClient,
		logger:     logger,
	}
}

// Show publishes the indicator as a retained message.
func (i *MQTTIndicator) Show(indicator models.Indicator) error {
	payload, err := json.Marshal(indicator)
	if err != nil {
		return err
	}
	return i.publish(payload)
}

// Hide clears the retained indicator.
func (i *MQTTIndicator) Hide() error {
	return i.publish([]byte{})
}

func (i *MQTTIndicator) publish(payload []byte) error {
	token := i.mqttClient.Publish(i.topic, byte(i.qos), true, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		i.logger.Error().Err(err).Str("topic", i.topic).Msg("Failed to publish indicator")
		return err
	}
	return nil
}

// LogIndicator shows the indicator in the agent log only.
type LogIndicator struct {
	logger zerolog.Logger
}

// NewLogIndicator creates an indicator that writes to logger.
func NewLogIndicator(logger zerolog.Logger) *LogIndicator {
	return &LogIndicator{logger: logger}
}

func (i *LogIndicator) Show(indicator models.Indicator) error {
	i.logger.Info().Str("title", indicator.Title).Str("text", indicator.Text).Msg("Indicator shown")
	return nil
}

func (i *LogIndicator) Hide() error {
	i.logger.Info().Msg("Indicator removed")
	return nil
}
