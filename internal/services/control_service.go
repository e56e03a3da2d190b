package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benmeehan/location-tracker/internal/constants"
	"github.com/benmeehan/location-tracker/internal/models"
	"github.com/benmeehan/location-tracker/pkg/mqtt"
	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// Controller is the tracking surface driven by control messages.
type Controller interface {
	StartTracking(interval time.Duration) error
	StopTracking() error
}

// ControlService receives start/stop messages over MQTT and applies them to
// the tracking controller.
type ControlService struct {
	// Configuration Fields
	topic string
	qos   int

	// Dependencies
	mqttClient mqtt.MQTTClient
	controller Controller
	logger     zerolog.Logger

	// Internal state management
	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
}

// NewControlService initializes a new ControlService with given parameters.
func NewControlService(topic string, qos int, mqttClient mqtt.MQTTClient, controller Controller, logger zerolog.Logger) *ControlService {
	return &ControlService{
		topic:      topic,
		qos:        qos,
		mqttClient: mqttClient,
		controller: controller,
		logger:     logger,
	}
}

// Start subscribes to the control topic.
func (cs *ControlService) Start() error {
	cs.logger.Info().Str("topic", cs.topic).Msg("Starting ControlService and subscribing to MQTT topic")
	token := cs.mqttClient.Subscribe(cs.topic, byte(cs.qos), cs.HandleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		cs.logger.Error().Err(err).Str("topic", cs.topic).Msg("Failed to subscribe to MQTT topic")
		return err
	}

	cs.mu.Lock()
	cs.stopped = false
	cs.mu.Unlock()

	cs.logger.Info().Str("topic", cs.topic).Msg("Successfully subscribed to MQTT topic")
	return nil
}

// Stop unsubscribes and waits for in-flight messages to be handled.
func (cs *ControlService) Stop() error {
	cs.mu.Lock()
	cs.stopped = true
	cs.mu.Unlock()
	cs.wg.Wait()

	token := cs.mqttClient.Unsubscribe(cs.topic)
	token.Wait()
	if err := token.Error(); err != nil {
		cs.logger.Error().Err(err).Str("topic", cs.topic).Msg("Failed to unsubscribe from MQTT topic")
		return err
	}

	cs.logger.Info().Msg("ControlService stopped successfully")
	return nil
}

// HandleMessage decodes one control message and applies it. Invalid messages
// are logged and ignored.
func (cs *ControlService) HandleMessage(client MQTT.Client, msg MQTT.Message) {
	cs.mu.Lock()
	if cs.stopped {
		cs.mu.Unlock()
		cs.logger.Warn().Msg("Received control message but service is stopping, ignoring")
		return
	}
	cs.wg.Add(1)
	cs.mu.Unlock()
	defer cs.wg.Done()

	var message models.ControlMessage
	if err := json.Unmarshal(msg.Payload(), &message); err != nil {
		cs.logger.Error().Err(err).Str("topic", msg.Topic()).Msg("Failed to decode control message")
		return
	}

	if err := cs.Apply(message); err != nil {
		cs.logger.Error().Err(err).Str("action", message.Action).Msg("Control message rejected")
	}
}

// Apply executes a decoded control message.
func (cs *ControlService) Apply(message models.ControlMessage) error {
	cs.logger.Info().
		Str("action", message.Action).
		Int64("interval_ms", message.IntervalMS).
		Msg("Received control message")

	switch message.Action {
	case constants.ActionStart:
		if message.IntervalMS <= 0 {
			return fmt.Errorf("%w: %d ms", ErrInvalidInterval, message.IntervalMS)
		}
		return cs.controller.StartTracking(time.Duration(message.IntervalMS) * time.Millisecond)
	case constants.ActionStop:
		return cs.controller.StopTracking()
	default:
		return fmt.Errorf("unknown control action %q", message.Action)
	}
}

// ControlClient sends control messages to a tracking controller over MQTT.
type ControlClient struct {
	topic      string
	qos        int
	timeout    time.Duration
	mqttClient mqtt.MQTTClient
}

// NewControlClient creates a ControlClient publishing on topic.
func NewControlClient(topic string, qos int, mqttClient mqtt.MQTTClient) *ControlClient {
	return &ControlClient{
		topic:      topic,
		qos:        qos,
		timeout:    10 * time.Second,
		mqttClient: mqttClient,
	}
}

// StartTracking asks the controller to start (or re-arm) at interval.
func (c *ControlClient) StartTracking(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	return c.send(models.ControlMessage{Action: constants.ActionStart, IntervalMS: interval.Milliseconds()})
}

// StopTracking asks the controller to stop.
func (c *ControlClient) StopTracking() error {
	return c.send(models.ControlMessage{Action: constants.ActionStop})
}

func (c *ControlClient) send(message models.ControlMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	token := c.mqttClient.Publish(c.topic, byte(c.qos), false, payload)
	if !token.WaitTimeout(c.timeout) {
		return errors.New("timed out publishing control message")
	}
	return token.Error()
}
