package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/benmeehan/location-tracker/internal/presentation"
	"github.com/benmeehan/location-tracker/internal/services"
	"github.com/benmeehan/location-tracker/pkg/mqtt"
	"github.com/google/uuid"
)

var serverURL string

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "base URL of a running 'tracker serve' (default from listen_addr)")
}

// baseURL returns the HTTP address of the local agent.
func baseURL() string {
	if serverURL != "" {
		return strings.TrimRight(serverURL, "/")
	}
	addr := config.Services.Presentation.ListenAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

// apiClient talks to the HTTP API of a running agent.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient() *apiClient {
	return &apiClient{base: baseURL(), http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *apiClient) startTracking(interval time.Duration) error {
	return c.do(http.MethodPost, "/api/tracking/start", presentation.StartRequest{IntervalMS: interval.Milliseconds()}, nil)
}

func (c *apiClient) stopTracking() error {
	return c.do(http.MethodPost, "/api/tracking/stop", struct{}{}, nil)
}

func (c *apiClient) clearHistory() error {
	return c.do(http.MethodDelete, "/api/history", nil, nil)
}

func (c *apiClient) status() (*presentation.StatusResponse, error) {
	var resp presentation.StatusResponse
	if err := c.do(http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("agent not reachable at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// controller returns the channel used for start/stop: the MQTT control topic
// when the agent listens on it, otherwise the HTTP API. The returned close
// func releases the connection.
func controller() (services.Controller, func(), error) {
	if config.MQTT.Enabled && config.Services.Control.Enabled {
		svc := mqtt.NewMqttService(fileClient)
		clientID := config.MQTT.ClientID + "-cli-" + uuid.NewString()
		if err := svc.Initialize(config.MQTT.Broker, clientID, config.MQTT.CACertificate); err != nil {
			return nil, nil, fmt.Errorf("connect to MQTT broker: %w", err)
		}
		client := services.NewControlClient(config.Services.Control.Topic, config.Services.Control.QOS, svc)
		return client, func() { svc.Disconnect(250) }, nil
	}

	api := newAPIClient()
	return httpController{api: api}, func() {}, nil
}

type httpController struct {
	api *apiClient
}

func (h httpController) StartTracking(interval time.Duration) error {
	return h.api.startTracking(interval)
}

func (h httpController) StopTracking() error {
	return h.api.stopTracking()
}
