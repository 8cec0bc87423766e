package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Config holds all configuration options for the battery-state service
type Config struct {
	// Home Assistant Configuration
	HAURL      string `json:"ha_url"`      // Home Assistant base or websocket URL
	HAToken    string `json:"ha_token"`    // Long-lived access token
	HAInsecure bool   `json:"ha_insecure"` // Skip TLS certificate verification for wss://

	// MQTT Configuration
	MQTTUrl         string `json:"mqtt_url"`         // MQTT URL (supports both WebSocket and standard MQTT)
	DiscoveryPrefix string `json:"discovery_prefix"` // Home Assistant discovery prefix

	// Card Configuration
	CardID    string `json:"card_id"`    // Identifier used in MQTT topics and discovery ids
	CardPath  string `json:"card_path"`  // Path to the card YAML file
	WatchCard bool   `json:"watch_card"` // Reload the card when the file changes

	// Presentation
	HTTPAddr string `json:"http_addr"` // Listen address for the HTTP view, empty disables it
	Terminal bool   `json:"terminal"`  // Print the rendered card to stdout

	// Application Configuration
	Verbose bool `json:"verbose"` // Enable verbose logging
}

// GetDefaultConfig returns a configuration with sensible defaults
func GetDefaultConfig() *Config {
	return &Config{
		HAURL:           "ws://homeassistant.local:8123/api/websocket",
		DiscoveryPrefix: "homeassistant",
		CardID:          "battery_state",
		CardPath:        "battery-state-card.yaml",
		WatchCard:       true,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.HAToken == "" {
		return fmt.Errorf("Home Assistant access token is required")
	}
	if _, err := c.WebsocketURL(); err != nil {
		return err
	}
	if c.CardPath == "" {
		return fmt.Errorf("card configuration path is required")
	}
	if c.CardID == "" {
		return fmt.Errorf("card ID is required")
	}

	if c.MQTTUrl != "" {
		if !strings.HasPrefix(c.MQTTUrl, "ws://") &&
			!strings.HasPrefix(c.MQTTUrl, "wss://") &&
			!strings.HasPrefix(c.MQTTUrl, "mqtt://") &&
			!strings.HasPrefix(c.MQTTUrl, "mqtts://") {
			return fmt.Errorf("MQTT URL must use supported protocol (ws://, wss://, mqtt://, or mqtts://)")
		}
	}
	return nil
}

// WebsocketURL normalises HAURL to the websocket API endpoint. http(s)
// base URLs are converted and /api/websocket is appended when missing.
func (c *Config) WebsocketURL() (string, error) {
	u, err := url.Parse(c.HAURL)
	if err != nil {
		return "", fmt.Errorf("invalid Home Assistant URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("Home Assistant URL must use http://, https://, ws:// or wss://")
	}
	if !strings.HasSuffix(u.Path, "/api/websocket") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/api/websocket"
	}
	return u.String(), nil
}

// HasMQTT returns true if MQTT is configured
func (c *Config) HasMQTT() bool {
	return c.MQTTUrl != ""
}

// HasHTTP returns true if the HTTP view is enabled
func (c *Config) HasHTTP() bool {
	return c.HTTPAddr != ""
}
