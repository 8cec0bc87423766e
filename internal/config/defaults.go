package config

import "time"

// Central place for all application-wide timing constants and other defaults.
// Changing a value here immediately affects all components that import
// github.com/jkaberg/battery-state/internal/config.

const (
	// Rendering
	RenderDebounce = 100 * time.Millisecond // Collapse bursts of render requests
	ReloadDebounce = 250 * time.Millisecond // Coalesce editor writes to the card file

	// Home Assistant websocket
	HARequestTimeout    = 10 * time.Second // get_states / call_service round-trip
	HAReconnectInterval = 5 * time.Second  // Minimum spacing between reconnects
	HAReconnectBurst    = 3                // Reconnects allowed before pacing kicks in

	// Operation time-outs (to avoid blocking goroutines)
	MQTTTimeout     = 5 * time.Second // MQTT publish / subscribe
	TapTimeout      = 5 * time.Second // Dispatching a tap action
	ShutdownTimeout = 5 * time.Second // HTTP server graceful shutdown
)
