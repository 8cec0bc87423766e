package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://ha.local:8123", "ws://ha.local:8123/api/websocket"},
		{"https://ha.example.org/", "wss://ha.example.org/api/websocket"},
		{"ws://ha.local:8123/api/websocket", "ws://ha.local:8123/api/websocket"},
	}
	for _, tt := range tests {
		c := &Config{HAURL: tt.in}
		got, err := c.WebsocketURL()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "WebsocketURL(%q)", tt.in)
	}

	_, err := (&Config{HAURL: "ftp://ha"}).WebsocketURL()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := GetDefaultConfig()
	assert.Error(t, c.Validate(), "token is required")

	c.HAToken = "token"
	assert.NoError(t, c.Validate())

	c.MQTTUrl = "tcp://broker:1883"
	assert.Error(t, c.Validate())
	c.MQTTUrl = "mqtt://broker:1883"
	assert.NoError(t, c.Validate())
	assert.True(t, c.HasMQTT())
	assert.False(t, c.HasHTTP())
}
