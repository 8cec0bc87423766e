package presenter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMQTTPresent(t *testing.T) {
	client := newFakeMQTT()
	p := NewMQTTPresenter(client, "hall", "homeassistant", "1.0.0", quietLogger())

	require.NoError(t, p.Present(sampleFrame()))
	assert.Equal(t, []string{
		"homeassistant/sensor/battery_state_hall/lowest_battery/config",
		"homeassistant/binary_sensor/battery_state_hall/charging/config",
		"battery_state/hall/view",
		"battery_state/hall/availability",
	}, client.topics())

	view, ok := client.last("battery_state/hall/view")
	require.True(t, ok)
	assert.True(t, view.retained)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(view.payload), &payload))
	assert.Equal(t, "Batteries", payload["title"])
	assert.Equal(t, float64(4), payload["size"])
	assert.Equal(t, true, payload["charging"])
	lowest := payload["lowest"].(map[string]interface{})
	assert.Equal(t, "sensor.remote", lowest["entity_id"])

	avail, _ := client.last("battery_state/hall/availability")
	assert.Equal(t, "online", avail.payload)

	discovery, _ := client.last("homeassistant/sensor/battery_state_hall/lowest_battery/config")
	var cfg HADiscoveryConfig
	require.NoError(t, json.Unmarshal([]byte(discovery.payload), &cfg))
	assert.Equal(t, "battery_state_hall_lowest_battery", cfg.UniqueID)
	assert.Equal(t, "battery_state/hall/view", cfg.StateTopic)
	assert.Equal(t, "battery_state/hall/view", cfg.JSONAttributesTopic)
	assert.Equal(t, "battery", cfg.DeviceClass)
	assert.Equal(t, "1.0.0", cfg.Device.SWVersion)
}

func TestMQTTSkipsUnchangedView(t *testing.T) {
	client := newFakeMQTT()
	p := NewMQTTPresenter(client, "hall", "homeassistant", "dev", quietLogger())

	require.NoError(t, p.Present(sampleFrame()))
	n := len(client.topics())
	require.NoError(t, p.Present(sampleFrame()))
	assert.Len(t, client.topics(), n)

	f := sampleFrame()
	f.View.Items[0].Level = "79"
	require.NoError(t, p.Present(f))
	assert.Equal(t, []string{"battery_state/hall/view", "battery_state/hall/availability"}, client.topics()[n:])
}

func TestMQTTNotConnected(t *testing.T) {
	client := newFakeMQTT()
	client.connected = false
	p := NewMQTTPresenter(client, "hall", "homeassistant", "dev", quietLogger())
	assert.Error(t, p.Present(sampleFrame()))
	assert.Empty(t, client.topics())
	assert.False(t, p.IsConnected())
}

func TestMQTTListenTaps(t *testing.T) {
	client := newFakeMQTT()
	p := NewMQTTPresenter(client, "hall", "homeassistant", "dev", quietLogger())

	var taps []Tap
	require.NoError(t, p.ListenTaps(func(tap Tap) { taps = append(taps, tap) }))

	handler := client.handlers["battery_state/hall/tap"]
	require.NotNil(t, handler)
	handler("battery_state/hall/tap", []byte(" sensor.door\n"))
	handler("battery_state/hall/tap", []byte("   "))

	require.Len(t, taps, 1)
	assert.Equal(t, "sensor.door", taps[0].EntityID)
	assert.Nil(t, taps[0].Reply)
}
