package presenter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jkaberg/battery-state/internal/mqtt"
	"github.com/sirupsen/logrus"
)

// MQTTClient is the part of *mqtt.Client the presenter uses.
type MQTTClient interface {
	Publish(topic string, payload []byte, retained bool) error
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	IsConnected() bool
}

// MQTTPresenter publishes the card view via MQTT. Present is called from
// a single goroutine.
type MQTTPresenter struct {
	client          MQTTClient
	cardID          string
	discoveryPrefix string
	version         string
	logger          *logrus.Logger
	published       map[string]bool // Tracks published discovery configs
	lastPayload     []byte
}

// HADiscoveryConfig represents Home Assistant MQTT discovery configuration
type HADiscoveryConfig struct {
	Name                   string   `json:"name"`
	UniqueID               string   `json:"unique_id"`
	StateTopic             string   `json:"state_topic"`
	ValueTemplate          string   `json:"value_template,omitempty"`
	JSONAttributesTopic    string   `json:"json_attributes_topic,omitempty"`
	JSONAttributesTemplate string   `json:"json_attributes_template,omitempty"`
	DeviceClass            string   `json:"device_class,omitempty"`
	UnitOfMeasurement      string   `json:"unit_of_measurement,omitempty"`
	Device                 HADevice `json:"device"`
	AvailabilityTopic      string   `json:"availability_topic"`
	Icon                   string   `json:"icon,omitempty"`
	StateClass             string   `json:"state_class,omitempty"`
}

// HADevice represents the device information for Home Assistant
type HADevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// sensorConfig describes one discovered entity fed from the view topic.
type sensorConfig struct {
	ObjectID      string
	EntityType    string
	Name          string
	ValueTemplate string
	AttrTemplate  string
	DeviceClass   string
	Unit          string
	Icon          string
	StateClass    string
}

var discoverySensors = []sensorConfig{
	{
		ObjectID:      "lowest_battery",
		EntityType:    "sensor",
		Name:          "Lowest battery",
		ValueTemplate: "{{ value_json.lowest.level if value_json.lowest is defined else None }}",
		AttrTemplate:  "{{ value_json.lowest | default({}) | tojson }}",
		DeviceClass:   "battery",
		Unit:          "%",
		StateClass:    "measurement",
	},
	{
		ObjectID:      "charging",
		EntityType:    "binary_sensor",
		Name:          "Charging",
		ValueTemplate: "{{ 'ON' if value_json.charging else 'OFF' }}",
		DeviceClass:   "battery_charging",
	},
}

// NewMQTTPresenter creates a new MQTT presenter
func NewMQTTPresenter(client MQTTClient, cardID, discoveryPrefix, version string, logger *logrus.Logger) *MQTTPresenter {
	return &MQTTPresenter{
		client:          client,
		cardID:          cardID,
		discoveryPrefix: discoveryPrefix,
		version:         version,
		logger:          logger,
		published:       make(map[string]bool),
	}
}

func (t *MQTTPresenter) device() HADevice {
	id := strings.ReplaceAll(mqtt.BuildCleanTopic(t.cardID), "/", "_")
	return HADevice{
		Identifiers:  []string{"battery_state_" + id},
		Name:         "Battery State Card",
		Model:        "Card",
		Manufacturer: "battery-state",
		SWVersion:    t.version,
	}
}

// publishDiscoveryConfigs publishes every discovery config not yet published.
func (t *MQTTPresenter) publishDiscoveryConfigs() {
	device := t.device()
	for _, sensor := range discoverySensors {
		uniqueID := fmt.Sprintf("%s_%s", device.Identifiers[0], sensor.ObjectID)
		if t.published[uniqueID] {
			continue
		}

		config := HADiscoveryConfig{
			Name:              sensor.Name,
			UniqueID:          uniqueID,
			StateTopic:        mqtt.ViewTopic(t.cardID),
			ValueTemplate:     sensor.ValueTemplate,
			DeviceClass:       sensor.DeviceClass,
			UnitOfMeasurement: sensor.Unit,
			Icon:              sensor.Icon,
			StateClass:        sensor.StateClass,
			AvailabilityTopic: mqtt.AvailabilityTopic(t.cardID),
			Device:            device,
		}
		if sensor.AttrTemplate != "" {
			config.JSONAttributesTopic = mqtt.ViewTopic(t.cardID)
			config.JSONAttributesTemplate = sensor.AttrTemplate
		}

		topic := mqtt.DiscoveryTopic(t.discoveryPrefix, sensor.EntityType, t.cardID, sensor.ObjectID)
		if err := t.publishConfigRaw(topic, config); err != nil {
			t.logger.WithError(err).WithField("sensor", sensor.Name).Error("Failed to publish discovery config")
			continue
		}

		t.logger.WithFields(logrus.Fields{
			"sensor_name": sensor.Name,
			"topic":       topic,
		}).Info("Published sensor discovery config")
		t.published[uniqueID] = true
	}
}

// publishConfigRaw publishes a raw configuration object
func (t *MQTTPresenter) publishConfigRaw(topic string, config interface{}) error {
	payload, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal discovery config: %w", err)
	}
	if err := t.client.Publish(topic, payload, true); err != nil {
		return fmt.Errorf("failed to publish discovery config to %s: %w", topic, err)
	}
	return nil
}

// Present publishes the frame unless it is identical to the last one sent.
func (t *MQTTPresenter) Present(f Frame) error {
	if !t.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	t.publishDiscoveryConfigs()

	payload, err := buildViewPayload(f)
	if err != nil {
		return fmt.Errorf("failed to build view payload: %w", err)
	}
	if bytes.Equal(payload, t.lastPayload) {
		t.logger.Debug("Card view unchanged, skipping MQTT publish")
		return nil
	}

	topic := mqtt.ViewTopic(t.cardID)
	if err := t.client.Publish(topic, payload, true); err != nil {
		return fmt.Errorf("failed to publish card view to %s: %w", topic, err)
	}
	if err := t.client.Publish(mqtt.AvailabilityTopic(t.cardID), []byte("online"), true); err != nil {
		return fmt.Errorf("failed to publish availability: %w", err)
	}
	t.lastPayload = payload

	t.logger.WithFields(logrus.Fields{
		"topic": topic,
		"size":  len(payload),
	}).Info("Published card view")
	return nil
}

// ListenTaps subscribes to the tap topic. Each message payload is an
// entity id.
func (t *MQTTPresenter) ListenTaps(onTap TapFunc) error {
	topic := mqtt.TapTopic(t.cardID)
	return t.client.Subscribe(topic, func(_ string, payload []byte) {
		entityID := strings.TrimSpace(string(payload))
		if entityID == "" {
			t.logger.WithField("topic", topic).Warn("Ignoring tap without entity id")
			return
		}
		t.logger.WithField("entity_id", entityID).Debug("Tap received via MQTT")
		onTap(Tap{EntityID: entityID})
	})
}

// IsConnected checks if the MQTT client is connected
func (t *MQTTPresenter) IsConnected() bool {
	return t.client.IsConnected()
}
