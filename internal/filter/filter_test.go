package filter

import (
	"io"
	"testing"

	"github.com/jkaberg/battery-state/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func phone() *domain.EntityState {
	return &domain.EntityState{
		EntityID: "sensor.phone_battery",
		State:    "45",
		Attributes: map[string]interface{}{
			"device_class":  "battery",
			"friendly_name": "Phone battery",
			"battery_level": 45.0,
			"tags":          []interface{}{"mobile", "upstairs"},
			"disabled":      true,
		},
	}
}

func mustRule(t *testing.T, spec Spec) *Rule {
	t.Helper()
	r, err := New(spec, quietLogger())
	require.NoError(t, err)
	return r
}

func TestOperatorInference(t *testing.T) {
	tests := []struct {
		spec Spec
		want Operator
	}{
		{Spec{Name: "attributes.device_class"}, OpExists},
		{Spec{Name: "attributes.device_class", Value: "battery"}, OpEqual},
		{Spec{Name: "entity_id", Value: "sensor.*_battery"}, OpMatches},
		{Spec{Name: "entity_id", Value: "/phone/"}, OpMatches},
		{Spec{Name: "state", Operator: "<", Value: 50}, OpLess},
		{Spec{Name: "state", Operator: "~~"}, OpUnknown},
	}
	for _, tt := range tests {
		r := mustRule(t, tt.spec)
		assert.Equal(t, tt.want, r.Operator(), "spec %+v", tt.spec)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want bool
	}{
		{"exists", Spec{Name: "attributes.device_class"}, true},
		{"exists missing", Spec{Name: "attributes.battery"}, false},
		{"equal string", Spec{Name: "attributes.device_class", Value: "battery"}, true},
		{"equal loose number", Spec{Name: "state", Value: 45}, true},
		{"equal bool", Spec{Name: "attributes.disabled", Value: true}, true},
		{"contains substring", Spec{Name: "entity_id", Operator: "contains", Value: "phone"}, true},
		{"contains list", Spec{Name: "attributes.tags", Operator: "contains", Value: "mobile"}, true},
		{"contains missing", Spec{Name: "attributes.nope", Operator: "contains", Value: "x"}, false},
		{"greater", Spec{Name: "state", Operator: ">", Value: 40}, true},
		{"less", Spec{Name: "state", Operator: "<", Value: 40}, false},
		{"greater or equal", Spec{Name: "attributes.battery_level", Operator: ">=", Value: 45}, true},
		{"less or equal", Spec{Name: "state", Operator: "<=", Value: "44"}, false},
		{"wildcard", Spec{Name: "entity_id", Value: "sensor.*_battery"}, true},
		{"wildcard miss", Spec{Name: "entity_id", Value: "binary_sensor.*"}, false},
		{"regex", Spec{Name: "attributes.friendly_name", Value: "/^Phone/"}, true},
		{"matches literal", Spec{Name: "state", Operator: "matches", Value: "45"}, true},
		{"matches literal strict", Spec{Name: "attributes.battery_level", Operator: "matches", Value: "45"}, false},
		{"unknown operator", Spec{Name: "state", Operator: "~~", Value: "45"}, false},
		{"missing name", Spec{Value: "45"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustRule(t, tt.spec)
			assert.Equal(t, tt.want, r.IsValid(phone(), nil))
		})
	}
}

func TestStateFallback(t *testing.T) {
	r := mustRule(t, Spec{Name: "state", Operator: "<", Value: 20})
	level := "10"
	assert.False(t, r.IsValid(phone(), nil))
	assert.True(t, r.IsValid(phone(), &level))
}

func TestMissingEntity(t *testing.T) {
	r := mustRule(t, Spec{Name: "attributes.device_class"})
	assert.False(t, r.IsValid(nil, nil))
}

func TestIsPermanent(t *testing.T) {
	assert.False(t, mustRule(t, Spec{Name: "state", Value: "off"}).IsPermanent())
	assert.True(t, mustRule(t, Spec{Name: "attributes.disabled", Value: true}).IsPermanent())
	assert.True(t, mustRule(t, Spec{Name: "entity_id", Value: "sensor.x"}).IsPermanent())
}

func TestInvalidRegex(t *testing.T) {
	_, err := New(Spec{Name: "entity_id", Value: "/(/"}, quietLogger())
	assert.Error(t, err)
}
