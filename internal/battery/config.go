package battery

import (
	"fmt"

	"github.com/jkaberg/battery-state/internal/action"
	"github.com/jkaberg/battery-state/internal/match"
	"gopkg.in/yaml.v3"
)

// Config is the per-entity part of the card configuration. The same keys
// may be set at card level, where they act as defaults (see Inherit).
type Config struct {
	Entity          string            `yaml:"entity,omitempty" json:"entity,omitempty"`
	Name            string            `yaml:"name,omitempty" json:"name,omitempty"`
	Attribute       string            `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	Multiplier      *float64          `yaml:"multiplier,omitempty" json:"multiplier,omitempty"`
	ValueOverride   interface{}       `yaml:"value_override,omitempty" json:"value_override,omitempty"`
	StateMap        []StateMapping    `yaml:"state_map,omitempty" json:"state_map,omitempty"`
	TapAction       *action.Config    `yaml:"tap_action,omitempty" json:"tap_action,omitempty"`
	ChargingState   *ChargingState    `yaml:"charging_state,omitempty" json:"charging_state,omitempty"`
	SecondaryInfo   string            `yaml:"secondary_info,omitempty" json:"secondary_info,omitempty"`
	ColorThresholds []ColorThreshold  `yaml:"color_thresholds,omitempty" json:"color_thresholds,omitempty"`
	ColorGradient   []string          `yaml:"color_gradient,omitempty" json:"color_gradient,omitempty"`
	BulkRename      OneOrMany[Rename] `yaml:"bulk_rename,omitempty" json:"bulk_rename,omitempty"`
}

// Inherit fills the keys that cascade from card level and are unset on c.
// Name, attribute, multiplier and value_override never cascade.
func (c Config) Inherit(defaults Config) Config {
	if c.TapAction == nil {
		c.TapAction = defaults.TapAction
	}
	if c.StateMap == nil {
		c.StateMap = defaults.StateMap
	}
	if c.ChargingState == nil {
		c.ChargingState = defaults.ChargingState
	}
	if c.SecondaryInfo == "" {
		c.SecondaryInfo = defaults.SecondaryInfo
	}
	if c.ColorThresholds == nil {
		c.ColorThresholds = defaults.ColorThresholds
	}
	if c.ColorGradient == nil {
		c.ColorGradient = defaults.ColorGradient
	}
	if c.BulkRename == nil {
		c.BulkRename = defaults.BulkRename
	}
	return c
}

// Validate checks the parts of c that are parsed once up front.
func (c Config) Validate() error {
	for _, r := range c.BulkRename {
		if _, err := match.ParseReplace(r.From); err != nil {
			return fmt.Errorf("bulk_rename: %w", err)
		}
	}
	return nil
}

// StateMapping replaces a raw value with a label.
type StateMapping struct {
	From interface{} `yaml:"from" json:"from"`
	To   interface{} `yaml:"to" json:"to"`
}

// Rename is one bulk_rename rule. From may be a /regex/.
type Rename struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to,omitempty" json:"to,omitempty"`
}

// ColorThreshold colors levels up to and including Value.
type ColorThreshold struct {
	Value float64 `yaml:"value" json:"value"`
	Color string  `yaml:"color" json:"color"`
}

// ChargingState describes how to tell that a battery is charging.
type ChargingState struct {
	EntityID          string                      `yaml:"entity_id,omitempty" json:"entity_id,omitempty"`
	Attribute         OneOrMany[AttributeMatcher] `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	State             OneOrMany[interface{}]      `yaml:"state,omitempty" json:"state,omitempty"`
	Color             string                      `yaml:"color,omitempty" json:"color,omitempty"`
	Icon              string                      `yaml:"icon,omitempty" json:"icon,omitempty"`
	SecondaryInfoText string                      `yaml:"secondary_info_text,omitempty" json:"secondary_info_text,omitempty"`
}

// AttributeMatcher matches a named attribute, optionally against a value.
type AttributeMatcher struct {
	Name  string      `yaml:"name" json:"name"`
	Value interface{} `yaml:"value,omitempty" json:"value,omitempty"`
}

// OneOrMany decodes either a single YAML value or a sequence of them.
type OneOrMany[T any] []T

func (o *OneOrMany[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var list []T
		if err := node.Decode(&list); err != nil {
			return err
		}
		*o = list
		return nil
	}
	var one T
	if err := node.Decode(&one); err != nil {
		return err
	}
	*o = OneOrMany[T]{one}
	return nil
}
