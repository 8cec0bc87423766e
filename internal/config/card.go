package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/jkaberg/battery-state/internal/battery"
	"github.com/jkaberg/battery-state/internal/collapse"
	"github.com/jkaberg/battery-state/internal/filter"
	"gopkg.in/yaml.v3"
)

// ErrInvalidCard marks configuration errors: the card cannot be set up and
// the problem must be shown to the user.
var ErrInvalidCard = errors.New("invalid card configuration")

// Sort directions for sort_by_level.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Card is the battery-state-card YAML configuration. The embedded entity
// keys configure the single entity in `entity` mode and act as defaults for
// `entities` otherwise.
type Card struct {
	battery.Config `yaml:",inline"`

	Type        string           `yaml:"type,omitempty"`
	Title       string           `yaml:"title,omitempty"`
	Entities    []Entity         `yaml:"entities,omitempty"`
	Filter      *Filter          `yaml:"filter,omitempty"`
	Collapse    *collapse.Config `yaml:"collapse,omitempty"`
	SortByLevel string           `yaml:"sort_by_level,omitempty"`
	Style       string           `yaml:"style,omitempty"`
}

// Entity is one `entities` entry: either an entity id or a full mapping.
type Entity struct {
	battery.Config
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (e *Entity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Entity = node.Value
		return nil
	}
	return node.Decode(&e.Config)
}

// Filter holds include and exclude rules.
type Filter struct {
	Include []filter.Spec `yaml:"include,omitempty"`
	Exclude []filter.Spec `yaml:"exclude,omitempty"`
}

// ParseCard decodes and validates a card.
func ParseCard(data []byte) (*Card, error) {
	var c Card
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCard, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadCard reads and parses the card file. The raw bytes are returned so
// callers can tell whether a later write changed anything.
func LoadCard(path string) (*Card, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read card configuration: %w", err)
	}
	c, err := ParseCard(data)
	if err != nil {
		return nil, data, err
	}
	return c, data, nil
}

// Validate checks that the card selects at least one entity source and
// that every explicit entity names an entity.
func (c *Card) Validate() error {
	hasInclude := c.Filter != nil && len(c.Filter.Include) > 0
	if c.Entity == "" && len(c.Entities) == 0 && !hasInclude && !c.Collapse.HasRules() {
		return fmt.Errorf("%w: you need to define entities, filter.include or collapse.group", ErrInvalidCard)
	}
	for i, e := range c.Entities {
		if e.Entity == "" {
			return fmt.Errorf("%w: missing property 'entity' on entities[%d]", ErrInvalidCard, i)
		}
	}
	return nil
}

// Header returns the card title: name, falling back to title.
func (c *Card) Header() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Title
}

// IsSimple reports whether the card shows a single entity row.
func (c *Card) IsSimple() bool { return c.Entity != "" }

// Includes returns the include rules, if any.
func (c *Card) Includes() []filter.Spec {
	if c.Filter == nil {
		return nil
	}
	return c.Filter.Include
}

// Excludes returns the exclude rules, if any.
func (c *Card) Excludes() []filter.Spec {
	if c.Filter == nil {
		return nil
	}
	return c.Filter.Exclude
}
