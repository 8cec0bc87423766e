// Package collapse partitions card items into ungrouped rows and
// collapsible groups.
package collapse

import (
	"fmt"
	"regexp"

	"github.com/jkaberg/battery-state/internal/battery"
	"github.com/jkaberg/battery-state/internal/value"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Rule is one entry of the array form of `collapse`.
type Rule struct {
	GroupID       string   `yaml:"group_id,omitempty" json:"group_id,omitempty"`
	Entities      []string `yaml:"entities,omitempty" json:"entities,omitempty"`
	Min           *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max           *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Name          string   `yaml:"name,omitempty" json:"name,omitempty"`
	Icon          *string  `yaml:"icon,omitempty" json:"icon,omitempty"`
	SecondaryInfo string   `yaml:"secondary_info,omitempty" json:"secondary_info,omitempty"`
}

// Config is the `collapse` option: either a row count after which the rest
// collapses into one group, or a list of group rules.
type Config struct {
	Count *int
	Rules []Rule
}

// UnmarshalYAML accepts a number or a sequence of rules.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var n int
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("collapse must be a number or a list of groups: %w", err)
		}
		c.Count = &n
		return nil
	case yaml.SequenceNode:
		return node.Decode(&c.Rules)
	}
	return fmt.Errorf("collapse must be a number or a list of groups")
}

// MarshalYAML writes the config back in its original form.
func (c Config) MarshalYAML() (interface{}, error) {
	if c.Count != nil {
		return *c.Count, nil
	}
	return c.Rules, nil
}

// HasRules reports whether the array form is used.
func (c *Config) HasRules() bool { return c != nil && c.Count == nil && c.Rules != nil }

// GroupData holds the attributes of resolved group entities by entity id.
type GroupData map[string]map[string]interface{}

// Members returns the entity ids listed by a group entity.
func (g GroupData) Members(groupID string) ([]string, bool) {
	attrs, ok := g[groupID]
	if !ok {
		return nil, false
	}
	switch ids := attrs["entity_id"].(type) {
	case []string:
		return ids, true
	case []interface{}:
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if s, ok := id.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}

// Group is a named cluster of items, built fresh on every Partition.
type Group struct {
	Name          string
	Icon          string
	SecondaryInfo string
	Items         []*battery.Item
}

// Result is the outcome of Partition.
type Result struct {
	Items  []*battery.Item
	Groups []*Group
}

type rule struct {
	Rule
	min, max float64
}

// Engine applies a normalised collapse config.
type Engine struct {
	count *int
	rules []rule
}

// New normalises cfg: min defaults to 0 and max to 100. A max below min is
// logged and kept, so the rule never matches.
func New(cfg *Config, logger *logrus.Logger) *Engine {
	e := &Engine{}
	if cfg == nil {
		return e
	}
	if cfg.Count != nil {
		// collapse: 0 leaves every item ungrouped.
		if n := *cfg.Count; n != 0 {
			e.count = &n
		}
		return e
	}
	for _, r := range cfg.Rules {
		nr := rule{Rule: r, min: 0, max: 100}
		if r.Min != nil {
			nr.min = *r.Min
		}
		if r.Max != nil {
			nr.max = *r.Max
			if nr.max < nr.min {
				logger.WithFields(logrus.Fields{
					"group_id": r.GroupID,
					"min":      nr.min,
					"max":      nr.max,
				}).Error("Collapse group min value should be lower than max")
			}
		}
		e.rules = append(e.rules, nr)
	}
	return e
}

// Partition splits items. With no config every item stays ungrouped. With
// a count the first N stay and the rest form one group. With rules each
// item joins the first rule whose constraints all hold.
func (e *Engine) Partition(items []*battery.Item, groups GroupData) Result {
	var res Result
	switch {
	case e.count != nil:
		n := *e.count
		if n < 0 {
			n = 0
		}
		if n > len(items) {
			n = len(items)
		}
		res.Items = append(res.Items, items[:n]...)
		res.Groups = append(res.Groups, &Group{Items: append([]*battery.Item(nil), items[n:]...)})
	case e.rules == nil:
		res.Items = append(res.Items, items...)
		return res
	default:
		byRule := make([]*Group, len(e.rules))
		for _, it := range items {
			idx := e.find(it, groups)
			if idx < 0 {
				res.Items = append(res.Items, it)
				continue
			}
			if byRule[idx] == nil {
				byRule[idx] = e.rules[idx].newGroup(groups)
			}
			byRule[idx].Items = append(byRule[idx].Items, it)
		}
		for _, g := range byRule {
			if g != nil {
				res.Groups = append(res.Groups, g)
			}
		}
	}

	for _, g := range res.Groups {
		if g.Name != "" {
			g.Name = RenderTemplate(g.Name, g.Items)
		}
		if g.SecondaryInfo != "" {
			g.SecondaryInfo = RenderTemplate(g.SecondaryInfo, g.Items)
		}
	}
	return res
}

func (e *Engine) find(it *battery.Item, groups GroupData) int {
	for idx, r := range e.rules {
		if r.matches(it, groups) {
			return idx
		}
	}
	return -1
}

func (r rule) matches(it *battery.Item, groups GroupData) bool {
	id := it.EntityID()
	if r.GroupID != "" {
		members, _ := groups.Members(r.GroupID)
		if !contains(members, id) {
			return false
		}
	}
	if r.Entities != nil && !contains(r.Entities, id) {
		return false
	}
	level, ok := it.NumericLevel()
	if !ok {
		level = 0
	}
	return level >= r.min && level <= r.max
}

func (r rule) newGroup(groups GroupData) *Group {
	g := &Group{Name: r.Name, SecondaryInfo: r.SecondaryInfo}
	attrs := groups[r.GroupID]
	if g.Name == "" && r.GroupID != "" {
		g.Name, _ = attrs["friendly_name"].(string)
	}
	if r.Icon != nil {
		g.Icon = *r.Icon
	} else if r.GroupID != "" {
		g.Icon, _ = attrs["icon"].(string)
	}
	return g
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var placeholderPattern = regexp.MustCompile(`\{[a-z]+\}`)

// RenderTemplate substitutes {min}, {max}, {range} and {count} from the
// items' levels. Non-numeric levels are ignored for min and max. Other
// placeholders are left untouched.
func RenderTemplate(tmpl string, items []*battery.Item) string {
	low, high := 100.0, 0.0
	for _, it := range items {
		n, ok := it.NumericLevel()
		if !ok {
			continue
		}
		if n < low {
			low = n
		}
		if n > high {
			high = n
		}
	}
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(p string) string {
		switch p {
		case "{min}":
			return value.FormatNumber(low)
		case "{max}":
			return value.FormatNumber(high)
		case "{count}":
			return fmt.Sprint(len(items))
		case "{range}":
			lo, hi := value.FormatNumber(low), value.FormatNumber(high)
			if lo == hi {
				return lo
			}
			return lo + "-" + hi
		}
		return p
	})
}
