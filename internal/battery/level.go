package battery

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/jkaberg/battery-state/internal/domain"
	"github.com/jkaberg/battery-state/internal/localize"
	"github.com/jkaberg/battery-state/internal/value"
	"github.com/sirupsen/logrus"
)

// percentPattern pulls "45" out of labels such as "45 %" or "Battery 45%".
var percentPattern = regexp.MustCompile(`\b([0-9]{1,3})\s?%`)

// level resolves the displayed level: source value, state_map, embedded
// percentage, multiplier, value_override, then capitalisation of labels.
func (i *Item) level(entity *domain.EntityState) string {
	unknown := i.loc.Localize(localize.KeyUnknown)

	var level string
	if i.cfg.Attribute != "" {
		v, ok := entity.Attribute(i.cfg.Attribute)
		if ok {
			level = value.String(v)
		} else {
			i.logger.WithFields(logrus.Fields{
				"entity_id": i.cfg.Entity,
				"attribute": i.cfg.Attribute,
			}).Warn("Attribute doesn't exist on entity")
			level = unknown
		}
	} else {
		var raw interface{} = entity.State
		if v, ok := entity.Attribute("battery_level"); ok {
			raw = v
		} else if v, ok := entity.Attribute("battery"); ok {
			raw = v
		}
		level = value.String(raw)
		if level == "" {
			level = unknown
		}
	}

	if len(i.cfg.StateMap) > 0 {
		mapped := false
		for _, m := range i.cfg.StateMap {
			if value.LooseEqual(m.From, level) {
				level = value.String(m.To)
				mapped = true
				break
			}
		}
		if !mapped {
			i.logger.WithFields(logrus.Fields{
				"entity_id": i.cfg.Entity,
				"value":     level,
			}).Warn("Missing option in 'state_map'")
		}
	}

	if !value.IsNumeric(level) {
		if m := percentPattern.FindStringSubmatch(level); m != nil {
			level = m[1]
		}
	}

	if i.cfg.Multiplier != nil && *i.cfg.Multiplier != 0 {
		if n, ok := value.ParseNumber(level); ok {
			level = value.FormatNumber(*i.cfg.Multiplier * n)
		}
	}

	if i.cfg.ValueOverride != nil {
		level = value.String(i.cfg.ValueOverride)
	}

	if !value.IsNumeric(level) {
		level = capitalize(level)
	}
	return level
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// charging evaluates charging_state against the item's own entity or the
// configured helper entity.
func (i *Item) charging(entity *domain.EntityState, level string, snap *domain.Snapshot) bool {
	cs := i.cfg.ChargingState
	if cs == nil {
		return false
	}

	subject, target := level, entity
	if cs.EntityID != "" {
		other, ok := snap.Get(cs.EntityID)
		if !ok {
			i.logger.WithField("entity_id", cs.EntityID).Warn("'charging_state' entity id not found")
			return false
		}
		subject, target = other.State, other
	}

	if len(cs.Attribute) > 0 {
		for _, m := range cs.Attribute {
			got, ok := target.Attribute(m.Name)
			if !ok {
				continue
			}
			return m.Value == nil || value.LooseEqual(got, m.Value)
		}
		return false
	}

	// Expected states match the raw state, not the resolved level.
	if len(cs.State) > 0 {
		for _, want := range cs.State {
			if value.LooseEqual(want, target.State) {
				return true
			}
		}
		return false
	}

	return subject != ""
}
