package battery

import (
	"time"

	"github.com/jkaberg/battery-state/internal/domain"
	"github.com/jkaberg/battery-state/internal/localize"
	"github.com/jkaberg/battery-state/internal/value"
)

// SecondaryCharging is the secondary_info value that shows the charging
// label instead of an entity field.
const SecondaryCharging = "charging"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (i *Item) secondaryInfo(entity *domain.EntityState, charging bool) string {
	key := i.cfg.SecondaryInfo
	if key == "" {
		return ""
	}
	if key == SecondaryCharging {
		if !charging {
			return ""
		}
		if cs := i.cfg.ChargingState; cs != nil && cs.SecondaryInfoText != "" {
			return cs.SecondaryInfoText
		}
		return i.loc.Localize(localize.KeyCharging)
	}

	var raw interface{} = key
	if v, ok := entity.Field(key); ok && value.Truthy(v) {
		raw = v
	} else if v, ok := entity.Attribute(key); ok && value.Truthy(v) {
		raw = v
	}
	if t, ok := parseDate(raw); ok {
		return localize.RelativeTime(i.loc, t, i.now())
	}
	return value.String(raw)
}

func parseDate(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}
