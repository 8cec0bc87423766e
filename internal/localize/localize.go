// Package localize translates the handful of labels the battery card shows
// on its own: the unknown state, the charging label and relative times.
package localize

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Keys understood by the built-in table. They mirror the Home Assistant
// frontend translation keys so a host table can be dropped in unchanged.
const (
	KeyUnknown        = "state.default.unknown"
	KeyCharging       = "state.battery.charging"
	KeyNever          = "ui.components.relative_time.never"
	KeyPast           = "ui.components.relative_time.past"
	KeyDurationSecond = "ui.components.relative_time.duration.second"
	KeyDurationMinute = "ui.components.relative_time.duration.minute"
	KeyDurationHour   = "ui.components.relative_time.duration.hour"
	KeyDurationDay    = "ui.components.relative_time.duration.day"
	KeyDurationWeek   = "ui.components.relative_time.duration.week"
)

// Localizer resolves a translation key. args are placeholder/value pairs,
// e.g. Localize(KeyPast, "time", "5 minutes").
type Localizer interface {
	Localize(key string, args ...string) string
}

// Table is a Localizer backed by a key → template map. Templates use
// {placeholder} substitution; a template of the form "one|other" picks the
// first variant when the "count" argument is 1.
type Table map[string]string

// English is the default table.
var English = Table{
	KeyUnknown:        "Unknown",
	KeyCharging:       "Charging",
	KeyNever:          "Never",
	KeyPast:           "{time} ago",
	KeyDurationSecond: "{count} second|{count} seconds",
	KeyDurationMinute: "{count} minute|{count} minutes",
	KeyDurationHour:   "{count} hour|{count} hours",
	KeyDurationDay:    "{count} day|{count} days",
	KeyDurationWeek:   "{count} week|{count} weeks",
}

// Localize implements Localizer. Unknown keys are returned unchanged.
func (t Table) Localize(key string, args ...string) string {
	tmpl, ok := t[key]
	if !ok {
		return key
	}
	vars := make(map[string]string, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		vars[args[i]] = args[i+1]
	}
	if one, other, plural := strings.Cut(tmpl, "|"); plural {
		tmpl = other
		if vars["count"] == "1" {
			tmpl = one
		}
	}
	for k, v := range vars {
		tmpl = strings.ReplaceAll(tmpl, "{"+k+"}", v)
	}
	return tmpl
}

// RelativeTime renders the distance between then and now as a past phrase
// such as "5 minutes ago".
func RelativeTime(l Localizer, then, now time.Time) string {
	if then.IsZero() {
		return l.Localize(KeyNever)
	}
	secs := round(now.Sub(then).Seconds())
	var key string
	var count float64
	switch {
	case secs < 60:
		key, count = KeyDurationSecond, secs
	case secs < 3600:
		key, count = KeyDurationMinute, round(secs/60)
	case secs < 86400:
		key, count = KeyDurationHour, round(secs/3600)
	case secs < 604800:
		key, count = KeyDurationDay, round(secs/86400)
	default:
		key, count = KeyDurationWeek, round(secs/604800)
	}
	d := l.Localize(key, "count", strconv.FormatFloat(count, 'f', -1, 64))
	return l.Localize(KeyPast, "time", d)
}

// round rounds half up, matching the frontend's Math.round.
func round(f float64) float64 {
	return math.Floor(f + 0.5)
}
