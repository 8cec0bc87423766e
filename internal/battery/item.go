// Package battery derives the displayed state of one tracked entity.
//
// Refresh computes every field into a fresh View, compares it with the
// previous one and records whether anything changed. The change flag is
// only cleared at the start of the next Refresh.
package battery

import (
	"fmt"
	"time"

	"github.com/jkaberg/battery-state/internal/action"
	"github.com/jkaberg/battery-state/internal/domain"
	"github.com/jkaberg/battery-state/internal/localize"
	"github.com/jkaberg/battery-state/internal/match"
	"github.com/jkaberg/battery-state/internal/value"
	"github.com/sirupsen/logrus"
)

// View is the render-ready state of one item.
type View struct {
	EntityID      string `json:"entity_id"`
	Name          string `json:"name"`
	Level         string `json:"level"`
	Unit          string `json:"unit,omitempty"`
	Charging      bool   `json:"charging"`
	Color         string `json:"color"`
	Icon          string `json:"icon"`
	SecondaryInfo string `json:"secondary_info,omitempty"`
	Hidden        bool   `json:"hidden"`
	Clickable     bool   `json:"clickable"`
}

type renameRule struct {
	from match.Pattern
	to   string
}

// Item is one tracked entity on the card.
type Item struct {
	cfg        Config
	action     *action.Action
	renames    []renameRule
	gradient   gradient
	thresholds []ColorThreshold
	loc        localize.Localizer
	logger     *logrus.Logger
	now        func() time.Time

	view    View
	updated bool
}

// New builds an item for cfg. act may be nil when the row has no tap
// action. Invalid rename patterns are configuration errors; an invalid color
// gradient is logged and ignored.
func New(cfg Config, act *action.Action, loc localize.Localizer, logger *logrus.Logger) (*Item, error) {
	if cfg.Entity == "" {
		return nil, fmt.Errorf("missing property 'entity'")
	}
	it := &Item{
		cfg:        cfg,
		action:     act,
		thresholds: cfg.ColorThresholds,
		loc:        loc,
		logger:     logger,
		now:        time.Now,
	}
	if it.thresholds == nil {
		it.thresholds = DefaultThresholds
	}
	for _, r := range cfg.BulkRename {
		p, err := match.ParseReplace(r.From)
		if err != nil {
			return nil, fmt.Errorf("bulk_rename on %s: %w", cfg.Entity, err)
		}
		it.renames = append(it.renames, renameRule{from: p, to: r.To})
	}
	if cfg.ColorGradient != nil {
		g, err := parseGradient(cfg.ColorGradient)
		if err != nil {
			logger.WithError(err).WithField("entity_id", cfg.Entity).Warn("Ignoring color_gradient")
		} else {
			it.gradient = g
		}
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Entity
	}
	level := loc.Localize(localize.KeyUnknown)
	it.view = View{
		EntityID:  cfg.Entity,
		Name:      it.rename(name),
		Level:     level,
		Color:     it.color(level, false),
		Icon:      it.icon(level, false),
		Clickable: act != nil,
	}
	return it, nil
}

// EntityID returns the tracked entity id.
func (i *Item) EntityID() string { return i.cfg.Entity }

// Config returns the effective configuration.
func (i *Item) Config() Config { return i.cfg }

// Action returns the tap handler, or nil when the row is not clickable.
func (i *Item) Action() *action.Action { return i.action }

// View returns the current derived state.
func (i *Item) View() View { return i.view }

// Level returns the current level text.
func (i *Item) Level() string { return i.view.Level }

// NumericLevel returns the level as a number when it is numeric.
func (i *Item) NumericLevel() (float64, bool) { return value.ParseNumber(i.view.Level) }

// Hidden reports whether a temporary exclude rule hides the item.
func (i *Item) Hidden() bool { return i.view.Hidden }

// Updated reports whether any field changed since the last Refresh began.
func (i *Item) Updated() bool { return i.updated }

// SetHidden updates the hidden flag and reports whether it changed.
func (i *Item) SetHidden(hidden bool) bool {
	if i.view.Hidden == hidden {
		return false
	}
	i.view.Hidden = hidden
	i.updated = true
	return true
}

// Refresh derives the item from snap and reports whether anything changed.
// A missing entity is logged and leaves the previous values in place.
func (i *Item) Refresh(snap *domain.Snapshot) bool {
	i.updated = false
	entity, ok := snap.Get(i.cfg.Entity)
	if !ok {
		i.logger.WithField("entity_id", i.cfg.Entity).Error("Entity not found")
		return false
	}

	next := i.derive(entity, snap)
	next.Hidden = i.view.Hidden
	if next != i.view {
		i.updated = true
	}
	i.view = next
	return i.updated
}

func (i *Item) derive(entity *domain.EntityState, snap *domain.Snapshot) View {
	v := View{
		EntityID:  i.cfg.Entity,
		Name:      i.name(entity),
		Level:     i.level(entity),
		Clickable: i.action != nil,
	}
	v.Charging = i.charging(entity, v.Level, snap)
	v.Color = i.color(v.Level, v.Charging)
	v.Icon = i.icon(v.Level, v.Charging)
	v.SecondaryInfo = i.secondaryInfo(entity, v.Charging)
	if value.IsNumeric(v.Level) {
		v.Unit = "%"
	}
	return v
}

func (i *Item) name(entity *domain.EntityState) string {
	name := i.cfg.Name
	if name == "" {
		name = entity.FriendlyName()
	}
	if name == "" {
		name = i.cfg.Entity
	}
	return i.rename(name)
}

func (i *Item) rename(name string) string {
	for _, r := range i.renames {
		name = r.from.ReplaceFirst(name, r.to)
	}
	return name
}
