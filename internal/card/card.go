// Package card is the battery state card: it owns the entity set resolver
// and turns its items into a render-ready view.
package card

import (
	"context"
	"errors"
	"fmt"

	"github.com/jkaberg/battery-state/internal/action"
	"github.com/jkaberg/battery-state/internal/battery"
	"github.com/jkaberg/battery-state/internal/config"
	"github.com/jkaberg/battery-state/internal/domain"
	"github.com/jkaberg/battery-state/internal/localize"
	"github.com/jkaberg/battery-state/internal/provider"
	"github.com/jkaberg/battery-state/internal/value"
	"github.com/sirupsen/logrus"
)

// ErrUnknownEntity is returned by Tap for an entity that is not on the card.
var ErrUnknownEntity = errors.New("entity is not on the card")

// View is everything a presenter needs to draw the card.
type View struct {
	Title  string         `json:"title,omitempty"`
	Simple bool           `json:"simple,omitempty"`
	Items  []battery.View `json:"items"`
	Groups []GroupView    `json:"groups,omitempty"`
	Style  string         `json:"style,omitempty"`
}

// GroupView is a collapsed group with only its visible items.
type GroupView struct {
	Name          string         `json:"name"`
	Icon          string         `json:"icon,omitempty"`
	SecondaryInfo string         `json:"secondary_info,omitempty"`
	Items         []battery.View `json:"items"`
}

// Empty reports whether there is nothing to draw.
func (v View) Empty() bool { return len(v.Items) == 0 && len(v.Groups) == 0 }

// Lowest returns the visible item with the lowest numeric level.
func (v View) Lowest() (battery.View, bool) {
	var (
		best  battery.View
		level float64
		found bool
	)
	consider := func(items []battery.View) {
		for _, it := range items {
			n, ok := numericLevel(it)
			if !ok || (found && n >= level) {
				continue
			}
			best, level, found = it, n, true
		}
	}
	consider(v.Items)
	for _, g := range v.Groups {
		consider(g.Items)
	}
	return best, found
}

func numericLevel(v battery.View) (float64, bool) { return value.ParseNumber(v.Level) }

// Card is not safe for concurrent use.
type Card struct {
	cfg      *config.Card
	provider *provider.Provider
	style    string
	logger   *logrus.Logger
}

// New validates cfg and builds the card.
func New(cfg *config.Card, loc localize.Localizer, logger *logrus.Logger) (*Card, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := provider.New(cfg, loc, logger)
	if err != nil {
		return nil, err
	}
	c := &Card{cfg: cfg, provider: p, logger: logger}
	if cfg.Style != "" {
		c.style = ScopeStyle("ha-card", cfg.Style)
	}
	return c, nil
}

// Config returns the card configuration.
func (c *Card) Config() *config.Card { return c.cfg }

// Update applies a snapshot and reports whether the view changed.
func (c *Card) Update(snap *domain.Snapshot) bool {
	return c.provider.Update(snap)
}

// View builds the current view.
func (c *Card) View() View {
	res := c.provider.Batteries()
	v := View{Style: c.style, Items: []battery.View{}}

	if c.cfg.IsSimple() {
		v.Simple = true
		if len(res.Items) > 0 {
			v.Items = append(v.Items, res.Items[0].View())
		} else if len(res.Groups) > 0 && len(res.Groups[0].Items) > 0 {
			v.Items = append(v.Items, res.Groups[0].Items[0].View())
		}
		return v
	}

	for _, it := range res.Items {
		if !it.Hidden() {
			v.Items = append(v.Items, it.View())
		}
	}
	for _, g := range res.Groups {
		gv := GroupView{Name: g.Name, Icon: g.Icon, SecondaryInfo: g.SecondaryInfo}
		for _, it := range g.Items {
			if !it.Hidden() {
				gv.Items = append(gv.Items, it.View())
			}
		}
		if len(gv.Items) > 0 {
			v.Groups = append(v.Groups, gv)
		}
	}
	if !v.Empty() {
		v.Title = c.cfg.Header()
	}
	return v
}

// Size estimates the card height in rows.
func (c *Card) Size() int {
	if col := c.cfg.Collapse; col != nil {
		switch {
		case col.Count == nil:
			return len(col.Rules) + 1
		case *col.Count != 0:
			return *col.Count + 1
		}
	}
	n := len(c.cfg.Entities)
	if n == 0 {
		n = 1
	}
	return n + 1
}

// Action returns the tap action of the item for entityID, nil when the
// item is not clickable.
func (c *Card) Action(entityID string) (*action.Action, error) {
	it := c.provider.Find(entityID)
	if it == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entityID)
	}
	return it.Action(), nil
}

// Tap runs the tap action of the item for entityID. Items without an
// action ignore taps.
func (c *Card) Tap(ctx context.Context, entityID string, d action.Dispatcher) error {
	act, err := c.Action(entityID)
	if err != nil {
		return err
	}
	if act == nil {
		c.logger.WithField("entity_id", entityID).Debug("Tap on entity without action")
		return nil
	}
	return act.Run(ctx, d)
}
