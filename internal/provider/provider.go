// Package provider decides which entities are on the card and keeps their
// items up to date across snapshots.
package provider

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jkaberg/battery-state/internal/action"
	"github.com/jkaberg/battery-state/internal/battery"
	"github.com/jkaberg/battery-state/internal/collapse"
	"github.com/jkaberg/battery-state/internal/config"
	"github.com/jkaberg/battery-state/internal/domain"
	"github.com/jkaberg/battery-state/internal/filter"
	"github.com/jkaberg/battery-state/internal/localize"
	"github.com/sirupsen/logrus"
)

const groupPrefix = "group."

// Provider is the entity set resolver. It is not safe for concurrent use;
// one goroutine owns it between ticks.
type Provider struct {
	card    *config.Card
	include []*filter.Rule
	exclude []*filter.Rule
	engine  *collapse.Engine
	loc     localize.Localizer
	logger  *logrus.Logger

	items       []*battery.Item
	pending     []string
	groups      collapse.GroupData
	initialized bool
}

// New builds the provider and the items for explicitly configured
// entities. Group entities and include rules are resolved on the first
// Update.
func New(card *config.Card, loc localize.Localizer, logger *logrus.Logger) (*Provider, error) {
	p := &Provider{
		card:   card,
		engine: collapse.New(card.Collapse, logger),
		loc:    loc,
		logger: logger,
		groups: collapse.GroupData{},
	}
	if err := card.Config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidCard, err)
	}

	var err error
	if p.include, err = compileRules(card.Includes(), logger); err != nil {
		return nil, err
	}
	if p.exclude, err = compileRules(card.Excludes(), logger); err != nil {
		return nil, err
	}

	var entries []battery.Config
	if card.IsSimple() {
		entries = append(entries, card.Config)
	} else {
		for _, e := range card.Entities {
			entries = append(entries, e.Config)
		}
	}

	explicit := make([]battery.Config, 0, len(entries))
	for _, e := range entries {
		if e.Entity == "" {
			return nil, fmt.Errorf("%w: missing property 'entity'", config.ErrInvalidCard)
		}
		if strings.HasPrefix(e.Entity, groupPrefix) {
			p.addPending(e.Entity)
			continue
		}
		explicit = append(explicit, e)
	}

	if card.Collapse.HasRules() {
		for _, r := range card.Collapse.Rules {
			if r.GroupID != "" {
				p.addPending(r.GroupID)
				continue
			}
			for _, id := range r.Entities {
				if !containsEntity(explicit, id) {
					explicit = append(explicit, battery.Config{Entity: id})
				}
			}
		}
	}

	for _, e := range explicit {
		if p.Tracked(e.Entity) {
			logger.WithField("entity_id", e.Entity).Warn("Entity listed more than once, ignoring duplicate")
			continue
		}
		it, err := p.newItem(e)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidCard, err)
		}
		p.items = append(p.items, it)
	}
	return p, nil
}

func compileRules(specs []filter.Spec, logger *logrus.Logger) ([]*filter.Rule, error) {
	rules := make([]*filter.Rule, 0, len(specs))
	for _, s := range specs {
		r, err := filter.New(s, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidCard, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func containsEntity(list []battery.Config, id string) bool {
	for _, c := range list {
		if c.Entity == id {
			return true
		}
	}
	return false
}

func (p *Provider) addPending(groupID string) {
	for _, g := range p.pending {
		if g == groupID {
			return
		}
	}
	p.pending = append(p.pending, groupID)
}

func (p *Provider) newItem(cfg battery.Config) (*battery.Item, error) {
	cfg = cfg.Inherit(p.card.Config)
	act := action.Resolve(cfg.TapAction, cfg.Entity, p.logger)
	return battery.New(cfg, act, p.loc, p.logger)
}

// track creates an item for entityID unless it is already tracked.
func (p *Provider) track(entityID string) bool {
	if p.Tracked(entityID) {
		return false
	}
	it, err := p.newItem(battery.Config{Entity: entityID})
	if err != nil {
		p.logger.WithError(err).WithField("entity_id", entityID).Error("Failed to create battery item")
		return false
	}
	p.items = append(p.items, it)
	return true
}

// Update applies snap and reports whether the card needs a re-render.
func (p *Provider) Update(snap *domain.Snapshot) bool {
	changed := false
	if !p.initialized {
		p.initialized = true
		if p.resolveGroups(snap) {
			changed = true
		}
		if p.resolveIncludes(snap) {
			changed = true
		}
	}

	if p.refreshItems(snap) {
		changed = true
	}
	if changed {
		p.sort()
		p.applyExcludes(snap)
	}
	return changed
}

func (p *Provider) resolveGroups(snap *domain.Snapshot) bool {
	added := false
	for _, id := range p.pending {
		st, ok := snap.Get(id)
		if !ok {
			p.logger.WithField("group_id", id).Error("Group not found")
			continue
		}
		p.groups[id] = st.Attributes
		members, ok := p.groups.Members(id)
		if !ok {
			delete(p.groups, id)
			p.logger.WithField("group_id", id).Error("Entities not found in group")
			continue
		}
		for _, m := range members {
			if p.track(m) {
				added = true
			}
		}
	}
	p.pending = nil
	return added
}

func (p *Provider) resolveIncludes(snap *domain.Snapshot) bool {
	if len(p.include) == 0 {
		return false
	}
	ids := make([]string, 0, snap.Len())
	for id := range snap.States {
		ids = append(ids, id)
	}
	// Map order is random; keep discovery order stable.
	sort.Strings(ids)

	added := false
	for _, id := range ids {
		st := snap.States[id]
		for _, r := range p.include {
			if r.IsValid(st, nil) {
				if p.track(id) {
					added = true
				}
				break
			}
		}
	}
	return added
}

func (p *Provider) refreshItems(snap *domain.Snapshot) bool {
	updated := false
	for _, it := range p.items {
		if it.Refresh(snap) {
			updated = true
		}
	}
	return updated
}

// sortKey places non-numeric levels at -1.
func sortKey(it *battery.Item) float64 {
	if n, ok := it.NumericLevel(); ok {
		return n
	}
	return -1
}

func (p *Provider) sort() {
	switch p.card.SortByLevel {
	case "":
	case config.SortAsc:
		sort.SliceStable(p.items, func(a, b int) bool {
			return sortKey(p.items[a]) < sortKey(p.items[b])
		})
	case config.SortDesc:
		sort.SliceStable(p.items, func(a, b int) bool {
			return sortKey(p.items[a]) > sortKey(p.items[b])
		})
	default:
		p.logger.WithField("sort_by_level", p.card.SortByLevel).Warn("Unknown sort option. Allowed values: 'asc', 'desc'")
	}
}

// applyExcludes hides items matched by "state" rules and drops items
// matched by any other rule for good.
func (p *Provider) applyExcludes(snap *domain.Snapshot) {
	if len(p.exclude) == 0 {
		return
	}
	kept := make([]*battery.Item, 0, len(p.items))
	for _, it := range p.items {
		entity, _ := snap.Get(it.EntityID())
		level := it.Level()
		hidden, remove := false, false
		for _, r := range p.exclude {
			if !r.IsValid(entity, &level) {
				continue
			}
			if r.IsPermanent() {
				remove = true
			} else {
				hidden = true
			}
		}
		it.SetHidden(hidden)
		if remove {
			p.logger.WithField("entity_id", it.EntityID()).Debug("Entity excluded from card")
			continue
		}
		kept = append(kept, it)
	}
	p.items = kept
}

// Items returns the tracked items in display order.
func (p *Provider) Items() []*battery.Item {
	return append([]*battery.Item(nil), p.items...)
}

// Tracked reports whether entityID has an item.
func (p *Provider) Tracked(entityID string) bool {
	return p.Find(entityID) != nil
}

// Find returns the item for entityID, or nil.
func (p *Provider) Find(entityID string) *battery.Item {
	for _, it := range p.items {
		if it.EntityID() == entityID {
			return it
		}
	}
	return nil
}

// Batteries partitions the items into ungrouped rows and groups.
func (p *Provider) Batteries() collapse.Result {
	return p.engine.Partition(p.items, p.groups)
}
