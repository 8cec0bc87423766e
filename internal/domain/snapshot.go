package domain

import (
	"strings"
	"time"
)

// EntityState is one Home Assistant entity as delivered by the host.
type EntityState struct {
	EntityID    string                 `json:"entity_id"`
	State       string                 `json:"state"`
	Attributes  map[string]interface{} `json:"attributes"`
	LastChanged time.Time              `json:"last_changed"`
	LastUpdated time.Time              `json:"last_updated"`
}

// Attribute returns the named attribute. Absent and null attributes both
// report false.
func (e *EntityState) Attribute(name string) (interface{}, bool) {
	if e == nil || e.Attributes == nil {
		return nil, false
	}
	v, ok := e.Attributes[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// AttributeString returns a string attribute, or "" when it is absent or
// not a string.
func (e *EntityState) AttributeString(name string) string {
	v, _ := e.Attribute(name)
	s, _ := v.(string)
	return s
}

// Field returns a top-level field of the entity by its JSON name.
func (e *EntityState) Field(name string) (interface{}, bool) {
	if e == nil {
		return nil, false
	}
	switch name {
	case "entity_id":
		return e.EntityID, true
	case "state":
		return e.State, true
	case "attributes":
		if e.Attributes == nil {
			return nil, false
		}
		return e.Attributes, true
	case "last_changed":
		if e.LastChanged.IsZero() {
			return nil, false
		}
		return e.LastChanged, true
	case "last_updated":
		if e.LastUpdated.IsZero() {
			return nil, false
		}
		return e.LastUpdated, true
	}
	return nil, false
}

// FriendlyName returns the friendly_name attribute.
func (e *EntityState) FriendlyName() string {
	return e.AttributeString("friendly_name")
}

// Domain returns the part of the entity id before the dot.
func (e *EntityState) Domain() string {
	d, _, _ := strings.Cut(e.EntityID, ".")
	return d
}

// Snapshot is the state of every entity at one point in time. A snapshot is
// never mutated once published; With returns a modified copy.
type Snapshot struct {
	Timestamp time.Time
	States    map[string]*EntityState
}

// NewSnapshot indexes states by entity id.
func NewSnapshot(states []*EntityState, ts time.Time) *Snapshot {
	s := &Snapshot{Timestamp: ts, States: make(map[string]*EntityState, len(states))}
	for _, st := range states {
		if st == nil || st.EntityID == "" {
			continue
		}
		s.States[st.EntityID] = st
	}
	return s
}

// Get looks up an entity.
func (s *Snapshot) Get(entityID string) (*EntityState, bool) {
	if s == nil {
		return nil, false
	}
	st, ok := s.States[entityID]
	return st, ok && st != nil
}

// With returns a copy of s in which entityID has the given state. A nil
// state removes the entity.
func (s *Snapshot) With(entityID string, st *EntityState, ts time.Time) *Snapshot {
	out := &Snapshot{Timestamp: ts, States: make(map[string]*EntityState, len(s.States)+1)}
	for id, v := range s.States {
		out.States[id] = v
	}
	if st == nil {
		delete(out.States, entityID)
	} else {
		out.States[entityID] = st
	}
	return out
}

// Len returns the number of entities.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.States)
}
