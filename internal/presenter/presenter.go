// Package presenter draws rendered card views: retained MQTT messages
// with Home Assistant discovery, a terminal listing and an HTTP API.
package presenter

import (
	"encoding/json"

	"github.com/jkaberg/battery-state/internal/battery"
	"github.com/jkaberg/battery-state/internal/card"
)

// Frame is one render of the card.
type Frame struct {
	View card.View
	Size int
}

// Presenter defines the interface for presenting card frames
type Presenter interface {
	Present(f Frame) error
	IsConnected() bool
}

// Tap asks the card owner to run an entity's tap action. Reply, when not
// nil, receives the outcome and must be buffered.
type Tap struct {
	EntityID string
	Reply    chan error
}

// TapFunc hands a tap to the card owner without blocking.
type TapFunc func(Tap)

// viewPayload is the JSON shape shared by the MQTT and HTTP presenters.
type viewPayload struct {
	card.View
	Size     int           `json:"size"`
	Charging bool          `json:"charging"`
	Lowest   *battery.View `json:"lowest,omitempty"`
}

func newViewPayload(f Frame) viewPayload {
	p := viewPayload{View: f.View, Size: f.Size}
	if low, ok := f.View.Lowest(); ok {
		p.Lowest = &low
	}
	for _, it := range f.View.Items {
		p.Charging = p.Charging || it.Charging
	}
	for _, g := range f.View.Groups {
		for _, it := range g.Items {
			p.Charging = p.Charging || it.Charging
		}
	}
	return p
}

func buildViewPayload(f Frame) ([]byte, error) {
	return json.Marshal(newViewPayload(f))
}
