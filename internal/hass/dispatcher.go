package hass

import (
	"context"

	"github.com/jkaberg/battery-state/internal/action"
)

// ActionEvent is fired for tap actions that need a frontend: more-info,
// navigate and url. Dashboards or automations can listen for it.
const ActionEvent = "battery_state_card_action"

// Dispatcher runs tap actions against Home Assistant.
type Dispatcher struct {
	client *Client
	cardID string
}

var _ action.Dispatcher = (*Dispatcher)(nil)

func NewDispatcher(client *Client, cardID string) *Dispatcher {
	return &Dispatcher{client: client, cardID: cardID}
}

func (d *Dispatcher) ShowDetail(ctx context.Context, entityID string) error {
	return d.fire(ctx, "more-info", "entity_id", entityID)
}

func (d *Dispatcher) Navigate(ctx context.Context, path string) error {
	return d.fire(ctx, "navigate", "navigation_path", path)
}

func (d *Dispatcher) OpenURL(ctx context.Context, url string) error {
	return d.fire(ctx, "url", "url_path", url)
}

func (d *Dispatcher) CallService(ctx context.Context, domain, service string, data map[string]interface{}) error {
	return d.client.CallService(ctx, domain, service, data)
}

func (d *Dispatcher) fire(ctx context.Context, kind, key, val string) error {
	return d.client.FireEvent(ctx, ActionEvent, map[string]interface{}{
		"card_id": d.cardID,
		"action":  kind,
		key:       val,
	})
}
