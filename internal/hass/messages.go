package hass

import (
	"encoding/json"
	"fmt"

	"github.com/jkaberg/battery-state/internal/domain"
)

// Message types of the Home Assistant websocket API.
const (
	typeAuthRequired = "auth_required"
	typeAuth         = "auth"
	typeAuthOK       = "auth_ok"
	typeAuthInvalid  = "auth_invalid"
	typeResult       = "result"
	typeEvent        = "event"

	typeGetStates       = "get_states"
	typeSubscribeEvents = "subscribe_events"
	typeCallService     = "call_service"
	typeFireEvent       = "fire_event"

	eventStateChanged = "state_changed"
)

type request struct {
	ID          int                    `json:"id,omitempty"`
	Type        string                 `json:"type"`
	AccessToken string                 `json:"access_token,omitempty"`
	EventType   string                 `json:"event_type,omitempty"`
	EventData   map[string]interface{} `json:"event_data,omitempty"`
	Domain      string                 `json:"domain,omitempty"`
	Service     string                 `json:"service,omitempty"`
	ServiceData map[string]interface{} `json:"service_data,omitempty"`
}

type response struct {
	ID        int             `json:"id,omitempty"`
	Type      string          `json:"type"`
	HAVersion string          `json:"ha_version,omitempty"`
	Message   string          `json:"message,omitempty"`
	Success   bool            `json:"success,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *Error          `json:"error,omitempty"`
	Event     *event          `json:"event,omitempty"`
}

type event struct {
	EventType string      `json:"event_type"`
	Data      stateChange `json:"data"`
}

type stateChange struct {
	EntityID string              `json:"entity_id"`
	NewState *domain.EntityState `json:"new_state"`
}

// Error is a failed command result.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("home assistant error %s: %s", e.Code, e.Message)
}
