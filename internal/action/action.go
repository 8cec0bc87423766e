// Package action turns a configured tap action into an effect dispatched to
// the host.
package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Kind is the closed set of tap actions.
type Kind int

const (
	KindNone Kind = iota
	KindMoreInfo
	KindNavigate
	KindCallService
	KindURL
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMoreInfo:
		return "more-info"
	case KindNavigate:
		return "navigate"
	case KindCallService:
		return "call-service"
	case KindURL:
		return "url"
	}
	return "unknown"
}

// ParseKind maps an action name to its Kind. An empty name is KindNone.
func ParseKind(name string) Kind {
	switch name {
	case "", "none":
		return KindNone
	case "more-info":
		return KindMoreInfo
	case "navigate":
		return KindNavigate
	case "call-service":
		return KindCallService
	case "url":
		return KindURL
	}
	return KindUnknown
}

// Config is a tap_action block. In YAML it may also be written as a bare
// action name, e.g. `tap_action: more-info`.
type Config struct {
	Action         string                 `yaml:"action" json:"action"`
	NavigationPath string                 `yaml:"navigation_path,omitempty" json:"navigation_path,omitempty"`
	Service        string                 `yaml:"service,omitempty" json:"service,omitempty"`
	ServiceData    map[string]interface{} `yaml:"service_data,omitempty" json:"service_data,omitempty"`
	URLPath        string                 `yaml:"url_path,omitempty" json:"url_path,omitempty"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Action = node.Value
		return nil
	}
	type plain Config
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = Config(p)
	return nil
}

// Dispatcher delivers effects to the host.
type Dispatcher interface {
	ShowDetail(ctx context.Context, entityID string) error
	Navigate(ctx context.Context, path string) error
	CallService(ctx context.Context, domain, service string, data map[string]interface{}) error
	OpenURL(ctx context.Context, url string) error
}

// Action is a resolved tap handler bound to one entity.
type Action struct {
	kind     Kind
	cfg      Config
	entityID string
	logger   *logrus.Logger
}

// Resolve binds cfg to entityID. It returns nil when there is nothing to do
// on tap (no config, or action "none"), which makes the row not clickable.
func Resolve(cfg *Config, entityID string, logger *logrus.Logger) *Action {
	if cfg == nil {
		return nil
	}
	kind := ParseKind(cfg.Action)
	if kind == KindNone {
		return nil
	}
	return &Action{kind: kind, cfg: *cfg, entityID: entityID, logger: logger}
}

func (a *Action) Kind() Kind { return a.kind }

// Run performs the action. Missing parameters and unknown action names are
// logged and skipped; only host errors are returned.
func (a *Action) Run(ctx context.Context, d Dispatcher) error {
	log := a.logger.WithFields(logrus.Fields{
		"entity_id": a.entityID,
		"action":    a.cfg.Action,
	})
	switch a.kind {
	case KindMoreInfo:
		return a.wrap(d.ShowDetail(ctx, a.entityID))
	case KindNavigate:
		if a.cfg.NavigationPath == "" {
			log.Warn("Missing 'navigation_path' for 'navigate' tap action")
			return nil
		}
		return a.wrap(d.Navigate(ctx, a.cfg.NavigationPath))
	case KindCallService:
		if a.cfg.Service == "" {
			log.Warn("Missing 'service' for 'call-service' tap action")
			return nil
		}
		parts := strings.Split(a.cfg.Service, ".")
		if len(parts) < 2 {
			log.WithField("service", a.cfg.Service).Warn("Service for 'call-service' tap action must be <domain>.<service>")
			return nil
		}
		data := make(map[string]interface{}, len(a.cfg.ServiceData))
		for k, v := range a.cfg.ServiceData {
			data[k] = v
		}
		return a.wrap(d.CallService(ctx, parts[0], parts[1], data))
	case KindURL:
		if a.cfg.URLPath == "" {
			log.Warn("Missing 'url_path' for 'url' tap action")
			return nil
		}
		return a.wrap(d.OpenURL(ctx, a.cfg.URLPath))
	}
	log.Warn("Unknown tap action type")
	return nil
}

func (a *Action) wrap(err error) error {
	if err != nil {
		return fmt.Errorf("%s tap action for %s: %w", a.kind, a.entityID, err)
	}
	return nil
}
