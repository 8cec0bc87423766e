package action

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type call struct {
	method string
	args   []string
	data   map[string]interface{}
}

type fakeDispatcher struct {
	calls []call
	err   error
}

func (f *fakeDispatcher) ShowDetail(_ context.Context, entityID string) error {
	f.calls = append(f.calls, call{method: "show", args: []string{entityID}})
	return f.err
}

func (f *fakeDispatcher) Navigate(_ context.Context, path string) error {
	f.calls = append(f.calls, call{method: "navigate", args: []string{path}})
	return f.err
}

func (f *fakeDispatcher) CallService(_ context.Context, domain, service string, data map[string]interface{}) error {
	f.calls = append(f.calls, call{method: "service", args: []string{domain, service}, data: data})
	return f.err
}

func (f *fakeDispatcher) OpenURL(_ context.Context, url string) error {
	f.calls = append(f.calls, call{method: "url", args: []string{url}})
	return f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestResolveNone(t *testing.T) {
	assert.Nil(t, Resolve(nil, "sensor.a", quietLogger()))
	assert.Nil(t, Resolve(&Config{Action: "none"}, "sensor.a", quietLogger()))
	assert.Nil(t, Resolve(&Config{}, "sensor.a", quietLogger()))
}

func TestRunDispatches(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []call
	}{
		{"more-info", Config{Action: "more-info"}, []call{{method: "show", args: []string{"sensor.a"}}}},
		{"navigate", Config{Action: "navigate", NavigationPath: "/lovelace/1"}, []call{{method: "navigate", args: []string{"/lovelace/1"}}}},
		{"navigate missing path", Config{Action: "navigate"}, nil},
		{"call-service", Config{Action: "call-service", Service: "light.toggle", ServiceData: map[string]interface{}{"entity_id": "light.x"}},
			[]call{{method: "service", args: []string{"light", "toggle"}, data: map[string]interface{}{"entity_id": "light.x"}}}},
		{"call-service missing", Config{Action: "call-service"}, nil},
		{"call-service no dot", Config{Action: "call-service", Service: "toggle"}, nil},
		{"url", Config{Action: "url", URLPath: "https://example.org"}, []call{{method: "url", args: []string{"https://example.org"}}}},
		{"url missing", Config{Action: "url"}, nil},
		{"unknown", Config{Action: "fire-dom-event"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			a := Resolve(&cfg, "sensor.a", quietLogger())
			require.NotNil(t, a)
			d := &fakeDispatcher{}
			require.NoError(t, a.Run(context.Background(), d))
			assert.Equal(t, tt.want, d.calls)
		})
	}
}

func TestRunWrapsHostError(t *testing.T) {
	a := Resolve(&Config{Action: "more-info"}, "sensor.a", quietLogger())
	boom := errors.New("boom")
	err := a.Run(context.Background(), &fakeDispatcher{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestUnmarshalYAML(t *testing.T) {
	var scalar Config
	require.NoError(t, yaml.Unmarshal([]byte(`more-info`), &scalar))
	assert.Equal(t, "more-info", scalar.Action)

	var full Config
	require.NoError(t, yaml.Unmarshal([]byte("action: navigate\nnavigation_path: /energy\n"), &full))
	assert.Equal(t, Config{Action: "navigate", NavigationPath: "/energy"}, full)
}
