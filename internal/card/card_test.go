package card

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/jkaberg/battery-state/internal/config"
	"github.com/jkaberg/battery-state/internal/domain"
	"github.com/jkaberg/battery-state/internal/localize"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	details  []string
	services []string
}

func (r *recorder) ShowDetail(_ context.Context, entityID string) error {
	r.details = append(r.details, entityID)
	return nil
}

func (r *recorder) Navigate(context.Context, string) error { return nil }

func (r *recorder) CallService(_ context.Context, domain, service string, _ map[string]interface{}) error {
	r.services = append(r.services, domain+"."+service)
	return nil
}

func (r *recorder) OpenURL(context.Context, string) error { return nil }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func sensor(id, state string) *domain.EntityState {
	return &domain.EntityState{EntityID: id, State: state}
}

func newCard(t *testing.T, yml string) *Card {
	t.Helper()
	cfg, err := config.ParseCard([]byte(yml))
	require.NoError(t, err)
	c, err := New(cfg, localize.English, quietLogger())
	require.NoError(t, err)
	return c
}

func TestViewHidesExcludedItems(t *testing.T) {
	c := newCard(t, `
title: Batteries
entities: [sensor.a, sensor.b]
filter:
  exclude:
    - name: state
      operator: ">"
      value: 90
`)
	require.True(t, c.Update(domain.NewSnapshot([]*domain.EntityState{
		sensor("sensor.a", "95"), sensor("sensor.b", "15"),
	}, time.Now())))

	v := c.View()
	assert.Equal(t, "Batteries", v.Title)
	assert.False(t, v.Simple)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "sensor.b", v.Items[0].EntityID)
	assert.Equal(t, "15", v.Items[0].Level)
	assert.Equal(t, "%", v.Items[0].Unit)
}

func TestViewDropsEmptyGroups(t *testing.T) {
	c := newCard(t, `
name: Home
entities: [sensor.a, sensor.b, sensor.c]
collapse:
  - name: "Low ({count})"
    max: 20
  - name: "Full"
    min: 99
filter:
  exclude:
    - name: state
      value: "100"
`)
	c.Update(domain.NewSnapshot([]*domain.EntityState{
		sensor("sensor.a", "10"), sensor("sensor.b", "50"), sensor("sensor.c", "100"),
	}, time.Now()))

	v := c.View()
	assert.Equal(t, "Home", v.Title)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "sensor.b", v.Items[0].EntityID)
	require.Len(t, v.Groups, 1)
	assert.Equal(t, "Low (1)", v.Groups[0].Name)

	low, ok := v.Lowest()
	require.True(t, ok)
	assert.Equal(t, "sensor.a", low.EntityID)
}

func TestSimpleView(t *testing.T) {
	c := newCard(t, `
entity: sensor.phone
title: ignored
`)
	c.Update(domain.NewSnapshot([]*domain.EntityState{sensor("sensor.phone", "42")}, time.Now()))
	v := c.View()
	assert.True(t, v.Simple)
	assert.Empty(t, v.Title)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "42", v.Items[0].Level)
}

func TestEmptyView(t *testing.T) {
	c := newCard(t, `
title: Nothing
filter:
  include:
    - name: attributes.device_class
      value: battery
`)
	c.Update(domain.NewSnapshot([]*domain.EntityState{sensor("sensor.a", "1")}, time.Now()))
	v := c.View()
	assert.True(t, v.Empty())
	assert.Empty(t, v.Title)
	_, ok := v.Lowest()
	assert.False(t, ok)
}

func TestSize(t *testing.T) {
	tests := []struct {
		yml  string
		want int
	}{
		{"entities: [sensor.a, sensor.b, sensor.c]", 4},
		{"entity: sensor.a", 2},
		{"entities: [sensor.a, sensor.b, sensor.c]\ncollapse: 2", 3},
		{"entities: [sensor.a, sensor.b, sensor.c]\ncollapse: 0", 4},
		{"collapse:\n  - group_id: group.a\n  - group_id: group.b", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, newCard(t, tt.yml).Size(), tt.yml)
	}
}

func TestTap(t *testing.T) {
	c := newCard(t, `
tap_action: more-info
entities:
  - sensor.a
  - entity: sensor.b
    tap_action:
      action: call-service
      service: switch.toggle
  - entity: sensor.c
    tap_action: none
`)
	c.Update(domain.NewSnapshot([]*domain.EntityState{
		sensor("sensor.a", "1"), sensor("sensor.b", "2"), sensor("sensor.c", "3"),
	}, time.Now()))

	rec := &recorder{}
	ctx := context.Background()
	require.NoError(t, c.Tap(ctx, "sensor.a", rec))
	require.NoError(t, c.Tap(ctx, "sensor.b", rec))
	require.NoError(t, c.Tap(ctx, "sensor.c", rec))
	assert.Equal(t, []string{"sensor.a"}, rec.details)
	assert.Equal(t, []string{"switch.toggle"}, rec.services)

	assert.ErrorIs(t, c.Tap(ctx, "sensor.zzz", rec), ErrUnknownEntity)
}

func TestNewRejectsInvalidCard(t *testing.T) {
	_, err := New(&config.Card{Title: "empty"}, localize.English, quietLogger())
	assert.ErrorIs(t, err, config.ErrInvalidCard)
}
