package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jkaberg/battery-state/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func expectCard(t *testing.T, ch <-chan *config.Card) *config.Card {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(3 * time.Second):
		t.Fatal("no reload received")
		return nil
	}
}

func expectNothing(t *testing.T, ch <-chan *config.Card) {
	t.Helper()
	select {
	case c := <-ch:
		t.Fatalf("unexpected reload: %+v", c)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.yaml")
	initial := []byte("entities: [sensor.a]\n")
	require.NoError(t, os.WriteFile(path, initial, 0o644))

	w := New(path, initial, 50*time.Millisecond, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan *config.Card)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, out) }()
	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("title: New\nentities: [sensor.a, sensor.b]\n"), 0o644))
	c := expectCard(t, out)
	assert.Equal(t, "New", c.Title)
	assert.Len(t, c.Entities, 2)

	// Same content again.
	require.NoError(t, os.WriteFile(path, []byte("title: New\nentities: [sensor.a, sensor.b]\n"), 0o644))
	expectNothing(t, out)

	// Invalid card is skipped.
	require.NoError(t, os.WriteFile(path, []byte("title: broken\n"), 0o644))
	expectNothing(t, out)

	// Unrelated file in the same directory.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("entities: [sensor.x]\n"), 0o644))
	expectNothing(t, out)

	require.NoError(t, os.WriteFile(path, []byte("entities: [sensor.c]\n"), 0o644))
	c = expectCard(t, out)
	assert.Equal(t, "sensor.c", c.Entities[0].Entity)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRunFailsForMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "card.yaml"), nil, time.Millisecond, quietLogger())
	assert.Error(t, w.Run(context.Background(), make(chan *config.Card)))
}
