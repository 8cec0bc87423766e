// Package watch reloads the card configuration when its file changes.
package watch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jkaberg/battery-state/internal/config"
	"github.com/jkaberg/battery-state/internal/debounce"
	"github.com/sirupsen/logrus"
)

// Watcher watches the directory of the card file, since editors often
// replace files instead of writing them in place. All reads and parses
// happen on the Run goroutine; timer callbacks only signal.
type Watcher struct {
	path   string
	last   []byte
	delay  time.Duration
	logger *logrus.Logger
}

// New creates a watcher for path. initial is the content already loaded.
func New(path string, initial []byte, delay time.Duration, logger *logrus.Logger) *Watcher {
	return &Watcher{
		path:   filepath.Clean(path),
		last:   initial,
		delay:  delay,
		logger: logger,
	}
}

// Run sends every valid card whose file content differs from the last
// one seen. Invalid cards are logged and skipped.
func (w *Watcher) Run(ctx context.Context, out chan<- *config.Card) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.logger.WithField("path", w.path).Info("Watching card configuration")

	signals := make(chan struct{}, 1)
	d := debounce.New(w.delay, debounce.Signal(signals))
	defer d.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-signals:
			w.reload(ctx, out)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				d.Trigger()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Card file watcher error")
		}
	}
}

func (w *Watcher) reload(ctx context.Context, out chan<- *config.Card) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		// Mid-replace; the create that follows triggers another reload.
		w.logger.WithError(err).Debug("Card configuration not readable")
		return
	}
	if bytes.Equal(data, w.last) {
		w.logger.Debug("Card configuration unchanged")
		return
	}
	w.last = data

	card, err := config.ParseCard(data)
	if err != nil {
		w.logger.WithError(err).Error("Card configuration invalid, keeping previous card")
		return
	}
	w.logger.WithField("path", w.path).Info("Card configuration changed")

	select {
	case out <- card:
	case <-ctx.Done():
	}
}
