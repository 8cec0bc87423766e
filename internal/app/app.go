package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jkaberg/battery-state/internal/action"
	"github.com/jkaberg/battery-state/internal/bus"
	"github.com/jkaberg/battery-state/internal/card"
	"github.com/jkaberg/battery-state/internal/config"
	"github.com/jkaberg/battery-state/internal/debounce"
	"github.com/jkaberg/battery-state/internal/domain"
	"github.com/jkaberg/battery-state/internal/localize"
	"github.com/jkaberg/battery-state/internal/presenter"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrTapQueueFull is replied to taps that arrive faster than they run.
var ErrTapQueueFull = errors.New("tap queue full")

const tapQueue = 16

// Feed produces entity snapshots, e.g. *hass.Client.
type Feed interface {
	Run(ctx context.Context) error
	Snapshots() <-chan *domain.Snapshot
}

type service struct {
	name string
	run  func(ctx context.Context) error
}

// App wires the feed, the card and the presenters. The card loop is the
// only goroutine that touches the card.
type App struct {
	card       *card.Card
	feed       Feed
	dispatcher action.Dispatcher
	loc        localize.Localizer
	logger     *logrus.Logger

	presenters []presenter.Presenter
	services   []service
	taps       chan presenter.Tap
	reloads    chan *config.Card
}

func New(c *card.Card, feed Feed, d action.Dispatcher, loc localize.Localizer, logger *logrus.Logger) *App {
	return &App{
		card:       c,
		feed:       feed,
		dispatcher: d,
		loc:        loc,
		logger:     logger,
		taps:       make(chan presenter.Tap, tapQueue),
		reloads:    make(chan *config.Card),
	}
}

// AddPresenter registers p. Each presenter runs on its own goroutine and
// only sees the latest frame.
func (a *App) AddPresenter(p presenter.Presenter) {
	a.presenters = append(a.presenters, p)
}

// AddService registers a background runner. Its error stops the app.
func (a *App) AddService(name string, run func(ctx context.Context) error) {
	a.services = append(a.services, service{name: name, run: run})
}

// Tap queues a tap without blocking.
func (a *App) Tap(t presenter.Tap) {
	select {
	case a.taps <- t:
	default:
		a.logger.WithField("entity_id", t.EntityID).Warn("Tap queue full, dropping tap")
		reply(t, ErrTapQueueFull)
	}
}

// Reloads accepts replacement card configurations.
func (a *App) Reloads() chan<- *config.Card { return a.reloads }

func reply(t presenter.Tap, err error) {
	if t.Reply != nil {
		t.Reply <- err
	}
}

// Run blocks until ctx is cancelled or a component fails.
func (a *App) Run(parentCtx context.Context) error {
	grp, ctx := errgroup.WithContext(parentCtx)
	frames := bus.New[presenter.Frame]()

	// Feed ------------------------------------------------------------------
	grp.Go(func() error {
		if err := a.feed.Run(ctx); err != nil {
			return fmt.Errorf("feed: %w", err)
		}
		return nil
	})

	// Services --------------------------------------------------------------
	for _, s := range a.services {
		s := s
		grp.Go(func() error {
			if err := s.run(ctx); err != nil {
				return fmt.Errorf("%s: %w", s.name, err)
			}
			return nil
		})
	}

	// Presenters ------------------------------------------------------------
	for _, p := range a.presenters {
		p := p
		sub := frames.Subscribe()
		grp.Go(func() error {
			for f := range sub {
				if err := p.Present(f); err != nil {
					a.logger.WithError(err).WithField("presenter", fmt.Sprintf("%T", p)).Warn("Present failed")
				}
			}
			return nil
		})
	}

	// Card loop -------------------------------------------------------------
	grp.Go(func() error {
		defer frames.Close()
		return a.loop(ctx, grp, frames)
	})

	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) loop(ctx context.Context, grp *errgroup.Group, frames *bus.Bus[presenter.Frame]) error {
	renders := make(chan struct{}, 1)
	d := debounce.New(config.RenderDebounce, debounce.Signal(renders))
	defer d.Stop()

	snapshots := a.feed.Snapshots()
	var latest *domain.Snapshot

	for {
		select {
		case <-ctx.Done():
			return nil

		case snap, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			first := latest == nil
			latest = snap
			if a.card.Update(snap) || first {
				d.Trigger()
			}

		case <-renders:
			frames.Publish(presenter.Frame{View: a.card.View(), Size: a.card.Size()})

		case cfg := <-a.reloads:
			next, err := card.New(cfg, a.loc, a.logger)
			if err != nil {
				a.logger.WithError(err).Error("Failed to rebuild card, keeping previous card")
				continue
			}
			a.card = next
			if latest != nil {
				a.card.Update(latest)
			}
			a.logger.Info("Card rebuilt from new configuration")
			d.Trigger()

		case t := <-a.taps:
			act, err := a.card.Action(t.EntityID)
			if err != nil || act == nil {
				if err != nil {
					a.logger.WithError(err).Warn("Tap ignored")
				}
				reply(t, err)
				continue
			}
			grp.Go(func() error {
				tapCtx, cancel := context.WithTimeout(ctx, config.TapTimeout)
				defer cancel()
				err := act.Run(tapCtx, a.dispatcher)
				if err != nil {
					a.logger.WithError(err).WithField("entity_id", t.EntityID).Warn("Tap action failed")
				}
				reply(t, err)
				return nil
			})
		}
	}
}
