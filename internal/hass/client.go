// Package hass talks to the Home Assistant websocket API: it keeps an
// entity snapshot current and runs service calls for tap actions.
package hass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jkaberg/battery-state/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	// ErrAuthInvalid means the access token was rejected. Retrying will not help.
	ErrAuthInvalid = errors.New("home assistant rejected the access token")
	// ErrNotConnected is returned by commands issued while no session is up.
	ErrNotConnected = errors.New("not connected to home assistant")
)

const eventBuffer = 64

// Options tune a Client. Zero values fall back to sensible defaults.
type Options struct {
	RequestTimeout    time.Duration
	ReconnectInterval time.Duration
	ReconnectBurst    int
}

// Client is a Home Assistant websocket client. Run owns the connection;
// CallService and FireEvent may be used from any goroutine while it runs.
type Client struct {
	url     string
	token   string
	dialer  *websocket.Dialer
	limiter *rate.Limiter
	timeout time.Duration
	logger  *logrus.Logger

	snapshots chan *domain.Snapshot

	mu      sync.Mutex // guards conn, nextID and pending
	conn    *websocket.Conn
	nextID  int
	pending map[int]chan response

	writeMu sync.Mutex
}

// NewClient creates a client for the websocket endpoint url.
func NewClient(url, token string, dialer *websocket.Dialer, opts Options, logger *logrus.Logger) *Client {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = 5 * time.Second
	}
	if opts.ReconnectBurst <= 0 {
		opts.ReconnectBurst = 1
	}
	return &Client{
		url:       url,
		token:     token,
		dialer:    dialer,
		limiter:   rate.NewLimiter(rate.Every(opts.ReconnectInterval), opts.ReconnectBurst),
		timeout:   opts.RequestTimeout,
		logger:    logger,
		snapshots: make(chan *domain.Snapshot, 1),
		pending:   make(map[int]chan response),
	}
}

// Snapshots delivers a fresh snapshot after the initial fetch and after
// every state change. Slow readers only see the latest one. The channel
// is closed when Run returns.
func (c *Client) Snapshots() <-chan *domain.Snapshot {
	return c.snapshots
}

// Run connects and reconnects until ctx is cancelled or the token is
// rejected.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.snapshots)
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil
		}
		err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, ErrAuthInvalid) {
			return err
		}
		c.logger.WithError(err).Warn("Home Assistant connection lost, reconnecting")
	}
}

func (c *Client) session(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to Home Assistant: %w", err)
	}
	defer conn.Close()

	version, err := c.authenticate(conn)
	if err != nil {
		return err
	}
	c.logger.WithField("ha_version", version).Info("Connected to Home Assistant")

	sessCtx, cancel := context.WithCancel(ctx)
	c.attach(conn)

	events := make(chan stateChange, eventBuffer)
	readErr := make(chan error, 1)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		err := c.readLoop(sessCtx, conn, events)
		c.detach()
		readErr <- err
	}()
	defer func() {
		cancel()
		conn.Close()
		<-readDone
	}()

	var states []*domain.EntityState
	if err := c.call(sessCtx, request{Type: typeGetStates}, &states); err != nil {
		return fmt.Errorf("failed to fetch states: %w", err)
	}
	snap := domain.NewSnapshot(states, time.Now())
	c.emit(snap)

	if err := c.call(sessCtx, request{Type: typeSubscribeEvents, EventType: eventStateChanged}, nil); err != nil {
		return fmt.Errorf("failed to subscribe to state changes: %w", err)
	}
	c.logger.WithField("entities", snap.Len()).Info("Subscribed to Home Assistant state changes")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case ch := <-events:
			snap = snap.With(ch.EntityID, ch.NewState, time.Now())
			c.emit(snap)
		}
	}
}

func (c *Client) authenticate(conn *websocket.Conn) (string, error) {
	_ = conn.SetReadDeadline(time.Now().Add(c.timeout))
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	var msg response
	if err := conn.ReadJSON(&msg); err != nil {
		return "", fmt.Errorf("failed to read auth request: %w", err)
	}
	if msg.Type != typeAuthRequired {
		return "", fmt.Errorf("unexpected message %q before auth", msg.Type)
	}
	version := msg.HAVersion

	if err := conn.WriteJSON(request{Type: typeAuth, AccessToken: c.token}); err != nil {
		return "", fmt.Errorf("failed to send auth: %w", err)
	}
	msg = response{}
	if err := conn.ReadJSON(&msg); err != nil {
		return "", fmt.Errorf("failed to read auth result: %w", err)
	}
	switch msg.Type {
	case typeAuthOK:
		return version, nil
	case typeAuthInvalid:
		return "", fmt.Errorf("%w: %s", ErrAuthInvalid, msg.Message)
	}
	return "", fmt.Errorf("unexpected auth result %q", msg.Type)
}

// readLoop is the only reader of conn.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, events chan<- stateChange) error {
	for {
		var msg response
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("failed to read from Home Assistant: %w", err)
		}
		switch msg.Type {
		case typeResult:
			c.resolve(msg)
		case typeEvent:
			if msg.Event == nil || msg.Event.EventType != eventStateChanged || msg.Event.Data.EntityID == "" {
				continue
			}
			select {
			case events <- msg.Event.Data:
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			c.logger.WithField("type", msg.Type).Debug("Ignoring Home Assistant message")
		}
	}
}

// emit replaces a snapshot the reader has not picked up yet.
func (c *Client) emit(snap *domain.Snapshot) {
	select {
	case c.snapshots <- snap:
	default:
		select {
		case <-c.snapshots:
		default:
		}
		c.snapshots <- snap
	}
}

func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = nil
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func (c *Client) resolve(msg response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.pending[msg.ID]
	if !ok {
		return
	}
	delete(c.pending, msg.ID)
	ch <- msg
}

func (c *Client) forget(id int) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// call sends req and waits for its result, decoding it into out when set.
func (c *Client) call(ctx context.Context, req request, out interface{}) error {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.nextID++
	req.ID = c.nextID
	ch := make(chan response, 1)
	c.pending[req.ID] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(req.ID)
		return fmt.Errorf("failed to send %s: %w", req.Type, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	select {
	case <-ctx.Done():
		c.forget(req.ID)
		return fmt.Errorf("%s: %w", req.Type, ctx.Err())
	case res, ok := <-ch:
		if !ok {
			return ErrNotConnected
		}
		if !res.Success {
			if res.Error != nil {
				return res.Error
			}
			return fmt.Errorf("%s failed", req.Type)
		}
		if out == nil || len(res.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(res.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", req.Type, err)
		}
		return nil
	}
}

// CallService calls domain.service with data.
func (c *Client) CallService(ctx context.Context, domain, service string, data map[string]interface{}) error {
	c.logger.WithFields(logrus.Fields{
		"domain":  domain,
		"service": service,
	}).Debug("Calling Home Assistant service")
	return c.call(ctx, request{Type: typeCallService, Domain: domain, Service: service, ServiceData: data}, nil)
}

// FireEvent fires a custom event on the Home Assistant event bus.
func (c *Client) FireEvent(ctx context.Context, eventType string, data map[string]interface{}) error {
	return c.call(ctx, request{Type: typeFireEvent, EventType: eventType, EventData: data}, nil)
}
