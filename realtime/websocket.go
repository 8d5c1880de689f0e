// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/partyline/partyline/lib/clock"
	"github.com/partyline/partyline/lib/netutil"
)

// FeedConfig holds configuration for dialing a websocket feed.
type FeedConfig struct {
	// URL is the websocket endpoint (wss://...).
	URL string
	// AuthToken is sent as a bearer token on the handshake.
	AuthToken string
	// Dialer is used for all connection attempts. If nil,
	// websocket.DefaultDialer is used.
	Dialer *websocket.Dialer
	// Clock drives the keepalive ticker and reconnect backoff waits.
	// If nil, clock.Real() is used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// PingInterval is the keepalive ping period. Default: 30s.
	PingInterval time.Duration
	// MaxMessageSize bounds inbound frame size. Default: 1MB.
	MaxMessageSize int64
	// EventBuffer is the capacity of the events channel. Default: 256.
	EventBuffer int
}

const (
	defaultPingInterval   = 30 * time.Second
	defaultMaxMessageSize = 1 << 20
	defaultEventBuffer    = 256

	// writeWait bounds control-frame writes so a dead peer cannot
	// block the pinger forever.
	writeWait = 10 * time.Second
)

// WebsocketFeed is the production Feed over a gorilla/websocket
// connection. It reconnects automatically with exponential backoff and
// signals on Resyncs after every re-established connection.
type WebsocketFeed struct {
	config  FeedConfig
	clock   clock.Clock
	logger  *slog.Logger
	events  chan Event
	resyncs chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn

	done     chan struct{}
	finished chan struct{}
	closeOne sync.Once
}

var _ Feed = (*WebsocketFeed)(nil)

// Dial connects to the feed endpoint and starts the read loop. The
// initial connection attempt is not retried: a bad URL or rejected
// handshake surfaces immediately. Later connection losses reconnect
// with backoff.
func Dial(config FeedConfig) (*WebsocketFeed, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("realtime: URL is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.PingInterval <= 0 {
		config.PingInterval = defaultPingInterval
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = defaultMaxMessageSize
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = defaultEventBuffer
	}

	feed := &WebsocketFeed{
		config:   config,
		clock:    config.Clock,
		logger:   config.Logger,
		events:   make(chan Event, config.EventBuffer),
		resyncs:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	conn, err := feed.dial()
	if err != nil {
		return nil, err
	}
	feed.setConn(conn)

	go feed.run(conn)
	return feed, nil
}

// Events returns the channel of inbound events.
func (f *WebsocketFeed) Events() <-chan Event { return f.events }

// Resyncs returns the channel signaling connection restarts.
func (f *WebsocketFeed) Resyncs() <-chan struct{} { return f.resyncs }

// Close tears the feed down. Safe to call more than once.
func (f *WebsocketFeed) Close() error {
	f.closeOne.Do(func() {
		close(f.done)
		f.mu.Lock()
		if f.conn != nil {
			_ = f.conn.Close()
		}
		f.mu.Unlock()
	})
	<-f.finished
	return nil
}

func (f *WebsocketFeed) dial() (*websocket.Conn, error) {
	dialer := f.config.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	header := http.Header{}
	if f.config.AuthToken != "" {
		header.Set("Authorization", "Bearer "+f.config.AuthToken)
	}

	conn, response, err := dialer.Dial(f.config.URL, header)
	if err != nil {
		if response != nil {
			defer response.Body.Close()
			return nil, fmt.Errorf("realtime: dialing %s: %w (%s)",
				f.config.URL, err, netutil.ErrorBody(response.Body))
		}
		return nil, fmt.Errorf("realtime: dialing %s: %w", f.config.URL, err)
	}
	conn.SetReadLimit(f.config.MaxMessageSize)
	return conn, nil
}

func (f *WebsocketFeed) setConn(conn *websocket.Conn) {
	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
}

// run owns the connection lifecycle: read until failure, reconnect
// with backoff, signal a resync, repeat until Close.
func (f *WebsocketFeed) run(conn *websocket.Conn) {
	defer func() {
		close(f.events)
		close(f.resyncs)
		close(f.finished)
	}()

	for {
		f.readLoop(conn)

		select {
		case <-f.done:
			return
		default:
		}

		next, ok := f.reconnect()
		if !ok {
			return
		}
		conn = next
		f.setConn(conn)

		// Coalesced: a pending, unconsumed resync already covers
		// this restart.
		select {
		case f.resyncs <- struct{}{}:
		default:
		}
	}
}

// readLoop reads frames from one connection until it fails, running a
// keepalive pinger alongside. Malformed frames are dropped.
func (f *WebsocketFeed) readLoop(conn *websocket.Conn) {
	pingerDone := make(chan struct{})
	go f.pinger(conn, pingerDone)
	defer close(pingerDone)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if !netutil.IsExpectedCloseError(err) && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				f.logger.Warn("feed connection lost", "error", err)
			}
			return
		}

		event, err := ParseEvent(frame)
		if err != nil {
			f.logger.Warn("dropping malformed feed frame", "error", err)
			continue
		}

		select {
		case f.events <- event:
		case <-f.done:
			return
		}
	}
}

// pinger sends keepalive pings until the connection's read loop exits.
func (f *WebsocketFeed) pinger(conn *websocket.Conn, done <-chan struct{}) {
	ticker := f.clock.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-done:
			return
		case <-f.done:
			return
		}
	}
}

// reconnect dials until a connection is established or the feed is
// closed. Returns false only when closed.
func (f *WebsocketFeed) reconnect() (*websocket.Conn, bool) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 0 // retry until Close

	for attempt := 1; ; attempt++ {
		select {
		case <-f.done:
			return nil, false
		default:
		}

		conn, err := f.dial()
		if err == nil {
			f.logger.Info("feed reconnected", "attempts", attempt)
			return conn, true
		}

		wait := policy.NextBackOff()
		f.logger.Warn("feed reconnect failed",
			"attempt", attempt,
			"retry_in", wait,
			"error", err,
		)

		select {
		case <-f.done:
			return nil, false
		case <-f.clock.After(wait):
		}
	}
}
