// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/partyline/partyline/lib/clock"
	"github.com/partyline/partyline/lib/config"
	"github.com/partyline/partyline/party"
	"github.com/partyline/partyline/realtime"
	"github.com/partyline/partyline/rest"
	"github.com/partyline/partyline/social"
)

// Connection meta advertised on join and create.
const (
	connKeyPlatform = "urn:epic:conn:platform_s"
	connKeyType     = "urn:epic:conn:type_s"
	connTypeGame    = "game"
)

// Options configures a Client. Config is required; everything else
// defaults.
type Options struct {
	// Config is the loaded bot configuration. Required.
	Config *config.Config
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// Clock drives timers throughout the stack. If nil, clock.Real()
	// is used.
	Clock clock.Clock
	// Hooks receives party change notifications. Optional.
	Hooks *party.Hooks
	// SocialHooks receives friend presence notifications. Optional.
	SocialHooks social.Hooks
	// HTTPClient is used for REST requests. If nil, a client with the
	// configured request timeout is used.
	HTTPClient *http.Client
	// Feed supplies realtime events. If nil, Start dials the
	// configured feed URL.
	Feed realtime.Feed
}

// Client is the assembled stack: REST, realtime feed, party engine,
// and friend roster.
type Client struct {
	cfg    *config.Config
	logger *slog.Logger
	clock  clock.Clock

	rest   *rest.Client
	engine *party.Engine
	roster *social.Roster
	feed   realtime.Feed

	// joinSeq serializes membership transitions: a newer join or
	// create supersedes any still in flight.
	mu      sync.Mutex
	joinSeq uint64
	pumping bool

	done     chan struct{}
	finished chan struct{}
	closeOne sync.Once
}

// New assembles a Client from configuration. The client is inert until
// Start is called.
func New(options Options) (*Client, error) {
	if options.Config == nil {
		return nil, fmt.Errorf("client: Config is required")
	}
	cfg := options.Config

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Services.RequestTimeout}
	}

	restClient, err := rest.NewClient(rest.ClientConfig{
		BaseURL:    cfg.Services.RESTBaseURL,
		AuthToken:  cfg.Services.AuthToken,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:      cfg,
		logger:   logger,
		clock:    clk,
		rest:     restClient,
		feed:     options.Feed,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	c.engine = party.NewEngine(party.EngineConfig{
		API:           restClient,
		SelfID:        cfg.Account.ID,
		Clock:         clk,
		Logger:        logger,
		Hooks:         options.Hooks,
		Joiner:        c.JoinParty,
		OfflineTTL:    cfg.Party.OfflineTTL,
		OnSelfRemoved: c.selfRemoved,
	})

	c.roster, err = social.NewRoster(social.RosterConfig{
		API:    restClient,
		SelfID: cfg.Account.ID,
		Logger: logger,
		Hooks:  options.SocialHooks,
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Engine returns the party reconciliation engine.
func (c *Client) Engine() *party.Engine { return c.engine }

// Roster returns the friend roster.
func (c *Client) Roster() *social.Roster { return c.roster }

// REST returns the underlying REST client.
func (c *Client) REST() *rest.Client { return c.rest }

// Start connects the feed, loads the friend roster, ensures the local
// user is in a party, and begins pumping events. It returns once the
// client is live; the pump runs until Close.
func (c *Client) Start(ctx context.Context) error {
	if c.feed == nil {
		feed, err := realtime.Dial(realtime.FeedConfig{
			URL:       c.cfg.Services.FeedURL,
			AuthToken: c.cfg.Services.AuthToken,
			Clock:     c.clock,
			Logger:    c.logger,
		})
		if err != nil {
			return err
		}
		c.feed = feed
	}

	if err := c.roster.Refresh(ctx); err != nil {
		return err
	}

	if err := c.bootstrapParty(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.pumping = true
	c.mu.Unlock()
	go c.pump()

	c.logger.Info("client started",
		"account_id", c.cfg.Account.ID,
		"party_id", c.engine.Party().ID(),
		"friends", len(c.roster.Friends()),
	)
	return nil
}

// Close stops the pump and tears down the feed. Safe to call more than
// once.
func (c *Client) Close() error {
	c.closeOne.Do(func() {
		close(c.done)
		if c.feed != nil {
			_ = c.feed.Close()
		}
	})
	c.mu.Lock()
	pumping := c.pumping
	c.mu.Unlock()
	if pumping {
		<-c.finished
	}
	return nil
}

// pump dispatches inbound frames until the feed closes.
func (c *Client) pump() {
	defer close(c.finished)

	for {
		select {
		case event, ok := <-c.feed.Events():
			if !ok {
				return
			}
			c.dispatch(event)
		case _, ok := <-c.feed.Resyncs():
			if !ok {
				return
			}
			c.resync()
		case <-c.done:
			return
		}
	}
}

func (c *Client) dispatch(event realtime.Event) {
	switch event.Type {
	case realtime.TypePresenceUpdated:
		if err := c.roster.HandlePresence(event); err != nil {
			c.logger.Warn("dropping malformed presence event", "error", err)
		}
	case realtime.TypeFriendMessage:
		if err := c.roster.HandleWhisper(event); err != nil {
			c.logger.Warn("dropping malformed whisper", "error", err)
		}
	default:
		c.engine.HandleEvent(event)
	}
}

// resync refetches ground truth after the feed reconnected: events may
// have been missed, so neither the party model nor the roster can be
// trusted.
func (c *Client) resync() {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Services.RequestTimeout)
	defer cancel()

	c.rest.CloseIdleConnections()
	if err := c.engine.Resync(ctx); err != nil {
		c.logger.Warn("party resync failed", "error", err)
	}
	if err := c.roster.Refresh(ctx); err != nil {
		c.logger.Warn("roster refresh failed", "error", err)
	}
}

// bootstrapParty puts the local user into exactly one party: the one
// the service already has them in, or a freshly created solo party.
func (c *Client) bootstrapParty(ctx context.Context) error {
	parties, err := c.rest.FetchUserParties(ctx, c.cfg.Account.ID)
	if err != nil {
		return fmt.Errorf("client: looking up current party: %w", err)
	}

	if len(parties.Current) == 0 {
		return c.createSoloParty(ctx)
	}

	// The service allows one party per user, but a crashed previous
	// session can leave stragglers behind. Adopt the first and leave
	// the rest.
	current := parties.Current[0]
	for _, stale := range parties.Current[1:] {
		if err := c.rest.LeaveParty(ctx, stale.ID, c.cfg.Account.ID); err != nil && !benignLeave(err) {
			c.logger.Warn("failed to leave stale party", "party_id", stale.ID, "error", err)
		}
	}

	c.engine.SetParty(c.engine.Materialize(&current))
	c.logger.Info("adopted existing party", "party_id", current.ID, "members", len(current.Members))
	return nil
}

// JoinParty moves the local user into the given party: leave the
// current one, declare the join so early events buffer, join, and
// materialize from a ground-truth fetch. A newer join or create started
// while this one was in flight wins; the superseded join installs
// nothing.
func (c *Client) JoinParty(ctx context.Context, partyID string) error {
	seq := c.nextTransition()

	if current := c.engine.Party(); current != nil {
		if current.ID() == partyID {
			return nil
		}
		c.engine.ClearParty()
		if err := c.rest.LeaveParty(ctx, current.ID(), c.cfg.Account.ID); err != nil && !benignLeave(err) {
			return fmt.Errorf("client: leaving party %s before join: %w", current.ID(), err)
		}
	}

	c.engine.ExpectParty(partyID)
	response, err := c.rest.JoinParty(ctx, partyID, c.cfg.Account.ID, c.joinInfo())
	if err != nil {
		return err
	}
	if response.Status != "" && response.Status != "JOINED" {
		c.logger.Info("join pending", "party_id", partyID, "status", response.Status)
	}

	data, err := c.rest.FetchParty(ctx, partyID)
	if err != nil {
		return fmt.Errorf("client: fetching joined party: %w", err)
	}

	if !c.transitionCurrent(seq) {
		// A newer transition won the race; abandon the joined party
		// rather than installing it.
		if err := c.rest.LeaveParty(ctx, partyID, c.cfg.Account.ID); err != nil && !benignLeave(err) {
			c.logger.Warn("failed to abandon superseded party", "party_id", partyID, "error", err)
		}
		return nil
	}
	c.engine.SetParty(c.engine.Materialize(data))
	c.replayKept(ctx)

	c.logger.Info("joined party", "party_id", partyID, "members", len(data.Members))
	return nil
}

// LeaveParty leaves the current party and recreates a solo one, so the
// local user is always in a party.
func (c *Client) LeaveParty(ctx context.Context) error {
	current := c.engine.Party()
	if current != nil {
		c.engine.ClearParty()
		if err := c.rest.LeaveParty(ctx, current.ID(), c.cfg.Account.ID); err != nil && !benignLeave(err) {
			return fmt.Errorf("client: leaving party %s: %w", current.ID(), err)
		}
	}
	return c.createSoloParty(ctx)
}

// createSoloParty creates a new party with the local user as sole
// member and leader, using the configured defaults.
func (c *Client) createSoloParty(ctx context.Context) error {
	seq := c.nextTransition()

	privacy, ok := party.PrivacyFromString(c.cfg.Party.Privacy)
	if !ok {
		privacy = party.PrivacyPublic
	}

	request := rest.CreatePartyRequest{
		Config: map[string]any{
			"joinability":       joinabilityTag(c.cfg.Party.Joinability),
			"discoverability":   discoverabilityTag(privacy),
			"max_size":          c.cfg.Party.MaxSize,
			"join_confirmation": c.cfg.Party.JoinConfirmation,
		},
		JoinInfo: c.joinInfo(),
		Meta:     party.NewPartyMeta(privacy),
	}

	data, err := c.rest.CreateParty(ctx, request)
	if err != nil {
		return fmt.Errorf("client: creating party: %w", err)
	}

	if !c.transitionCurrent(seq) {
		// A newer transition won the race; abandon the party we just
		// created rather than installing it.
		if err := c.rest.LeaveParty(ctx, data.ID, c.cfg.Account.ID); err != nil && !benignLeave(err) {
			c.logger.Warn("failed to abandon superseded party", "party_id", data.ID, "error", err)
		}
		return nil
	}
	c.engine.SetParty(c.engine.Materialize(data))
	c.replayKept(ctx)

	c.logger.Info("created party", "party_id", data.ID)
	return nil
}

// selfRemoved runs when the local user is kicked, expired, or the
// party dissolves. The user is put back into a solo party.
func (c *Client) selfRemoved() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Services.RequestTimeout)
		defer cancel()
		if err := c.createSoloParty(ctx); err != nil {
			c.logger.Error("failed to recreate party after removal", "error", err)
		}
	}()
}

// replayKept re-applies setters registered through EditAndKeep to the
// freshly materialized self member.
func (c *Client) replayKept(ctx context.Context) {
	kept := c.engine.KeptSetters()
	if len(kept) == 0 {
		return
	}
	me, err := c.engine.Me()
	if err != nil {
		c.logger.Warn("cannot replay kept state", "error", err)
		return
	}
	if err := me.Edit(ctx, kept...); err != nil {
		c.logger.Warn("replaying kept state failed", "error", err)
	}
}

func (c *Client) joinInfo() rest.JoinInfo {
	return rest.JoinInfo{
		Connection: rest.ConnectionData{
			ID: uuid.NewString(),
			Meta: map[string]string{
				connKeyPlatform: c.cfg.Account.Platform,
				connKeyType:     connTypeGame,
			},
		},
		Meta: party.NewMemberMeta(c.cfg.Account.DisplayName, c.cfg.Account.Platform),
	}
}

func (c *Client) nextTransition() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joinSeq++
	return c.joinSeq
}

func (c *Client) transitionCurrent(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.joinSeq == seq
}

// benignLeave reports whether a leave failure means the membership was
// already gone.
func benignLeave(err error) bool {
	return rest.IsAPIError(err, rest.ErrCodePartyNotFound) ||
		rest.IsAPIError(err, rest.ErrCodeMemberNotFound)
}

func joinabilityTag(joinability string) string {
	if joinability == "invite_and_formerly" {
		return "INVITE_AND_FORMER"
	}
	return "OPEN"
}

func discoverabilityTag(privacy party.Privacy) string {
	if privacy == party.PrivacyPublic {
		return "ALL"
	}
	return "INVITED_ONLY"
}
