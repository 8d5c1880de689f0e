// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/partyline/partyline/lib/clock"
	"github.com/partyline/partyline/realtime"
	"github.com/partyline/partyline/rest"
)

// API is the slice of the party service the engine drives. Implemented
// by *rest.Client.
type API interface {
	FetchParty(ctx context.Context, partyID string) (*rest.PartyData, error)
	PatchParty(ctx context.Context, partyID string, patch rest.PartyPatchRequest) error
	PatchMember(ctx context.Context, partyID, memberID string, patch rest.MemberPatchRequest) error
	KickMember(ctx context.Context, partyID, memberID string) error
	PromoteMember(ctx context.Context, partyID, memberID string) error
	SendInvite(ctx context.Context, partyID, accountID string, sendPing bool, meta map[string]string) error
	DeleteInvite(ctx context.Context, partyID, accountID string) error
	DeclineInvite(ctx context.Context, partyID, accountID string) error
	DeletePing(ctx context.Context, accountID, pingerID string) error
	FetchPingedParties(ctx context.Context, accountID, pingerID string) ([]rest.PartyData, error)
	ConfirmMember(ctx context.Context, partyID, accountID string) error
	RejectMember(ctx context.Context, partyID, accountID string) error
	SendPartyMessage(ctx context.Context, partyID, body string) error
}

// DefaultJoinGrace bounds how long events for a party still being
// materialized are buffered before being dropped.
const DefaultJoinGrace = 10 * time.Second

// maxDeferredEvents caps the join-race buffer.
const maxDeferredEvents = 64

// Engine reconciles the inbound event stream against the party model.
//
// State mutations are serialized under an internal lock; hooks fire
// after the lock is released, under a separate notification lock, so
// they observe each change exactly once, in arrival order, and may
// call back into the engine.
//
// The current party is a single slot, replaced whole on leave/rejoin.
// Events naming any other party are dropped, except during a declared
// join (see ExpectParty) when they are buffered and replayed once the
// party materializes.
type Engine struct {
	api    API
	selfID string
	clock  clock.Clock
	logger *slog.Logger
	hooks  *Hooks
	joiner JoinFunc

	maxAttempts int
	joinGrace   time.Duration

	// onSelfRemoved fires after the local user's membership ends for
	// any reason other than a locally-issued leave.
	onSelfRemoved func()

	mu        sync.Mutex
	current   *Party
	lifecycle *Lifecycle

	// Join-race buffer: events for expectedID arriving before SetParty.
	expectedID string
	expectSeq  uint64
	deferred   []realtime.Event
	graceTimer *clock.Timer

	notifyMu sync.Mutex

	// Setters registered through EditAndKeep, replayed on every party
	// the local user subsequently materializes into.
	keptMu sync.Mutex
	kept   []MemberSetter

	// Emote auto-stop timer, seq-guarded like the lifecycle timers.
	emoteMu    sync.Mutex
	emoteSeq   uint64
	emoteTimer *clock.Timer
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	// API is the party service client. Required.
	API API
	// SelfID is the local user's account ID. Required.
	SelfID string
	// Clock drives expiry timers and retry backoff. If nil,
	// clock.Real() is used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// Hooks receives change notifications. Optional.
	Hooks *Hooks
	// Joiner completes invite and ping accepts. Optional; accepts fail
	// when unset.
	Joiner JoinFunc
	// OfflineTTL is the default disconnect grace period. Zero means
	// DefaultOfflineTTL.
	OfflineTTL time.Duration
	// JoinGrace bounds the join-race event buffer. Zero means
	// DefaultJoinGrace.
	JoinGrace time.Duration
	// MaxPatchAttempts bounds stale-revision retries on proposals.
	MaxPatchAttempts int
	// OnSelfRemoved fires when the local user is kicked, expired, or
	// the party dissolves. Optional.
	OnSelfRemoved func()
}

// NewEngine creates a reconciliation engine with no current party.
func NewEngine(config EngineConfig) *Engine {
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hooks := config.Hooks
	if hooks == nil {
		hooks = &Hooks{}
	}
	joinGrace := config.JoinGrace
	if joinGrace <= 0 {
		joinGrace = DefaultJoinGrace
	}

	e := &Engine{
		api:           config.API,
		selfID:        config.SelfID,
		clock:         clk,
		logger:        logger,
		hooks:         hooks,
		joiner:        config.Joiner,
		maxAttempts:   config.MaxPatchAttempts,
		joinGrace:     joinGrace,
		onSelfRemoved: config.OnSelfRemoved,
	}
	e.lifecycle = NewLifecycle(LifecycleConfig{
		Clock:      clk,
		Logger:     logger,
		DefaultTTL: config.OfflineTTL,
		OnExpire:   e.expireMember,
	})
	return e
}

// Party returns the current party, or nil when the local user has
// none.
func (e *Engine) Party() *Party {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Materialize builds a Party from a ground-truth fetch, wired with
// this engine's patch writers.
func (e *Engine) Materialize(data *rest.PartyData) *Party {
	return NewParty(data, Options{
		SelfID:           e.selfID,
		Clock:            e.clock,
		Logger:           e.logger,
		PartyWriter:      e.partyWriter(data.ID),
		SelfWriter:       e.memberWriter(data.ID, e.selfID),
		MaxPatchAttempts: e.maxAttempts,
	})
}

func (e *Engine) partyWriter(partyID string) PatchFunc {
	return func(ctx context.Context, update map[string]string, remove []string, revision int64) error {
		return e.api.PatchParty(ctx, partyID, rest.PartyPatchRequest{
			Meta:     rest.MetaDelta{Update: update, Delete: remove},
			Revision: revision,
		})
	}
}

func (e *Engine) memberWriter(partyID, memberID string) PatchFunc {
	return func(ctx context.Context, update map[string]string, remove []string, revision int64) error {
		return e.api.PatchMember(ctx, partyID, memberID, rest.MemberPatchRequest{
			Update:   update,
			Delete:   remove,
			Revision: revision,
		})
	}
}

// ExpectParty declares a join in progress: events for the given party
// are buffered until SetParty replays them, or the grace period lapses
// and they are dropped.
func (e *Engine) ExpectParty(partyID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.expectedID = partyID
	e.deferred = nil
	e.expectSeq++
	armed := e.expectSeq

	if e.graceTimer != nil {
		e.graceTimer.Stop()
	}
	e.graceTimer = e.clock.AfterFunc(e.joinGrace, func() {
		e.dropExpected(armed)
	})
}

func (e *Engine) dropExpected(armed uint64) {
	e.mu.Lock()
	if e.expectSeq != armed {
		e.mu.Unlock()
		return
	}
	dropped := len(e.deferred)
	partyID := e.expectedID
	e.expectedID = ""
	e.deferred = nil
	e.graceTimer = nil
	e.mu.Unlock()

	if dropped > 0 {
		e.logger.Warn("join grace period elapsed, dropping buffered events",
			"party_id", partyID,
			"dropped", dropped,
		)
	}
}

// SetParty installs a freshly materialized party as current and
// replays any events buffered for it during the join. The revision
// guards make replaying events already reflected in the fetch
// harmless.
func (e *Engine) SetParty(p *Party) {
	e.mu.Lock()

	e.expectSeq++
	if e.graceTimer != nil {
		e.graceTimer.Stop()
		e.graceTimer = nil
	}
	replay := e.deferred
	e.deferred = nil
	e.expectedID = ""

	e.current = p
	e.lifecycle.Reset()

	var notify []func()
	if p != nil {
		for _, member := range p.Members() {
			e.lifecycle.Track(member.ID())
		}
		for _, event := range replay {
			if event.PartyID == p.ID() {
				notify = append(notify, e.applyLocked(event)...)
			}
		}
	}
	e.mu.Unlock()
	e.runNotify(notify)
}

// ClearParty discards the current party, disarming all member timers.
// Called when the local user leaves.
func (e *Engine) ClearParty() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.expectSeq++
	if e.graceTimer != nil {
		e.graceTimer.Stop()
		e.graceTimer = nil
	}
	e.expectedID = ""
	e.deferred = nil
	e.current = nil
	e.lifecycle.Reset()
}

// HandleEvent applies one inbound event. Malformed payloads are logged
// and dropped; HandleEvent never panics the caller's event loop.
func (e *Engine) HandleEvent(event realtime.Event) {
	e.mu.Lock()
	notify := e.applyLocked(event)
	e.mu.Unlock()
	e.runNotify(notify)
}

func (e *Engine) runNotify(notify []func()) {
	if len(notify) == 0 {
		return
	}
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	for _, fn := range notify {
		fn()
	}
}

// applyLocked routes one event. Returns the notifications to fire once
// the state lock is released.
func (e *Engine) applyLocked(event realtime.Event) []func() {
	// Pings and invites concern the local user, not the current party.
	switch event.Type {
	case realtime.TypePing:
		return e.handlePing(event)
	case realtime.TypeInitialInvite:
		return e.handleInvite(event)
	}

	// Everything else is scoped to the current party. Events for a
	// party we have discarded, or never had, are expected under
	// at-least-once delivery and dropped without error. Events for a
	// party we are in the middle of joining are buffered.
	if e.current == nil || event.PartyID != e.current.ID() {
		if e.expectedID != "" && event.PartyID == e.expectedID {
			if len(e.deferred) >= maxDeferredEvents {
				e.logger.Warn("join-race buffer full, dropping event", "type", event.Type)
				return nil
			}
			e.deferred = append(e.deferred, event)
			return nil
		}
		e.logger.Debug("dropping event for unknown party",
			"type", event.Type,
			"party_id", event.PartyID,
		)
		return nil
	}

	switch event.Type {
	case realtime.TypeMemberJoined:
		return e.handleMemberJoined(event)
	case realtime.TypeMemberLeft:
		return e.handleMemberGone(event, e.hooks.MemberLeft, StateActive)
	case realtime.TypeMemberKicked:
		return e.handleMemberGone(event, e.hooks.MemberKicked, StateActive)
	case realtime.TypeMemberExpired:
		return e.handleMemberGone(event, e.hooks.MemberExpired, StateExpired)
	case realtime.TypeMemberDisconnected:
		return e.handleMemberDisconnected(event)
	case realtime.TypeMemberNewCaptain:
		return e.handleNewCaptain(event)
	case realtime.TypePartyUpdated:
		return e.handlePartyUpdated(event)
	case realtime.TypeMemberStateUpdated:
		return e.handleMemberStateUpdated(event)
	case realtime.TypeRequireConfirmation:
		return e.handleRequireConfirmation(event)
	case realtime.TypeInviteDeclined:
		return e.handleInviteDeclined(event)
	case realtime.TypePartyMessage:
		return e.handlePartyMessage(event)
	default:
		e.logger.Debug("dropping unrecognized event", "type", event.Type)
		return nil
	}
}

func (e *Engine) dropMalformed(event realtime.Event, err error) []func() {
	e.logger.Warn("dropping malformed event",
		"type", event.Type,
		"party_id", event.PartyID,
		"error", err,
	)
	return nil
}

func (e *Engine) handleMemberJoined(event realtime.Event) []func() {
	var payload realtime.MemberJoinedPayload
	if err := event.Decode(&payload); err != nil {
		return e.dropMalformed(event, err)
	}
	party := e.current

	// A join for a member already in the roster is a reconnect, or a
	// duplicate delivery.
	if member := party.Member(payload.AccountID); member != nil {
		member.Meta().ApplyAuthoritative(payload.MemberState, nil, payload.Revision)
		if !e.lifecycle.MarkConnected(member.ID()) {
			return nil
		}
		member.setConnectionState(StateActive)
		if hook := e.hooks.MemberReconnected; hook != nil {
			return []func(){func() { hook(member) }}
		}
		return nil
	}

	meta := payload.MemberState
	if meta == nil {
		meta = make(map[string]string)
	}
	if _, ok := meta[keyDisplayName]; !ok && payload.DisplayName != "" {
		meta[keyDisplayName] = payload.DisplayName
	}

	member, err := party.AddMember(rest.MemberData{
		AccountID: payload.AccountID,
		Meta:      meta,
		Revision:  payload.Revision,
		JoinedAt:  payload.JoinedAt,
	})
	if err != nil {
		return nil
	}
	e.lifecycle.Track(member.ID())
	e.publishSquadAssignments(party)

	var notify []func()
	if hook := e.hooks.MemberJoined; hook != nil {
		notify = append(notify, func() { hook(member) })
	}
	return notify
}

// handleMemberGone covers leave, kick, and expire events, which differ
// only in the hook they fire and the final connection state.
func (e *Engine) handleMemberGone(event realtime.Event, hook func(*Member), final ConnectionState) []func() {
	var payload realtime.MemberGonePayload
	if err := event.Decode(&payload); err != nil {
		return e.dropMalformed(event, err)
	}
	party := e.current

	removed := party.RemoveMember(payload.AccountID)
	if removed == nil {
		// Already gone, usually a stray leave trailing a local expiry.
		return nil
	}
	e.lifecycle.Forget(payload.AccountID)
	if final == StateExpired {
		removed.setConnectionState(StateExpired)
	}

	var notify []func()

	if removed.ID() == e.selfID {
		e.current = nil
		e.lifecycle.Reset()
		if hook != nil {
			notify = append(notify, func() { hook(removed) })
		}
		if e.onSelfRemoved != nil {
			notify = append(notify, e.onSelfRemoved)
		}
		return notify
	}

	notify = append(notify, e.promoteFallback(party, removed)...)
	e.publishSquadAssignments(party)
	if hook != nil {
		notify = append(notify, func() { hook(removed) })
	}
	return notify
}

// promoteFallback restores the one-leader invariant after the leader
// was removed: the longest-standing remaining member takes over.
func (e *Engine) promoteFallback(party *Party, removed *Member) []func() {
	if party.LeaderID() != "" {
		return nil
	}
	members := party.Members()
	if len(members) == 0 {
		return nil
	}
	next := members[0]
	party.SetLeader(next.ID())
	e.logger.Info("leader left, promoting successor",
		"party_id", party.ID(),
		"leader_id", next.ID(),
	)
	if hook := e.hooks.LeaderChanged; hook != nil {
		return []func(){func() { hook(removed, next) }}
	}
	return nil
}

func (e *Engine) handleMemberDisconnected(event realtime.Event) []func() {
	var payload realtime.MemberDisconnectedPayload
	if err := event.Decode(&payload); err != nil {
		return e.dropMalformed(event, err)
	}
	member := e.current.Member(payload.AccountID)
	if member == nil {
		return nil
	}

	var ttl time.Duration
	if raw, ok := payload.Connection.Meta[keyOfflineTTL]; ok {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			ttl = time.Duration(seconds) * time.Second
		}
	}
	if !e.lifecycle.MarkDisconnected(member.ID(), ttl) {
		return nil
	}
	member.setConnectionState(StateDisconnected)

	if hook := e.hooks.MemberDisconnected; hook != nil {
		return []func(){func() { hook(member) }}
	}
	return nil
}

func (e *Engine) handleNewCaptain(event realtime.Event) []func() {
	var payload realtime.NewCaptainPayload
	if err := event.Decode(&payload); err != nil {
		return e.dropMalformed(event, err)
	}
	party := e.current

	previous, changed := party.SetLeader(payload.AccountID)
	if !changed {
		return nil
	}
	leader := party.Member(payload.AccountID)

	if hook := e.hooks.LeaderChanged; hook != nil {
		return []func(){func() { hook(previous, leader) }}
	}
	return nil
}

func (e *Engine) handlePartyUpdated(event realtime.Event) []func() {
	var payload realtime.PartyUpdatedPayload
	if err := event.Decode(&payload); err != nil {
		return e.dropMalformed(event, err)
	}
	party := e.current

	// Stale or duplicate revision. Expected under at-least-once
	// delivery, and how our own confirmed patches echo back.
	if payload.Revision <= party.Meta().Revision() {
		return nil
	}

	before := snapshotParty(party)
	party.Meta().ApplyAuthoritative(payload.PartyState, payload.PartyRemoved, payload.Revision)

	config := party.Config()
	if payload.MaxMembers > 0 {
		config.MaxSize = payload.MaxMembers
	}
	if payload.PartySubType != "" {
		config.SubType = payload.PartySubType
	}
	if payload.InviteTTL > 0 {
		config.InviteTTL = time.Duration(payload.InviteTTL) * time.Second
	}
	var privacy struct {
		PrivacySettings PrivacySettings `json:"PrivacySettings"`
	}
	if err := party.Meta().GetJSON(keyPrivacySettings, &privacy); err == nil {
		config.Privacy = privacyFromSettings(privacy.PrivacySettings)
	}
	party.setConfig(config)

	after := snapshotParty(party)
	hooks := e.hooks
	return []func(){func() {
		hooks.notifyPartyDiff(party, before, after)
		if hooks.PartyUpdated != nil {
			hooks.PartyUpdated(party)
		}
	}}
}

func (e *Engine) handleMemberStateUpdated(event realtime.Event) []func() {
	var payload realtime.MemberStateUpdatedPayload
	if err := event.Decode(&payload); err != nil {
		return e.dropMalformed(event, err)
	}
	member := e.current.Member(payload.AccountID)
	if member == nil {
		if payload.AccountID == e.selfID {
			// Our own record is missing, so a self join was lost
			// somewhere upstream. Refetch ground truth instead of
			// limping along without a self member.
			e.logger.Warn("own member record missing, refetching party",
				"party_id", event.PartyID,
			)
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := e.Resync(ctx); err != nil {
					e.logger.Warn("resync after missing self record failed", "error", err)
				}
			}()
			return nil
		}
		e.logger.Warn("state update for unknown member",
			"party_id", event.PartyID,
			"member_id", payload.AccountID,
		)
		return nil
	}
	if payload.Revision <= member.Meta().Revision() {
		return nil
	}

	before := snapshotMember(member)
	member.Meta().ApplyAuthoritative(payload.MemberState, payload.MemberRemove, payload.Revision)
	after := snapshotMember(member)

	hooks := e.hooks
	return []func(){func() {
		hooks.notifyMemberDiff(member, before, after)
		if hooks.MemberUpdated != nil {
			hooks.MemberUpdated(member)
		}
	}}
}

func (e *Engine) handlePartyMessage(event realtime.Event) []func() {
	var payload realtime.ChatMessagePayload
	if err := event.Decode(&payload); err != nil {
		return e.dropMalformed(event, err)
	}
	// Our own messages echo back like everyone else's.
	if payload.AccountID == e.selfID {
		return nil
	}
	hook := e.hooks.MessageReceived
	if hook == nil {
		return nil
	}

	name := payload.DisplayName
	if name == "" {
		if member := e.current.Member(payload.AccountID); member != nil {
			name = member.DisplayName()
		}
	}
	message := &ChatMessage{
		PartyID:    event.PartyID,
		SenderID:   payload.AccountID,
		SenderName: name,
		Body:       payload.Body,
		SentAt:     event.SentAt,
		api:        e.api,
	}
	return []func(){func() { hook(message) }}
}

func (e *Engine) handleRequireConfirmation(event realtime.Event) []func() {
	var payload realtime.RequireConfirmationPayload
	if err := event.Decode(&payload); err != nil {
		return e.dropMalformed(event, err)
	}
	confirmation := &JoinConfirmation{
		PartyID:     event.PartyID,
		AccountID:   payload.AccountID,
		DisplayName: payload.DisplayName,
		JoinedAt:    payload.JoinedAt,
		api:         e.api,
	}

	hook := e.hooks.JoinConfirmationRequested
	if hook == nil {
		// Nobody to ask; admit the applicant rather than leave them
		// hanging until the request times out.
		go func() {
			if err := confirmation.Confirm(context.Background()); err != nil {
				e.logger.Warn("auto-confirm failed",
					"party_id", confirmation.PartyID,
					"member_id", confirmation.AccountID,
					"error", err,
				)
			}
		}()
		return nil
	}
	return []func(){func() { hook(confirmation) }}
}

func (e *Engine) handlePing(event realtime.Event) []func() {
	var payload realtime.PingPayload
	if err := event.Decode(&payload); err != nil {
		return e.dropMalformed(event, err)
	}
	hook := e.hooks.PingReceived
	if hook == nil {
		return nil
	}
	ping := &Ping{
		PingerID:   payload.PingerID,
		PingerName: payload.PingerName,
		ExpiresAt:  payload.ExpiresAt,
		Meta:       payload.Meta,
		api:        e.api,
		selfID:     e.selfID,
		joiner:     e.joiner,
	}
	return []func(){func() { hook(ping) }}
}

func (e *Engine) handleInvite(event realtime.Event) []func() {
	var payload realtime.InvitePayload
	if err := event.Decode(&payload); err != nil {
		return e.dropMalformed(event, err)
	}
	hook := e.hooks.InviteReceived
	if hook == nil {
		return nil
	}
	invite := &Invite{
		PartyID:     event.PartyID,
		InviterID:   payload.InviterID,
		InviterName: payload.InviterName,
		SentAt:      payload.SentAt,
		ExpiresAt:   payload.ExpiresAt,
		Meta:        payload.Meta,
		api:         e.api,
		selfID:      e.selfID,
		joiner:      e.joiner,
	}
	return []func(){func() { hook(invite) }}
}

func (e *Engine) handleInviteDeclined(event realtime.Event) []func() {
	var payload realtime.InviteDeclinedPayload
	if err := event.Decode(&payload); err != nil {
		return e.dropMalformed(event, err)
	}
	if hook := e.hooks.InviteDeclined; hook != nil {
		return []func(){func() { hook(event.PartyID, payload.InviteeID) }}
	}
	return nil
}

// expireMember is the lifecycle's expiry callback: the grace period
// elapsed with no reconnect. A server-sent MEMBER_EXPIRED trailing the
// local removal finds the member already gone and no-ops.
func (e *Engine) expireMember(memberID string) {
	e.mu.Lock()
	party := e.current
	if party == nil {
		e.mu.Unlock()
		return
	}
	removed := party.RemoveMember(memberID)
	var notify []func()
	if removed != nil {
		removed.setConnectionState(StateExpired)
		notify = append(notify, e.promoteFallback(party, removed)...)
		e.publishSquadAssignments(party)
		if hook := e.hooks.MemberExpired; hook != nil {
			notify = append(notify, func() { hook(removed) })
		}
	}
	e.mu.Unlock()
	e.runNotify(notify)
}

// Resync discards local deltas and rematerializes the current party
// from a ground-truth fetch. Called after the realtime feed reconnects,
// when events may have been missed.
func (e *Engine) Resync(ctx context.Context) error {
	e.mu.Lock()
	current := e.current
	e.mu.Unlock()
	if current == nil {
		return nil
	}

	data, err := e.api.FetchParty(ctx, current.ID())
	if err != nil {
		if rest.IsAPIError(err, rest.ErrCodePartyNotFound) {
			e.selfGone(current)
			return nil
		}
		return err
	}

	selfPresent := false
	for _, member := range data.Members {
		if member.AccountID == e.selfID {
			selfPresent = true
			break
		}
	}
	if !selfPresent {
		e.selfGone(current)
		return nil
	}

	fresh := e.Materialize(data)

	e.mu.Lock()
	if e.current != current {
		// Replaced while we were fetching; the newer state wins.
		e.mu.Unlock()
		return nil
	}
	e.current = fresh
	e.lifecycle.Reset()
	for _, member := range fresh.Members() {
		e.lifecycle.Track(member.ID())
	}
	e.mu.Unlock()

	e.logger.Info("resynchronized party from ground truth",
		"party_id", fresh.ID(),
		"members", fresh.Size(),
	)
	return nil
}

// selfGone handles discovering out-of-band that the local user's
// membership ended: the party dissolved or we were removed while the
// feed was down.
func (e *Engine) selfGone(stale *Party) {
	e.mu.Lock()
	if e.current != stale {
		e.mu.Unlock()
		return
	}
	e.current = nil
	e.lifecycle.Reset()
	var notify []func()
	if e.onSelfRemoved != nil {
		notify = append(notify, e.onSelfRemoved)
	}
	e.mu.Unlock()
	e.runNotify(notify)
}

// publishSquadAssignments recomputes squad positions after a roster
// change. Leader-only; the proposal rides the normal coalescing path
// off the reconciler goroutine.
func (e *Engine) publishSquadAssignments(party *Party) {
	if !party.IsSelfLeader() {
		return
	}
	raw, err := json.Marshal(struct {
		RawSquadAssignments []SquadAssignment `json:"RawSquadAssignments"`
	}{party.SquadAssignments()})
	if err != nil {
		return
	}
	update := map[string]string{keySquadAssignments: string(raw)}
	go func() {
		if err := party.Meta().Propose(context.Background(), update, nil); err != nil {
			e.logger.Warn("failed to publish squad assignments",
				"party_id", party.ID(),
				"error", err,
			)
		}
	}()
}
