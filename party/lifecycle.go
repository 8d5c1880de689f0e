// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"log/slog"
	"sync"
	"time"

	"github.com/partyline/partyline/lib/clock"
)

// DefaultOfflineTTL is the grace period a disconnected member is held
// in the roster before expiring, absent a per-member override.
const DefaultOfflineTTL = 30 * time.Second

// Lifecycle is the per-member connection-health state machine:
//
//	Active -> Disconnected   connection-loss signal; expiry timer starts
//	Disconnected -> Active   fresh presence before the timer fires ("reconnect")
//	Disconnected -> Expired  timer fires; member is removed from the roster
//	any -> removed           explicit leave/kick, bypassing the timer
//
// Realtime disconnects are frequent and usually transient; removing on
// the first drop would churn the roster and flap leadership, hence the
// grace window.
//
// Expiry timers run on the injected clock and may fire concurrently
// with ongoing reconciliation. Every transition bumps the member's
// sequence number, and a firing timer re-checks that the member is
// still tracked, still disconnected, and still at the sequence the
// timer was armed with; a timer superseded by any later transition
// discards itself. Cancellation alone is not trusted: a timer may
// already be between firing and acting when Stop is called.
type Lifecycle struct {
	mu      sync.Mutex
	clock   clock.Clock
	logger  *slog.Logger
	ttl     time.Duration
	entries map[string]*lifecycleEntry

	// onExpire is invoked (without the lifecycle lock held) after a
	// member passes the expiry guards. The callee removes the member
	// from the roster and dispatches notifications under its own
	// serialization.
	onExpire func(memberID string)
}

type lifecycleEntry struct {
	state ConnectionState
	seq   uint64
	timer *clock.Timer
}

// LifecycleConfig configures a Lifecycle.
type LifecycleConfig struct {
	// Clock drives expiry timers. If nil, clock.Real() is used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// DefaultTTL is the offline grace period when a disconnect signal
	// carries no override. If zero, DefaultOfflineTTL is used.
	DefaultTTL time.Duration
	// OnExpire is called when a disconnected member's grace period
	// elapses. Required.
	OnExpire func(memberID string)
}

// NewLifecycle creates the state machine.
func NewLifecycle(config LifecycleConfig) *Lifecycle {
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultOfflineTTL
	}
	return &Lifecycle{
		clock:    clk,
		logger:   logger,
		ttl:      ttl,
		entries:  make(map[string]*lifecycleEntry),
		onExpire: config.OnExpire,
	}
}

// Track registers a member as Active. Called when a join is
// reconciled. Tracking an already-tracked member is a no-op.
func (l *Lifecycle) Track(memberID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[memberID]; ok {
		return
	}
	l.entries[memberID] = &lifecycleEntry{state: StateActive}
}

// MarkDisconnected moves an Active member into the grace period and
// arms its expiry timer. ttl <= 0 uses the default. Reports whether
// the transition happened; signals for untracked or already-
// disconnected members are no-ops.
func (l *Lifecycle) MarkDisconnected(memberID string, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[memberID]
	if !ok || entry.state != StateActive {
		return false
	}
	if ttl <= 0 {
		ttl = l.ttl
	}

	entry.state = StateDisconnected
	entry.seq++
	armed := entry.seq

	entry.timer = l.clock.AfterFunc(ttl, func() {
		l.expire(memberID, armed)
	})

	l.logger.Debug("member disconnected, grace period started",
		"member_id", memberID,
		"ttl", ttl,
	)
	return true
}

// MarkConnected handles a fresh presence signal. A Disconnected
// member returns to Active ("reconnect") and its timer is cancelled;
// the sequence bump guards against the timer having already fired.
// Reports whether this was a reconnect.
func (l *Lifecycle) MarkConnected(memberID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[memberID]
	if !ok || entry.state != StateDisconnected {
		return false
	}

	entry.state = StateActive
	entry.seq++
	if entry.timer != nil {
		entry.timer.Stop()
		entry.timer = nil
	}
	return true
}

// Forget drops a member from tracking: explicit leave/kick, or the
// party being discarded. Any pending timer is disarmed.
func (l *Lifecycle) Forget(memberID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.forgetLocked(memberID)
}

func (l *Lifecycle) forgetLocked(memberID string) {
	entry, ok := l.entries[memberID]
	if !ok {
		return
	}
	entry.seq++
	if entry.timer != nil {
		entry.timer.Stop()
	}
	delete(l.entries, memberID)
}

// Reset drops all tracked members. Called when the local party is
// discarded so no stale timer outlives it.
func (l *Lifecycle) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for memberID := range l.entries {
		l.forgetLocked(memberID)
	}
}

// State returns a member's connection state. Untracked members report
// StateExpired with ok false.
func (l *Lifecycle) State(memberID string) (ConnectionState, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[memberID]
	if !ok {
		return StateExpired, false
	}
	return entry.state, true
}

// expire is the timer callback. The sequence guard discards timers
// superseded by a reconnect, a removal, or a newer disconnect.
func (l *Lifecycle) expire(memberID string, armed uint64) {
	l.mu.Lock()
	entry, ok := l.entries[memberID]
	if !ok || entry.state != StateDisconnected || entry.seq != armed {
		l.mu.Unlock()
		return
	}
	entry.state = StateExpired
	entry.seq++
	delete(l.entries, memberID)
	l.mu.Unlock()

	l.logger.Info("member offline grace period elapsed", "member_id", memberID)
	l.onExpire(memberID)
}
