// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"testing"
	"time"

	"github.com/partyline/partyline/lib/clock"
)

func newTestLifecycle(t *testing.T, fakeClock *clock.FakeClock) (*Lifecycle, chan string) {
	t.Helper()
	expired := make(chan string, 4)
	lifecycle := NewLifecycle(LifecycleConfig{
		Clock:    fakeClock,
		OnExpire: func(memberID string) { expired <- memberID },
	})
	return lifecycle, expired
}

func TestLifecycleExpiry(t *testing.T) {
	fakeClock := clock.Fake(time.Unix(1700000000, 0))
	lifecycle, expired := newTestLifecycle(t, fakeClock)

	lifecycle.Track("m1")
	if !lifecycle.MarkDisconnected("m1", 0) {
		t.Fatal("MarkDisconnected returned false")
	}
	if state, ok := lifecycle.State("m1"); !ok || state != StateDisconnected {
		t.Fatalf("state = %v, %v", state, ok)
	}

	fakeClock.Advance(DefaultOfflineTTL - time.Second)
	select {
	case id := <-expired:
		t.Fatalf("expired %q before the grace period elapsed", id)
	default:
	}

	fakeClock.Advance(time.Second)
	if got := <-expired; got != "m1" {
		t.Fatalf("expired %q, want m1", got)
	}
	if _, ok := lifecycle.State("m1"); ok {
		t.Error("expired member still tracked")
	}

	// The expiry fires exactly once.
	fakeClock.Advance(DefaultOfflineTTL)
	select {
	case id := <-expired:
		t.Fatalf("duplicate expiry for %q", id)
	default:
	}
}

func TestLifecycleReconnectCancelsExpiry(t *testing.T) {
	fakeClock := clock.Fake(time.Unix(1700000000, 0))
	lifecycle, expired := newTestLifecycle(t, fakeClock)

	lifecycle.Track("m1")
	lifecycle.MarkDisconnected("m1", 0)

	// Reconnect lands at the TTL boundary, before the timer fires: the
	// member survives.
	if !lifecycle.MarkConnected("m1") {
		t.Fatal("MarkConnected returned false for a disconnected member")
	}
	fakeClock.Advance(DefaultOfflineTTL * 2)
	select {
	case id := <-expired:
		t.Fatalf("expired %q after reconnect", id)
	default:
	}
	if state, ok := lifecycle.State("m1"); !ok || state != StateActive {
		t.Errorf("state = %v, %v", state, ok)
	}

	// A fresh presence signal for an already-active member is a no-op.
	if lifecycle.MarkConnected("m1") {
		t.Error("MarkConnected reported a reconnect for an active member")
	}
}

func TestLifecycleStaleTimerGuard(t *testing.T) {
	fakeClock := clock.Fake(time.Unix(1700000000, 0))
	lifecycle, expired := newTestLifecycle(t, fakeClock)

	lifecycle.Track("m1")
	lifecycle.MarkDisconnected("m1", 0)
	firstSeq := lifecycle.entries["m1"].seq

	// The member reconnects and disconnects again; the first timer's
	// sequence is now stale. Even if that timer were to fire late, it
	// must discard itself.
	lifecycle.MarkConnected("m1")
	lifecycle.MarkDisconnected("m1", time.Hour)

	lifecycle.expire("m1", firstSeq)
	select {
	case id := <-expired:
		t.Fatalf("stale timer expired %q", id)
	default:
	}
	if state, ok := lifecycle.State("m1"); !ok || state != StateDisconnected {
		t.Errorf("state = %v, %v", state, ok)
	}

	// The second disconnect's own timer still works.
	fakeClock.Advance(time.Hour)
	if got := <-expired; got != "m1" {
		t.Fatalf("expired %q, want m1", got)
	}
}

func TestLifecycleCustomTTL(t *testing.T) {
	fakeClock := clock.Fake(time.Unix(1700000000, 0))
	lifecycle, expired := newTestLifecycle(t, fakeClock)

	lifecycle.Track("m1")
	lifecycle.MarkDisconnected("m1", 10*time.Second)

	fakeClock.Advance(9 * time.Second)
	select {
	case <-expired:
		t.Fatal("expired before the per-member TTL")
	default:
	}
	fakeClock.Advance(time.Second)
	if got := <-expired; got != "m1" {
		t.Fatalf("expired %q, want m1", got)
	}
}

func TestLifecycleForgetDisarmsTimer(t *testing.T) {
	fakeClock := clock.Fake(time.Unix(1700000000, 0))
	lifecycle, expired := newTestLifecycle(t, fakeClock)

	lifecycle.Track("m1")
	lifecycle.Track("m2")
	lifecycle.MarkDisconnected("m1", 0)
	lifecycle.MarkDisconnected("m2", 0)

	// m1 is kicked mid-grace; only m2's timer may fire.
	lifecycle.Forget("m1")
	fakeClock.Advance(DefaultOfflineTTL)
	if got := <-expired; got != "m2" {
		t.Fatalf("expired %q, want m2", got)
	}
	select {
	case id := <-expired:
		t.Fatalf("forgotten member %q expired", id)
	default:
	}
}

func TestLifecycleSignalsForUntrackedMembers(t *testing.T) {
	fakeClock := clock.Fake(time.Unix(1700000000, 0))
	lifecycle, _ := newTestLifecycle(t, fakeClock)

	if lifecycle.MarkDisconnected("ghost", 0) {
		t.Error("disconnect signal for untracked member accepted")
	}
	if lifecycle.MarkConnected("ghost") {
		t.Error("presence signal for untracked member accepted")
	}
	lifecycle.Forget("ghost")
	if _, ok := lifecycle.State("ghost"); ok {
		t.Error("untracked member reported as tracked")
	}
}
