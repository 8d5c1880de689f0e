// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package social

import (
	"github.com/partyline/partyline/realtime"
)

// HandlePresence applies one presence event to the cache and, when the
// account is an accepted friend whose online state actually changed,
// fires the matching hook. Events for accounts outside the roster are
// cached but raise nothing; duplicate status reports are silent.
func (r *Roster) HandlePresence(event realtime.Event) error {
	if event.Type != realtime.TypePresenceUpdated {
		return nil
	}
	var payload realtime.PresencePayload
	if err := event.Decode(&payload); err != nil {
		return err
	}
	if payload.AccountID == "" {
		r.logger.Warn("presence event missing account id")
		return nil
	}

	next := Presence{
		Online:   payload.Status == "online",
		LastSeen: payload.LastSeen,
	}

	r.mu.Lock()
	previous, seen := r.presence.Get(payload.AccountID)
	r.presence.Add(payload.AccountID, next)
	friend, known := r.friends[payload.AccountID]
	r.mu.Unlock()

	if !known || (seen && previous.Online == next.Online) {
		return nil
	}
	if next.Online {
		if r.hooks.FriendOnline != nil {
			r.hooks.FriendOnline(friend)
		}
	} else {
		if r.hooks.FriendOffline != nil {
			r.hooks.FriendOffline(friend, next.LastSeen)
		}
	}
	return nil
}

// Presence returns the cached presence for an account, if any. The
// cache is bounded, so a false return means unknown, not offline.
func (r *Roster) Presence(accountID string) (Presence, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presence.Get(accountID)
}
