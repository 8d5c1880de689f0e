// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

// Package social tracks the local user's friend roster and friend
// presence.
//
// Roster holds the accepted friends and pending requests from the
// last Refresh, plus a bounded cache of the latest presence seen per
// account. Presence events flow in from the realtime feed through
// HandlePresence; online/offline transitions for known friends raise
// the configured hooks.
//
// The roster is a cache of server state, not an authority: mutations
// (Add, Remove) go to the friends service and the local copy follows.
package social
