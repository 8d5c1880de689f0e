// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

import "errors"

// Sentinel errors for the command surface. Transport failures that do
// not map to one of these pass through as the underlying
// *rest.APIError, wrapped with operation context.
var (
	// ErrNotLeader is returned immediately when a leader-only command
	// is issued by a non-leader. Never retried.
	ErrNotLeader = errors.New("party: local member is not the leader")

	// ErrMemberNotFound is returned when the target member is no
	// longer in the party. The stale local entry, if any, has been
	// removed by the time the caller sees this.
	ErrMemberNotFound = errors.New("party: member not found")

	// ErrPartyNotFound is returned when the party no longer exists on
	// the server.
	ErrPartyNotFound = errors.New("party: party not found")

	// ErrPartyFull is returned immediately when a join would exceed
	// the party's maximum size.
	ErrPartyFull = errors.New("party: party is full")

	// ErrConflictExhausted is returned after a locally-originated
	// write lost the revision race more times than the bounded retry
	// budget allows. Local state is unchanged.
	ErrConflictExhausted = errors.New("party: revision conflict retries exhausted")

	// ErrSelfNotMaterialized is returned by Party.Me during the window
	// between creating/joining a party and the server confirming the
	// local user's own membership.
	ErrSelfNotMaterialized = errors.New("party: local member not yet materialized")

	// ErrDuplicateMember is returned by AddMember for an account
	// already in the roster.
	ErrDuplicateMember = errors.New("party: member already in roster")

	// ErrNoParty is returned by commands that require a current party
	// when the client has none.
	ErrNoParty = errors.New("party: no current party")

	// ErrInvalidMaxSize is returned by SetMaxSize for a size outside
	// 1..16 or below the current member count.
	ErrInvalidMaxSize = errors.New("party: invalid max size")
)
