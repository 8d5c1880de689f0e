// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

// Package party implements the party state-synchronization engine: the
// locally-held model of a multi-user party session, reconciled against
// the realtime event feed while the local user issues concurrent
// mutating commands through the REST layer.
//
// The pieces, leaf-first:
//
//   - [Meta] is the open-ended key/value attribute bag the vendor
//     attaches to parties and members. Keys carry a type suffix
//     (_j/_U/_b/_s/_i) declaring the value encoding; unknown keys pass
//     through opaquely.
//   - [Revisioned] wraps a Meta with the vendor's optimistic-
//     concurrency revision counter. Authoritative (server-originated)
//     patches apply only when strictly newer; locally-originated
//     writes go through a single-flight queue that coalesces
//     concurrent proposals and retries stale-revision conflicts with
//     backoff.
//   - [Party] and [Member] model the session: configuration, ordered
//     roster, and the one-leader invariant.
//   - [Lifecycle] is the per-member connection-health state machine:
//     Active, Disconnected (the grace period after a connection drop),
//     Expired. Expiry timers run on an injected clock and carry
//     sequence-number guards against firing stale.
//   - [Reconciler] consumes feed events on a single goroutine,
//     applies them in arrival order, and raises typed before/after
//     notifications through [Hooks].
//   - [LocalMember] is the command surface for the local user's own
//     member entry: batched Edit, edit-and-keep defaults, and the
//     vendor field setters.
//
// Reconciliation never surfaces errors: malformed events are logged
// and dropped, stale revisions are silent no-ops, and events for a
// discarded party are ignored. Command errors are typed and
// synchronous: [ErrNotLeader], [ErrMemberNotFound], [ErrPartyFull],
// [ErrConflictExhausted], or the underlying *rest.APIError.
package party
