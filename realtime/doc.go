// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

// Package realtime consumes the vendor's push event channel.
//
// [Event] is the tagged envelope every frame decodes into: a vendor
// type tag (party membership, meta updates, leadership, pings,
// presence), the party and account it concerns, and the raw payload.
// Typed payload structs ([MemberJoinedPayload], [PartyUpdatedPayload],
// and friends) decode the payload per event family.
//
// [Feed] is the interface the party engine consumes: an event channel,
// a resync channel, and Close. [Dial] returns the production
// implementation over a websocket: a read loop with bounded message
// size, periodic ping keepalive driven by an injected clock, and
// automatic reconnect with exponential backoff. After every successful
// reconnect the feed signals on Resyncs — event continuity across a
// reconnect is NOT guaranteed, and the consumer must refetch ground
// truth rather than assume it saw every frame.
//
// Malformed frames are logged and dropped; they never close the feed.
package realtime
