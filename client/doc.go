// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

// Package client assembles the full stack: the REST client, the
// realtime feed, the party reconciliation engine, and the friend
// roster.
//
// A Client owns one feed pump goroutine. Inbound events are dispatched
// to the engine (party events) or the roster (presence events); resync
// signals from the feed trigger a ground-truth refetch. Party
// membership transitions (join, leave, kicked) run through the Client
// so the local user always ends up in exactly one party, recreating a
// solo party whenever membership is lost.
package client
