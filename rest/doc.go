// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

// Package rest wraps the vendor's party and friends REST services.
//
// [Client] holds the base URL, bearer token, and HTTP transport, and
// exposes one typed method per vendor route: party lookup, creation,
// join/leave/kick/promote, optimistic-concurrency meta patches, invites
// and pings, join confirmation, and the friend roster. The party engine
// consumes these through the [Requester] capability (for raw access)
// and through narrow per-concern interfaces defined at the call sites,
// so tests can substitute fakes without a live server.
//
// All structured API errors are returned as [*APIError] with the
// vendor error code, HTTP status, and message variables. [IsAPIError]
// tests for a specific code; [StaleRevision] extracts the server's
// current revision from a stale_revision conflict so the caller can
// rebase and retry. Request URLs are built by string concatenation
// rather than url.URL to avoid double-encoding of path segments.
//
// This package deliberately excludes retry/backoff and token refresh:
// the Client treats each call as one round trip, and conflict retries
// belong to the party engine's revision logic.
package rest
