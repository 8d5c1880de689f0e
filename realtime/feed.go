// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

// Feed is the inbound event channel the party engine consumes.
//
// Events delivers decoded frames in arrival order. Resyncs signals
// that continuity was lost (the underlying connection was re-
// established); the consumer must refetch ground truth before trusting
// subsequent events. Both channels are closed when the feed shuts
// down.
type Feed interface {
	// Events returns the channel of inbound events.
	Events() <-chan Event

	// Resyncs returns the channel signaling connection restarts.
	Resyncs() <-chan struct{}

	// Close tears the feed down and closes both channels.
	Close() error
}
