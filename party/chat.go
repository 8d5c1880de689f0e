// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"context"
	"time"
)

// ChatMessage is a received party chat message. Like Invite and Ping it
// is a short-lived value object: dispatched once to the MessageReceived
// hook and discarded, never stored in the party model.
type ChatMessage struct {
	PartyID    string
	SenderID   string
	SenderName string
	Body       string
	SentAt     time.Time

	api API
}

// Reply sends a message back into the party this one arrived from.
func (m *ChatMessage) Reply(ctx context.Context, body string) error {
	return mapAPIError(m.api.SendPartyMessage(ctx, m.PartyID, body))
}

// SendMessage sends a chat message to the current party. Any member may
// chat; there is no leader gate.
func (e *Engine) SendMessage(ctx context.Context, body string) error {
	party := e.Party()
	if party == nil {
		return ErrNoParty
	}
	return mapAPIError(e.api.SendPartyMessage(ctx, party.ID(), body))
}
