// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package social

import (
	"context"
	"fmt"
	"time"

	"github.com/partyline/partyline/realtime"
)

// FriendMessage is a received direct chat message. Friend is the
// sender's roster entry, zero-valued when the sender is not an accepted
// friend.
type FriendMessage struct {
	SenderID   string
	SenderName string
	Body       string
	SentAt     time.Time
	Friend     Friend

	roster *Roster
}

// Reply whispers back to the sender.
func (m *FriendMessage) Reply(ctx context.Context, body string) error {
	return m.roster.Whisper(ctx, m.SenderID, body)
}

// Whisper sends a direct chat message to another account.
func (r *Roster) Whisper(ctx context.Context, accountID, body string) error {
	if err := r.api.SendWhisper(ctx, accountID, body); err != nil {
		return fmt.Errorf("social: whispering to %s: %w", accountID, err)
	}
	return nil
}

// HandleWhisper dispatches one direct chat message to the FriendMessage
// hook. Echoes of the local user's own messages are dropped.
func (r *Roster) HandleWhisper(event realtime.Event) error {
	if event.Type != realtime.TypeFriendMessage {
		return nil
	}
	var payload realtime.ChatMessagePayload
	if err := event.Decode(&payload); err != nil {
		return err
	}
	if payload.AccountID == "" || payload.AccountID == r.selfID {
		return nil
	}
	if r.hooks.FriendMessage == nil {
		return nil
	}

	r.mu.Lock()
	friend, known := r.friends[payload.AccountID]
	r.mu.Unlock()

	name := payload.DisplayName
	if name == "" && known {
		name = friend.DisplayName
	}
	r.hooks.FriendMessage(&FriendMessage{
		SenderID:   payload.AccountID,
		SenderName: name,
		Body:       payload.Body,
		SentAt:     event.SentAt,
		Friend:     friend,
		roster:     r,
	})
	return nil
}
