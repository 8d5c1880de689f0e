// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Vendor event type tags carried in the envelope's "type" field.
const (
	partyPrefix = "com.epicgames.social.party.notification.v0."

	TypePing                = partyPrefix + "PING"
	TypeInitialInvite       = partyPrefix + "INITIAL_INVITE"
	TypeInviteDeclined      = partyPrefix + "INVITE_DECLINED"
	TypeMemberJoined        = partyPrefix + "MEMBER_JOINED"
	TypeMemberLeft          = partyPrefix + "MEMBER_LEFT"
	TypeMemberExpired       = partyPrefix + "MEMBER_EXPIRED"
	TypeMemberKicked        = partyPrefix + "MEMBER_KICKED"
	TypeMemberDisconnected  = partyPrefix + "MEMBER_DISCONNECTED"
	TypeMemberNewCaptain    = partyPrefix + "MEMBER_NEW_CAPTAIN"
	TypePartyUpdated        = partyPrefix + "PARTY_UPDATED"
	TypeMemberStateUpdated  = partyPrefix + "MEMBER_STATE_UPDATED"
	TypeRequireConfirmation = partyPrefix + "MEMBER_REQUIRE_CONFIRMATION"

	TypePresenceUpdated = "com.epicgames.social.presence.v0.UPDATED"

	chatPrefix = "com.epicgames.social.chat.v0."

	TypeFriendMessage = chatPrefix + "WHISPER"
	TypePartyMessage  = chatPrefix + "PARTY_MESSAGE"
)

// Event is the tagged envelope for one inbound frame. Payload retains
// the full frame so per-family payload structs can decode the fields
// the envelope does not lift out.
type Event struct {
	// Type is the vendor event type tag.
	Type string `json:"type"`
	// PartyID identifies the party the event concerns. Empty for
	// presence events.
	PartyID string `json:"party_id"`
	// AccountID identifies the member or friend the event concerns.
	// Empty for party-level events.
	AccountID string `json:"account_id"`
	// SentAt is the server-side send timestamp.
	SentAt time.Time `json:"sent"`
	// Payload is the complete frame, retained for typed decoding.
	Payload json.RawMessage `json:"-"`
}

// ParseEvent decodes a raw frame into an Event. The frame must be a
// JSON object with a non-empty type tag.
func ParseEvent(frame []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(frame, &event); err != nil {
		return Event{}, fmt.Errorf("realtime: malformed frame: %w", err)
	}
	if event.Type == "" {
		return Event{}, fmt.Errorf("realtime: frame missing type tag")
	}
	event.Payload = append(json.RawMessage(nil), frame...)
	return event, nil
}

// Decode unmarshals the event's payload into the given typed payload
// struct.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("realtime: decoding %s payload: %w", e.Type, err)
	}
	return nil
}

// ConnectionInfo mirrors the connection object delivered in join and
// confirmation events.
type ConnectionInfo struct {
	ID              string            `json:"id"`
	ConnectedAt     time.Time         `json:"connected_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	YieldLeadership bool              `json:"yield_leadership"`
	Meta            map[string]string `json:"meta"`
}

// MemberJoinedPayload accompanies TypeMemberJoined.
type MemberJoinedPayload struct {
	AccountID   string            `json:"account_id"`
	DisplayName string            `json:"account_dn"`
	Revision    int64             `json:"revision"`
	JoinedAt    time.Time         `json:"joined_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Connection  ConnectionInfo    `json:"connection"`
	MemberState map[string]string `json:"member_state_updated"`
}

// MemberGonePayload accompanies TypeMemberLeft, TypeMemberExpired, and
// TypeMemberKicked. The three differ only in the type tag.
type MemberGonePayload struct {
	AccountID   string            `json:"account_id"`
	MemberState map[string]string `json:"member_state_updated"`
}

// MemberDisconnectedPayload accompanies TypeMemberDisconnected. The
// member's realtime connection dropped; the party service holds the
// member in the roster for the offline grace period.
type MemberDisconnectedPayload struct {
	AccountID string `json:"account_id"`
	// ExpiresAt is the server's own expiry estimate. The local
	// lifecycle machine runs its own timer and treats this as
	// advisory.
	ExpiresAt time.Time `json:"expires_at"`
	// Connection carries the dropped connection's metadata, including
	// any per-member offline TTL override.
	Connection ConnectionInfo `json:"connection"`
}

// NewCaptainPayload accompanies TypeMemberNewCaptain. AccountID is the
// new leader.
type NewCaptainPayload struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"account_dn"`
}

// PartyUpdatedPayload accompanies TypePartyUpdated: a party-level meta
// and config delta at a new revision.
type PartyUpdatedPayload struct {
	Revision     int64             `json:"revision"`
	PartyState   map[string]string `json:"party_state_updated"`
	PartyRemoved []string          `json:"party_state_removed"`
	PrivacyType  string            `json:"party_privacy_type"`
	PartyType    string            `json:"party_type"`
	PartySubType string            `json:"party_sub_type"`
	MaxMembers   int               `json:"max_number_of_members"`
	InviteTTL    int               `json:"invite_ttl_seconds"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// MemberStateUpdatedPayload accompanies TypeMemberStateUpdated: a
// member-level meta delta at a new revision.
type MemberStateUpdatedPayload struct {
	AccountID    string            `json:"account_id"`
	Revision     int64             `json:"revision"`
	MemberState  map[string]string `json:"member_state_updated"`
	MemberRemove []string          `json:"member_state_removed"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// RequireConfirmationPayload accompanies TypeRequireConfirmation: a
// join request held pending the leader's confirmation.
type RequireConfirmationPayload struct {
	AccountID   string         `json:"account_id"`
	DisplayName string         `json:"account_dn"`
	Revision    int64          `json:"revision"`
	JoinedAt    time.Time      `json:"joined_at"`
	Connection  ConnectionInfo `json:"connection"`
}

// PingPayload accompanies TypePing: another user pinged the local
// account, offering a path into their party.
type PingPayload struct {
	PingerID   string            `json:"pinger_id"`
	PingerName string            `json:"pinger_dn"`
	ExpiresAt  time.Time         `json:"expires"`
	Meta       map[string]string `json:"meta"`
}

// InvitePayload accompanies TypeInitialInvite.
type InvitePayload struct {
	InviterID   string            `json:"inviter_id"`
	InviterName string            `json:"inviter_dn"`
	SentAt      time.Time         `json:"sent_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Meta        map[string]string `json:"meta"`
}

// InviteDeclinedPayload accompanies TypeInviteDeclined.
type InviteDeclinedPayload struct {
	InviteeID string `json:"invitee_id"`
}

// ChatMessagePayload accompanies TypeFriendMessage and
// TypePartyMessage. AccountID is the sender; party messages carry the
// party in the envelope.
type ChatMessagePayload struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"account_dn"`
	Body        string `json:"body"`
}

// PresencePayload accompanies TypePresenceUpdated: a friend's presence
// changed.
type PresencePayload struct {
	AccountID string    `json:"account_id"`
	Status    string    `json:"status"` // "online" or "offline"
	LastSeen  time.Time `json:"last_online"`
}
