// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package rest

import "time"

// PartyConfigData is the party configuration object as the party
// service represents it.
type PartyConfigData struct {
	Type             string `json:"type"`
	Joinability      string `json:"joinability"`
	Discoverability  string `json:"discoverability"`
	SubType          string `json:"sub_type"`
	MaxSize          int    `json:"max_size"`
	InviteTTL        int    `json:"invite_ttl"`
	JoinConfirmation bool   `json:"join_confirmation"`
}

// ConnectionData describes one realtime connection a member holds.
// Members normally have exactly one; a member with zero live
// connections is in the disconnected grace period.
type ConnectionData struct {
	ID              string            `json:"id"`
	ConnectedAt     time.Time         `json:"connected_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	YieldLeadership bool              `json:"yield_leadership"`
	Meta            map[string]string `json:"meta"`
}

// MemberData is a party member as returned by the party service.
type MemberData struct {
	AccountID   string            `json:"account_id"`
	Meta        map[string]string `json:"meta"`
	Connections []ConnectionData  `json:"connections"`
	Revision    int64             `json:"revision"`
	UpdatedAt   time.Time         `json:"updated_at"`
	JoinedAt    time.Time         `json:"joined_at"`
	Role        string            `json:"role"`
}

// PartyData is a party as returned by the party service.
type PartyData struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Config    PartyConfigData   `json:"config"`
	Members   []MemberData      `json:"members"`
	Meta      map[string]string `json:"meta"`
	Invites   []InviteData      `json:"invites"`
	Revision  int64             `json:"revision"`
}

// UserPartiesData is the response to a per-user party lookup.
type UserPartiesData struct {
	Current []PartyData  `json:"current"`
	Pending []PartyData  `json:"pending"`
	Invites []InviteData `json:"invites"`
}

// InviteData is a pending invitation as the party service stores it.
type InviteData struct {
	PartyID   string            `json:"party_id"`
	SentBy    string            `json:"sent_by"`
	SentTo    string            `json:"sent_to"`
	SentAt    time.Time         `json:"sent_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	ExpiresAt time.Time         `json:"expires_at"`
	Status    string            `json:"status"`
	Meta      map[string]string `json:"meta"`
}

// CreatePartyRequest is the payload for creating a party. The creator
// becomes the sole member and leader.
type CreatePartyRequest struct {
	Config   map[string]any    `json:"config"`
	JoinInfo JoinInfo          `json:"join_info"`
	Meta     map[string]string `json:"meta"`
}

// JoinInfo carries the joining member's connection and initial meta.
type JoinInfo struct {
	Connection ConnectionData    `json:"connection"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// JoinPartyResponse is the response to a join request.
type JoinPartyResponse struct {
	Status  string `json:"status"`
	PartyID string `json:"party_id"`
}

// PartyPatchRequest is the optimistic-concurrency payload for a
// party-level meta/config update. Revision must echo the last revision
// the client observed; the server rejects the patch with a
// stale_revision error if it has moved on.
type PartyPatchRequest struct {
	Config   map[string]any `json:"config,omitempty"`
	Meta     MetaDelta      `json:"meta"`
	Revision int64          `json:"revision"`
}

// MemberPatchRequest is the optimistic-concurrency payload for a
// member-level meta update.
type MemberPatchRequest struct {
	Delete   []string          `json:"delete"`
	Update   map[string]string `json:"update"`
	Revision int64             `json:"revision"`
}

// MetaDelta is the update/delete pair used in party patches.
type MetaDelta struct {
	Update map[string]string `json:"update"`
	Delete []string          `json:"delete"`
}

// FriendData is a friend roster entry from the friends service.
type FriendData struct {
	AccountID   string    `json:"accountId"`
	DisplayName string    `json:"displayName"`
	Platform    string    `json:"platform"`
	Status      string    `json:"status"`
	Created     time.Time `json:"created"`
	Favorite    bool      `json:"favorite"`
}
