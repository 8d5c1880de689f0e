// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Party service routes. All paths are relative to the client's BaseURL.
const (
	partiesPath = "/party/api/v1/parties"
	userPath    = "/party/api/v1/user"
)

// FetchParty returns the current state of a party. This is the ground
// truth used to materialize or resynchronize the local model.
func (c *Client) FetchParty(ctx context.Context, partyID string) (*PartyData, error) {
	body, err := c.Request(ctx, http.MethodGet, partiesPath+"/"+partyID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("rest: fetching party %s: %w", partyID, err)
	}

	var party PartyData
	if err := json.Unmarshal(body, &party); err != nil {
		return nil, fmt.Errorf("rest: failed to parse party response: %w", err)
	}
	return &party, nil
}

// FetchUserParties returns the parties the account currently belongs
// to, along with pending parties and invites.
func (c *Client) FetchUserParties(ctx context.Context, accountID string) (*UserPartiesData, error) {
	body, err := c.Request(ctx, http.MethodGet, userPath+"/"+accountID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("rest: fetching parties for %s: %w", accountID, err)
	}

	var parties UserPartiesData
	if err := json.Unmarshal(body, &parties); err != nil {
		return nil, fmt.Errorf("rest: failed to parse user parties response: %w", err)
	}
	return &parties, nil
}

// CreateParty creates a new party with the caller as sole member and
// leader.
func (c *Client) CreateParty(ctx context.Context, request CreatePartyRequest) (*PartyData, error) {
	body, err := c.Request(ctx, http.MethodPost, partiesPath, nil, request)
	if err != nil {
		return nil, fmt.Errorf("rest: creating party: %w", err)
	}

	var party PartyData
	if err := json.Unmarshal(body, &party); err != nil {
		return nil, fmt.Errorf("rest: failed to parse create party response: %w", err)
	}
	return &party, nil
}

// JoinParty adds the account to the party. The party service may defer
// the join behind leader confirmation, in which case the response
// status reflects that.
func (c *Client) JoinParty(ctx context.Context, partyID, accountID string, info JoinInfo) (*JoinPartyResponse, error) {
	path := fmt.Sprintf("%s/%s/members/%s/join", partiesPath, partyID, accountID)
	body, err := c.Request(ctx, http.MethodPost, path, nil, info)
	if err != nil {
		return nil, fmt.Errorf("rest: joining party %s: %w", partyID, err)
	}

	var response JoinPartyResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("rest: failed to parse join response: %w", err)
	}
	return &response, nil
}

// LeaveParty removes the account from the party.
func (c *Client) LeaveParty(ctx context.Context, partyID, accountID string) error {
	path := fmt.Sprintf("%s/%s/members/%s", partiesPath, partyID, accountID)
	if _, err := c.Request(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("rest: leaving party %s: %w", partyID, err)
	}
	return nil
}

// KickMember removes another member from the party. Leader only.
func (c *Client) KickMember(ctx context.Context, partyID, memberID string) error {
	path := fmt.Sprintf("%s/%s/members/%s", partiesPath, partyID, memberID)
	if _, err := c.Request(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("rest: kicking member %s from party %s: %w", memberID, partyID, err)
	}
	return nil
}

// PromoteMember transfers leadership to another member. Leader only.
func (c *Client) PromoteMember(ctx context.Context, partyID, memberID string) error {
	path := fmt.Sprintf("%s/%s/members/%s/promote", partiesPath, partyID, memberID)
	if _, err := c.Request(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("rest: promoting member %s in party %s: %w", memberID, partyID, err)
	}
	return nil
}

// PatchParty submits a party-level meta/config patch at the given
// revision. A stale_revision *APIError indicates the server has a
// newer revision; use StaleRevision to extract it and retry.
func (c *Client) PatchParty(ctx context.Context, partyID string, patch PartyPatchRequest) error {
	path := partiesPath + "/" + partyID
	if _, err := c.Request(ctx, http.MethodPatch, path, nil, patch); err != nil {
		return fmt.Errorf("rest: patching party %s: %w", partyID, err)
	}
	return nil
}

// PatchMember submits a member-level meta patch at the given revision.
func (c *Client) PatchMember(ctx context.Context, partyID, memberID string, patch MemberPatchRequest) error {
	path := fmt.Sprintf("%s/%s/members/%s/meta", partiesPath, partyID, memberID)
	if _, err := c.Request(ctx, http.MethodPatch, path, nil, patch); err != nil {
		return fmt.Errorf("rest: patching member %s in party %s: %w", memberID, partyID, err)
	}
	return nil
}

// SendInvite invites an account to the party. sendPing asks the
// service to also deliver a ping so the recipient's client surfaces
// the invite immediately.
func (c *Client) SendInvite(ctx context.Context, partyID, accountID string, sendPing bool, meta map[string]string) error {
	path := fmt.Sprintf("%s/%s/invites/%s", partiesPath, partyID, accountID)
	query := url.Values{"sendPing": []string{fmt.Sprintf("%t", sendPing)}}
	if _, err := c.Request(ctx, http.MethodPost, path, query, meta); err != nil {
		return fmt.Errorf("rest: inviting %s to party %s: %w", accountID, partyID, err)
	}
	return nil
}

// DeleteInvite revokes a previously sent invite.
func (c *Client) DeleteInvite(ctx context.Context, partyID, accountID string) error {
	path := fmt.Sprintf("%s/%s/invites/%s", partiesPath, partyID, accountID)
	if _, err := c.Request(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("rest: revoking invite for %s in party %s: %w", accountID, partyID, err)
	}
	return nil
}

// DeclineInvite declines an invite addressed to the account.
func (c *Client) DeclineInvite(ctx context.Context, partyID, accountID string) error {
	path := fmt.Sprintf("%s/%s/invites/%s/decline", partiesPath, partyID, accountID)
	if _, err := c.Request(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("rest: declining invite to party %s: %w", partyID, err)
	}
	return nil
}

// SendPing delivers a join ping from the local account to another
// user. A ping lets the recipient look up and join the sender's party.
func (c *Client) SendPing(ctx context.Context, fromID, toID string) error {
	path := fmt.Sprintf("%s/%s/pings/%s", userPath, toID, fromID)
	if _, err := c.Request(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("rest: pinging %s: %w", toID, err)
	}
	return nil
}

// DeletePing removes a ping previously sent to the account.
func (c *Client) DeletePing(ctx context.Context, accountID, pingerID string) error {
	path := fmt.Sprintf("%s/%s/pings/%s", userPath, accountID, pingerID)
	if _, err := c.Request(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("rest: deleting ping from %s: %w", pingerID, err)
	}
	return nil
}

// FetchPingedParties returns the parties joinable through a ping the
// given user sent to the account.
func (c *Client) FetchPingedParties(ctx context.Context, accountID, pingerID string) ([]PartyData, error) {
	path := fmt.Sprintf("%s/%s/pings/%s/parties", userPath, accountID, pingerID)
	body, err := c.Request(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("rest: fetching pinged parties from %s: %w", pingerID, err)
	}

	var parties []PartyData
	if err := json.Unmarshal(body, &parties); err != nil {
		return nil, fmt.Errorf("rest: failed to parse pinged parties response: %w", err)
	}
	return parties, nil
}

// ConfirmMember approves a join request held for leader confirmation.
func (c *Client) ConfirmMember(ctx context.Context, partyID, accountID string) error {
	path := fmt.Sprintf("%s/%s/members/%s/confirm", partiesPath, partyID, accountID)
	if _, err := c.Request(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("rest: confirming member %s in party %s: %w", accountID, partyID, err)
	}
	return nil
}

// RejectMember rejects a join request held for leader confirmation.
func (c *Client) RejectMember(ctx context.Context, partyID, accountID string) error {
	path := fmt.Sprintf("%s/%s/members/%s/reject", partiesPath, partyID, accountID)
	if _, err := c.Request(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("rest: rejecting member %s in party %s: %w", accountID, partyID, err)
	}
	return nil
}
