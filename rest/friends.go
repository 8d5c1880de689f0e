// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const friendsPath = "/friends/api/v1"

// FetchFriends returns the account's friend roster. Pending incoming
// and outgoing requests are included with a non-ACCEPTED status.
func (c *Client) FetchFriends(ctx context.Context, accountID string) ([]FriendData, error) {
	path := fmt.Sprintf("%s/%s/friends", friendsPath, accountID)
	body, err := c.Request(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("rest: fetching friends for %s: %w", accountID, err)
	}

	var friends []FriendData
	if err := json.Unmarshal(body, &friends); err != nil {
		return nil, fmt.Errorf("rest: failed to parse friends response: %w", err)
	}
	return friends, nil
}

// AddFriend sends a friend request, or accepts a pending incoming one.
func (c *Client) AddFriend(ctx context.Context, accountID, friendID string) error {
	path := fmt.Sprintf("%s/%s/friends/%s", friendsPath, accountID, friendID)
	if _, err := c.Request(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("rest: adding friend %s: %w", friendID, err)
	}
	return nil
}

// RemoveFriend removes a friend, or declines/cancels a pending request.
func (c *Client) RemoveFriend(ctx context.Context, accountID, friendID string) error {
	path := fmt.Sprintf("%s/%s/friends/%s", friendsPath, accountID, friendID)
	if _, err := c.Request(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("rest: removing friend %s: %w", friendID, err)
	}
	return nil
}
