// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package rest

import (
	"context"
	"fmt"
	"net/http"
)

const chatPath = "/chat/api/v1"

type chatMessageRequest struct {
	Body string `json:"body"`
}

// SendPartyMessage delivers a chat message to every member of the
// party. Delivery to the members rides the realtime feed.
func (c *Client) SendPartyMessage(ctx context.Context, partyID, body string) error {
	path := fmt.Sprintf("%s/party/%s/messages", chatPath, partyID)
	if _, err := c.Request(ctx, http.MethodPost, path, nil, chatMessageRequest{Body: body}); err != nil {
		return fmt.Errorf("rest: sending party message to %s: %w", partyID, err)
	}
	return nil
}

// SendWhisper delivers a direct chat message to another account.
func (c *Client) SendWhisper(ctx context.Context, accountID, body string) error {
	path := fmt.Sprintf("%s/whisper/%s/messages", chatPath, accountID)
	if _, err := c.Request(ctx, http.MethodPost, path, nil, chatMessageRequest{Body: body}); err != nil {
		return fmt.Errorf("rest: whispering to %s: %w", accountID, err)
	}
	return nil
}
