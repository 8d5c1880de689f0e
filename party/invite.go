// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"context"
	"fmt"
	"time"

	"github.com/partyline/partyline/rest"
)

// JoinFunc joins the local user into the given party, tearing down the
// current one first. Wired in by the owning client so invites and
// pings can complete the join through the full materialization path.
type JoinFunc func(ctx context.Context, partyID string) error

// Invite is a received party invitation. It is a short-lived value
// object: dispatched once to the InviteReceived hook and discarded,
// never stored in the party model.
type Invite struct {
	PartyID     string
	InviterID   string
	InviterName string
	SentAt      time.Time
	ExpiresAt   time.Time
	Meta        map[string]string

	api    API
	selfID string
	joiner JoinFunc
}

// Accept joins the inviting party.
func (i *Invite) Accept(ctx context.Context) error {
	if i.joiner == nil {
		return fmt.Errorf("party: invite cannot be accepted, no join capability wired")
	}
	return i.joiner(ctx, i.PartyID)
}

// Decline declines the invitation. The inviter's client receives a
// decline notification.
func (i *Invite) Decline(ctx context.Context) error {
	return i.api.DeclineInvite(ctx, i.PartyID, i.selfID)
}

// Ping is a received join ping: another user offering a path into
// their party. Unlike an invite, a ping does not name the party; the
// joinable parties are looked up through the pinger.
type Ping struct {
	PingerID   string
	PingerName string
	ExpiresAt  time.Time
	Meta       map[string]string

	api    API
	selfID string
	joiner JoinFunc
}

// Parties returns the parties currently joinable through this ping.
func (p *Ping) Parties(ctx context.Context) ([]rest.PartyData, error) {
	return p.api.FetchPingedParties(ctx, p.selfID, p.PingerID)
}

// Accept joins the pinger's party and removes the ping.
func (p *Ping) Accept(ctx context.Context) error {
	if p.joiner == nil {
		return fmt.Errorf("party: ping cannot be accepted, no join capability wired")
	}
	parties, err := p.Parties(ctx)
	if err != nil {
		return err
	}
	if len(parties) == 0 {
		return fmt.Errorf("accepting ping from %s: %w", p.PingerID, ErrPartyNotFound)
	}
	if err := p.joiner(ctx, parties[0].ID); err != nil {
		return err
	}
	// The ping served its purpose; a failure to clean it up does not
	// undo the join.
	if err := p.api.DeletePing(ctx, p.selfID, p.PingerID); err != nil && !rest.IsAPIError(err, rest.ErrCodePingNotFound) {
		return err
	}
	return nil
}

// Decline removes the ping without joining. Declining an
// already-expired ping is a no-op.
func (p *Ping) Decline(ctx context.Context) error {
	err := p.api.DeletePing(ctx, p.selfID, p.PingerID)
	if rest.IsAPIError(err, rest.ErrCodePingNotFound) {
		return nil
	}
	return err
}

// JoinConfirmation is a join request held pending the leader's
// decision. Delivered only to the leader, only when the party requires
// join confirmation.
type JoinConfirmation struct {
	PartyID     string
	AccountID   string
	DisplayName string
	JoinedAt    time.Time

	api API
}

// Confirm admits the applicant. An applicant that already gave up
// waiting is treated as handled, not as an error.
func (c *JoinConfirmation) Confirm(ctx context.Context) error {
	err := c.api.ConfirmMember(ctx, c.PartyID, c.AccountID)
	if rest.IsAPIError(err, rest.ErrCodeApplicantNotFound) {
		return nil
	}
	return err
}

// Reject turns the applicant away.
func (c *JoinConfirmation) Reject(ctx context.Context) error {
	err := c.api.RejectMember(ctx, c.PartyID, c.AccountID)
	if rest.IsAPIError(err, rest.ErrCodeApplicantNotFound) {
		return nil
	}
	return err
}
