// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/partyline/partyline/rest"
)

// MaxPartySize is the largest roster the party service accepts.
const MaxPartySize = 16

// mapAPIError converts the vendor's error codes into the package's
// sentinel errors so callers can branch with errors.Is. The original
// error stays in the chain for context. Codes without a local meaning
// pass through untouched.
func mapAPIError(err error) error {
	switch {
	case err == nil:
		return nil
	case rest.IsAPIError(err, rest.ErrCodeMemberNotFound):
		return fmt.Errorf("%w: %w", ErrMemberNotFound, err)
	case rest.IsAPIError(err, rest.ErrCodePartyNotFound):
		return fmt.Errorf("%w: %w", ErrPartyNotFound, err)
	case rest.IsAPIError(err, rest.ErrCodePartyFull):
		return fmt.Errorf("%w: %w", ErrPartyFull, err)
	case rest.IsAPIError(err, rest.ErrCodeChangeForbidden):
		return fmt.Errorf("%w: %w", ErrNotLeader, err)
	default:
		return err
	}
}

// requireLeader returns the current party if the local user leads it.
func (e *Engine) requireLeader() (*Party, error) {
	party := e.Party()
	if party == nil {
		return nil, ErrNoParty
	}
	if !party.IsSelfLeader() {
		return nil, ErrNotLeader
	}
	return party, nil
}

// patchConfig submits a party config change. Config rides the same
// revision counter as meta, so conflicts are rebased and retried the
// same bounded way.
func (e *Engine) patchConfig(ctx context.Context, party *Party, config map[string]any) error {
	maxAttempts := e.maxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxPatchAttempts
	}

	for attempt := 1; ; attempt++ {
		revision := party.Meta().Revision()
		err := e.api.PatchParty(ctx, party.ID(), rest.PartyPatchRequest{
			Config:   config,
			Revision: revision,
		})
		if err == nil {
			party.Meta().ForceRevision(revision + 1)
			return nil
		}

		serverRevision, stale := rest.StaleRevision(err)
		if !stale {
			return mapAPIError(err)
		}
		if serverRevision > party.Meta().Revision() {
			party.Meta().ForceRevision(serverRevision)
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("%w: lost %d revision races", ErrConflictExhausted, attempt)
		}
	}
}

// SetPrivacy changes the party's privacy preset. Leader only. The
// preset lands in the privacy meta key; private presets additionally
// restrict the service-side joinability.
func (e *Engine) SetPrivacy(ctx context.Context, privacy Privacy) error {
	party, err := e.requireLeader()
	if err != nil {
		return err
	}

	settings := privacy.Settings()
	raw, err := json.Marshal(struct {
		PrivacySettings PrivacySettings `json:"PrivacySettings"`
	}{settings})
	if err != nil {
		return err
	}
	update := map[string]string{keyPrivacySettings: string(raw)}
	if err := mapAPIError(party.Meta().Propose(ctx, update, nil)); err != nil {
		return err
	}

	serviceConfig := map[string]any{
		"joinability":     "OPEN",
		"discoverability": "ALL",
	}
	if settings.PartyType == "Private" {
		serviceConfig["joinability"] = "INVITE_AND_FORMER"
		serviceConfig["discoverability"] = "INVITED_ONLY"
	}
	if err := e.patchConfig(ctx, party, serviceConfig); err != nil {
		return err
	}

	config := party.Config()
	config.Privacy = privacy
	party.setConfig(config)
	return nil
}

// SetMaxSize changes the roster capacity. Leader only. The new size
// must be between 1 and MaxPartySize and must not strand current
// members.
func (e *Engine) SetMaxSize(ctx context.Context, size int) error {
	party, err := e.requireLeader()
	if err != nil {
		return err
	}
	if size < 1 || size > MaxPartySize || size < party.Size() {
		return fmt.Errorf("%w: %d", ErrInvalidMaxSize, size)
	}

	if err := e.patchConfig(ctx, party, map[string]any{"max_size": size}); err != nil {
		return err
	}
	config := party.Config()
	config.MaxSize = size
	party.setConfig(config)
	return nil
}

// SetPlaylist changes the selected playlist. Leader only.
func (e *Engine) SetPlaylist(ctx context.Context, playlist Playlist) error {
	party, err := e.requireLeader()
	if err != nil {
		return err
	}

	var envelope playlistData
	envelope.PlaylistData.PlaylistName = playlist.Name
	envelope.PlaylistData.TournamentID = playlist.TournamentID
	envelope.PlaylistData.EventWindowID = playlist.EventWindowID
	envelope.PlaylistData.RegionID = playlist.RegionID

	raw, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	update := map[string]string{keyPlaylistData: string(raw)}
	return mapAPIError(party.Meta().Propose(ctx, update, nil))
}

// SetCustomKey changes the custom matchmaking key. Leader only. An
// empty key clears it.
func (e *Engine) SetCustomKey(ctx context.Context, key string) error {
	party, err := e.requireLeader()
	if err != nil {
		return err
	}
	update := map[string]string{keyCustomMatchKey: key}
	return mapAPIError(party.Meta().Propose(ctx, update, nil))
}

// SetSquadFill changes whether matchmaking fills the squad's empty
// slots. Leader only.
func (e *Engine) SetSquadFill(ctx context.Context, fill bool) error {
	party, err := e.requireLeader()
	if err != nil {
		return err
	}
	update := map[string]string{keySquadFill: strconv.FormatBool(fill)}
	return mapAPIError(party.Meta().Propose(ctx, update, nil))
}

// Promote transfers leadership to another member. Leader only. The
// local model updates when the promotion event echoes back.
func (e *Engine) Promote(ctx context.Context, memberID string) error {
	party, err := e.requireLeader()
	if err != nil {
		return err
	}
	if party.Member(memberID) == nil {
		return ErrMemberNotFound
	}

	err = mapAPIError(e.api.PromoteMember(ctx, party.ID(), memberID))
	if err != nil {
		e.evictIfGone(party, memberID, err)
	}
	return err
}

// Kick removes another member. Leader only.
func (e *Engine) Kick(ctx context.Context, memberID string) error {
	party, err := e.requireLeader()
	if err != nil {
		return err
	}
	if memberID == e.selfID {
		return fmt.Errorf("party: cannot kick self, leave instead")
	}
	if party.Member(memberID) == nil {
		return ErrMemberNotFound
	}

	err = mapAPIError(e.api.KickMember(ctx, party.ID(), memberID))
	if err != nil {
		e.evictIfGone(party, memberID, err)
	}
	return err
}

// evictIfGone drops a member the server no longer knows from the local
// roster, so the caches do not keep serving a phantom entry.
func (e *Engine) evictIfGone(party *Party, memberID string, err error) {
	if !errors.Is(err, ErrMemberNotFound) {
		return
	}
	if removed := party.RemoveMember(memberID); removed != nil {
		e.lifecycle.Forget(memberID)
	}
}

// Invite invites another user into the party. Any member may invite
// under permissive presets; restrictive presets are leader-only, which
// the service enforces and the local check mirrors.
func (e *Engine) Invite(ctx context.Context, accountID string) error {
	party := e.Party()
	if party == nil {
		return ErrNoParty
	}
	if party.IsFull() {
		return ErrPartyFull
	}
	if party.Config().Privacy.Settings().InviteRestriction == "LeaderOnly" && !party.IsSelfLeader() {
		return ErrNotLeader
	}

	meta := map[string]string{
		"urn:epic:invite:platformdata_s": "",
	}
	return mapAPIError(e.api.SendInvite(ctx, party.ID(), accountID, true, meta))
}

// RevokeInvite withdraws a previously sent invite.
func (e *Engine) RevokeInvite(ctx context.Context, accountID string) error {
	party := e.Party()
	if party == nil {
		return ErrNoParty
	}
	return mapAPIError(e.api.DeleteInvite(ctx, party.ID(), accountID))
}
