// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"sync/atomic"
	"time"
)

// Member is one entry in a party's roster. Identity fields are
// immutable after construction; meta and connection state change as
// events reconcile.
type Member struct {
	id          string
	displayName string
	platform    string
	joinedAt    time.Time

	meta  *Revisioned
	party *Party

	// state is the connection-health state, maintained by the
	// lifecycle machine.
	state atomic.Int32
}

// ID returns the member's account identifier.
func (m *Member) ID() string { return m.id }

// DisplayName returns the member's display name.
func (m *Member) DisplayName() string { return m.displayName }

// Platform returns the member's platform tag.
func (m *Member) Platform() string { return m.platform }

// JoinedAt returns when the member joined the party.
func (m *Member) JoinedAt() time.Time { return m.joinedAt }

// Meta returns the member's revisioned attribute store.
func (m *Member) Meta() *Revisioned { return m.meta }

// IsLeader reports whether this member currently leads the party.
func (m *Member) IsLeader() bool {
	return m.party.LeaderID() == m.id
}

// ConnectionState returns the member's connection-health state.
func (m *Member) ConnectionState() ConnectionState {
	return ConnectionState(m.state.Load())
}

func (m *Member) setConnectionState(state ConnectionState) {
	m.state.Store(int32(state))
}

// cosmeticLoadout is the vendor's loadout envelope.
type cosmeticLoadout struct {
	AthenaCosmeticLoadout struct {
		CharacterDef string `json:"characterDef"`
		BackpackDef  string `json:"backpackDef"`
		PickaxeDef   string `json:"pickaxeDef"`
		ContrailDef  string `json:"contrailDef"`
	} `json:"AthenaCosmeticLoadout"`
}

// lobbyState is the vendor's readiness envelope.
type lobbyState struct {
	LobbyState struct {
		GameReadiness string `json:"gameReadiness"`
	} `json:"LobbyState"`
}

// frontendEmote is the vendor's emote envelope.
type frontendEmote struct {
	FrontendEmote struct {
		EmoteItemDef string `json:"emoteItemDef"`
		EmoteSection int    `json:"emoteSection"`
	} `json:"FrontendEmote"`
}

// bannerInfo is the vendor's banner envelope.
type bannerInfo struct {
	AthenaBannerInfo struct {
		BannerIconID  string `json:"bannerIconId"`
		BannerColorID string `json:"bannerColorId"`
		SeasonLevel   int    `json:"seasonLevel"`
	} `json:"AthenaBannerInfo"`
}

// battlePassInfo is the vendor's battle pass envelope.
type battlePassInfo struct {
	BattlePassInfo struct {
		HasPurchased bool `json:"bHasPurchasedPass"`
		PassLevel    int  `json:"passLevel"`
	} `json:"BattlePassInfo"`
}

// ReadyState returns the member's lobby readiness. Members that have
// not published a lobby state read as NotReady.
func (m *Member) ReadyState() ReadyState {
	var state lobbyState
	if err := m.meta.GetJSON(keyLobbyState, &state); err != nil || state.LobbyState.GameReadiness == "" {
		return NotReady
	}
	return ReadyState(state.LobbyState.GameReadiness)
}

// Outfit returns the member's equipped outfit identifier.
func (m *Member) Outfit() string {
	var loadout cosmeticLoadout
	_ = m.meta.GetJSON(keyCosmeticLoadout, &loadout)
	return loadout.AthenaCosmeticLoadout.CharacterDef
}

// Backpack returns the member's equipped backpack identifier.
func (m *Member) Backpack() string {
	var loadout cosmeticLoadout
	_ = m.meta.GetJSON(keyCosmeticLoadout, &loadout)
	return loadout.AthenaCosmeticLoadout.BackpackDef
}

// Pickaxe returns the member's equipped pickaxe identifier.
func (m *Member) Pickaxe() string {
	var loadout cosmeticLoadout
	_ = m.meta.GetJSON(keyCosmeticLoadout, &loadout)
	return loadout.AthenaCosmeticLoadout.PickaxeDef
}

// Emote returns the member's playing emote identifier, or "" when no
// emote is playing.
func (m *Member) Emote() string {
	var emote frontendEmote
	_ = m.meta.GetJSON(keyFrontendEmote, &emote)
	if emote.FrontendEmote.EmoteItemDef == "None" {
		return ""
	}
	return emote.FrontendEmote.EmoteItemDef
}

// Banner returns the member's banner icon, color, and season level.
func (m *Member) Banner() (icon, color string, seasonLevel int) {
	var banner bannerInfo
	_ = m.meta.GetJSON(keyBannerInfo, &banner)
	return banner.AthenaBannerInfo.BannerIconID,
		banner.AthenaBannerInfo.BannerColorID,
		banner.AthenaBannerInfo.SeasonLevel
}

// BattlePass returns whether the member purchased the battle pass and
// their pass level.
func (m *Member) BattlePass() (purchased bool, level int) {
	var pass battlePassInfo
	_ = m.meta.GetJSON(keyBattlePassInfo, &pass)
	return pass.BattlePassInfo.HasPurchased, pass.BattlePassInfo.PassLevel
}

// InputType returns the member's advertised input device.
func (m *Member) InputType() string {
	text, _ := m.meta.Get(keyInputType).(string)
	return text
}

// InMatch reports whether the member is currently in a match.
func (m *Member) InMatch() bool {
	location, _ := m.meta.Get(keyLocation).(string)
	return location == "InGame"
}

// MatchPlayersLeft returns the number of players left in the member's
// match, or 0 outside a match.
func (m *Member) MatchPlayersLeft() int {
	count, _ := m.meta.Get(keyPlayersLeft).(uint64)
	return int(count)
}

// MatchStartedAt returns when the member's match started, or the zero
// time outside a match.
func (m *Member) MatchStartedAt() time.Time {
	text, _ := m.meta.Get(keyMatchStartedAt).(string)
	if text == "" {
		return time.Time{}
	}
	startedAt, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return time.Time{}
	}
	return startedAt
}
