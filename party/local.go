// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"strconv"
	"time"
)

// LocalMember is the local user's own roster entry, the only member
// whose meta the client may write.
type LocalMember struct {
	*Member
	engine *Engine
}

// Me returns the local user's member entry in the current party.
// Returns ErrNoParty with no party, or ErrSelfNotMaterialized during
// the brief window after a join before the membership has landed.
func (e *Engine) Me() (*LocalMember, error) {
	party := e.Party()
	if party == nil {
		return nil, ErrNoParty
	}
	member, err := party.Me()
	if err != nil {
		return nil, err
	}
	return &LocalMember{Member: member, engine: e}, nil
}

// MemberPatch accumulates the field changes of one Edit call before
// they are proposed as a single patch.
type MemberPatch struct {
	member *Member
	update map[string]string
	remove []string
}

// MemberSetter applies one field change to a pending patch.
type MemberSetter func(p *MemberPatch)

// currentLoadout reads the loadout the patch will modify: the version
// already staged by an earlier setter in the same Edit call, falling
// back to the member's committed meta.
func (p *MemberPatch) currentLoadout() cosmeticLoadout {
	var loadout cosmeticLoadout
	if raw, ok := p.update[keyCosmeticLoadout]; ok {
		_ = json.Unmarshal([]byte(raw), &loadout)
		return loadout
	}
	_ = p.member.meta.GetJSON(keyCosmeticLoadout, &loadout)
	return loadout
}

func (p *MemberPatch) setJSON(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	p.update[key] = string(raw)
}

// Readiness stages the lobby readiness state. Prefer
// LocalMember.SetReady, which also applies the sitting-out
// leadership rule.
func Readiness(state ReadyState) MemberSetter {
	return func(p *MemberPatch) {
		var envelope lobbyState
		envelope.LobbyState.GameReadiness = string(state)
		p.setJSON(keyLobbyState, envelope)
	}
}

// Outfit stages the equipped outfit.
func Outfit(id string) MemberSetter {
	return func(p *MemberPatch) {
		loadout := p.currentLoadout()
		loadout.AthenaCosmeticLoadout.CharacterDef = id
		p.setJSON(keyCosmeticLoadout, loadout)
	}
}

// Backpack stages the equipped backpack.
func Backpack(id string) MemberSetter {
	return func(p *MemberPatch) {
		loadout := p.currentLoadout()
		loadout.AthenaCosmeticLoadout.BackpackDef = id
		p.setJSON(keyCosmeticLoadout, loadout)
	}
}

// ClearBackpack stages removal of the equipped backpack.
func ClearBackpack() MemberSetter {
	return Backpack("")
}

// Pickaxe stages the equipped pickaxe.
func Pickaxe(id string) MemberSetter {
	return func(p *MemberPatch) {
		loadout := p.currentLoadout()
		loadout.AthenaCosmeticLoadout.PickaxeDef = id
		p.setJSON(keyCosmeticLoadout, loadout)
	}
}

// Emote stages a playing emote.
func Emote(id string) MemberSetter {
	return func(p *MemberPatch) {
		var envelope frontendEmote
		envelope.FrontendEmote.EmoteItemDef = id
		envelope.FrontendEmote.EmoteSection = -2
		p.setJSON(keyFrontendEmote, envelope)
	}
}

// ClearEmote stages stopping the playing emote. "None" is the vendor's
// sentinel for no emote.
func ClearEmote() MemberSetter {
	return func(p *MemberPatch) {
		var envelope frontendEmote
		envelope.FrontendEmote.EmoteItemDef = "None"
		envelope.FrontendEmote.EmoteSection = -1
		p.setJSON(keyFrontendEmote, envelope)
	}
}

// Banner stages the banner icon, color, and season level.
func Banner(icon, color string, seasonLevel int) MemberSetter {
	return func(p *MemberPatch) {
		var envelope bannerInfo
		envelope.AthenaBannerInfo.BannerIconID = icon
		envelope.AthenaBannerInfo.BannerColorID = color
		envelope.AthenaBannerInfo.SeasonLevel = seasonLevel
		p.setJSON(keyBannerInfo, envelope)
	}
}

// BattlePass stages the battle pass purchase flag and level.
func BattlePass(purchased bool, level int) MemberSetter {
	return func(p *MemberPatch) {
		var envelope battlePassInfo
		envelope.BattlePassInfo.HasPurchased = purchased
		envelope.BattlePassInfo.PassLevel = level
		p.setJSON(keyBattlePassInfo, envelope)
	}
}

// InputType stages the advertised input device.
func InputType(input string) MemberSetter {
	return func(p *MemberPatch) {
		p.update[keyInputType] = input
	}
}

// InMatch stages the in-match markers other members render ("In
// Match", players left).
func InMatch(playersLeft int, startedAt time.Time) MemberSetter {
	return func(p *MemberPatch) {
		p.update[keyLocation] = "InGame"
		p.update[keyPlayersLeft] = strconv.Itoa(playersLeft)
		p.update[keyMatchStartedAt] = startedAt.UTC().Format(time.RFC3339)
	}
}

// ClearInMatch stages returning to the lobby.
func ClearInMatch() MemberSetter {
	return func(p *MemberPatch) {
		p.update[keyLocation] = "PreLobby"
		p.update[keyPlayersLeft] = "0"
		p.update[keyMatchStartedAt] = "0001-01-01T00:00:00Z"
	}
}

// Field stages a raw wire value for any meta key. Escape hatch for
// keys without a typed setter; value must already be wire-encoded per
// the key's suffix.
func Field(key, value string) MemberSetter {
	return func(p *MemberPatch) {
		p.update[key] = value
	}
}

// RemoveField stages deletion of a meta key.
func RemoveField(key string) MemberSetter {
	return func(p *MemberPatch) {
		p.remove = append(p.remove, key)
	}
}

// Edit applies the setters as one atomic patch: either every staged
// field lands under a single revision bump, or the patch fails with
// local state unchanged. Edits issued while another patch is in
// flight coalesce into the next one.
func (m *LocalMember) Edit(ctx context.Context, setters ...MemberSetter) error {
	patch := &MemberPatch{member: m.Member, update: make(map[string]string)}
	for _, setter := range setters {
		setter(patch)
	}
	if len(patch.update) == 0 && len(patch.remove) == 0 {
		return nil
	}
	return mapAPIError(m.meta.Propose(ctx, patch.update, patch.remove))
}

// EditAndKeep is Edit plus persistence: the setters are replayed onto
// the local member of every party joined or created afterwards, so
// cosmetic state survives party churn.
func (m *LocalMember) EditAndKeep(ctx context.Context, setters ...MemberSetter) error {
	m.engine.keptMu.Lock()
	m.engine.kept = append(m.engine.kept, setters...)
	m.engine.keptMu.Unlock()
	return m.Edit(ctx, setters...)
}

// KeptSetters returns the setters registered through EditAndKeep, in
// registration order.
func (e *Engine) KeptSetters() []MemberSetter {
	e.keptMu.Lock()
	defer e.keptMu.Unlock()
	setters := make([]MemberSetter, len(e.kept))
	copy(setters, e.kept)
	return setters
}

// SetEmote starts playing an emote. A positive duration schedules an
// automatic stop after it elapses; a later SetEmote or StopEmote
// disarms the pending stop.
func (m *LocalMember) SetEmote(ctx context.Context, id string, duration time.Duration) error {
	if err := m.Edit(ctx, Emote(id)); err != nil {
		return err
	}

	e := m.engine
	e.emoteMu.Lock()
	e.emoteSeq++
	armed := e.emoteSeq
	if e.emoteTimer != nil {
		e.emoteTimer.Stop()
		e.emoteTimer = nil
	}
	if duration > 0 {
		e.emoteTimer = e.clock.AfterFunc(duration, func() {
			e.autoClearEmote(armed)
		})
	}
	e.emoteMu.Unlock()
	return nil
}

// StopEmote stops the playing emote and disarms any pending auto-stop.
func (m *LocalMember) StopEmote(ctx context.Context) error {
	e := m.engine
	e.emoteMu.Lock()
	e.emoteSeq++
	if e.emoteTimer != nil {
		e.emoteTimer.Stop()
		e.emoteTimer = nil
	}
	e.emoteMu.Unlock()
	return m.Edit(ctx, ClearEmote())
}

// autoClearEmote is the auto-stop timer callback. The sequence guard
// makes a timer superseded by a newer SetEmote or StopEmote a no-op.
func (e *Engine) autoClearEmote(armed uint64) {
	e.emoteMu.Lock()
	if e.emoteSeq != armed {
		e.emoteMu.Unlock()
		return
	}
	e.emoteTimer = nil
	e.emoteMu.Unlock()

	me, err := e.Me()
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := me.Edit(ctx, ClearEmote()); err != nil {
		e.logger.Warn("stopping emote failed", "error", err)
	}
}

// SetReady changes the lobby readiness. Sitting out cannot coexist
// with leadership under the vendor's rules, so a leader sitting out
// hands leadership to a random other member.
func (m *LocalMember) SetReady(ctx context.Context, state ReadyState) error {
	if err := m.Edit(ctx, Readiness(state)); err != nil {
		return err
	}
	if state != SittingOut || !m.IsLeader() {
		return nil
	}

	var others []string
	for _, member := range m.engine.Party().Members() {
		if member.ID() != m.ID() {
			others = append(others, member.ID())
		}
	}
	if len(others) == 0 {
		return nil
	}
	return m.engine.Promote(ctx, others[rand.IntN(len(others))])
}
