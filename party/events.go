// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

// Hooks are the application's notification callbacks. All fields are
// optional; nil hooks are skipped.
//
// Hooks fire on the reconciler goroutine, strictly in event arrival
// order, after the state change they describe has been applied. A slow
// hook delays everything behind it, so hand heavy work to another
// goroutine.
type Hooks struct {
	// Roster changes.
	MemberJoined       func(member *Member)
	MemberLeft         func(member *Member)
	MemberKicked       func(member *Member)
	MemberExpired      func(member *Member)
	MemberDisconnected func(member *Member)
	MemberReconnected  func(member *Member)

	// LeaderChanged fires on any leadership transfer. previous is nil
	// when leadership was momentarily unassigned.
	LeaderChanged func(previous, leader *Member)

	// Coarse update notifications, fired once per reconciled event that
	// changed anything, after the fine-grained hooks below.
	PartyUpdated  func(party *Party)
	MemberUpdated func(member *Member)

	// Fine-grained member field notifications, fired only when the
	// reconciled event actually changed the field.
	MemberReadyChanged    func(member *Member, previous, current ReadyState)
	MemberOutfitChanged   func(member *Member, previous, current string)
	MemberBackpackChanged func(member *Member, previous, current string)
	MemberPickaxeChanged  func(member *Member, previous, current string)
	MemberEmoteChanged    func(member *Member, previous, current string)
	MemberBannerChanged   func(member *Member)
	MemberInputChanged    func(member *Member, previous, current string)
	MemberMatchChanged    func(member *Member, inMatch bool)

	// Fine-grained party field notifications.
	PrivacyChanged   func(party *Party, previous, current Privacy)
	PlaylistChanged  func(party *Party, previous, current Playlist)
	CustomKeyChanged func(party *Party, previous, current string)
	SquadFillChanged func(party *Party, previous, current bool)

	// Social traffic.
	InviteReceived            func(invite *Invite)
	InviteDeclined            func(partyID, accountID string)
	PingReceived              func(ping *Ping)
	JoinConfirmationRequested func(confirmation *JoinConfirmation)
	MessageReceived           func(message *ChatMessage)
}

// memberSnapshot captures the typed fields a member event can change.
// The reconciler diffs snapshots taken before and after applying a
// patch to decide which fine-grained hooks fire.
type memberSnapshot struct {
	ready    ReadyState
	outfit   string
	backpack string
	pickaxe  string
	emote    string
	banner   [2]string
	level    int
	input    string
	inMatch  bool
}

func snapshotMember(m *Member) memberSnapshot {
	icon, color, level := m.Banner()
	return memberSnapshot{
		ready:    m.ReadyState(),
		outfit:   m.Outfit(),
		backpack: m.Backpack(),
		pickaxe:  m.Pickaxe(),
		emote:    m.Emote(),
		banner:   [2]string{icon, color},
		level:    level,
		input:    m.InputType(),
		inMatch:  m.InMatch(),
	}
}

// notifyMemberDiff fires the fine-grained member hooks for fields that
// differ between the snapshots.
func (h *Hooks) notifyMemberDiff(member *Member, before, after memberSnapshot) {
	if h.MemberReadyChanged != nil && before.ready != after.ready {
		h.MemberReadyChanged(member, before.ready, after.ready)
	}
	if h.MemberOutfitChanged != nil && before.outfit != after.outfit {
		h.MemberOutfitChanged(member, before.outfit, after.outfit)
	}
	if h.MemberBackpackChanged != nil && before.backpack != after.backpack {
		h.MemberBackpackChanged(member, before.backpack, after.backpack)
	}
	if h.MemberPickaxeChanged != nil && before.pickaxe != after.pickaxe {
		h.MemberPickaxeChanged(member, before.pickaxe, after.pickaxe)
	}
	if h.MemberEmoteChanged != nil && before.emote != after.emote {
		h.MemberEmoteChanged(member, before.emote, after.emote)
	}
	if h.MemberBannerChanged != nil && (before.banner != after.banner || before.level != after.level) {
		h.MemberBannerChanged(member)
	}
	if h.MemberInputChanged != nil && before.input != after.input {
		h.MemberInputChanged(member, before.input, after.input)
	}
	if h.MemberMatchChanged != nil && before.inMatch != after.inMatch {
		h.MemberMatchChanged(member, after.inMatch)
	}
}

// partySnapshot captures the typed fields a party event can change.
type partySnapshot struct {
	privacy   Privacy
	playlist  Playlist
	customKey string
	squadFill bool
}

func snapshotParty(p *Party) partySnapshot {
	return partySnapshot{
		privacy:   p.Config().Privacy,
		playlist:  p.Playlist(),
		customKey: p.CustomKey(),
		squadFill: p.SquadFill(),
	}
}

func (h *Hooks) notifyPartyDiff(party *Party, before, after partySnapshot) {
	if h.PrivacyChanged != nil && before.privacy != after.privacy {
		h.PrivacyChanged(party, before.privacy, after.privacy)
	}
	if h.PlaylistChanged != nil && before.playlist != after.playlist {
		h.PlaylistChanged(party, before.playlist, after.playlist)
	}
	if h.CustomKeyChanged != nil && before.customKey != after.customKey {
		h.CustomKeyChanged(party, before.customKey, after.customKey)
	}
	if h.SquadFillChanged != nil && before.squadFill != after.squadFill {
		h.SquadFillChanged(party, before.squadFill, after.squadFill)
	}
}
