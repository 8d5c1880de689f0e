// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

// Privacy is the five-value ordered privacy preset, from fully public
// to fully private. Each preset expands to a fixed combination of
// vendor privacy settings.
type Privacy int

const (
	PrivacyPublic Privacy = iota
	PrivacyFriendsAllowFriendsOfFriends
	PrivacyFriends
	PrivacyPrivateAllowFriendsOfFriends
	PrivacyPrivate
)

// PrivacySettings is the expanded vendor representation of a Privacy
// preset, carried both in the party config and in its meta.
type PrivacySettings struct {
	PartyType                string `json:"partyType"`
	InviteRestriction        string `json:"partyInviteRestriction"`
	OnlyLeaderFriendsCanJoin bool   `json:"bOnlyLeaderFriendsCanJoin"`
	PresencePermission       string `json:"presencePermission"`
	InvitePermission         string `json:"invitePermission"`
	AcceptingMembers         bool   `json:"acceptingMembers"`
}

// Settings expands the preset into the vendor's privacy fields.
func (p Privacy) Settings() PrivacySettings {
	switch p {
	case PrivacyFriendsAllowFriendsOfFriends:
		return PrivacySettings{
			PartyType:          "FriendsOnly",
			InviteRestriction:  "AnyMember",
			PresencePermission: "Anyone",
			InvitePermission:   "AnyMember",
			AcceptingMembers:   true,
		}
	case PrivacyFriends:
		return PrivacySettings{
			PartyType:                "FriendsOnly",
			InviteRestriction:        "LeaderOnly",
			OnlyLeaderFriendsCanJoin: true,
			PresencePermission:       "Leader",
			InvitePermission:         "Leader",
		}
	case PrivacyPrivateAllowFriendsOfFriends:
		return PrivacySettings{
			PartyType:          "Private",
			InviteRestriction:  "AnyMember",
			PresencePermission: "Noone",
			InvitePermission:   "AnyMember",
		}
	case PrivacyPrivate:
		return PrivacySettings{
			PartyType:                "Private",
			InviteRestriction:        "LeaderOnly",
			OnlyLeaderFriendsCanJoin: true,
			PresencePermission:       "Noone",
			InvitePermission:         "Leader",
		}
	default:
		return PrivacySettings{
			PartyType:          "Public",
			InviteRestriction:  "AnyMember",
			PresencePermission: "Anyone",
			InvitePermission:   "Anyone",
			AcceptingMembers:   true,
		}
	}
}

// privacyFromSettings recovers the preset from expanded settings.
// Unrecognized combinations round to the nearest preset by party type.
func privacyFromSettings(settings PrivacySettings) Privacy {
	switch settings.PartyType {
	case "Public":
		return PrivacyPublic
	case "FriendsOnly":
		if settings.OnlyLeaderFriendsCanJoin {
			return PrivacyFriends
		}
		return PrivacyFriendsAllowFriendsOfFriends
	case "Private":
		if settings.OnlyLeaderFriendsCanJoin {
			return PrivacyPrivate
		}
		return PrivacyPrivateAllowFriendsOfFriends
	default:
		return PrivacyPublic
	}
}

func (p Privacy) String() string {
	switch p {
	case PrivacyPublic:
		return "public"
	case PrivacyFriendsAllowFriendsOfFriends:
		return "friends_allow_friends_of_friends"
	case PrivacyFriends:
		return "friends"
	case PrivacyPrivateAllowFriendsOfFriends:
		return "private_allow_friends_of_friends"
	case PrivacyPrivate:
		return "private"
	default:
		return "unknown"
	}
}

// PrivacyFromString parses the config-file spelling of a preset.
func PrivacyFromString(s string) (Privacy, bool) {
	for _, preset := range []Privacy{
		PrivacyPublic,
		PrivacyFriendsAllowFriendsOfFriends,
		PrivacyFriends,
		PrivacyPrivateAllowFriendsOfFriends,
		PrivacyPrivate,
	} {
		if preset.String() == s {
			return preset, true
		}
	}
	return PrivacyPublic, false
}

// ReadyState is a member's lobby readiness.
type ReadyState string

const (
	Ready      ReadyState = "Ready"
	NotReady   ReadyState = "NotReady"
	SittingOut ReadyState = "SittingOut"
)

// ConnectionState is a member's connection-health state. See
// Lifecycle for the transitions.
type ConnectionState int

const (
	// StateActive is the initial, healthy state.
	StateActive ConnectionState = iota
	// StateDisconnected is the grace period after the member's
	// realtime connection dropped ("zombie"). A reconnect returns the
	// member to StateActive; the offline TTL elapsing expires it.
	StateDisconnected
	// StateExpired is terminal; the member is removed from the roster
	// on entry.
	StateExpired
)

func (s ConnectionState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDisconnected:
		return "disconnected"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// roleLeader is the vendor's role tag for the party leader.
const roleLeader = "CAPTAIN"

// Known vendor meta keys. Only these are promoted to typed accessors
// and diffed notifications; everything else passes through opaquely.
const (
	// Member meta.
	keyCosmeticLoadout = "Default:AthenaCosmeticLoadout_j"
	keyFrontendEmote   = "Default:FrontendEmote_j"
	keyLobbyState      = "Default:LobbyState_j"
	keyBannerInfo      = "Default:AthenaBannerInfo_j"
	keyBattlePassInfo  = "Default:BattlePassInfo_j"
	keyInputType       = "Default:CurrentInputType_s"
	keyLocation        = "Default:Location_s"
	keyPlayersLeft     = "Default:NumAthenaPlayersLeft_U"
	keyMatchStartedAt  = "Default:UtcTimeStartedMatchAthena_s"
	keyDisplayName     = "Default:DisplayName_s"
	keyPlatform        = "Default:Platform_s"

	// Party meta.
	keyPrivacySettings  = "Default:PrivacySettings_j"
	keyPlaylistData     = "Default:PlaylistData_j"
	keyCustomMatchKey   = "Default:CustomMatchKey_s"
	keySquadFill        = "Default:AthenaSquadFill_b"
	keySquadAssignments = "Default:RawSquadAssignments_j"

	// Connection meta.
	keyOfflineTTL = "urn:epic:member:offline_ttl_i"
)
