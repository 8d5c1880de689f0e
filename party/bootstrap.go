// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

import "encoding/json"

// NewPartyMeta returns the initial party-level meta for a created
// party: the privacy settings envelope under the vendor key the rest of
// the engine reads it back from.
func NewPartyMeta(privacy Privacy) map[string]string {
	envelope := struct {
		PrivacySettings PrivacySettings `json:"PrivacySettings"`
	}{privacy.Settings()}
	raw, err := json.Marshal(envelope)
	if err != nil {
		// The envelope is a fixed struct; this cannot fail.
		return map[string]string{}
	}
	return map[string]string{keyPrivacySettings: string(raw)}
}

// NewMemberMeta returns the initial member meta a joining member
// advertises to the roster.
func NewMemberMeta(displayName, platform string) map[string]string {
	return map[string]string{
		keyDisplayName: displayName,
		keyPlatform:    platform,
	}
}
