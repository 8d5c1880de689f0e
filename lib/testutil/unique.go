// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer. Use this instead of time.Now() when
// tests need unique identifiers for account IDs, party IDs, or patch
// keys that must be distinguishable in shared fixtures.
//
//	accountID := testutil.UniqueID("account") // "account-1", "account-2", ...
//	partyID := testutil.UniqueID("party")     // "party-3", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
