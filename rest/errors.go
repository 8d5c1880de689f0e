// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package rest

import (
	"errors"
	"fmt"
	"strconv"
)

// APIError represents a structured error response from the vendor's
// social services. Callers can use errors.As to extract the structured
// information:
//
//	var apiErr *rest.APIError
//	if errors.As(err, &apiErr) {
//	    if apiErr.Code == rest.ErrCodePartyNotFound { ... }
//	}
type APIError struct {
	// Code is the vendor error code
	// (e.g., "errors.com.epicgames.social.party.stale_revision").
	Code string `json:"errorCode"`
	// Message is the human-readable error description from the server.
	Message string `json:"errorMessage"`
	// Vars carries the positional message variables the server
	// interpolates into Message. Some codes carry machine-readable
	// state here (the stale_revision code carries the server's
	// current revision in Vars[1]).
	Vars []string `json:"messageVars"`
	// NumericCode is the vendor's numeric error identifier.
	NumericCode int `json:"numericErrorCode"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rest: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Vendor error codes for the party and friends services.
const (
	ErrCodeStaleRevision     = "errors.com.epicgames.social.party.stale_revision"
	ErrCodePartyNotFound     = "errors.com.epicgames.social.party.party_not_found"
	ErrCodeMemberNotFound    = "errors.com.epicgames.social.party.member_not_found"
	ErrCodePartyFull         = "errors.com.epicgames.social.party.party_is_full"
	ErrCodeChangeForbidden   = "errors.com.epicgames.social.party.party_change_forbidden"
	ErrCodeApplicantNotFound = "errors.com.epicgames.social.party.applicant_not_found"
	ErrCodeUserHasParty      = "errors.com.epicgames.social.party.user_has_party"
	ErrCodeUserOffline       = "errors.com.epicgames.social.party.user_is_offline"
	ErrCodePingNotFound      = "errors.com.epicgames.social.party.ping_not_found"
	ErrCodeInviteExists      = "errors.com.epicgames.social.party.invite_already_exists"
	ErrCodeInviteForbidden   = "errors.com.epicgames.social.party.invite_forbidden"
	ErrCodeFriendshipExists  = "errors.com.epicgames.friends.friendship_already_exists"
	ErrCodeFriendNotFound    = "errors.com.epicgames.friends.friendship_not_found"
)

// IsAPIError checks whether err is an *APIError with the given error code.
func IsAPIError(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// StaleRevision extracts the server's current revision from a
// stale_revision error. Returns false if err is not a stale_revision
// error or the revision variable is missing or unparsable.
func StaleRevision(err error) (int64, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != ErrCodeStaleRevision {
		return 0, false
	}
	if len(apiErr.Vars) < 2 {
		return 0, false
	}
	revision, parseErr := strconv.ParseInt(apiErr.Vars[1], 10, 64)
	if parseErr != nil {
		return 0, false
	}
	return revision, true
}
