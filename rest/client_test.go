// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{BaseURL: "http://localhost:8080"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client == nil {
			t.Fatal("NewClient returned nil")
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		_, err := NewClient(ClientConfig{})
		if err == nil {
			t.Fatal("expected error for empty URL")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewClient(ClientConfig{BaseURL: "://invalid"})
		if err == nil {
			t.Fatal("expected error for invalid URL")
		}
	})
}

func TestRequest(t *testing.T) {
	t.Run("sends bearer token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if got := request.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Errorf("unexpected authorization header: %q", got)
			}
			writer.Header().Set("Content-Type", "application/json")
			writer.Write([]byte(`{}`))
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{BaseURL: server.URL, AuthToken: "test-token"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		if _, err := client.Request(context.Background(), http.MethodGet, "/anything", nil, nil); err != nil {
			t.Fatalf("Request failed: %v", err)
		}
	})

	t.Run("structured error becomes APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusNotFound)
			json.NewEncoder(writer).Encode(APIError{
				Code:    ErrCodePartyNotFound,
				Message: "Party abc does not exist.",
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{BaseURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		_, err = client.FetchParty(context.Background(), "abc")
		if err == nil {
			t.Fatal("expected error")
		}
		if !IsAPIError(err, ErrCodePartyNotFound) {
			t.Errorf("expected party_not_found error, got: %v", err)
		}
	})

	t.Run("non-structured error fails loud", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusBadGateway)
			writer.Write([]byte("<html>bad gateway</html>"))
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{BaseURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		_, err = client.Request(context.Background(), http.MethodGet, "/x", nil, nil)
		if err == nil {
			t.Fatal("expected error for 502 response")
		}
		if IsAPIError(err, ErrCodePartyNotFound) {
			t.Error("non-structured error must not parse as APIError")
		}
	})
}

func TestFetchParty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/party/api/v1/parties/party-1" {
			t.Errorf("unexpected path: %s", request.URL.Path)
			writer.WriteHeader(http.StatusNotFound)
			return
		}
		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(PartyData{
			ID:       "party-1",
			Revision: 7,
			Config:   PartyConfigData{MaxSize: 16, Joinability: "OPEN"},
			Members: []MemberData{
				{AccountID: "acct-1", Role: "CAPTAIN"},
			},
			Meta: map[string]string{"Default:PrivacySettings_j": `{"PrivacySettings":{}}`},
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	party, err := client.FetchParty(context.Background(), "party-1")
	if err != nil {
		t.Fatalf("FetchParty failed: %v", err)
	}

	if party.ID != "party-1" {
		t.Errorf("unexpected party ID: %s", party.ID)
	}
	if party.Revision != 7 {
		t.Errorf("unexpected revision: %d", party.Revision)
	}
	if len(party.Members) != 1 || party.Members[0].Role != "CAPTAIN" {
		t.Errorf("unexpected members: %+v", party.Members)
	}
}

func TestPatchMember(t *testing.T) {
	t.Run("sends revision and patch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.Method != http.MethodPatch {
				t.Errorf("unexpected method: %s", request.Method)
			}
			if request.URL.Path != "/party/api/v1/parties/party-1/members/acct-1/meta" {
				t.Errorf("unexpected path: %s", request.URL.Path)
			}

			var patch MemberPatchRequest
			if err := json.NewDecoder(request.Body).Decode(&patch); err != nil {
				t.Fatalf("failed to decode patch: %v", err)
			}
			if patch.Revision != 3 {
				t.Errorf("unexpected revision: %d", patch.Revision)
			}
			if patch.Update["Default:LobbyState_j"] == "" {
				t.Error("expected lobby state in update")
			}

			writer.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{BaseURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		err = client.PatchMember(context.Background(), "party-1", "acct-1", MemberPatchRequest{
			Delete:   []string{},
			Update:   map[string]string{"Default:LobbyState_j": `{"LobbyState":{"gameReadiness":"Ready"}}`},
			Revision: 3,
		})
		if err != nil {
			t.Fatalf("PatchMember failed: %v", err)
		}
	})

	t.Run("stale revision carries server revision", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusConflict)
			json.NewEncoder(writer).Encode(APIError{
				Code:    ErrCodeStaleRevision,
				Message: "Stale revision, current is 12",
				Vars:    []string{"party-1", "12"},
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{BaseURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		err = client.PatchMember(context.Background(), "party-1", "acct-1", MemberPatchRequest{Revision: 3})
		if err == nil {
			t.Fatal("expected stale revision error")
		}

		revision, ok := StaleRevision(err)
		if !ok {
			t.Fatalf("expected StaleRevision to parse, got: %v", err)
		}
		if revision != 12 {
			t.Errorf("unexpected server revision: %d", revision)
		}
	})
}

func TestSendInvite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/party/api/v1/parties/party-1/invites/acct-2" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		if request.URL.Query().Get("sendPing") != "true" {
			t.Errorf("expected sendPing=true, got query %q", request.URL.RawQuery)
		}
		writer.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if err := client.SendInvite(context.Background(), "party-1", "acct-2", true, nil); err != nil {
		t.Fatalf("SendInvite failed: %v", err)
	}
}

func TestAPIError(t *testing.T) {
	t.Run("error message format", func(t *testing.T) {
		err := &APIError{
			Code:       ErrCodeChangeForbidden,
			Message:    "Only the leader may do that",
			StatusCode: 403,
		}
		expected := "rest: errors.com.epicgames.social.party.party_change_forbidden (403): Only the leader may do that"
		if err.Error() != expected {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("IsAPIError", func(t *testing.T) {
		err := &APIError{Code: ErrCodePartyFull, StatusCode: 400}
		if !IsAPIError(err, ErrCodePartyFull) {
			t.Error("IsAPIError should match party_is_full")
		}
		if IsAPIError(err, ErrCodePartyNotFound) {
			t.Error("IsAPIError should not match party_not_found")
		}
	})

	t.Run("non-API error returns false", func(t *testing.T) {
		if IsAPIError(context.Canceled, ErrCodePartyNotFound) {
			t.Error("IsAPIError should return false for non-API errors")
		}
	})

	t.Run("StaleRevision on other codes", func(t *testing.T) {
		err := &APIError{Code: ErrCodePartyFull, Vars: []string{"x", "9"}}
		if _, ok := StaleRevision(err); ok {
			t.Error("StaleRevision should only parse stale_revision errors")
		}
	})

	t.Run("StaleRevision with missing vars", func(t *testing.T) {
		err := &APIError{Code: ErrCodeStaleRevision}
		if _, ok := StaleRevision(err); ok {
			t.Error("StaleRevision should fail without message vars")
		}
	})
}
