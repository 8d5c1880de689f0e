// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/partyline/partyline/lib/testutil"
)

func TestParseEvent(t *testing.T) {
	t.Run("valid frame", func(t *testing.T) {
		frame := []byte(`{
			"type": "com.epicgames.social.party.notification.v0.MEMBER_JOINED",
			"party_id": "party-1",
			"account_id": "acct-2",
			"account_dn": "SomePlayer",
			"revision": 4
		}`)

		event, err := ParseEvent(frame)
		if err != nil {
			t.Fatalf("ParseEvent failed: %v", err)
		}
		if event.Type != TypeMemberJoined {
			t.Errorf("unexpected type: %s", event.Type)
		}
		if event.PartyID != "party-1" {
			t.Errorf("unexpected party ID: %s", event.PartyID)
		}

		var payload MemberJoinedPayload
		if err := event.Decode(&payload); err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if payload.DisplayName != "SomePlayer" {
			t.Errorf("unexpected display name: %s", payload.DisplayName)
		}
		if payload.Revision != 4 {
			t.Errorf("unexpected revision: %d", payload.Revision)
		}
	})

	t.Run("missing type tag", func(t *testing.T) {
		if _, err := ParseEvent([]byte(`{"party_id": "party-1"}`)); err == nil {
			t.Fatal("expected error for frame without type")
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		if _, err := ParseEvent([]byte(`{nope`)); err == nil {
			t.Fatal("expected error for malformed frame")
		}
	})
}

// feedServer upgrades incoming connections and passes them to handle,
// counting connections as they arrive.
func feedServer(t *testing.T, handle func(conn *websocket.Conn, connection int)) *httptest.Server {
	t.Helper()
	var upgrader websocket.Upgrader
	var connections atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		conn, err := upgrader.Upgrade(writer, request, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		handle(conn, int(connections.Add(1)))
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebsocketFeed_DeliversEvents(t *testing.T) {
	server := feedServer(t, func(conn *websocket.Conn, _ int) {
		defer conn.Close()
		frames := []string{
			`{"type":"` + TypeMemberJoined + `","party_id":"party-1","account_id":"acct-2"}`,
			`this is not json`,
			`{"type":"` + TypePartyUpdated + `","party_id":"party-1","revision":9}`,
		}
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		// Hold the connection open until the client closes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	feed, err := Dial(FeedConfig{URL: wsURL(server)})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer feed.Close()

	first := testutil.RequireReceive(t, feed.Events(), 5*time.Second, "first event")
	if first.Type != TypeMemberJoined {
		t.Errorf("unexpected first event: %s", first.Type)
	}

	// The malformed frame is dropped; the next delivery is the party
	// update.
	second := testutil.RequireReceive(t, feed.Events(), 5*time.Second, "second event")
	if second.Type != TypePartyUpdated {
		t.Errorf("unexpected second event: %s", second.Type)
	}
}

func TestWebsocketFeed_ResyncAfterReconnect(t *testing.T) {
	server := feedServer(t, func(conn *websocket.Conn, connection int) {
		defer conn.Close()
		if connection == 1 {
			// Drop the first connection immediately to force a
			// reconnect.
			return
		}
		frame := `{"type":"` + TypePing + `","account_id":"acct-9"}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	feed, err := Dial(FeedConfig{URL: wsURL(server)})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer feed.Close()

	testutil.RequireReceive(t, feed.Resyncs(), 10*time.Second, "resync signal")

	event := testutil.RequireReceive(t, feed.Events(), 5*time.Second, "event after reconnect")
	if event.Type != TypePing {
		t.Errorf("unexpected event: %s", event.Type)
	}
}

func TestWebsocketFeed_CloseShutsDownChannels(t *testing.T) {
	server := feedServer(t, func(conn *websocket.Conn, _ int) {
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	feed, err := Dial(FeedConfig{URL: wsURL(server)})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	if err := feed.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Both channels close after shutdown.
	if _, ok := <-feed.Events(); ok {
		t.Error("events channel should be closed")
	}
	if _, ok := <-feed.Resyncs(); ok {
		t.Error("resyncs channel should be closed")
	}

	// Close is idempotent.
	if err := feed.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestDial_BadURL(t *testing.T) {
	if _, err := Dial(FeedConfig{}); err == nil {
		t.Fatal("expected error for missing URL")
	}
	if _, err := Dial(FeedConfig{URL: "ws://127.0.0.1:1"}); err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
}
