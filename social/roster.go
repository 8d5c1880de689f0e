// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package social

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/partyline/partyline/rest"
)

// Friend is one accepted entry in the local user's roster.
type Friend struct {
	ID          string
	DisplayName string
	Platform    string
	Favorite    bool
	Since       time.Time
}

// Presence is the latest known presence for an account.
type Presence struct {
	Online   bool
	LastSeen time.Time
}

// Hooks are the roster's notification callbacks. Fields are optional.
type Hooks struct {
	// FriendOnline fires when an accepted friend transitions to
	// online.
	FriendOnline func(friend Friend)
	// FriendOffline fires when an accepted friend transitions to
	// offline.
	FriendOffline func(friend Friend, lastSeen time.Time)
	// FriendMessage fires for each received direct chat message.
	FriendMessage func(message *FriendMessage)
}

// API is the slice of the friends service the roster drives.
// Implemented by *rest.Client.
type API interface {
	FetchFriends(ctx context.Context, accountID string) ([]rest.FriendData, error)
	AddFriend(ctx context.Context, accountID, friendID string) error
	RemoveFriend(ctx context.Context, accountID, friendID string) error
	SendWhisper(ctx context.Context, accountID, body string) error
}

// DefaultPresenceCacheSize bounds the presence cache. Presence arrives
// for anyone the vendor considers relevant, not just friends, so the
// cache is capped rather than grown without bound.
const DefaultPresenceCacheSize = 1024

// Roster is the friend list plus presence tracking.
type Roster struct {
	api    API
	selfID string
	logger *slog.Logger
	hooks  Hooks

	mu       sync.Mutex
	friends  map[string]Friend
	pending  map[string]Friend
	presence *lru.Cache[string, Presence]
}

// RosterConfig configures a Roster.
type RosterConfig struct {
	// API is the friends service client. Required.
	API API
	// SelfID is the local user's account ID. Required.
	SelfID string
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// Hooks receives presence notifications. Optional.
	Hooks Hooks
	// PresenceCacheSize bounds the presence cache. Zero means
	// DefaultPresenceCacheSize.
	PresenceCacheSize int
}

// NewRoster creates an empty roster. Call Refresh to populate it.
func NewRoster(config RosterConfig) (*Roster, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	size := config.PresenceCacheSize
	if size <= 0 {
		size = DefaultPresenceCacheSize
	}
	cache, err := lru.New[string, Presence](size)
	if err != nil {
		return nil, fmt.Errorf("social: creating presence cache: %w", err)
	}
	return &Roster{
		api:      config.API,
		selfID:   config.SelfID,
		logger:   logger,
		hooks:    config.Hooks,
		friends:  make(map[string]Friend),
		pending:  make(map[string]Friend),
		presence: cache,
	}, nil
}

func friendFromData(data rest.FriendData) Friend {
	return Friend{
		ID:          data.AccountID,
		DisplayName: data.DisplayName,
		Platform:    data.Platform,
		Favorite:    data.Favorite,
		Since:       data.Created,
	}
}

// Refresh replaces the roster from a full fetch. Entries with an
// ACCEPTED status become friends; anything else is a pending request.
func (r *Roster) Refresh(ctx context.Context) error {
	entries, err := r.api.FetchFriends(ctx, r.selfID)
	if err != nil {
		return fmt.Errorf("social: refreshing roster: %w", err)
	}

	friends := make(map[string]Friend, len(entries))
	pending := make(map[string]Friend)
	for _, entry := range entries {
		if entry.Status == "ACCEPTED" {
			friends[entry.AccountID] = friendFromData(entry)
		} else {
			pending[entry.AccountID] = friendFromData(entry)
		}
	}

	r.mu.Lock()
	r.friends = friends
	r.pending = pending
	r.mu.Unlock()

	r.logger.Debug("roster refreshed",
		"friends", len(friends),
		"pending", len(pending),
	)
	return nil
}

// Friends returns the accepted friends, sorted by account ID.
func (r *Roster) Friends() []Friend {
	r.mu.Lock()
	defer r.mu.Unlock()
	friends := make([]Friend, 0, len(r.friends))
	for _, friend := range r.friends {
		friends = append(friends, friend)
	}
	sort.Slice(friends, func(i, j int) bool { return friends[i].ID < friends[j].ID })
	return friends
}

// Friend returns an accepted friend by account ID.
func (r *Roster) Friend(id string) (Friend, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	friend, ok := r.friends[id]
	return friend, ok
}

// Pending returns the pending requests, sorted by account ID.
func (r *Roster) Pending() []Friend {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending := make([]Friend, 0, len(r.pending))
	for _, friend := range r.pending {
		pending = append(pending, friend)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending
}

// Add sends a friend request to the account, or accepts a pending
// incoming one (the friends service treats both as the same write).
// The roster updates on the next Refresh or presence event; the
// service does not echo the resulting state here.
func (r *Roster) Add(ctx context.Context, friendID string) error {
	if err := r.api.AddFriend(ctx, r.selfID, friendID); err != nil {
		if rest.IsAPIError(err, rest.ErrCodeFriendshipExists) {
			return nil
		}
		return fmt.Errorf("social: adding friend %s: %w", friendID, err)
	}
	return nil
}

// Remove removes a friend, or declines/cancels a pending request.
func (r *Roster) Remove(ctx context.Context, friendID string) error {
	if err := r.api.RemoveFriend(ctx, r.selfID, friendID); err != nil {
		if !rest.IsAPIError(err, rest.ErrCodeFriendNotFound) {
			return fmt.Errorf("social: removing friend %s: %w", friendID, err)
		}
	}
	r.mu.Lock()
	delete(r.friends, friendID)
	delete(r.pending, friendID)
	r.mu.Unlock()
	return nil
}
